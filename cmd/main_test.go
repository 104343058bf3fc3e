package main

import (
	"errors"
	"fmt"
	"testing"

	"dominicbreuker/netdemo/pkg/transport"
)

func TestNewCommand(t *testing.T) {
	t.Parallel()

	cmd := newCommand()
	if cmd.Name != "netdemo" {
		t.Errorf("command name = %q; want %q", cmd.Name, "netdemo")
	}

	want := map[string]bool{"syslog": false, "echo": false, "version": false}
	for _, sub := range cmd.Commands {
		want[sub.Name] = true
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not found", name)
		}
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	bindErr := transport.NewBindError("udp", ":514", errors.New("permission denied"))

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"bind error", bindErr, 1},
		{"wrapped bind error", fmt.Errorf("starting: %w", bindErr), 1},
		{"usage", errors.New("exiting"), 2},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := exitCode(tc.err); got != tc.want {
				t.Errorf("exitCode(%v) = %d, want %d", tc.err, got, tc.want)
			}
		})
	}
}
