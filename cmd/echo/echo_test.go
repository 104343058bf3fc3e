package echo

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/transport"

	"github.com/urfave/cli/v3"
)

// runWith executes the echo action with args and a fake server.
func runWith(t *testing.T, args []string, serve runFunc) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := &cli.Command{
		Name:  "echo",
		Flags: getFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cmd, &out, serve)
		},
	}

	err := cmd.Run(context.Background(), append([]string{"echo"}, args...))
	return out.String(), err
}

func TestRun_Usage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"missing port", nil},
		{"two ports", []string{"777", "778"}},
		{"not a port", []string{"http"}},
		{"port out of range", []string{"70000"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			served := false
			out, err := runWith(t, tc.args, func(context.Context, *config.Shared, *config.Echo) error {
				served = true
				return nil
			})

			if !errors.Is(err, errUsage) {
				t.Errorf("run() error = %v, want errUsage", err)
			}
			if served {
				t.Error("server started despite invalid arguments")
			}
			if !strings.Contains(out, "usage: echo port") || !strings.Contains(out, "Example: netdemo echo 777") {
				t.Errorf("usage not printed:\n%s", out)
			}
		})
	}
}

func TestRun_BuildsConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		args     []string
		wantHost string
		wantPort int
		want     config.Echo
	}{
		{
			name:     "bare port",
			args:     []string{"777"},
			wantPort: 777,
			want:     config.Echo{Protocol: config.ProtoTCP},
		},
		{
			name:     "transport overrides host",
			args:     []string{"--host", "0.0.0.0", "ws://127.0.0.1:8080"},
			wantHost: "127.0.0.1",
			wantPort: 8080,
			want:     config.Echo{Protocol: config.ProtoWS},
		},
		{
			name:     "all options",
			args:     []string{"--ssl", "--key", "secret", "--max-conns", "10", "--log", "/tmp/t.log", "udp://*:9000"},
			wantPort: 9000,
			want:     config.Echo{Protocol: config.ProtoUDP, SSL: true, Key: "secret", MaxConns: 10, LogFile: "/tmp/t.log"},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var gotCfg *config.Shared
			var gotECfg *config.Echo
			out, err := runWith(t, tc.args, func(_ context.Context, cfg *config.Shared, eCfg *config.Echo) error {
				gotCfg, gotECfg = cfg, eCfg
				return nil
			})
			if err != nil {
				t.Fatalf("run() error = %v", err)
			}

			if !strings.Contains(out, "This demo shows how to set up an echo server") {
				t.Errorf("banner not printed:\n%s", out)
			}
			if gotCfg.Host != tc.wantHost || gotCfg.Port != tc.wantPort {
				t.Errorf("address = %q:%d, want %q:%d", gotCfg.Host, gotCfg.Port, tc.wantHost, tc.wantPort)
			}
			if *gotECfg != tc.want {
				t.Errorf("echo config = %+v, want %+v", *gotECfg, tc.want)
			}
		})
	}
}

func TestRun_ValidationErrors(t *testing.T) {
	t.Parallel()

	served := false
	_, err := runWith(t, []string{"--key", "secret", "777"}, func(context.Context, *config.Shared, *config.Echo) error {
		served = true
		return nil
	})

	if err == nil || errors.Is(err, errUsage) {
		t.Errorf("run() error = %v, want validation error", err)
	}
	if served {
		t.Error("server started despite '--key' without '--ssl'")
	}
}

func TestRun_PropagatesBindError(t *testing.T) {
	t.Parallel()

	bindErr := transport.NewBindError("tcp", ":777", errors.New("address already in use"))
	_, err := runWith(t, []string{"777"}, func(context.Context, *config.Shared, *config.Echo) error {
		return bindErr
	})

	var be *transport.BindError
	if !errors.As(err, &be) {
		t.Errorf("run() error = %v, want *transport.BindError", err)
	}
}
