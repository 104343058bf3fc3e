package shared

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dominicbreuker/netdemo/pkg/log"

	"github.com/urfave/cli/v3"
)

func flagNames(flags []cli.Flag) map[string]bool {
	names := make(map[string]bool)
	for _, flag := range flags {
		if n := flag.Names(); len(n) > 0 {
			names[n[0]] = true
		}
	}
	return names
}

func TestFlagSets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		flags []cli.Flag
		want  []string
	}{
		{"common", GetCommonFlags(), []string{HostFlag, VerboseFlag, TimeoutFlag, MetricsFlag}},
		{"syslog listen", GetSyslogListenFlags(), []string{PortFlag, MaxSizeFlag, RecvBufferFlag}},
		{"syslog send", GetSyslogSendFlags(), []string{PortFlag, FacilityFlag, SeverityFlag, HostnameFlag}},
		{"echo", GetEchoFlags(), []string{SSLFlag, KeyFlag, CertFlag, CertKeyFlag, MaxConnsFlag, LogFileFlag}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			names := flagNames(tc.flags)
			if len(names) != len(tc.want) {
				t.Errorf("got %d flags, want %d", len(names), len(tc.want))
			}
			for _, name := range tc.want {
				if !names[name] {
					t.Errorf("expected flag %q not found", name)
				}
			}
		})
	}
}

func TestSharedConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		args        []string
		wantHost    string
		wantTimeout time.Duration
		wantMetrics string
		wantVerbose bool
	}{
		{
			name:        "defaults",
			args:        []string{"test"},
			wantTimeout: 10 * time.Second,
		},
		{
			name:        "all set",
			args:        []string{"test", "--host", "127.0.0.1", "-t", "250", "--metrics", ":9100", "-v"},
			wantHost:    "127.0.0.1",
			wantTimeout: 250 * time.Millisecond,
			wantMetrics: ":9100",
			wantVerbose: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var ran bool
			cmd := &cli.Command{
				Name:  "test",
				Flags: GetCommonFlags(),
				Action: func(ctx context.Context, cmd *cli.Command) error {
					ran = true
					cfg := SharedConfig(cmd, 514)

					if cfg.Host != tc.wantHost || cfg.Port != 514 || cfg.Timeout != tc.wantTimeout ||
						cfg.Metrics != tc.wantMetrics || cfg.Verbose != tc.wantVerbose {
						t.Errorf("SharedConfig() = %+v", cfg)
					}
					if cfg.Logger == nil || cfg.Logger.IsVerbose() != tc.wantVerbose {
						t.Error("logger not configured from --verbose")
					}
					return nil
				},
			}

			if err := cmd.Run(context.Background(), tc.args); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if !ran {
				t.Fatal("action did not run")
			}
		})
	}
}

func TestReportValidationErrors(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	logger := log.NewLoggerTo(&out, false)

	if ReportValidationErrors(logger, nil) {
		t.Error("ReportValidationErrors(nil) = true, want false")
	}
	if out.Len() != 0 {
		t.Errorf("output without errors: %q", out.String())
	}

	if !ReportValidationErrors(logger, []error{errors.New("first problem"), errors.New("second problem")}) {
		t.Error("ReportValidationErrors() = false, want true")
	}
	for _, want := range []string{"Argument validation errors:", " - first problem", " - second problem"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output does not contain %q:\n%s", want, out.String())
		}
	}
}
