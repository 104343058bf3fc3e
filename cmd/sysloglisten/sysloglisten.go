// Package sysloglisten implements the syslog listen command, which prints
// every syslog message received on a UDP port.
package sysloglisten

import (
	"context"
	"fmt"
	"time"

	"dominicbreuker/netdemo/cmd/shared"
	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/entrypoint"

	"github.com/urfave/cli/v3"
)

// pollInterval bounds how long a stop request waits for the receive loop.
const pollInterval = 250 * time.Millisecond

// GetCommand returns the CLI command for the syslog receiver.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "listen",
		Usage: "Print syslog messages received over UDP",
		Description: "Runs until a key is pressed on the controlling terminal or the process is interrupted.\n" +
			"Malformed datagrams are logged and dropped.",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, sCfg := buildConfig(cmd)

			if shared.ReportValidationErrors(cfg.Logger, config.Validate(cfg, sCfg)) {
				return fmt.Errorf("exiting")
			}

			return entrypoint.SyslogListen(ctx, cfg, sCfg)
		},
		Flags: getFlags(),
	}
}

func buildConfig(cmd *cli.Command) (*config.Shared, *config.Syslog) {
	cfg := shared.SharedConfig(cmd, int(cmd.Int(shared.PortFlag)))

	sCfg := &config.Syslog{
		MaxDatagramSize: int(cmd.Int(shared.MaxSizeFlag)),
		PollInterval:    pollInterval,
		RecvBuffer:      int(cmd.Int(shared.RecvBufferFlag)),
	}

	return cfg, sCfg
}

func getFlags() []cli.Flag {
	flags := []cli.Flag{}

	flags = append(flags, shared.GetCommonFlags()...)
	flags = append(flags, shared.GetSyslogListenFlags()...)

	return flags
}
