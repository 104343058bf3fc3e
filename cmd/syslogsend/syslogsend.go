// Package syslogsend implements the syslog send command, which sends one
// message to a syslog receiver.
package syslogsend

import (
	"context"
	"fmt"
	"strings"

	"dominicbreuker/netdemo/cmd/shared"
	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/entrypoint"
	"dominicbreuker/netdemo/pkg/syslog"

	"github.com/urfave/cli/v3"
)

// GetCommand returns the CLI command for sending a syslog message.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send a syslog message over UDP",
		ArgsUsage: "message...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, snd, errs := buildConfig(cmd)
			if cfg.Host == "" {
				cfg.Host = "127.0.0.1"
			}

			errs = append(errs, config.Validate(cfg, snd)...)
			if shared.ReportValidationErrors(cfg.Logger, errs) {
				return fmt.Errorf("exiting")
			}

			return entrypoint.SyslogSend(ctx, cfg, snd)
		},
		Flags: getFlags(),
	}
}

func buildConfig(cmd *cli.Command) (*config.Shared, *config.Send, []error) {
	var errs []error

	cfg := shared.SharedConfig(cmd, int(cmd.Int(shared.PortFlag)))

	facility, err := syslog.ParseFacility(cmd.String(shared.FacilityFlag))
	if err != nil {
		errs = append(errs, err)
	}
	severity, err := syslog.ParseSeverity(cmd.String(shared.SeverityFlag))
	if err != nil {
		errs = append(errs, err)
	}

	snd := &config.Send{
		Facility: int(facility),
		Severity: int(severity),
		Hostname: cmd.String(shared.HostnameFlag),
		Message:  strings.Join(cmd.Args().Slice(), " "),
	}

	return cfg, snd, errs
}

func getFlags() []cli.Flag {
	flags := []cli.Flag{}

	flags = append(flags, shared.GetCommonFlags()...)
	flags = append(flags, shared.GetSyslogSendFlags()...)

	return flags
}
