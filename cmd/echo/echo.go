// Package echo implements the echo command, which runs the echo/broadcast
// server together with its operator console.
package echo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"dominicbreuker/netdemo/cmd/shared"
	"dominicbreuker/netdemo/pkg/config"
	"dominicbreuker/netdemo/pkg/entrypoint"

	"github.com/urfave/cli/v3"
)

// errUsage is returned after the usage text has been printed.
var errUsage = errors.New("exiting")

const usage = `usage: echo port

  port    the TCP port in the local host where the component listens
          (or a transport like ws://*:777, supports tcp|ws|wss|udp)

Example: netdemo echo 777
`

var banner = strings.Join([]string{
	strings.Repeat("*", 89),
	"* This demo shows how to set up an echo server on your computer. By default, the server *",
	"* will operate in plaintext. If SSL is desired, use --ssl with --cert and --cert-key.   *",
	strings.Repeat("*", 89),
}, "\n") + "\n"

// GetCommand returns the CLI command for the echo server.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "echo",
		Usage:     "Echo bytes back to TCP clients and broadcast lines to all of them",
		ArgsUsage: "port",
		Description: "Console commands: 1 sends a line to every client, 2 stops the server.\n" +
			"Clients receive their own bytes back unchanged.",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(ctx, cmd, os.Stdout, entrypoint.Echo)
		},
		Flags: getFlags(),
	}
}

type runFunc func(ctx context.Context, cfg *config.Shared, eCfg *config.Echo) error

func run(ctx context.Context, cmd *cli.Command, out io.Writer, serve runFunc) error {
	fmt.Fprint(out, banner)

	cfg, eCfg, err := buildConfig(cmd)
	if err != nil {
		fmt.Fprint(out, usage)
		return errUsage
	}

	if shared.ReportValidationErrors(cfg.Logger, config.Validate(cfg, eCfg)) {
		return fmt.Errorf("exiting")
	}

	return serve(ctx, cfg, eCfg)
}

func buildConfig(cmd *cli.Command) (*config.Shared, *config.Echo, error) {
	args := cmd.Args()
	if args.Len() != 1 {
		return nil, nil, fmt.Errorf("must provide exactly one argument, got %d", args.Len())
	}

	proto, host, port, err := shared.ParseListenArg(args.Get(0))
	if err != nil {
		return nil, nil, err
	}

	cfg := shared.SharedConfig(cmd, port)
	if host != "" {
		cfg.Host = host
	}

	eCfg := &config.Echo{
		Protocol: proto,
		SSL:      cmd.Bool(shared.SSLFlag),
		Key:      cmd.String(shared.KeyFlag),
		CertFile: cmd.String(shared.CertFlag),
		KeyFile:  cmd.String(shared.CertKeyFlag),
		MaxConns: int(cmd.Int(shared.MaxConnsFlag)),
		LogFile:  cmd.String(shared.LogFileFlag),
	}

	return cfg, eCfg, nil
}

func getFlags() []cli.Flag {
	flags := []cli.Flag{}

	flags = append(flags, shared.GetCommonFlags()...)
	flags = append(flags, shared.GetEchoFlags()...)

	return flags
}
