package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"dominicbreuker/netdemo/cmd/echo"
	"dominicbreuker/netdemo/cmd/shared"
	"dominicbreuker/netdemo/cmd/syslog"
	"dominicbreuker/netdemo/cmd/version"
	"dominicbreuker/netdemo/pkg/transport"

	"github.com/urfave/cli/v3"
)

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "netdemo",
		Usage: "syslog receiver and TCP echo/broadcast server",
		Commands: []*cli.Command{
			syslog.GetCommand(),
			echo.GetCommand(),
			version.GetCommand(),
		},
	}
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	shared.SetupSignalHandling(cancel)

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "[!] Error: %s\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps failures to the process exit status.
func exitCode(err error) int {
	var be *transport.BindError
	if errors.As(err, &be) {
		return 1
	}
	return 2
}
