// Package syslog provides the syslog command, which receives or sends
// syslog datagrams.
package syslog

import (
	"dominicbreuker/netdemo/cmd/sysloglisten"
	"dominicbreuker/netdemo/cmd/syslogsend"

	"github.com/urfave/cli/v3"
)

// GetCommand returns the CLI command for the syslog service with its subcommands.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:  "syslog",
		Usage: "Receive or send syslog messages over UDP",
		Commands: []*cli.Command{
			sysloglisten.GetCommand(),
			syslogsend.GetCommand(),
		},
	}
}
