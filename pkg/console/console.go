// Package console implements the operator console of the echo server: a
// line-oriented command loop on the controlling terminal.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"dominicbreuker/netdemo/pkg/log"
)

const (
	menu       = "\r\nPlease input command: \r\n- 1 Send Data \r\n- 2 Exit\n"
	prompt     = ">"
	askData    = "Please input sending data: "
	sentOK     = "Sending success.\n"
	noClients  = "\r\nNo connected client.\n"
	cmdSend    = '1'
	cmdExit    = '2'
	failedSend = "Sending failed for %d client(s).\n"
)

// Broadcaster sends a line to every connected client and returns how many
// received it.
type Broadcaster interface {
	BroadcastLine(text string) (int, error)
}

// Console reads commands from stdio and drives a Broadcaster.
type Console struct {
	stdio  io.ReadWriteCloser
	in     *bufio.Reader
	b      Broadcaster
	stop   func() error
	logger *log.Logger
}

// New creates a console. stop is called when the operator chooses to exit.
// logger may be nil.
func New(stdio io.ReadWriteCloser, b Broadcaster, stop func() error, logger *log.Logger) *Console {
	return &Console{
		stdio:  stdio,
		in:     bufio.NewReader(stdio),
		b:      b,
		stop:   stop,
		logger: logger,
	}
}

// Run shows the menu and processes commands until the operator exits, stdin
// ends or ctx is cancelled. Only the exit command calls stop; the result of
// stop is returned. When stdin ends Run returns nil and leaves the server
// running. When ctx is cancelled the pending read is interrupted and
// ctx.Err() is returned.
func (c *Console) Run(ctx context.Context) error {
	unblock := context.AfterFunc(ctx, func() { c.stdio.Close() })
	defer unblock()

	c.print(menu + prompt)

	for {
		line, err := c.readLine()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil && line == "" {
			if errors.Is(err, io.EOF) {
				c.logger.VerboseMsg("Console input closed")
				return nil
			}
			return fmt.Errorf("reading command: %w", err)
		}

		switch command(line) {
		case cmdSend:
			text, rerr := c.ask(askData)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if rerr != nil && text == "" {
				if errors.Is(rerr, io.EOF) {
					return nil
				}
				return fmt.Errorf("reading data: %w", rerr)
			}
			c.send(text)
		case cmdExit:
			return c.stop()
		}

		c.print(menu + prompt)

		if err != nil {
			// last line had no newline
			return nil
		}
	}
}

// send broadcasts text and reports the outcome.
func (c *Console) send(text string) {
	sent, err := c.b.BroadcastLine(text)

	if failed := countErrors(err); failed > 0 {
		c.print(fmt.Sprintf(failedSend, failed))
	}

	switch {
	case sent > 0:
		c.print(sentOK)
	case err == nil:
		c.print(noClients)
	}
}

func (c *Console) ask(question string) (string, error) {
	c.print(question)
	return c.readLine()
}

// readLine returns the next line without its line terminator.
func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	return strings.TrimRight(line, "\r\n"), err
}

func (c *Console) print(s string) {
	if _, err := io.WriteString(c.stdio, s); err != nil {
		c.logger.VerboseMsg("Writing to console: %s", err)
	}
}

// command is the first non-blank character of line, or 0 for a blank line.
func command(line string) byte {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0
	}
	return line[0]
}

func countErrors(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}
