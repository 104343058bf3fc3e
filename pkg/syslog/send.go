package syslog

import (
	"context"

	"dominicbreuker/netdemo/pkg/transport/udp"
)

// Send writes rec to addr as a single UDP datagram.
func Send(ctx context.Context, addr string, rec Record) error {
	return udp.Send(ctx, addr, rec.Bytes())
}
