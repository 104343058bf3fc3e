//go:build unix

package udp

import (
	"golang.org/x/sys/unix"
)

// setSockoptRecvBuffer sets SO_RCVBUF on the socket.
// Unix version (Linux, macOS, BSD, etc.)
func setSockoptRecvBuffer(fd uintptr, size int) error {
	return unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, size)
}
