//go:build windows

package udp

import (
	"golang.org/x/sys/windows"
)

// setSockoptRecvBuffer sets SO_RCVBUF on the socket.
// Windows version (uses windows.Handle for file descriptor)
func setSockoptRecvBuffer(fd uintptr, size int) error {
	return windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_RCVBUF, size)
}
