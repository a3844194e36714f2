//go:build unix

package client

import (
	"errors"

	"golang.org/x/sys/unix"
)

// Errno extracts the platform error number carried by err.
func Errno(err error) (int, bool) {
	var errno unix.Errno
	if errors.As(err, &errno) && errno != 0 {
		return int(errno), true
	}
	return 0, false
}

// A socket receive timeout surfaces as EAGAIN/EWOULDBLOCK.
func isErrnoTimeout(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK)
}
