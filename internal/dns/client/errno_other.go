//go:build !unix

package client

import (
	"errors"
	"syscall"
)

// Errno extracts the platform error number carried by err.
func Errno(err error) (int, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return int(errno), true
	}
	return 0, false
}

func isErrnoTimeout(error) bool {
	return false
}
