//go:build !linux && !darwin && !freebsd && !windows

package fs

import "errors"

func freeSpace(dir string) (int64, error) {
	return Unknown, errors.New("free space is not supported on this platform")
}
