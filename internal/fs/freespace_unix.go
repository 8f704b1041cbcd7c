//go:build linux || darwin || freebsd

package fs

import (
	"golang.org/x/sys/unix"
)

func freeSpace(dir string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return Unknown, err
	}
	// Bavail, not Bfree: blocks reserved for root are not writable by us.
	return int64(uint64(st.Bavail) * uint64(st.Bsize)), nil
}
