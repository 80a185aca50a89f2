//go:build unix

package store

import (
	"os"

	"golang.org/x/sys/unix"
)

// Advisory file locks serialize access across processes sharing the data
// file. Within the process the store's RWMutex already serializes callers.

func flockShared(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_SH)
}

func flockExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func flockRelease(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
