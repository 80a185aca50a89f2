//go:build !unix

package store

import "os"

// Non-unix platforms fall back to in-process locking only. The deployment
// target is a single Linux host; this keeps local development possible
// elsewhere without a cross-process guarantee.

func flockShared(_ *os.File) error { return nil }

func flockExclusive(_ *os.File) error { return nil }

func flockRelease(_ *os.File) error { return nil }
