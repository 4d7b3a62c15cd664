// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package hpkp

import (
	"fmt"
	"os"

	"github.com/gofrs/flock"
)

// lockWriter takes an exclusive advisory lock on the database file itself,
// opened with flag. Passing os.O_CREATE creates the file with the store's
// file mode but never truncates it. The returned function releases the lock.
func (s *Store) lockWriter(path string, flag int) (func(), error) {
	if !s.lockFile {
		return func() {}, nil
	}

	fl := flock.New(path, flock.SetFlag(flag), flock.SetPermissions(s.fileMode))
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("%w: %w: %w", ErrFileOpen, ErrLockFailed, err)
	}
	return s.unlocker(fl), nil
}

// lockReader takes a shared advisory lock on an existing database file. It
// opens the file read-only and creates nothing, so a database in a
// read-only directory can still be loaded. A failure is logged and the
// caller proceeds unlocked.
func (s *Store) lockReader(path string) func() {
	if !s.lockFile {
		return func() {}
	}

	fl := flock.New(path, flock.SetFlag(os.O_RDONLY))
	if err := fl.RLock(); err != nil {
		s.logger.Warn("failed to take shared database lock, reading unlocked", "path", path, "error", err)
		return func() {}
	}
	return s.unlocker(fl)
}

func (s *Store) unlocker(fl *flock.Flock) func() {
	return func() {
		if err := fl.Unlock(); err != nil {
			s.logger.Warn("failed to release database lock", "path", fl.Path(), "error", err)
		}
	}
}
