// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package hpkp

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Database file format constants.
const (
	// versionLine is the only supported format version marker.
	versionLine = "version 1"

	// hashSHA256 tags every pin line. No other algorithm is supported.
	hashSHA256 = "sha-256"
)

// fileHeader is written ahead of the version line. Readers skip it.
var fileHeader = []string{
	"# HTTP Public Key Pinning database (RFC 7469)",
	"# Generated by go-hpkp",
	"# MODIFY AT YOUR OWN RISK",
}

// Save writes the store to path and returns the number of pins written.
//
// An existing file is overwritten in place. When the store is empty an
// existing database is removed instead, following a symbolic link to remove
// its target, so no stale file is left behind. Entries without pins are
// skipped. Unless file locking is disabled, the database file itself is
// locked exclusively while it is written or removed; no lock file is kept.
//
// ErrFileOpen is returned if the file cannot be opened for writing and
// ErrNotRegularFile if path is neither a regular file nor a symbolic link.
func (s *Store) Save(path string) (int, error) {
	if path == "" {
		return 0, ErrInvalidPath
	}
	if !s.usable() {
		return 0, ErrStoreClosed
	}

	info, statErr := os.Lstat(path)
	exists := statErr == nil
	if exists && !info.Mode().IsRegular() && info.Mode()&fs.ModeSymlink == 0 {
		s.logger.Error("target not a regular file or symbolic link", "path", path, "mode", info.Mode().String())
		return 0, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}

	// Emptiness and output come from one snapshot so a concurrent removal
	// cannot turn a delete into a header-only file.
	entries := s.snapshot()
	if len(entries) == 0 {
		if !exists {
			return 0, nil
		}
		// Read-only open: a dangling symlink must not be turned into a file.
		unlock, err := s.lockWriter(path, os.O_RDONLY)
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		defer unlock()
		return 0, s.removeDatabase(path, info)
	}

	unlock, err := s.lockWriter(path, os.O_WRONLY|os.O_CREATE)
	if err != nil {
		return 0, err
	}
	defer unlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, s.fileMode)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrFileOpen, err)
	}

	w := bufio.NewWriter(f)
	for _, line := range fileHeader {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, versionLine)

	written := 0
	for i := range entries {
		e := &entries[i]
		numPins := e.Pins.Len()
		if numPins == 0 {
			s.logger.Warn("skipping entry without pins", "host", e.Host)
			continue
		}

		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n",
			e.Host,
			e.Created.Unix(),
			int64(e.MaxAge/time.Second),
			boolDigit(e.IncludeSubdomains),
			numPins)
		for _, p := range e.Pins.Pins() {
			fmt.Fprintf(w, "%s\t%s\n", hashSHA256, p.Base64())
		}
		written += numPins
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return 0, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	s.logger.Info("saved HPKP database", "path", path, "pins", written)
	return written, nil
}

// removeDatabase deletes the file at path, or the file a symbolic link at
// path points to. A dangling link is left alone.
func (s *Store) removeDatabase(path string, info fs.FileInfo) error {
	target := path
	if info.Mode()&fs.ModeSymlink != 0 {
		resolved, err := filepath.EvalSymlinks(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrWriteFailed, err)
		}
		target = resolved
	}

	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	s.logger.Info("removed empty HPKP database", "path", target)
	return nil
}

func boolDigit(b bool) int {
	if b {
		return 1
	}
	return 0
}
