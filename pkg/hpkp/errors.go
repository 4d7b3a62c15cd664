// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package hpkp

import (
	"errors"
	"fmt"
)

// Generic errors indicate invalid arguments or store state.
var (
	// ErrStoreClosed indicates an operation on a nil or closed store.
	ErrStoreClosed = errors.New("hpkp: store closed")

	// ErrInvalidPath indicates an empty database path.
	ErrInvalidPath = errors.New("hpkp: invalid path")

	// ErrInvalidHost indicates a host that is empty, syntactically invalid,
	// or an IP literal.
	ErrInvalidHost = errors.New("hpkp: invalid host")

	// ErrInvalidMaxAge indicates a negative max-age.
	ErrInvalidMaxAge = errors.New("hpkp: invalid max-age")

	// ErrNotRegularFile indicates the database path exists but is neither a
	// regular file nor a symbolic link.
	ErrNotRegularFile = errors.New("hpkp: target is not a regular file or symbolic link")
)

// I/O errors are kept apart from format errors so callers can tell a
// missing or unwritable database from a corrupt one.
var (
	// ErrFileOpen indicates the database file could not be opened.
	ErrFileOpen = errors.New("hpkp: cannot open database file")

	// ErrReadFailed indicates reading the database failed after it was opened.
	ErrReadFailed = errors.New("hpkp: read failed")

	// ErrWriteFailed indicates writing or flushing the database failed.
	ErrWriteFailed = errors.New("hpkp: write failed")

	// ErrLockFailed indicates the advisory database lock could not be taken.
	ErrLockFailed = errors.New("hpkp: cannot lock database file")
)

// Format errors abort a load.
var (
	// ErrUnsupportedVersion indicates the first content line is not "version 1".
	ErrUnsupportedVersion = errors.New("hpkp: unsupported database version")

	// ErrMalformedRecord indicates a host record line could not be parsed.
	ErrMalformedRecord = errors.New("hpkp: malformed host record")

	// ErrMalformedPin indicates a pin line is missing or could not be parsed.
	ErrMalformedPin = errors.New("hpkp: malformed pin line")

	// ErrUnsupportedHash indicates a pin line names a hash other than sha-256.
	ErrUnsupportedHash = errors.New("hpkp: unsupported pin hash algorithm")
)

// Verification errors.
var (
	// ErrPinMismatch indicates no certificate in a chain matches a pinned host.
	ErrPinMismatch = errors.New("hpkp: no certificate matches the pinned SPKI set")

	// ErrNoCertificates indicates an empty chain was presented for a pinned host.
	ErrNoCertificates = errors.New("hpkp: no certificates presented")
)

// ParseError records the database line at which a load failed.
type ParseError struct {
	// Line is the 1-based line number.
	Line int

	// Err is the underlying format error.
	Err error
}

// Error returns the message prefixed with the line number.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}
