// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package hpkp

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Load reads the database at path into the store.
//
// Each record is subject to the same checks as a live directive, but an
// entry already present in the store always wins, so the first record for
// a host in a file is kept and later ones are ignored. Expired records,
// records with too few pins, and repeated hosts are logged and skipped.
//
// Lines starting with '#' are comments. Any other line, blank ones
// included, must parse; a syntax error aborts the load with a *ParseError.
// The shared database lock is best effort: if it cannot be taken the file
// is read unlocked. Entries admitted
// from records before the failing line stay in the store. ErrFileOpen is
// returned if path cannot be opened.
func (s *Store) Load(path string) error {
	if path == "" {
		return ErrInvalidPath
	}
	if !s.usable() {
		return ErrStoreClosed
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFileOpen, err)
	}
	defer f.Close()

	defer s.lockReader(path)()

	if err := s.decode(f); err != nil {
		s.logger.Error("failed to load HPKP database", "path", path, "error", err)
		return err
	}
	return nil
}

// lineReader yields lines with their 1-based numbers.
type lineReader struct {
	sc   *bufio.Scanner
	line int
	text string
}

func (r *lineReader) next() bool {
	if !r.sc.Scan() {
		return false
	}
	r.line++
	r.text = r.sc.Text()
	return true
}

func (r *lineReader) fail(err error) error {
	return &ParseError{Line: r.line, Err: err}
}

// loadStats counts records for the summary log line.
type loadStats struct {
	admitted int
	ignored  int
}

// decode parses a version 1 database from rd and admits every record
// exclusively.
func (s *Store) decode(rd io.Reader) error {
	r := &lineReader{sc: bufio.NewScanner(rd)}
	var stats loadStats
	versionSeen := false

	for r.next() {
		line := r.text
		// Only comments are skipped. A blank line is not a valid version
		// or record line.
		if strings.HasPrefix(line, "#") {
			continue
		}

		if !versionSeen {
			if line != versionLine {
				return r.fail(fmt.Errorf("%w: %q", ErrUnsupportedVersion, line))
			}
			versionSeen = true
			continue
		}

		rec, err := parseRecord(line)
		if err != nil {
			return r.fail(err)
		}
		s.logger.Debug("processing public key pins", "host", rec.host, "pins", rec.numPins)

		candidate := NewEntry(rec.host, time.Unix(rec.created, 0), rec.maxAge, rec.includeSubdomains)
		for i := uint64(0); i < rec.numPins; i++ {
			if !r.next() {
				if err := r.sc.Err(); err != nil {
					return fmt.Errorf("%w: %w", ErrReadFailed, err)
				}
				return r.fail(fmt.Errorf("%w: %d pins declared for host %q but only %d found",
					ErrMalformedPin, rec.numPins, rec.host, i))
			}
			pin, err := parsePinLine(r.text)
			if err != nil {
				return r.fail(err)
			}
			if !candidate.Pins.Add(pin) {
				s.logger.Debug("public key pin already in list, skipping", "host", rec.host, "pin", pin.Base64())
			}
		}

		s.logAdmission(s.admit(candidate, true), rec.host, &stats)
	}

	if err := r.sc.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrReadFailed, err)
	}

	s.logger.Info("loaded HPKP database", "admitted", stats.admitted, "ignored", stats.ignored)
	return nil
}

// logAdmission reports the per-record outcome of a load. Rejections are
// recoverable: the record is dropped and loading continues.
func (s *Store) logAdmission(outcome Outcome, host string, stats *loadStats) {
	switch outcome {
	case OutcomeOK:
		stats.admitted++
		s.logger.Debug("added pinned SPKIs", "host", host)
		return
	case OutcomeEntryExpired:
		s.logger.Info("pinned SPKIs have expired, ignored", "host", host)
	case OutcomeNotEnoughPins:
		s.logger.Warn("host must have at least 2 pinned SPKIs, ignored", "host", host)
	case OutcomeEntryExists:
		s.logger.Warn("host is repeated, ignored", "host", host)
	default:
		s.logger.Warn("record rejected, ignored", "host", host, "outcome", outcome.String())
	}
	stats.ignored++
}
