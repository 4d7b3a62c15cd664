// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package hpkp

import (
	"fmt"
	"time"

	"github.com/jeremyhahn/go-hpkp/pkg/hostname"
	"github.com/jeremyhahn/go-hpkp/pkg/spkipin"
)

// minPins is the number of pins RFC 7469 requires: one active, one backup.
const minPins = 2

// Add records a pinning directive observed now for host. Duplicate pins are
// collapsed. A zero maxAge or an empty pin list deletes a resident entry.
// The returned error is non-nil only together with OutcomeError.
func (s *Store) Add(host string, maxAge time.Duration, includeSubdomains bool, pins []spkipin.Pin) (Outcome, error) {
	if !s.usable() {
		return OutcomeError, ErrStoreClosed
	}
	if maxAge < 0 {
		return OutcomeError, fmt.Errorf("%w: %s", ErrInvalidMaxAge, maxAge)
	}
	canonical, err := hostname.Canonicalize(host)
	if err != nil {
		return OutcomeError, fmt.Errorf("%w: %w", ErrInvalidHost, err)
	}

	candidate := NewEntry(canonical, s.now(), maxAge, includeSubdomains)
	for _, p := range pins {
		if candidate.Pins.Add(p) {
			s.logger.Debug("added public key pin", "host", canonical, "pin", p.Base64())
		} else {
			s.logger.Debug("public key pin already in list, skipping", "host", canonical, "pin", p.Base64())
		}
	}

	return s.admit(candidate, false), nil
}

// AddBase64 is Add with pins given in their base64 pin-sha256 form. Any
// undecodable pin rejects the whole directive.
func (s *Store) AddBase64(host string, maxAge time.Duration, includeSubdomains bool, b64Pins []string) (Outcome, error) {
	pins := make([]spkipin.Pin, 0, len(b64Pins))
	for _, b64 := range b64Pins {
		p, err := spkipin.ParsePin(b64)
		if err != nil {
			return OutcomeError, err
		}
		pins = append(pins, p)
	}
	return s.Add(host, maxAge, includeSubdomains, pins)
}

// Admit submits a caller-built entry. The entry's host must be canonical
// and its Created time is taken as is. On OutcomeOK the store keeps e and
// the caller must not modify it afterwards.
func (s *Store) Admit(e *Entry) Outcome {
	if e == nil || e.MaxAge < 0 || e.Created.Unix() < 0 || !s.usable() {
		return OutcomeError
	}
	return s.admit(e, false)
}

// admit decides what candidate does to the store. With exclusive set any
// resident entry for the host blocks the candidate regardless of recency;
// Load uses this so the first record for a host in a file wins.
func (s *Store) admit(candidate *Entry, exclusive bool) Outcome {
	if candidate.Expired(s.now()) {
		return OutcomeEntryExpired
	}

	numPins := candidate.Pins.Len()
	existing := s.get(candidate.Host)
	if existing != nil && exclusive {
		return OutcomeEntryExists
	}

	switch {
	case existing == nil && candidate.MaxAge != 0 && numPins >= minPins:
		s.insertOrReplace(candidate)
		s.logger.Debug("pinned new host", "host", candidate.Host, "pins", numPins)
		return OutcomeOK

	case existing != nil && candidate.MaxAge != 0 && numPins >= minPins:
		if existing.Created.Before(candidate.Created) && s.changed(existing, candidate) {
			s.insertOrReplace(candidate)
			s.logger.Debug("updated pinned host", "host", candidate.Host, "pins", numPins)
			return OutcomeOK
		}
		return OutcomeEntryExists

	case existing != nil && (candidate.MaxAge == 0 || numPins == 0):
		s.remove(existing.Host)
		s.logger.Debug("removed pinned host", "host", existing.Host)
		return OutcomeWasDeleted

	case numPins < minPins:
		return OutcomeNotEnoughPins
	}

	return OutcomeError
}

// changed reports whether candidate carries different pinning information
// than existing. Without SymmetricPinCompare a candidate whose pins are all
// already resident is not a change, even if it drops some of them.
func (s *Store) changed(existing, candidate *Entry) bool {
	if existing.IncludeSubdomains != candidate.IncludeSubdomains || existing.MaxAge != candidate.MaxAge {
		return true
	}
	if s.symmetric {
		return !candidate.Pins.Equal(existing.Pins)
	}
	return !candidate.Pins.SubsetOf(existing.Pins)
}
