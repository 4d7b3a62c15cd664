// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package hpkp

import (
	"time"

	"github.com/jeremyhahn/go-hpkp/pkg/spkipin"
)

// Entry is the pinning record of one host.
type Entry struct {
	// Host is the canonical host name and the store key.
	Host string

	// Created is when the pinning directive was received, at second precision.
	Created time.Time

	// MaxAge is how long after Created the entry stays valid.
	MaxAge time.Duration

	// IncludeSubdomains is stored as declared. It is not enforced.
	IncludeSubdomains bool

	// Pins is the set of SPKI pins. It must hold at least two pins for the
	// entry to be admitted (one active and one backup).
	Pins *spkipin.PinSet
}

// NewEntry returns an entry with an empty pin set. created is truncated to
// whole seconds, the precision of the database file.
func NewEntry(host string, created time.Time, maxAge time.Duration, includeSubdomains bool) *Entry {
	return &Entry{
		Host:              host,
		Created:           time.Unix(created.Unix(), 0),
		MaxAge:            maxAge.Truncate(time.Second),
		IncludeSubdomains: includeSubdomains,
		Pins:              spkipin.NewPinSet(),
	}
}

// Expired reports whether a positive max-age has elapsed at now.
func (e *Entry) Expired(now time.Time) bool {
	return e.MaxAge > 0 && e.Created.Add(e.MaxAge).Before(now)
}

// Expires returns the instant the entry goes stale.
func (e *Entry) Expires() time.Time {
	return e.Created.Add(e.MaxAge)
}

// clone returns a deep copy safe to hand to callers.
func (e *Entry) clone() Entry {
	c := *e
	c.Pins = e.Pins.Clone()
	return c
}
