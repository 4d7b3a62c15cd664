// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package hpkp implements a client-side HTTP Public Key Pinning (RFC 7469)
// trust store. A Store maps hosts to pinning entries, decides whether a
// newly observed pinning directive adds, replaces, or deletes an entry, and
// persists itself to a versioned line-based text file.
//
// Concurrency: a single mutex guards every map mutation, and Save works
// from a copy of all entries taken under one acquisition of it. The
// admission decision itself runs outside the lock; it reads the resident
// entry, releases the lock, and re-acquires it only to mutate. Two
// concurrent submissions for the same host may therefore both act on the
// same resident entry, and the "newer Created wins" rule is not
// linearizable under that interleaving. Single-writer use is unaffected.
package hpkp

import (
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"
)

// Store is an in-memory HPKP trust store keyed by canonical host.
type Store struct {
	mu      sync.Mutex
	entries map[string]*Entry
	closed  bool

	symmetric bool
	lockFile  bool
	fileMode  os.FileMode
	now       func() time.Time
	logger    *slog.Logger
}

// New creates an empty store. A nil cfg uses defaults.
func New(cfg *Config) *Store {
	c := cfg.withDefaults()
	return &Store{
		entries:   make(map[string]*Entry),
		symmetric: c.SymmetricPinCompare,
		lockFile:  !c.DisableFileLock,
		fileMode:  c.FileMode.Perm(),
		now:       c.Now,
		logger:    c.Logger.With("component", "hpkp_store"),
	}
}

// Close drops every entry and invalidates the store. Subsequent operations
// return ErrStoreClosed. Close is idempotent and safe on a nil store, but
// must not race with other in-flight operations.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	clear(s.entries)
	s.entries = nil
	s.closed = true
	return nil
}

// Lookup returns a copy of the entry for host. host must already be in
// canonical form; no expiry check is made.
func (s *Store) Lookup(host string) (Entry, bool) {
	e := s.get(host)
	if e == nil {
		return Entry{}, false
	}
	return e.clone(), true
}

// Len returns the number of resident entries.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Hosts returns the resident hosts in sorted order.
func (s *Store) Hosts() []string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	hosts := make([]string, 0, len(s.entries))
	for h := range s.entries {
		hosts = append(hosts, h)
	}
	s.mu.Unlock()

	sort.Strings(hosts)
	return hosts
}

// usable reports whether the store can serve operations.
func (s *Store) usable() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

// get returns the resident entry for host. The lock is held only for the
// map read.
func (s *Store) get(host string) *Entry {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[host]
}

// insertOrReplace stores e under its host, dropping any previous entry.
func (s *Store) insertOrReplace(e *Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.entries[e.Host] = e
}

// remove deletes the entry for host, if any.
func (s *Store) remove(host string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, host)
}

// snapshot returns deep copies of every entry in sorted host order, taken
// under a single acquisition of the lock.
func (s *Store) snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	hosts := make([]string, 0, len(s.entries))
	for h := range s.entries {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	out := make([]Entry, 0, len(hosts))
	for _, h := range hosts {
		out = append(out, s.entries[h].clone())
	}
	return out
}
