// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package hpkp

import (
	"crypto/sha256"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jeremyhahn/go-hpkp/pkg/spkipin"
)

// testEpoch is the fixed "now" most tests start from.
var testEpoch = time.Unix(1700000000, 0)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// newTestStore returns a store driven by a fake clock and a silent logger.
func newTestStore(t *testing.T, cfg *Config) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: testEpoch}
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	c.Now = clock.Now
	c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	s := New(&c)
	t.Cleanup(func() { _ = s.Close() })
	return s, clock
}

// testPin derives a deterministic pin from a label.
func testPin(label string) spkipin.Pin {
	return sha256.Sum256([]byte(label))
}

var (
	pinA = testPin("A")
	pinB = testPin("B")
	pinC = testPin("C")
	pinD = testPin("D")
)
