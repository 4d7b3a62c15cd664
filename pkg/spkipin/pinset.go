// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package spkipin

// PinSet is a collection of distinct pins. Pins keep their insertion order,
// which callers must not rely on for anything but stable output.
// A nil *PinSet behaves as an empty set that ignores Add.
//
// PinSet is not safe for concurrent mutation.
type PinSet struct {
	pins []Pin
}

// NewPinSet returns a set holding the distinct pins of the argument list.
func NewPinSet(pins ...Pin) *PinSet {
	s := &PinSet{pins: make([]Pin, 0, len(pins))}
	for _, p := range pins {
		s.Add(p)
	}
	return s
}

// Contains reports whether p is in the set.
func (s *PinSet) Contains(p Pin) bool {
	if s == nil {
		return false
	}
	for i := range s.pins {
		if s.pins[i] == p {
			return true
		}
	}
	return false
}

// Add inserts p unless an identical pin is already present. It reports
// whether the set changed. A nil set cannot grow, so Add on it is a no-op
// returning false.
func (s *PinSet) Add(p Pin) bool {
	if s == nil || s.Contains(p) {
		return false
	}
	s.pins = append(s.pins, p)
	return true
}

// Len returns the number of pins in the set.
func (s *PinSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pins)
}

// SubsetOf reports whether every pin in s is also in other. The empty set
// is a subset of every set.
func (s *PinSet) SubsetOf(other *PinSet) bool {
	if s == nil {
		return true
	}
	for _, p := range s.pins {
		if !other.Contains(p) {
			return false
		}
	}
	return true
}

// Equal reports whether s and other hold exactly the same pins.
func (s *PinSet) Equal(other *PinSet) bool {
	return s.Len() == other.Len() && s.SubsetOf(other)
}

// Pins returns a copy of the pins in the set.
func (s *PinSet) Pins() []Pin {
	if s == nil {
		return nil
	}
	out := make([]Pin, len(s.pins))
	copy(out, s.pins)
	return out
}

// Clone returns an independent copy of the set.
func (s *PinSet) Clone() *PinSet {
	return &PinSet{pins: s.Pins()}
}
