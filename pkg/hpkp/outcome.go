// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package hpkp

// Outcome is the result of submitting a candidate entry to the store.
// All outcomes other than OutcomeOK leave the candidate with the caller.
type Outcome int

const (
	// OutcomeOK means a new entry was added or an existing one replaced.
	OutcomeOK Outcome = iota

	// OutcomeEntryExists means an entry for the host exists and was kept:
	// either the submission was exclusive or it carried nothing newer.
	OutcomeEntryExists

	// OutcomeWasDeleted means the existing entry was removed because the
	// candidate had a zero max-age or no pins.
	OutcomeWasDeleted

	// OutcomeEntryExpired means the candidate was already stale.
	OutcomeEntryExpired

	// OutcomeNotEnoughPins means the candidate had fewer than two pins.
	OutcomeNotEnoughPins

	// OutcomeError means the submission was invalid.
	OutcomeError
)

var outcomeNames = map[Outcome]string{
	OutcomeOK:            "ok",
	OutcomeEntryExists:   "entry_exists",
	OutcomeWasDeleted:    "was_deleted",
	OutcomeEntryExpired:  "entry_expired",
	OutcomeNotEnoughPins: "not_enough_pins",
	OutcomeError:         "error",
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return "unknown"
}

// Adopted reports whether the store took ownership of the candidate.
func (o Outcome) Adopted() bool {
	return o == OutcomeOK
}
