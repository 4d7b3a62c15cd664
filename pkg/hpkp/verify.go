// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package hpkp

import (
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-hpkp/pkg/hostname"
	"github.com/jeremyhahn/go-hpkp/pkg/spkipin"
)

// Verify checks a peer certificate chain for host against the store. It
// returns nil when the host has no live entry or when at least one
// certificate in the chain, leaf or intermediate, matches a pinned SPKI.
// Only the exact host is consulted; IncludeSubdomains is not applied.
func (s *Store) Verify(host string, chain []*x509.Certificate) error {
	pins := make([]spkipin.Pin, 0, len(chain))
	for _, cert := range chain {
		if cert == nil {
			continue
		}
		pins = append(pins, spkipin.ComputePin(cert))
	}
	return s.match(host, pins)
}

// VerifyPeerCertificate returns a callback for tls.Config.VerifyPeerCertificate
// that enforces the store's pins for host. It runs after the standard chain
// verification, so it narrows rather than replaces CA trust. Certificates
// whose SPKI cannot be located are skipped.
func (s *Store) VerifyPeerCertificate(host string) func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		pins := make([]spkipin.Pin, 0, len(rawCerts))
		for _, raw := range rawCerts {
			pin, err := spkipin.PinFromDER(raw)
			if err != nil {
				s.logger.Debug("skipping unparseable peer certificate", "host", host, "error", err)
				continue
			}
			pins = append(pins, pin)
		}
		return s.match(host, pins)
	}
}

// match checks presented pins against the live entry for host.
func (s *Store) match(host string, presented []spkipin.Pin) error {
	if !s.usable() {
		return ErrStoreClosed
	}

	canonical, err := hostname.Canonicalize(host)
	if errors.Is(err, hostname.ErrIPLiteral) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidHost, err)
	}

	e := s.get(canonical)
	if e == nil {
		return nil
	}
	if e.Expired(s.now()) {
		s.logger.Debug("pinning entry is stale, not enforced", "host", canonical, "expired", e.Expires())
		return nil
	}

	if len(presented) == 0 {
		return ErrNoCertificates
	}
	for _, p := range presented {
		if e.Pins.Contains(p) {
			return nil
		}
	}

	s.logger.Warn("public key pin mismatch", "host", canonical, "presented", len(presented))
	return fmt.Errorf("%w: %s", ErrPinMismatch, canonical)
}
