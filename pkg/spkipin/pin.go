// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package spkipin

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// Size is the length of a SHA-256 SPKI pin in bytes.
const Size = sha256.Size

// Pin is the SHA-256 digest of a DER-encoded SubjectPublicKeyInfo.
// Pins compare byte-exact with ==.
type Pin [Size]byte

// ParsePin decodes a standard base64 pin, the form used by the pin-sha256
// directive and the on-disk database.
func ParsePin(b64 string) (Pin, error) {
	var p Pin
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return p, fmt.Errorf("%w: %w", ErrInvalidPinFormat, err)
	}
	if len(raw) != Size {
		return p, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPinFormat, Size, len(raw))
	}
	copy(p[:], raw)
	return p, nil
}

// PinFromBytes copies a 32-byte digest into a Pin.
func PinFromBytes(b []byte) (Pin, error) {
	var p Pin
	if len(b) != Size {
		return p, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidPinFormat, Size, len(b))
	}
	copy(p[:], b)
	return p, nil
}

// Base64 returns the standard base64 encoding of the pin.
func (p Pin) Base64() string {
	return base64.StdEncoding.EncodeToString(p[:])
}

// String implements fmt.Stringer.
func (p Pin) String() string {
	return p.Base64()
}

// ComputePin computes the SHA-256 hash of a certificate's SubjectPublicKeyInfo.
func ComputePin(cert *x509.Certificate) Pin {
	return sha256.Sum256(cert.RawSubjectPublicKeyInfo)
}

// PinFromDER computes the pin of a raw DER certificate without a full X.509
// parse. Only the outer TBSCertificate structure is walked to reach the
// SubjectPublicKeyInfo element, so certificates with extensions the x509
// package rejects still yield a pin.
func PinFromDER(der []byte) (Pin, error) {
	var (
		input = cryptobyte.String(der)
		cert  cryptobyte.String
		tbs   cryptobyte.String
		spki  cryptobyte.String
	)

	if !input.ReadASN1(&cert, cbasn1.SEQUENCE) || !input.Empty() {
		return Pin{}, fmt.Errorf("%w: invalid certificate sequence", ErrMalformedCertificate)
	}
	if !cert.ReadASN1(&tbs, cbasn1.SEQUENCE) {
		return Pin{}, fmt.Errorf("%w: invalid tbsCertificate", ErrMalformedCertificate)
	}

	// version [0] EXPLICIT is optional and defaults to v1.
	if !tbs.SkipOptionalASN1(cbasn1.Tag(0).Constructed().ContextSpecific()) ||
		!tbs.SkipASN1(cbasn1.INTEGER) || // serialNumber
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // signature
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // issuer
		!tbs.SkipASN1(cbasn1.SEQUENCE) || // validity
		!tbs.SkipASN1(cbasn1.SEQUENCE) { // subject
		return Pin{}, fmt.Errorf("%w: truncated tbsCertificate", ErrMalformedCertificate)
	}

	if !tbs.ReadASN1Element(&spki, cbasn1.SEQUENCE) {
		return Pin{}, fmt.Errorf("%w: missing subjectPublicKeyInfo", ErrMalformedCertificate)
	}
	return sha256.Sum256(spki), nil
}
