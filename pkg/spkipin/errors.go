// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package spkipin provides SHA-256 Subject Public Key Info pins and pin sets
// as used by HTTP Public Key Pinning (RFC 7469). A pin is the 32-byte
// SHA-256 digest of a DER-encoded SubjectPublicKeyInfo.
package spkipin

import "errors"

var (
	// ErrInvalidPinFormat is returned when a pin is not valid base64 or does
	// not decode to exactly 32 bytes.
	ErrInvalidPinFormat = errors.New("spkipin: invalid pin format")

	// ErrMalformedCertificate is returned when a raw certificate cannot be
	// walked far enough to locate its SubjectPublicKeyInfo.
	ErrMalformedCertificate = errors.New("spkipin: malformed certificate")
)
