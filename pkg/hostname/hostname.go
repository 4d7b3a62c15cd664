// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

// Package hostname canonicalizes host names used as pinning keys and
// detects IP literals, which RFC 7469 forbids from being pinned.
package hostname

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/miekg/dns"
	"golang.org/x/net/idna"
)

var (
	// ErrEmpty is returned for an empty host.
	ErrEmpty = errors.New("hostname: empty host")

	// ErrIPLiteral is returned when the host is an IPv4 or IPv6 literal.
	ErrIPLiteral = errors.New("hostname: host is an IP literal")

	// ErrInvalid is returned when the host is not a syntactically valid
	// domain name.
	ErrInvalid = errors.New("hostname: invalid host")
)

// IsIPLiteral reports whether host is an IPv4 or IPv6 address, optionally
// enclosed in brackets and optionally carrying an IPv6 zone.
func IsIPLiteral(host string) bool {
	h := host
	if strings.HasPrefix(h, "[") && strings.HasSuffix(h, "]") {
		h = h[1 : len(h)-1]
	}
	_, err := netip.ParseAddr(h)
	return err == nil
}

// Canonicalize returns the ASCII, lower-case form of host with any single
// trailing root dot removed. Internationalized names are converted to their
// punycode form using the IDNA lookup profile.
func Canonicalize(host string) (string, error) {
	if host == "" {
		return "", ErrEmpty
	}
	if IsIPLiteral(host) {
		return "", fmt.Errorf("%w: %q", ErrIPLiteral, host)
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalid, host, err)
	}
	ascii = strings.TrimSuffix(ascii, ".")
	if ascii == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalid, host)
	}

	// IDNA mapping can turn full-width digits into an address.
	if IsIPLiteral(ascii) {
		return "", fmt.Errorf("%w: %q", ErrIPLiteral, host)
	}
	if _, ok := dns.IsDomainName(ascii); !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalid, host)
	}
	return ascii, nil
}
