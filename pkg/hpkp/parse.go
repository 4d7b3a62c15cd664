// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package hpkp

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jeremyhahn/go-hpkp/pkg/hostname"
	"github.com/jeremyhahn/go-hpkp/pkg/spkipin"
)

// maxAgeSeconds bounds max-age so it fits a time.Duration.
const maxAgeSeconds = math.MaxInt64 / int64(time.Second)

// record is a parsed host line.
type record struct {
	host              string
	created           int64
	maxAge            time.Duration
	includeSubdomains bool
	numPins           uint64
}

// lexer splits a line into tokens separated by runs of spaces or tabs.
type lexer struct {
	buf []byte
	pos int
}

func newLexer(line string) *lexer {
	return &lexer{buf: []byte(line)}
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

// next returns the next token, or false at end of line.
func (l *lexer) next() (string, bool) {
	for l.pos < len(l.buf) && isSpace(l.buf[l.pos]) {
		l.pos++
	}
	if l.pos == len(l.buf) {
		return "", false
	}
	start := l.pos
	for l.pos < len(l.buf) && !isSpace(l.buf[l.pos]) {
		l.pos++
	}
	return string(l.buf[start:l.pos]), true
}

// expect returns the next token or an error naming the missing field.
func (l *lexer) expect(field string) (string, error) {
	tok, ok := l.next()
	if !ok {
		return "", fmt.Errorf("missing %s", field)
	}
	return tok, nil
}

// end fails if any token remains.
func (l *lexer) end() error {
	if tok, ok := l.next(); ok {
		return fmt.Errorf("unexpected trailing field %q", tok)
	}
	return nil
}

// parseUint parses a base-10 unsigned integer. Signs, prefixes and leading
// zeros are rejected; "0" itself is allowed.
func parseUint(field, tok string) (uint64, error) {
	for i := 0; i < len(tok); i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return 0, fmt.Errorf("%s %q is not an unsigned integer", field, tok)
		}
	}
	if len(tok) > 1 && tok[0] == '0' {
		return 0, fmt.Errorf("%s %q has a leading zero", field, tok)
	}
	v, err := strconv.ParseUint(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %q out of range", field, tok)
	}
	return v, nil
}

// parseFlag parses a single-digit boolean, 0 or 1.
func parseFlag(field, tok string) (bool, error) {
	switch tok {
	case "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, fmt.Errorf("%s %q must be 0 or 1", field, tok)
}

// parseRecord parses "host created max_age include_subdomains pin_count".
func parseRecord(line string) (*record, error) {
	rec, err := parseRecordFields(newLexer(line))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return rec, nil
}

func parseRecordFields(l *lexer) (*record, error) {
	tok, err := l.expect("host")
	if err != nil {
		return nil, err
	}
	host, err := hostname.Canonicalize(tok)
	if err != nil {
		if errors.Is(err, hostname.ErrIPLiteral) {
			return nil, fmt.Errorf("host %q is a literal IP address", tok)
		}
		return nil, err
	}

	rec := &record{host: host}

	if tok, err = l.expect("created"); err != nil {
		return nil, err
	}
	created, err := parseUint("created", tok)
	if err != nil {
		return nil, err
	}
	if created > math.MaxInt64 {
		return nil, fmt.Errorf("created %q out of range", tok)
	}
	rec.created = int64(created)

	if tok, err = l.expect("max_age"); err != nil {
		return nil, err
	}
	maxAge, err := parseUint("max_age", tok)
	if err != nil {
		return nil, err
	}
	if maxAge > uint64(maxAgeSeconds) {
		return nil, fmt.Errorf("max_age %q out of range", tok)
	}
	rec.maxAge = time.Duration(maxAge) * time.Second

	if tok, err = l.expect("include_subdomains"); err != nil {
		return nil, err
	}
	if rec.includeSubdomains, err = parseFlag("include_subdomains", tok); err != nil {
		return nil, err
	}

	if tok, err = l.expect("pin_count"); err != nil {
		return nil, err
	}
	if rec.numPins, err = parseUint("pin_count", tok); err != nil {
		return nil, err
	}
	if rec.numPins == 0 {
		return nil, errors.New("no pins declared")
	}

	if err := l.end(); err != nil {
		return nil, err
	}
	return rec, nil
}

// parsePinLine parses "sha-256 <base64>".
func parsePinLine(line string) (spkipin.Pin, error) {
	l := newLexer(line)

	tag, ok := l.next()
	if !ok {
		return spkipin.Pin{}, fmt.Errorf("%w: empty line", ErrMalformedPin)
	}
	if tag != hashSHA256 {
		return spkipin.Pin{}, fmt.Errorf("%w: %q, only %q is supported", ErrUnsupportedHash, tag, hashSHA256)
	}

	b64, ok := l.next()
	if !ok {
		return spkipin.Pin{}, fmt.Errorf("%w: missing pin value", ErrMalformedPin)
	}
	if err := l.end(); err != nil {
		return spkipin.Pin{}, fmt.Errorf("%w: %w", ErrMalformedPin, err)
	}

	pin, err := spkipin.ParsePin(b64)
	if err != nil {
		return spkipin.Pin{}, fmt.Errorf("%w: %w", ErrMalformedPin, err)
	}
	return pin, nil
}
