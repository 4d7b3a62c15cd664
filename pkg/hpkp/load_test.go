// Copyright 2026 Jeremy Hahn
// SPDX-License-Identifier: MIT

package hpkp

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-hpkp/pkg/spkipin"
)

// writeDB writes lines to a fresh database file and returns its path.
func writeDB(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hpkp.db")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func pinLine(p spkipin.Pin) string {
	return "sha-256\t" + p.Base64()
}

func recordLine(host string, created time.Time, maxAge time.Duration, include bool, numPins int) string {
	return fmt.Sprintf("%s\t%d\t%d\t%d\t%d", host, created.Unix(), int64(maxAge/time.Second), boolDigit(include), numPins)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t, nil)
	_, err := s.Add("h1.example.com", 5000*time.Second, false, []spkipin.Pin{pinA, pinB})
	require.NoError(t, err)
	_, err = s.Add("h2.example.com", 7000*time.Second, true, []spkipin.Pin{pinC, pinD})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "hpkp.db")
	n, err := s.Save(path)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	loaded, _ := newTestStore(t, nil)
	require.NoError(t, loaded.Load(path))
	assert.Equal(t, 2, loaded.Len())

	for _, host := range []string{"h1.example.com", "h2.example.com"} {
		want, ok := s.Lookup(host)
		require.True(t, ok)
		got, ok := loaded.Lookup(host)
		require.True(t, ok, host)

		assert.Equal(t, want.Host, got.Host)
		assert.True(t, want.Created.Equal(got.Created))
		assert.Equal(t, want.MaxAge, got.MaxAge)
		assert.Equal(t, want.IncludeSubdomains, got.IncludeSubdomains)
		assert.True(t, want.Pins.Equal(got.Pins), host)
	}
}

func TestLoad_ExclusiveRejectsDuplicates(t *testing.T) {
	path := writeDB(t,
		"version 1",
		recordLine(testHost, testEpoch.Add(-time.Minute), 5000*time.Second, false, 2),
		pinLine(pinA),
		pinLine(pinB),
		recordLine(testHost, testEpoch, 9000*time.Second, true, 2),
		pinLine(pinC),
		pinLine(pinD),
	)

	s, _ := newTestStore(t, nil)
	require.NoError(t, s.Load(path))

	e, ok := s.Lookup(testHost)
	require.True(t, ok)
	assert.Equal(t, 5000*time.Second, e.MaxAge)
	assert.False(t, e.IncludeSubdomains)
	assert.True(t, e.Pins.Equal(spkipin.NewPinSet(pinA, pinB)))
}

func TestLoad_ResidentEntryWins(t *testing.T) {
	s, _ := newTestStore(t, nil)
	_, err := s.Add(testHost, time.Hour, false, []spkipin.Pin{pinA, pinB})
	require.NoError(t, err)

	path := writeDB(t,
		"version 1",
		recordLine(testHost, testEpoch, 2*time.Hour, true, 2),
		pinLine(pinC),
		pinLine(pinD),
	)
	require.NoError(t, s.Load(path))

	e, _ := s.Lookup(testHost)
	assert.Equal(t, time.Hour, e.MaxAge)
}

func TestLoad_SkipsRecoverableRecords(t *testing.T) {
	path := writeDB(t,
		"# comment before version",
		"version 1",
		"# expired",
		recordLine("expired.example.com", testEpoch.Add(-10000*time.Second), 100*time.Second, false, 2),
		pinLine(pinA),
		pinLine(pinB),
		"# only one distinct pin",
		recordLine("single.example.com", testEpoch, time.Hour, false, 2),
		pinLine(pinA),
		pinLine(pinA),
		"# zero max-age is accepted syntactically but never admitted",
		"zero.example.com\t0\t0\t0\t2",
		pinLine(pinA),
		pinLine(pinB),
		recordLine("kept.example.com", testEpoch, time.Hour, true, 2),
		pinLine(pinC),
		pinLine(pinD),
	)

	s, _ := newTestStore(t, nil)
	require.NoError(t, s.Load(path))
	assert.Equal(t, []string{"kept.example.com"}, s.Hosts())
}

func TestLoad_EmptyAndCommentOnlyFiles(t *testing.T) {
	s, _ := newTestStore(t, nil)

	empty := filepath.Join(t.TempDir(), "empty.db")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	assert.NoError(t, s.Load(empty))

	assert.NoError(t, s.Load(writeDB(t, "# nothing here")))
	assert.NoError(t, s.Load(writeDB(t, "version 1")))
	assert.Equal(t, 0, s.Len())
}

func TestLoad_CRLFLineEndings(t *testing.T) {
	content := "version 1\r\n" +
		recordLine(testHost, testEpoch, time.Hour, false, 2) + "\r\n" +
		pinLine(pinA) + "\r\n" +
		pinLine(pinB) + "\r\n"
	path := filepath.Join(t.TempDir(), "hpkp.db")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, _ := newTestStore(t, nil)
	require.NoError(t, s.Load(path))
	assert.Equal(t, 1, s.Len())
}

func TestLoad_SpaceSeparatedFields(t *testing.T) {
	path := writeDB(t,
		"version 1",
		fmt.Sprintf("%s  %d %d\t 1  2", testHost, testEpoch.Unix(), 3600),
		"sha-256   "+pinA.Base64(),
		pinLine(pinB),
	)

	s, _ := newTestStore(t, nil)
	require.NoError(t, s.Load(path))

	e, ok := s.Lookup(testHost)
	require.True(t, ok)
	assert.True(t, e.IncludeSubdomains)
}

func TestLoad_CanonicalizesHost(t *testing.T) {
	path := writeDB(t,
		"version 1",
		recordLine("Pinned.Example.COM", testEpoch, time.Hour, false, 2),
		pinLine(pinA),
		pinLine(pinB),
	)

	s, _ := newTestStore(t, nil)
	require.NoError(t, s.Load(path))
	_, ok := s.Lookup(testHost)
	assert.True(t, ok)
}

func TestLoad_FormatErrors(t *testing.T) {
	created := fmt.Sprint(testEpoch.Unix())
	record := func(fields ...string) string { return strings.Join(fields, "\t") }

	tests := []struct {
		name  string
		lines []string
		want  error
	}{
		{"wrong version", []string{"version 2"}, ErrUnsupportedVersion},
		{"blank line before version", []string{"# comment", "", versionLine}, ErrUnsupportedVersion},
		{"whitespace line before version", []string{"   ", versionLine}, ErrUnsupportedVersion},
		{"blank line after version", []string{versionLine, ""}, ErrMalformedRecord},
		{"whitespace line after version", []string{versionLine, " \t "}, ErrMalformedRecord},
		{"record before version", []string{record(testHost, created, "3600", "0", "2")}, ErrUnsupportedVersion},
		{"leading zero", []string{versionLine, record(testHost, "0"+created, "3600", "0", "2")}, ErrMalformedRecord},
		{"signed number", []string{versionLine, record(testHost, "+"+created, "3600", "0", "2")}, ErrMalformedRecord},
		{"hex number", []string{versionLine, record(testHost, created, "0x10", "0", "2")}, ErrMalformedRecord},
		{"non digit", []string{versionLine, record(testHost, created, "36a0", "0", "2")}, ErrMalformedRecord},
		{"flag out of range", []string{versionLine, record(testHost, created, "3600", "2", "2")}, ErrMalformedRecord},
		{"flag two digits", []string{versionLine, record(testHost, created, "3600", "01", "2")}, ErrMalformedRecord},
		{"zero pin count", []string{versionLine, record(testHost, created, "3600", "0", "0")}, ErrMalformedRecord},
		{"missing field", []string{versionLine, record(testHost, created, "3600", "0")}, ErrMalformedRecord},
		{"trailing field", []string{versionLine, record(testHost, created, "3600", "0", "2", "x")}, ErrMalformedRecord},
		{"ip host", []string{versionLine, record("192.0.2.1", created, "3600", "0", "2")}, ErrMalformedRecord},
		{"invalid host", []string{versionLine, record("a..example.com", created, "3600", "0", "2")}, ErrMalformedRecord},
		{"number overflow", []string{versionLine, record(testHost, "99999999999999999999", "3600", "0", "2")}, ErrMalformedRecord},
		{"max age overflow", []string{versionLine, record(testHost, created, "9223372036854775807", "0", "2")}, ErrMalformedRecord},
		{"unsupported hash", []string{versionLine, record(testHost, created, "3600", "0", "2"), "sha-1\t" + pinA.Base64(), pinLine(pinB)}, ErrUnsupportedHash},
		{"bad base64", []string{versionLine, record(testHost, created, "3600", "0", "2"), "sha-256\t%%%", pinLine(pinB)}, ErrMalformedPin},
		{"short digest", []string{versionLine, record(testHost, created, "3600", "0", "2"), "sha-256\tAAAA", pinLine(pinB)}, ErrMalformedPin},
		{"missing pin value", []string{versionLine, record(testHost, created, "3600", "0", "2"), "sha-256", pinLine(pinB)}, ErrMalformedPin},
		{"blank pin line", []string{versionLine, record(testHost, created, "3600", "0", "2"), "", pinLine(pinB)}, ErrMalformedPin},
		{"short pin block", []string{versionLine, record(testHost, created, "3600", "0", "3"), pinLine(pinA), pinLine(pinB)}, ErrMalformedPin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t, nil)
			err := s.Load(writeDB(t, tt.lines...))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.NotErrorIs(t, err, ErrFileOpen)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
			assert.Equal(t, 0, s.Len())
		})
	}
}

func TestLoad_ParseErrorLineNumber(t *testing.T) {
	path := writeDB(t,
		"# header",
		"version 1",
		"pinned.example.com\tnot-a-number\t3600\t0\t2",
	)

	s, _ := newTestStore(t, nil)
	err := s.Load(path)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 3, perr.Line)
	assert.Contains(t, err.Error(), "line 3")
}

func TestLoad_KeepsRecordsBeforeFatalError(t *testing.T) {
	path := writeDB(t,
		"version 1",
		recordLine("first.example.com", testEpoch, time.Hour, false, 2),
		pinLine(pinA),
		pinLine(pinB),
		"second.example.com\t1\t2",
		recordLine("third.example.com", testEpoch, time.Hour, false, 2),
		pinLine(pinC),
		pinLine(pinD),
	)

	s, _ := newTestStore(t, nil)
	err := s.Load(path)
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.Equal(t, []string{"first.example.com"}, s.Hosts())
}

func TestLoad_BlankLineBetweenRecordsIsFatal(t *testing.T) {
	path := writeDB(t,
		"version 1",
		recordLine("first.example.com", testEpoch, time.Hour, false, 2),
		pinLine(pinA),
		pinLine(pinB),
		"",
		recordLine("second.example.com", testEpoch, time.Hour, false, 2),
		pinLine(pinC),
		pinLine(pinD),
	)

	s, _ := newTestStore(t, nil)
	err := s.Load(path)
	assert.ErrorIs(t, err, ErrMalformedRecord)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 5, perr.Line)
	assert.Equal(t, []string{"first.example.com"}, s.Hosts())
}

func TestLoad_CreatesNoFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hpkp.db")
	content := "version 1\n" + recordLine(testHost, testEpoch, time.Hour, false, 2) + "\n" +
		pinLine(pinA) + "\n" + pinLine(pinB) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	s, _ := newTestStore(t, nil)
	require.NoError(t, s.Load(path))
	assert.Equal(t, 1, s.Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "hpkp.db", entries[0].Name())
}

func TestLoad_ReadOnlyDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "hpkp.db")
	content := "version 1\n" + recordLine(testHost, testEpoch, time.Hour, false, 2) + "\n" +
		pinLine(pinA) + "\n" + pinLine(pinB) + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	require.NoError(t, os.Chmod(dir, 0o555))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o755) })

	s, _ := newTestStore(t, nil)
	require.NoError(t, s.Load(path))
	assert.Equal(t, 1, s.Len())
}

func TestLoad_MissingFile(t *testing.T) {
	s, _ := newTestStore(t, nil)
	dir := t.TempDir()

	err := s.Load(filepath.Join(dir, "absent.db"))
	assert.ErrorIs(t, err, ErrFileOpen)
	assert.ErrorIs(t, err, os.ErrNotExist)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing should be created for a missing database")
}

func TestLoad_InvalidPath(t *testing.T) {
	s, _ := newTestStore(t, nil)
	assert.ErrorIs(t, s.Load(""), ErrInvalidPath)
}

func TestLoad_ExpiredEntriesDroppedOnResave(t *testing.T) {
	path := writeDB(t,
		"version 1",
		recordLine("expired.example.com", testEpoch.Add(-10000*time.Second), 100*time.Second, false, 2),
		pinLine(pinA),
		pinLine(pinB),
	)

	s, _ := newTestStore(t, nil)
	require.NoError(t, s.Load(path))
	assert.Equal(t, 0, s.Len())

	n, err := s.Save(path)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
