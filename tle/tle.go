// Package tle parses and validates NORAD two-line element sets.
//
// Validation happens before anything touches the SGP4 layer: the underlying
// propagation library assumes well-formed lines, so every record entering
// the catalog is checked for fixed-width layout, line checksums, and a
// parseable epoch first.
package tle

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidFormat is returned when an element set fails fixed-width field
// parsing or checksum validation. Records rejected with this error are never
// stored.
var ErrInvalidFormat = errors.New("invalid element format")

const lineLength = 69

// Fields holds the subset of orbital parameters extracted during
// validation. Only the values needed by callers for degenerate-orbit
// screening and epoch selection are decoded.
type Fields struct {
	NoradID       int
	Epoch         time.Time
	Eccentricity  float64
	MeanMotion    float64 // revolutions per day
	InclinationDg float64
}

// Validate checks both lines of an element set and returns the decoded
// fields. Any failure wraps ErrInvalidFormat.
func Validate(line1, line2 string) (Fields, error) {
	line1 = strings.TrimRight(line1, "\r\n ")
	line2 = strings.TrimRight(line2, "\r\n ")

	if len(line1) != lineLength {
		return Fields{}, fmt.Errorf("%w: line 1 length %d, want %d", ErrInvalidFormat, len(line1), lineLength)
	}
	if len(line2) != lineLength {
		return Fields{}, fmt.Errorf("%w: line 2 length %d, want %d", ErrInvalidFormat, len(line2), lineLength)
	}
	if line1[0] != '1' {
		return Fields{}, fmt.Errorf("%w: line 1 must start with '1'", ErrInvalidFormat)
	}
	if line2[0] != '2' {
		return Fields{}, fmt.Errorf("%w: line 2 must start with '2'", ErrInvalidFormat)
	}
	if err := verifyChecksum(line1, 1); err != nil {
		return Fields{}, err
	}
	if err := verifyChecksum(line2, 2); err != nil {
		return Fields{}, err
	}

	id1, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return Fields{}, fmt.Errorf("%w: line 1 catalog number %q", ErrInvalidFormat, line1[2:7])
	}
	id2, err := strconv.Atoi(strings.TrimSpace(line2[2:7]))
	if err != nil {
		return Fields{}, fmt.Errorf("%w: line 2 catalog number %q", ErrInvalidFormat, line2[2:7])
	}
	if id1 != id2 {
		return Fields{}, fmt.Errorf("%w: catalog number mismatch (%d vs %d)", ErrInvalidFormat, id1, id2)
	}

	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Fields{}, fmt.Errorf("%w: epoch %q: %v", ErrInvalidFormat, line1[18:32], err)
	}

	// Eccentricity is stored with an implied leading decimal point.
	ecc, err := strconv.ParseFloat("0."+strings.TrimSpace(line2[26:33]), 64)
	if err != nil {
		return Fields{}, fmt.Errorf("%w: eccentricity %q", ErrInvalidFormat, line2[26:33])
	}

	meanMotion, err := strconv.ParseFloat(strings.TrimSpace(line2[52:63]), 64)
	if err != nil {
		return Fields{}, fmt.Errorf("%w: mean motion %q", ErrInvalidFormat, line2[52:63])
	}

	incl, err := strconv.ParseFloat(strings.TrimSpace(line2[8:16]), 64)
	if err != nil {
		return Fields{}, fmt.Errorf("%w: inclination %q", ErrInvalidFormat, line2[8:16])
	}

	return Fields{
		NoradID:       id1,
		Epoch:         epoch,
		Eccentricity:  ecc,
		MeanMotion:    meanMotion,
		InclinationDg: incl,
	}, nil
}

// verifyChecksum applies the standard TLE checksum: the sum of all digits
// plus one per minus sign over the first 68 columns, modulo 10, must equal
// the final column.
func verifyChecksum(line string, lineNo int) error {
	var sum int
	for i := 0; i < lineLength-1; i++ {
		c := line[i]
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}

	want := int(line[lineLength-1] - '0')
	if want < 0 || want > 9 {
		return fmt.Errorf("%w: line %d checksum column is not a digit", ErrInvalidFormat, lineNo)
	}
	if sum%10 != want {
		return fmt.Errorf("%w: line %d checksum %d, computed %d", ErrInvalidFormat, lineNo, want, sum%10)
	}
	return nil
}

// parseEpoch converts a TLE epoch in YYDDD.DDDDDDDD form to a UTC time.
// Two-digit years 57-99 map to the 1900s, 00-56 to the 2000s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q", s[:2])
	}
	if year >= 57 {
		year += 1900
	} else {
		year += 2000
	}

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q", s[2:])
	}
	if dayOfYear < 1 || dayOfYear >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %v out of range", dayOfYear)
	}

	start := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	// Day of year is 1-based: day 1.0 is midnight on January 1.
	return start.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}
