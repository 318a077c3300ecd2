// Package domain contains the core data types for the trip book: dates,
// trips, members and hosts, plus the ID schemes derived from them.
// This package has no dependencies outside the standard library and is
// imported by every other internal package.
package domain

import (
	"cmp"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the textual form used in every CSV column and JSON field.
const DateLayout = "DD/MM/YYYY"

// Date is a calendar day without time or zone. No calendar validation is
// performed: 31/02/2024 is a legal value.
type Date struct {
	Day   int
	Month int
	Year  int
}

// NewDate builds a Date from its parts.
func NewDate(day, month, year int) Date {
	return Date{Day: day, Month: month, Year: year}
}

// DateOf returns the calendar day of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Day: d, Month: int(m), Year: y}
}

// ParseDate parses a DD/MM/YYYY string.
// It fails with a *ParseError unless there are exactly three '/'-separated
// numeric tokens.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return Date{}, &ParseError{Err: fmt.Errorf("date %q: want %s", s, DateLayout)}
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Date{}, &ParseError{Err: fmt.Errorf("date %q: %w", s, errors.Unwrap(err))}
		}
		nums[i] = n
	}
	return Date{Day: nums[0], Month: nums[1], Year: nums[2]}, nil
}

// MustParseDate is ParseDate for literals in tests and fixtures. It panics on
// malformed input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic("domain: " + err.Error())
	}
	return d
}

// String formats d as DD/MM/YYYY.
func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, d.Month, d.Year)
}

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool {
	return d == Date{}
}

// Compare orders dates chronologically by (year, month, day).
// It returns -1, 0 or +1.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmp.Compare(d.Year, o.Year)
	case d.Month != o.Month:
		return cmp.Compare(d.Month, o.Month)
	default:
		return cmp.Compare(d.Day, o.Day)
	}
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }

// After reports whether d is strictly later than o.
func (d Date) After(o Date) bool { return d.Compare(o) > 0 }

// Equal reports whether d and o are the same day.
func (d Date) Equal(o Date) bool { return d == o }

// Time returns midnight UTC of d. Out-of-range parts are normalised by
// time.Date, so 31/02/2024 becomes 2 March 2024.
func (d Date) Time() time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
}

// MarshalText implements encoding.TextMarshaler so dates travel as
// DD/MM/YYYY in JSON.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
