package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// NewTripID derives a trip ID from the destination's initials and the start
// date: "Hoi An" starting 01/06/2025 becomes "HA_0601". The first character
// of the destination and every character following a space are taken, then
// upper-cased. An empty destination yields "TRIP_<seq>".
//
// IDs are deterministic, not unique: two destinations with the same initials
// starting on the same day collide.
func NewTripID(destination string, start Date, seq int) string {
	initials := initialsAfterSpace(destination)
	if initials == "" {
		return fmt.Sprintf("TRIP_%d", seq)
	}
	return fmt.Sprintf("%s_%02d%02d", initials, start.Month, start.Day)
}

// NewPersonID derives a person ID from the initials of each word of the name
// and the birth date: "JOHN DOE" born 15/03/1990 becomes "JD_15031990".
// The same name and birth date always produce the same ID, so re-importing a
// person resolves to the existing record.
func NewPersonID(fullName string, dob Date) string {
	var b strings.Builder
	for _, w := range strings.Fields(fullName) {
		r := []rune(w)[0]
		b.WriteRune(unicode.ToUpper(r))
	}
	if b.Len() == 0 {
		b.WriteByte('P')
	}
	return fmt.Sprintf("%s_%02d%02d%04d", b.String(), dob.Day, dob.Month, dob.Year)
}

func initialsAfterSpace(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if r == ' ' {
			continue
		}
		if i == 0 || runes[i-1] == ' ' {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}
