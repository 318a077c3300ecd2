package service

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/pkordes/tripbook/internal/domain"
)

// TripFilter selects trips. Zero-valued fields do not constrain; a zero
// TripFilter matches everything.
type TripFilter struct {
	// Destination matches case-insensitively, as a substring unless
	// ExactDestination is set.
	Destination      string
	ExactDestination bool

	// Statuses restricts to any of the listed statuses.
	Statuses []domain.Status

	// Keywords match when any one appears in the description.
	Keywords      []string
	CaseSensitive bool

	// StartFrom/StartTo and EndFrom/EndTo are inclusive date windows.
	StartFrom, StartTo domain.Date
	EndFrom, EndTo     domain.Date
}

// Match reports whether t passes every constraint in f.
func (f TripFilter) Match(t domain.Trip) bool {
	if f.Destination != "" {
		want := strings.ToUpper(strings.TrimSpace(f.Destination))
		got := strings.ToUpper(t.Destination)
		if f.ExactDestination && got != want {
			return false
		}
		if !f.ExactDestination && !strings.Contains(got, want) {
			return false
		}
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.Keywords) > 0 && !f.matchKeywords(t.Description) {
		return false
	}
	return inWindow(t.StartDate, f.StartFrom, f.StartTo) && inWindow(t.EndDate, f.EndFrom, f.EndTo)
}

func (f TripFilter) matchKeywords(description string) bool {
	if !f.CaseSensitive {
		description = strings.ToLower(description)
	}
	for _, k := range f.Keywords {
		if k == "" {
			continue
		}
		if !f.CaseSensitive {
			k = strings.ToLower(k)
		}
		if strings.Contains(description, k) {
			return true
		}
	}
	return false
}

func inWindow(d, from, to domain.Date) bool {
	if !from.IsZero() && d.Before(from) {
		return false
	}
	if !to.IsZero() && d.After(to) {
		return false
	}
	return true
}

// SortKey names the field trips are ordered by.
type SortKey string

const (
	SortNone              SortKey = ""
	SortStartDate         SortKey = "start_date"
	SortEndDate           SortKey = "end_date"
	SortDestination       SortKey = "destination"
	SortID                SortKey = "id"
	SortStatus            SortKey = "status"
	SortDescriptionLength SortKey = "description_length"
)

// ParseSortKey accepts the SortKey names; "" means insertion order.
func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case SortNone, SortStartDate, SortEndDate, SortDestination, SortID, SortStatus, SortDescriptionLength:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown sort key %q", domain.ErrValidation, s)
}

// TripSort orders a result set. Ties keep their insertion order.
type TripSort struct {
	Key        SortKey
	Descending bool
}

// Apply sorts trips in place.
func (s TripSort) Apply(trips []domain.Trip) {
	var compare func(a, b domain.Trip) int
	switch s.Key {
	case SortStartDate:
		compare = func(a, b domain.Trip) int { return a.StartDate.Compare(b.StartDate) }
	case SortEndDate:
		compare = func(a, b domain.Trip) int { return a.EndDate.Compare(b.EndDate) }
	case SortDestination:
		compare = func(a, b domain.Trip) int { return strings.Compare(a.Destination, b.Destination) }
	case SortID:
		compare = func(a, b domain.Trip) int { return strings.Compare(a.ID, b.ID) }
	case SortStatus:
		compare = func(a, b domain.Trip) int { return cmp.Compare(a.Status, b.Status) }
	case SortDescriptionLength:
		compare = func(a, b domain.Trip) int { return cmp.Compare(len(a.Description), len(b.Description)) }
	default:
		return
	}
	if s.Descending {
		asc := compare
		compare = func(a, b domain.Trip) int { return asc(b, a) }
	}
	slices.SortStableFunc(trips, compare)
}
