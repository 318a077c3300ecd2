package domain

import (
	"fmt"
	"slices"
	"time"
)

// Identity holds the fields every person carries regardless of role.
type Identity struct {
	ID          string `json:"id"`
	FullName    string `json:"full_name"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Address     string `json:"address,omitempty"`
	Gender      Gender `json:"gender"`
	DateOfBirth Date   `json:"date_of_birth"`
}

// Age returns the number of full years between the date of birth and at.
func (i Identity) Age(at time.Time) int {
	now := DateOf(at)
	age := now.Year - i.DateOfBirth.Year
	if now.Month < i.DateOfBirth.Month || (now.Month == i.DateOfBirth.Month && now.Day < i.DateOfBirth.Day) {
		age--
	}
	return age
}

// ContactInfo renders email and phone on one line.
func (i Identity) ContactInfo() string {
	return fmt.Sprintf("Email: %s | Phone: %s", i.Email, i.PhoneNumber)
}

// Person is the closed set {Member, Host}. Branch on it with a type switch:
//
//	switch p := p.(type) {
//	case Member: ...
//	case Host: ...
//	}
type Person interface {
	Ident() Identity
	Role() Role
	person()
}

// Member attends trips.
type Member struct {
	Identity
	JoinedTripIDs    []string `json:"joined_trip_ids"`
	EmergencyContact string   `json:"emergency_contact,omitempty"`
	HasDriverLicense bool     `json:"has_driver_license"`
	Interests        []string `json:"interests"`
	TotalSpent       float64  `json:"total_spent"`
}

func (m Member) Ident() Identity { return m.Identity }
func (Member) Role() Role         { return RoleMember }
func (Member) person()            {}

// JoinTrip records tripID once; joining again is a no-op.
func (m *Member) JoinTrip(tripID string) {
	if !m.HasJoinedTrip(tripID) {
		m.JoinedTripIDs = append(m.JoinedTripIDs, tripID)
	}
}

// LeaveTrip forgets tripID. Leaving a trip never joined is a no-op.
func (m *Member) LeaveTrip(tripID string) {
	if i := slices.Index(m.JoinedTripIDs, tripID); i >= 0 {
		m.JoinedTripIDs = slices.Delete(m.JoinedTripIDs, i, i+1)
	}
}

func (m Member) HasJoinedTrip(tripID string) bool {
	return slices.Contains(m.JoinedTripIDs, tripID)
}

// LastJoinedTripID returns the most recently joined trip, or "".
func (m Member) LastJoinedTripID() string {
	if len(m.JoinedTripIDs) == 0 {
		return ""
	}
	return m.JoinedTripIDs[len(m.JoinedTripIDs)-1]
}

func (m Member) JoinedTripCount() int { return len(m.JoinedTripIDs) }

// AddInterest appends interest unless it is already listed.
func (m *Member) AddInterest(interest string) {
	if !slices.Contains(m.Interests, interest) {
		m.Interests = append(m.Interests, interest)
	}
}

func (m *Member) AddToTotalSpent(amount float64) {
	m.TotalSpent += amount
}

// Info is the one-line summary shown in people lists.
func (m Member) Info(at time.Time) string {
	return fmt.Sprintf("%s - %d - %s", m.FullName, m.Age(at), m.Gender)
}

// Host organises trips.
type Host struct {
	Identity
	HostedTripIDs    []string `json:"hosted_trip_ids"`
	EmergencyContact string   `json:"emergency_contact,omitempty"`
}

func (h Host) Ident() Identity { return h.Identity }
func (Host) Role() Role         { return RoleHost }
func (Host) person()            {}

// HostTrip records tripID once.
func (h *Host) HostTrip(tripID string) {
	if !h.HasHostedTrip(tripID) {
		h.HostedTripIDs = append(h.HostedTripIDs, tripID)
	}
}

// DropTrip forgets tripID; a no-op when it was never hosted.
func (h *Host) DropTrip(tripID string) {
	if i := slices.Index(h.HostedTripIDs, tripID); i >= 0 {
		h.HostedTripIDs = slices.Delete(h.HostedTripIDs, i, i+1)
	}
}

func (h Host) HasHostedTrip(tripID string) bool {
	return slices.Contains(h.HostedTripIDs, tripID)
}

func (h Host) Info(at time.Time) string {
	return fmt.Sprintf("%s - %d - %s (host)", h.FullName, h.Age(at), h.Gender)
}

// Clone returns a deep copy of m so callers can mutate slices freely.
func (m Member) Clone() Member {
	m.JoinedTripIDs = slices.Clone(m.JoinedTripIDs)
	m.Interests = slices.Clone(m.Interests)
	return m
}

// Clone returns a deep copy of h.
func (h Host) Clone() Host {
	h.HostedTripIDs = slices.Clone(h.HostedTripIDs)
	return h
}
