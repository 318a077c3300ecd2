package domain

import "slices"

// Trip is a destination, a date range and a status, plus references to the
// people involved. Host and members are held by ID; resolve them through the
// person manager to read their current details.
//
// The type itself does not enforce EndDate >= StartDate, a host, or any
// members. Those rules live in the service and transport layers.
type Trip struct {
	ID          string   `json:"id"`
	Destination string   `json:"destination"`
	Description string   `json:"description"`
	StartDate   Date     `json:"start_date"`
	EndDate     Date     `json:"end_date"`
	Status      Status   `json:"status"`
	HostID      string   `json:"host_id,omitempty"` // "" means no host
	MemberIDs   []string `json:"member_ids"`
}

func (t Trip) HasHost() bool { return t.HostID != "" }

func (t *Trip) SetHost(hostID string) { t.HostID = hostID }

// AddMember appends memberID unless it is already attending.
func (t *Trip) AddMember(memberID string) {
	if !t.HasMember(memberID) {
		t.MemberIDs = append(t.MemberIDs, memberID)
	}
}

// RemoveMember drops memberID and reports whether it was present.
func (t *Trip) RemoveMember(memberID string) bool {
	i := slices.Index(t.MemberIDs, memberID)
	if i < 0 {
		return false
	}
	t.MemberIDs = slices.Delete(t.MemberIDs, i, i+1)
	return true
}

func (t Trip) HasMember(memberID string) bool {
	return slices.Contains(t.MemberIDs, memberID)
}

// Clone returns a deep copy of t.
func (t Trip) Clone() Trip {
	t.MemberIDs = slices.Clone(t.MemberIDs)
	return t
}
