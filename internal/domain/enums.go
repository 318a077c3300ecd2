package domain

// Status is the lifecycle stage of a trip.
type Status int

const (
	StatusPlanned Status = iota
	StatusOngoing
	StatusCompleted
	StatusCancelled
)

// Statuses lists every status in declaration order.
var Statuses = []Status{StatusPlanned, StatusOngoing, StatusCompleted, StatusCancelled}

func (s Status) String() string {
	switch s {
	case StatusOngoing:
		return "Ongoing"
	case StatusCompleted:
		return "Completed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Planned"
	}
}

// ParseStatus maps the exact, case-sensitive status names. Anything else
// falls back to StatusPlanned; it never fails.
func ParseStatus(s string) Status {
	switch s {
	case "Ongoing":
		return StatusOngoing
	case "Completed":
		return StatusCompleted
	case "Cancelled":
		return StatusCancelled
	default:
		return StatusPlanned
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}

// Gender of a person. Unrecognised input maps to GenderMale.
type Gender int

const (
	GenderMale Gender = iota
	GenderFemale
)

func (g Gender) String() string {
	if g == GenderFemale {
		return "Female"
	}
	return "Male"
}

// ParseGender maps "Male" and "Female" exactly; anything else is GenderMale.
func ParseGender(s string) Gender {
	if s == "Female" {
		return GenderFemale
	}
	return GenderMale
}

func (g Gender) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Gender) UnmarshalText(b []byte) error {
	*g = ParseGender(string(b))
	return nil
}

// Role tags the two person variants.
type Role int

const (
	RoleMember Role = iota
	RoleHost
)

func (r Role) String() string {
	if r == RoleHost {
		return "Host"
	}
	return "Member"
}

// ParseRole maps "Member" and "Host". ok is false for anything else, which
// callers treat as a row to drop.
func ParseRole(s string) (r Role, ok bool) {
	switch s {
	case "Member":
		return RoleMember, true
	case "Host":
		return RoleHost, true
	}
	return 0, false
}
