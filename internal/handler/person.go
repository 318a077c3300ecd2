package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripbook/internal/domain"
)

// PersonEntry is one row of GET /people: a member or host tagged with its role.
type PersonEntry struct {
	Role   string        `json:"role"`
	Person domain.Person `json:"person"`
}

// ListPeople handles GET /people. Members come first, then hosts.
func (s *Server) ListPeople(w http.ResponseWriter, _ *http.Request) {
	people := s.people.People()
	out := make([]PersonEntry, len(people))
	for i, p := range people {
		out[i] = PersonEntry{Role: p.Role().String(), Person: p}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- members ----------------------------------------------------------------

// ListMembers handles GET /members.
func (s *Server) ListMembers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.people.Members())
}

// CreateMember handles POST /members. Joined trips are ignored; members join
// trips through POST /trips/{id}/members.
func (s *Server) CreateMember(w http.ResponseWriter, r *http.Request) {
	var body domain.Member
	if !s.decodeJSON(w, r, &body) {
		return
	}
	body.JoinedTripIDs = nil

	created, err := s.people.AddMember(r.Context(), body)
	if err != nil {
		s.fail(w, r, err, "member not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetMember handles GET /members/{id}.
func (s *Server) GetMember(w http.ResponseWriter, r *http.Request) {
	m, err := s.people.FindMemberByID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// UpdateMember handles PUT /members/{id}. Joined trips are kept from the
// stored member.
func (s *Server) UpdateMember(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body domain.Member
	if !s.decodeJSON(w, r, &body) {
		return
	}

	existing, err := s.people.FindMemberByID(id)
	if err != nil {
		s.fail(w, r, err, "member not found")
		return
	}
	body.JoinedTripIDs = existing.JoinedTripIDs

	updated, err := s.people.UpdateMember(r.Context(), id, body)
	if err != nil {
		s.fail(w, r, err, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteMember handles DELETE /members/{id}. The member is also taken off
// every trip it had joined.
func (s *Server) DeleteMember(w http.ResponseWriter, r *http.Request) {
	if err := s.people.RemoveMember(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "member not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddInterest handles POST /members/{id}/interests.
func (s *Server) AddInterest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Interest string `json:"interest"`
	}
	if !s.decodeJSON(w, r, &body) {
		return
	}
	interest := strings.TrimSpace(body.Interest)
	if interest == "" {
		requestError(w, "interest is required")
		return
	}
	s.editMember(w, r, func(m *domain.Member) { m.AddInterest(interest) })
}

// AddSpend handles POST /members/{id}/spend, adding amount to the member's
// running total.
func (s *Server) AddSpend(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount *float64 `json:"amount"`
	}
	if !s.decodeJSON(w, r, &body) {
		return
	}
	if body.Amount == nil {
		requestError(w, "amount is required")
		return
	}
	if *body.Amount < 0 {
		requestError(w, "amount must not be negative")
		return
	}
	amount := *body.Amount
	s.editMember(w, r, func(m *domain.Member) { m.AddToTotalSpent(amount) })
}

func (s *Server) editMember(w http.ResponseWriter, r *http.Request, fn func(*domain.Member)) {
	id := chi.URLParam(r, "id")
	m, err := s.people.FindMemberByID(id)
	if err != nil {
		s.fail(w, r, err, "member not found")
		return
	}
	fn(&m)
	updated, err := s.people.UpdateMember(r.Context(), id, m)
	if err != nil {
		s.fail(w, r, err, "member not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// --- hosts ------------------------------------------------------------------

// ListHosts handles GET /hosts.
func (s *Server) ListHosts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.people.Hosts())
}

// CreateHost handles POST /hosts. Hosted trips are ignored; hosts are
// assigned through PUT /trips/{id}/host.
func (s *Server) CreateHost(w http.ResponseWriter, r *http.Request) {
	var body domain.Host
	if !s.decodeJSON(w, r, &body) {
		return
	}
	body.HostedTripIDs = nil

	created, err := s.people.AddHost(r.Context(), body)
	if err != nil {
		s.fail(w, r, err, "host not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetHost handles GET /hosts/{id}.
func (s *Server) GetHost(w http.ResponseWriter, r *http.Request) {
	h, err := s.people.FindHostByID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "host not found")
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// UpdateHost handles PUT /hosts/{id}.
func (s *Server) UpdateHost(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body domain.Host
	if !s.decodeJSON(w, r, &body) {
		return
	}

	existing, err := s.people.FindHostByID(id)
	if err != nil {
		s.fail(w, r, err, "host not found")
		return
	}
	body.HostedTripIDs = existing.HostedTripIDs

	updated, err := s.people.UpdateHost(r.Context(), id, body)
	if err != nil {
		s.fail(w, r, err, "host not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteHost handles DELETE /hosts/{id}. Trips it hosted are left without a host.
func (s *Server) DeleteHost(w http.ResponseWriter, r *http.Request) {
	if err := s.people.RemoveHost(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "host not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
