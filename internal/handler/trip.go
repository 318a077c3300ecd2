package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/tripbook/internal/domain"
	"github.com/pkordes/tripbook/internal/service"
)

// TripRequest is the body of POST /trips and PUT /trips/{id}.
// An empty ID on create lets the server derive one.
type TripRequest struct {
	ID          string         `json:"id"`
	Destination string         `json:"destination"`
	Description string         `json:"description"`
	StartDate   domain.Date    `json:"start_date"`
	EndDate     domain.Date    `json:"end_date"`
	Status      *domain.Status `json:"status"`
}

// ListTripsParams are the query parameters of GET /trips.
type ListTripsParams struct {
	Destination   *string   `form:"destination"`
	Exact         *bool     `form:"exact"`
	Status        *[]string `form:"status"`
	Keywords      *[]string `form:"keywords"`
	CaseSensitive *bool     `form:"case_sensitive"`
	StartFrom     *string   `form:"start_from"`
	StartTo       *string   `form:"start_to"`
	EndFrom       *string   `form:"end_from"`
	EndTo         *string   `form:"end_to"`
	Sort          *string   `form:"sort"`
	Desc          *bool     `form:"desc"`
}

// ListTrips handles GET /trips.
// Every filter is optional; ?status= and ?keywords= may repeat.
func (s *Server) ListTrips(w http.ResponseWriter, r *http.Request) {
	var params ListTripsParams
	q := r.URL.Query()
	for _, b := range []struct {
		name string
		dest any
	}{
		{"destination", &params.Destination},
		{"exact", &params.Exact},
		{"status", &params.Status},
		{"keywords", &params.Keywords},
		{"case_sensitive", &params.CaseSensitive},
		{"start_from", &params.StartFrom},
		{"start_to", &params.StartTo},
		{"end_from", &params.EndFrom},
		{"end_to", &params.EndTo},
		{"sort", &params.Sort},
		{"desc", &params.Desc},
	} {
		if err := runtime.BindQueryParameter("form", true, false, b.name, q, b.dest); err != nil {
			requestError(w, fmt.Sprintf("invalid format for parameter %s: %v", b.name, err))
			return
		}
	}

	filter, sort, err := params.toQuery()
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, s.trips.Query(filter, sort))
}

// CreateTrip handles POST /trips.
func (s *Server) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var body TripRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}

	created, err := s.trips.AddTrip(r.Context(), body.toTrip(domain.Trip{}))
	if err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetTrip handles GET /trips/{id}.
func (s *Server) GetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.trips.FindTripByID(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, trip)
}

// UpdateTrip handles PUT /trips/{id}. The host and member lists are kept
// from the stored trip; change them through the roster endpoints.
func (s *Server) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body TripRequest
	if !s.decodeJSON(w, r, &body) {
		return
	}

	existing, err := s.trips.FindTripByID(id)
	if err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	updated, err := s.trips.UpdateTrip(r.Context(), id, body.toTrip(existing))
	if err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteTrip handles DELETE /trips/{id}.
func (s *Server) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	if err := s.trips.RemoveTrip(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRoster handles GET /trips/{id}/roster.
func (s *Server) GetRoster(w http.ResponseWriter, r *http.Request) {
	view, err := s.roster.View(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// AssignHost handles PUT /trips/{id}/host. An empty host_id unassigns.
func (s *Server) AssignHost(w http.ResponseWriter, r *http.Request) {
	var body struct {
		HostID string `json:"host_id"`
	}
	if !s.decodeJSON(w, r, &body) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.roster.AssignHost(r.Context(), id, strings.TrimSpace(body.HostID)); err != nil {
		s.fail(w, r, err, "trip or host not found")
		return
	}
	s.writeRoster(w, r, id)
}

// AddTripMember handles POST /trips/{id}/members.
func (s *Server) AddTripMember(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MemberID string `json:"member_id"`
	}
	if !s.decodeJSON(w, r, &body) {
		return
	}
	memberID := strings.TrimSpace(body.MemberID)
	if memberID == "" {
		requestError(w, "member_id is required")
		return
	}
	id := chi.URLParam(r, "id")
	if err := s.roster.AddMember(r.Context(), id, memberID); err != nil {
		s.fail(w, r, err, "trip or member not found")
		return
	}
	s.writeRoster(w, r, id)
}

// RemoveTripMember handles DELETE /trips/{id}/members/{memberID}.
func (s *Server) RemoveTripMember(w http.ResponseWriter, r *http.Request) {
	err := s.roster.RemoveMember(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "memberID"))
	if err != nil {
		s.fail(w, r, err, "member is not on this trip")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeRoster(w http.ResponseWriter, r *http.Request, id string) {
	view, err := s.roster.View(id)
	if err != nil {
		s.fail(w, r, err, "trip not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// --- mapping helpers --------------------------------------------------------

// toTrip overlays the request on base. Status defaults to Planned on create
// and to the stored status on update.
func (b TripRequest) toTrip(base domain.Trip) domain.Trip {
	t := base
	t.ID = b.ID
	t.Destination = b.Destination
	t.Description = b.Description
	t.StartDate = b.StartDate
	t.EndDate = b.EndDate
	if b.Status != nil {
		t.Status = *b.Status
	}
	return t
}

// toQuery turns the raw parameters into a filter and sort order.
func (p ListTripsParams) toQuery() (service.TripFilter, service.TripSort, error) {
	var f service.TripFilter
	var srt service.TripSort

	if p.Destination != nil {
		f.Destination = *p.Destination
	}
	if p.Exact != nil {
		f.ExactDestination = *p.Exact
	}
	if p.Status != nil {
		for _, raw := range *p.Status {
			st, err := parseStatusStrict(raw)
			if err != nil {
				return f, srt, err
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	if p.Keywords != nil {
		f.Keywords = *p.Keywords
	}
	if p.CaseSensitive != nil {
		f.CaseSensitive = *p.CaseSensitive
	}
	for _, d := range []struct {
		name string
		raw  *string
		dest *domain.Date
	}{
		{"start_from", p.StartFrom, &f.StartFrom},
		{"start_to", p.StartTo, &f.StartTo},
		{"end_from", p.EndFrom, &f.EndFrom},
		{"end_to", p.EndTo, &f.EndTo},
	} {
		if d.raw == nil || *d.raw == "" {
			continue
		}
		parsed, err := domain.ParseDate(*d.raw)
		if err != nil {
			return f, srt, fmt.Errorf("%w: %s: %v", domain.ErrValidation, d.name, err)
		}
		*d.dest = parsed
	}

	if p.Sort != nil {
		key, err := service.ParseSortKey(*p.Sort)
		if err != nil {
			return f, srt, err
		}
		srt.Key = key
	}
	if p.Desc != nil {
		srt.Descending = *p.Desc
	}
	return f, srt, nil
}

// parseStatusStrict rejects names domain.ParseStatus would quietly map to
// Planned.
func parseStatusStrict(raw string) (domain.Status, error) {
	st := domain.ParseStatus(raw)
	if st.String() != raw {
		return 0, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, raw)
	}
	return st, nil
}
