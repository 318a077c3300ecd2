package handler_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripbook/internal/domain"
	"github.com/pkordes/tripbook/internal/service"
)

func tripIDs(trips []domain.Trip) []string {
	ids := make([]string, len(trips))
	for i, t := range trips {
		ids[i] = t.ID
	}
	return ids
}

// ---- POST /trips -----------------------------------------------------------

func TestCreateTrip_201(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/trips", map[string]any{
		"destination": "Tokyo",
		"description": "Cherry blossoms",
		"start_date":  "01/06/2025",
		"end_date":    "10/06/2025",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode[domain.Trip](t, rec)
	assert.Equal(t, "T_0601", resp.ID)
	assert.Equal(t, "TOKYO", resp.Destination)
	assert.Equal(t, domain.StatusPlanned, resp.Status)
	assert.Equal(t, 1, f.trips.TripCount())
}

func TestCreateTrip_422_EndBeforeStart(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/trips", map[string]any{
		"destination": "Tokyo",
		"start_date":  "10/06/2025",
		"end_date":    "01/06/2025",
	})

	detail := assertError(t, rec, http.StatusUnprocessableEntity, "validation_error")
	assert.Equal(t, "end_date must not be before start_date", detail.Message)
	assert.Zero(t, f.trips.TripCount())
}

func TestCreateTrip_422_MalformedBody(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/trips", `{"destination":`)

	assertError(t, rec, http.StatusUnprocessableEntity, "validation_error")
}

func TestCreateTrip_409_DuplicateID(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())

	rec := f.do(t, http.MethodPost, "/trips", map[string]any{
		"destination": "Toronto",
		"start_date":  "01/06/2025",
		"end_date":    "05/06/2025",
	})

	detail := assertError(t, rec, http.StatusConflict, "conflict")
	assert.Equal(t, "T_0601: duplicate id", detail.Message)
}

// ---- GET /trips/{id} -------------------------------------------------------

func TestGetTrip_200(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())

	rec := f.do(t, http.MethodGet, "/trips/T_0601", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cherry blossoms", decode[domain.Trip](t, rec).Description)
}

func TestGetTrip_404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/trips/NOPE", nil)

	detail := assertError(t, rec, http.StatusNotFound, "not_found")
	assert.Equal(t, "trip not found", detail.Message)
}

// ---- GET /trips ------------------------------------------------------------

func TestListTrips_FiltersAndSorts(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())
	f.addTrip(t, paris())

	tests := []struct {
		name  string
		query url.Values
		want  []string
	}{
		{"no filter keeps insertion order", url.Values{}, []string{"T_0601", "P_0107"}},
		{"status", url.Values{"status": {"Completed"}}, []string{"P_0107"}},
		{"repeated status", url.Values{"status": {"Completed", "Planned"}}, []string{"T_0601", "P_0107"}},
		{"destination substring", url.Values{"destination": {"tok"}}, []string{"T_0601"}},
		{"exact destination misses substring", url.Values{"destination": {"tok"}, "exact": {"true"}}, []string{}},
		{"keyword", url.Values{"keywords": {"MUSEUMS"}}, []string{"P_0107"}},
		{"case sensitive keyword", url.Values{"keywords": {"MUSEUMS"}, "case_sensitive": {"true"}}, []string{}},
		{"start window", url.Values{"start_from": {"15/06/2025"}}, []string{"P_0107"}},
		{"end window", url.Values{"end_to": {"10/06/2025"}}, []string{"T_0601"}},
		{"sort descending", url.Values{"sort": {"start_date"}, "desc": {"true"}}, []string{"P_0107", "T_0601"}},
		{"sort by destination", url.Values{"sort": {"destination"}}, []string{"P_0107", "T_0601"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/trips?"+tc.query.Encode(), nil)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tc.want, tripIDs(decode[[]domain.Trip](t, rec)))
		})
	}
}

func TestListTrips_422_BadParameters(t *testing.T) {
	f := newFixture(t)

	for _, q := range []string{
		"status=Done",
		"sort=colour",
		"exact=maybe",
		"start_from=June",
	} {
		t.Run(q, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, "/trips?"+q, nil)

			assertError(t, rec, http.StatusUnprocessableEntity, "validation_error")
		})
	}
}

// ---- PUT /trips/{id} -------------------------------------------------------

func TestUpdateTrip_200_KeepsAttendees(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())
	f.addMember(t, john())
	require.NoError(t, f.roster.AddMember(t.Context(), "T_0601", "JD_15031990"))

	rec := f.do(t, http.MethodPut, "/trips/T_0601", map[string]any{
		"destination": "Tokyo",
		"description": "Cherry blossoms and temples",
		"start_date":  "01/06/2025",
		"end_date":    "12/06/2025",
		"status":      "Ongoing",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[domain.Trip](t, rec)
	assert.Equal(t, "T_0601", resp.ID)
	assert.Equal(t, domain.StatusOngoing, resp.Status)
	assert.Equal(t, []string{"JD_15031990"}, resp.MemberIDs)
}

func TestUpdateTrip_200_RenameMovesMemberLinks(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())
	f.addMember(t, john())
	require.NoError(t, f.roster.AddMember(t.Context(), "T_0601", "JD_15031990"))

	rec := f.do(t, http.MethodPut, "/trips/T_0601", map[string]any{
		"id":          "TK_0601",
		"destination": "Tokyo",
		"start_date":  "01/06/2025",
		"end_date":    "10/06/2025",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	m, err := f.people.FindMemberByID("JD_15031990")
	require.NoError(t, err)
	assert.Equal(t, []string{"TK_0601"}, m.JoinedTripIDs)
}

func TestUpdateTrip_404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPut, "/trips/NOPE", map[string]any{
		"destination": "Tokyo",
		"start_date":  "01/06/2025",
		"end_date":    "10/06/2025",
	})

	assertError(t, rec, http.StatusNotFound, "not_found")
}

// ---- DELETE /trips/{id} ----------------------------------------------------

func TestDeleteTrip_204_DropsMemberLinks(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())
	f.addMember(t, john())
	require.NoError(t, f.roster.AddMember(t.Context(), "T_0601", "JD_15031990"))

	rec := f.do(t, http.MethodDelete, "/trips/T_0601", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, f.trips.TripCount())
	m, err := f.people.FindMemberByID("JD_15031990")
	require.NoError(t, err)
	assert.Empty(t, m.JoinedTripIDs)
}

func TestDeleteTrip_404(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())

	rec := f.do(t, http.MethodDelete, "/trips/NOPE", nil)

	assertError(t, rec, http.StatusNotFound, "not_found")
	assert.Equal(t, 1, f.trips.TripCount())
}

// ---- roster ----------------------------------------------------------------

func TestAssignHost_200(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())
	f.addHost(t, anna())

	rec := f.do(t, http.MethodPut, "/trips/T_0601/host", map[string]any{"host_id": "AS_01021980"})

	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[service.TripView](t, rec)
	require.NotNil(t, view.Host)
	assert.Equal(t, "AS_01021980", view.Host.ID)

	h, err := f.people.FindHostByID("AS_01021980")
	require.NoError(t, err)
	assert.Equal(t, []string{"T_0601"}, h.HostedTripIDs)
}

func TestAssignHost_200_EmptyUnassigns(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())
	f.addHost(t, anna())
	require.NoError(t, f.roster.AssignHost(t.Context(), "T_0601", "AS_01021980"))

	rec := f.do(t, http.MethodPut, "/trips/T_0601/host", map[string]any{"host_id": ""})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[service.TripView](t, rec).Host)
}

func TestAssignHost_404_UnknownHost(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())

	rec := f.do(t, http.MethodPut, "/trips/T_0601/host", map[string]any{"host_id": "XX_01010101"})

	assertError(t, rec, http.StatusNotFound, "not_found")
}

func TestTripMembers_AddThenRemove(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())
	f.addMember(t, john())

	rec := f.do(t, http.MethodPost, "/trips/T_0601/members", map[string]any{"member_id": "JD_15031990"})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[service.TripView](t, rec)
	require.Len(t, view.Members, 1)
	assert.Equal(t, "JOHN DOE", view.Members[0].FullName)

	rec = f.do(t, http.MethodDelete, "/trips/T_0601/members/JD_15031990", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodDelete, "/trips/T_0601/members/JD_15031990", nil)
	detail := assertError(t, rec, http.StatusNotFound, "not_found")
	assert.Equal(t, "member is not on this trip", detail.Message)
}

func TestAddTripMember_422_MissingMemberID(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())

	rec := f.do(t, http.MethodPost, "/trips/T_0601/members", map[string]any{})

	assertError(t, rec, http.StatusUnprocessableEntity, "validation_error")
}

func TestGetRoster_200(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())

	rec := f.do(t, http.MethodGet, "/trips/T_0601/roster", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[service.TripView](t, rec)
	assert.Equal(t, "T_0601", view.ID)
	assert.Nil(t, view.Host)
	assert.Empty(t, view.Members)
}

func TestGetRoster_404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/trips/NOPE/roster", nil)

	assertError(t, rec, http.StatusNotFound, "not_found")
}
