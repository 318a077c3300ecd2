package handler_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripbook/internal/domain"
)

// ---- GET /people -----------------------------------------------------------

func TestListPeople_MembersThenHosts(t *testing.T) {
	f := newFixture(t)
	f.addHost(t, anna())
	f.addMember(t, john())

	rec := f.do(t, http.MethodGet, "/people", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]struct {
		Role   string         `json:"role"`
		Person map[string]any `json:"person"`
	}](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, "Member", entries[0].Role)
	assert.Equal(t, "JD_15031990", entries[0].Person["id"])
	assert.Equal(t, "Host", entries[1].Role)
	assert.Equal(t, "AS_01021980", entries[1].Person["id"])
}

// ---- /members --------------------------------------------------------------

func TestCreateMember_201_DerivesID(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/members", map[string]any{
		"full_name":       "John Doe",
		"date_of_birth":   "15/03/1990",
		"gender":          "Male",
		"interests":       []string{"Hiking"},
		"joined_trip_ids": []string{"T_0601"},
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	m := decode[domain.Member](t, rec)
	assert.Equal(t, "JD_15031990", m.ID)
	assert.Equal(t, []string{"Hiking"}, m.Interests)
	assert.Empty(t, m.JoinedTripIDs)
}

func TestCreateMember_422_MissingName(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/members", map[string]any{"date_of_birth": "15/03/1990"})

	detail := assertError(t, rec, http.StatusUnprocessableEntity, "validation_error")
	assert.Equal(t, "full_name is required", detail.Message)
}

func TestCreateMember_409_Duplicate(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, john())

	rec := f.do(t, http.MethodPost, "/members", map[string]any{
		"full_name":     "JOHN DOE",
		"date_of_birth": "15/03/1990",
	})

	assertError(t, rec, http.StatusConflict, "conflict")
}

func TestGetMember(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, john())

	rec := f.do(t, http.MethodGet, "/members/JD_15031990", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "john@example.com", decode[domain.Member](t, rec).Email)

	rec = f.do(t, http.MethodGet, "/members/XX_01010101", nil)
	detail := assertError(t, rec, http.StatusNotFound, "not_found")
	assert.Equal(t, "member not found", detail.Message)
}

func TestUpdateMember_200_KeepsJoinedTrips(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())
	f.addMember(t, john())
	require.NoError(t, f.roster.AddMember(t.Context(), "T_0601", "JD_15031990"))

	rec := f.do(t, http.MethodPut, "/members/JD_15031990", map[string]any{
		"full_name":     "JOHN DOE",
		"date_of_birth": "15/03/1990",
		"email":         "jd@example.com",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	m := decode[domain.Member](t, rec)
	assert.Equal(t, "JD_15031990", m.ID)
	assert.Equal(t, "jd@example.com", m.Email)
	assert.Equal(t, []string{"T_0601"}, m.JoinedTripIDs)
}

func TestDeleteMember_204_LeavesTrips(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())
	f.addMember(t, john())
	require.NoError(t, f.roster.AddMember(t.Context(), "T_0601", "JD_15031990"))

	rec := f.do(t, http.MethodDelete, "/members/JD_15031990", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	trip, err := f.trips.FindTripByID("T_0601")
	require.NoError(t, err)
	assert.Empty(t, trip.MemberIDs)
}

func TestDeleteMember_404(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodDelete, "/members/XX_01010101", nil)

	assertError(t, rec, http.StatusNotFound, "not_found")
}

func TestAddInterest(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, john())

	rec := f.do(t, http.MethodPost, "/members/JD_15031990/interests", map[string]any{"interest": "Hiking"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Hiking"}, decode[domain.Member](t, rec).Interests)

	rec = f.do(t, http.MethodPost, "/members/JD_15031990/interests", map[string]any{"interest": "  "})
	assertError(t, rec, http.StatusUnprocessableEntity, "validation_error")
}

func TestAddSpend(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, john())

	tests := []struct {
		name   string
		target string
		body   map[string]any
		status int
	}{
		{"adds amount", "/members/JD_15031990/spend", map[string]any{"amount": 12.5}, http.StatusOK},
		{"missing amount", "/members/JD_15031990/spend", map[string]any{}, http.StatusUnprocessableEntity},
		{"negative amount", "/members/JD_15031990/spend", map[string]any{"amount": -1}, http.StatusUnprocessableEntity},
		{"unknown member", "/members/XX_01010101/spend", map[string]any{"amount": 1}, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, tc.target, tc.body)

			assert.Equal(t, tc.status, rec.Code)
		})
	}

	m, err := f.people.FindMemberByID("JD_15031990")
	require.NoError(t, err)
	assert.InDelta(t, 12.5, m.TotalSpent, 0.001)
}

// ---- /hosts ----------------------------------------------------------------

func TestCreateHost_201(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/hosts", map[string]any{
		"full_name":     "ANNA SMITH",
		"date_of_birth": "01/02/1980",
		"gender":        "Female",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	h := decode[domain.Host](t, rec)
	assert.Equal(t, "AS_01021980", h.ID)
	assert.Equal(t, domain.GenderFemale, h.Gender)

	rec = f.do(t, http.MethodGet, "/hosts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Host](t, rec), 1)
}

func TestUpdateHost_200_RenameMovesTripHost(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())
	f.addHost(t, anna())
	require.NoError(t, f.roster.AssignHost(t.Context(), "T_0601", "AS_01021980"))

	rec := f.do(t, http.MethodPut, "/hosts/AS_01021980", map[string]any{
		"id":            "ANNA_1",
		"full_name":     "ANNA SMITH",
		"date_of_birth": "01/02/1980",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	trip, err := f.trips.FindTripByID("T_0601")
	require.NoError(t, err)
	assert.Equal(t, "ANNA_1", trip.HostID)
}

func TestDeleteHost_204_LeavesTripWithoutHost(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())
	f.addHost(t, anna())
	require.NoError(t, f.roster.AssignHost(t.Context(), "T_0601", "AS_01021980"))

	rec := f.do(t, http.MethodDelete, "/hosts/AS_01021980", nil)

	require.Equal(t, http.StatusNoContent, rec.Code)
	trip, err := f.trips.FindTripByID("T_0601")
	require.NoError(t, err)
	assert.False(t, trip.HasHost())

	rec = f.do(t, http.MethodGet, "/hosts/AS_01021980", nil)
	assertError(t, rec, http.StatusNotFound, "not_found")
}
