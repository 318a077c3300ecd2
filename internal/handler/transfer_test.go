package handler_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripbook/internal/domain"
	"github.com/pkordes/tripbook/internal/handler"
	"github.com/pkordes/tripbook/internal/middleware"
)

const plainTrips = "Destination,Description,StartDate,EndDate,Status\n" +
	"Tokyo,Cherry blossoms,01/06/2025,10/06/2025,Planned\n" +
	"Paris,Museums,soon,14/07/2025,Planned\n"

// ---- POST /import/trips ----------------------------------------------------

func TestImportTrips_PlainSkipsBadRows(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/import/trips", plainTrips)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handler.ImportResponse](t, rec)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Imported)
	assert.Equal(t, 1, resp.Failed)
	assert.Equal(t, "Imported 1 of 2 records", resp.Summary)
	assert.Len(t, resp.Errors, 1)
	assert.NotEmpty(t, resp.BatchID)
	assert.Empty(t, resp.Trips)

	_, err := f.trips.FindTripByID("T_0601")
	assert.NoError(t, err)
}

func TestImportTrips_PreviewStoresNothing(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/import/trips?preview=true", plainTrips)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handler.ImportResponse](t, rec)
	require.Len(t, resp.Trips, 1)
	assert.Equal(t, "T_0601", resp.Trips[0].ID)
	assert.Zero(t, f.trips.TripCount())
}

func TestImportTrips_CacheFormResolvesAttendees(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, john())

	body := "ID,Destination,Description,StartDate,EndDate,Status,HostID,MemberIDs\n" +
		"T_0601,TOKYO,Cherry blossoms,01/06/2025,10/06/2025,Ongoing,AS_01021980,JD_15031990;XX_01010101\n"
	rec := f.do(t, http.MethodPost, "/import/trips?form=cache&header=yes", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[handler.ImportResponse](t, rec).Imported)

	trip, err := f.trips.FindTripByID("T_0601")
	require.NoError(t, err)
	assert.False(t, trip.HasHost())
	assert.Equal(t, []string{"JD_15031990"}, trip.MemberIDs)

	m, err := f.people.FindMemberByID("JD_15031990")
	require.NoError(t, err)
	assert.Equal(t, []string{"T_0601"}, m.JoinedTripIDs)
}

func TestImportTrips_DuplicateCountsAsFailed(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())

	rec := f.do(t, http.MethodPost, "/import/trips", plainTrips)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handler.ImportResponse](t, rec)
	assert.Zero(t, resp.Imported)
	assert.Equal(t, 2, resp.Failed)
}

func TestImportTrips_422_BadOptions(t *testing.T) {
	f := newFixture(t)

	for _, q := range []string{"form=xml", "header=sometimes", "preview=perhaps"} {
		t.Run(q, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/import/trips?"+q, plainTrips)

			assertError(t, rec, http.StatusUnprocessableEntity, "validation_error")
		})
	}
}

func TestImportTrips_413_BodyTooLarge(t *testing.T) {
	f := newFixture(t)
	h := middleware.NewMaxBodySizeHandler(16)(f.h)

	req := httptest.NewRequest(http.MethodPost, "/import/trips", strings.NewReader(plainTrips))
	// Unknown length, so the limit is only hit while reading.
	req.ContentLength = -1
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assertError(t, rec, http.StatusRequestEntityTooLarge, "payload_too_large")
	assert.Zero(t, f.trips.TripCount())
}

// ---- POST /import/people ---------------------------------------------------

func TestImportPeople(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, john())

	body := "FullName,DOB,Email,Phone,Gender,Address,Role,EmergencyContact,Interests,TotalSpent\n" +
		"John Doe,15/03/1990,john@example.com,555-0100,Male,1 Main St,Member,,,\n" +
		"Anna Smith,01/02/1980,anna@example.com,555-0101,Female,2 Side St,Host,,,\n" +
		"Bob Stone,05/05/1985,bob@example.com,555-0102,Male,3 Hill Rd,Pilot,,,\n"
	rec := f.do(t, http.MethodPost, "/import/people", body)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[handler.ImportResponse](t, rec)
	assert.Equal(t, 3, resp.Total)
	assert.Equal(t, 1, resp.Imported)
	assert.Equal(t, 2, resp.Failed)

	_, err := f.people.FindHostByID("AS_01021980")
	assert.NoError(t, err)
}

// ---- GET /export/* ---------------------------------------------------------

func TestExportTrips_CSV(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())

	rec := f.do(t, http.MethodGet, "/export/trips", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="cache.csv"`)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "ID,Destination,Description,StartDate,EndDate,Status,HostID,MemberIDs", lines[0])
	assert.Equal(t, "T_0601,TOKYO,Cherry blossoms,01/06/2025,10/06/2025,Planned,,", lines[1])
}

func TestExportTrips_JSON(t *testing.T) {
	f := newFixture(t)
	f.addTrip(t, tokyo())
	f.addTrip(t, paris())

	rec := f.do(t, http.MethodGet, "/export/trips?format=json", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"T_0601", "P_0107"}, tripIDs(decode[[]domain.Trip](t, rec)))
}

func TestExportTrips_422_UnknownFormat(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/export/trips?format=xml", nil)

	assertError(t, rec, http.StatusUnprocessableEntity, "validation_error")
}

func TestExportPeople_CSV(t *testing.T) {
	f := newFixture(t)
	f.addMember(t, john())
	f.addHost(t, anna())

	rec := f.do(t, http.MethodGet, "/export/people", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="people_cache.csv"`)
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "JOHN DOE,15/03/1990,"))
	assert.True(t, strings.HasPrefix(lines[2], "ANNA SMITH,01/02/1980,"))
}

func TestExport_500_WhenWriteFails(t *testing.T) {
	f := newFixtureWith(t, &mockTransfer{
		exportPeople: func(io.Writer) error { return errors.New("disk on fire") },
	})

	rec := f.do(t, http.MethodGet, "/export/people", nil)

	detail := assertError(t, rec, http.StatusInternalServerError, "internal_error")
	assert.NotContains(t, detail.Message, "disk on fire")
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}
