package repo_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripbook/internal/domain"
	"github.com/pkordes/tripbook/internal/repo"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memberFixture() domain.Member {
	return domain.Member{
		Identity: domain.Identity{
			ID:          "JD_15031990",
			FullName:    "JOHN DOE",
			Email:       "john@x.com",
			PhoneNumber: "0901234567",
			Address:     "Hanoi",
			Gender:      domain.GenderMale,
			DateOfBirth: domain.NewDate(15, 3, 1990),
		},
		EmergencyContact: "Jane",
		HasDriverLicense: true,
		Interests:        []string{"hiking", "food"},
		TotalSpent:       100.5,
	}
}

func hostFixture() domain.Host {
	return domain.Host{
		Identity: domain.Identity{
			ID:          "AS_01021980",
			FullName:    "ANNA SMITH",
			Email:       "anna@x.com",
			Gender:      domain.GenderFemale,
			DateOfBirth: domain.NewDate(1, 2, 1980),
		},
		EmergencyContact: "Bob",
	}
}

func tripFixture() domain.Trip {
	return domain.Trip{
		ID:          "T_0601",
		Destination: "TOKYO",
		Description: "Spring, with friends",
		StartDate:   domain.NewDate(1, 6, 2025),
		EndDate:     domain.NewDate(10, 6, 2025),
		Status:      domain.StatusPlanned,
		HostID:      "AS_01021980",
		MemberIDs:   []string{"JD_15031990"},
	}
}

func TestCSVPeopleStore_Load_NoFile(t *testing.T) {
	s := repo.NewCSVPeopleStore(filepath.Join(t.TempDir(), "people_cache.csv"), discardLogger())

	_, _, err := s.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCSVPeopleStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people_cache.csv")
	s := repo.NewCSVPeopleStore(path, discardLogger())
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, []domain.Member{memberFixture()}, []domain.Host{hostFixture()}))

	members, hosts, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Len(t, hosts, 1)

	m := members[0]
	assert.Equal(t, "JD_15031990", m.ID)
	assert.Equal(t, "JOHN DOE", m.FullName)
	assert.Equal(t, []string{"hiking", "food"}, m.Interests)
	assert.InDelta(t, 100.5, m.TotalSpent, 0.001)
	assert.True(t, m.HasDriverLicense)
	assert.Equal(t, "AS_01021980", hosts[0].ID)
	assert.Equal(t, domain.GenderFemale, hosts[0].Gender)
}

func TestCSVPeopleStore_Save_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "people_cache.csv")
	s := repo.NewCSVPeopleStore(path, discardLogger())

	require.NoError(t, s.Save(context.Background(), nil, nil))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestCSVTripStore_Load_NoFile(t *testing.T) {
	s := repo.NewCSVTripStore(filepath.Join(t.TempDir(), "cache.csv"), discardLogger())

	_, err := s.Load(context.Background())

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCSVTripStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.csv")
	s := repo.NewCSVTripStore(path, discardLogger())
	ctx := context.Background()

	second := tripFixture()
	second.ID = "P_0107"
	second.Destination = "PARIS"
	second.HostID = ""
	second.MemberIDs = nil
	second.Status = domain.StatusCancelled

	require.NoError(t, s.Save(ctx, []domain.Trip{tripFixture(), second}))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "T_0601", got[0].ID)
	assert.Equal(t, "AS_01021980", got[0].HostID)
	assert.Equal(t, []string{"JD_15031990"}, got[0].MemberIDs)
	assert.Equal(t, domain.NewDate(10, 6, 2025), got[0].EndDate)
	assert.Equal(t, "P_0107", got[1].ID)
	assert.False(t, got[1].HasHost())
	assert.Empty(t, got[1].MemberIDs)
	assert.Equal(t, domain.StatusCancelled, got[1].Status)
}

func TestCSVTripStore_Load_SkipsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.csv")
	content := "ID,Destination,Description,StartDate,EndDate,Status,HostID,MemberIDs\n" +
		"T_0601,TOKYO,Trip,01/06/2025,10/06/2025,Planned,,\n" +
		"BROKEN,ROW\n" +
		"P_0107,PARIS,Trip,01/07/2025,bad-date,Planned,,\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	got, err := repo.NewCSVTripStore(path, discardLogger()).Load(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "T_0601", got[0].ID)
}
