package repo

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkordes/tripbook/internal/csvio"
	"github.com/pkordes/tripbook/internal/domain"
)

// csvPeopleStore keeps people in a single CSV file.
type csvPeopleStore struct {
	path string
	log  *slog.Logger
}

// NewCSVPeopleStore returns a PeopleStore backed by the CSV file at path.
// Malformed rows found while loading are logged and skipped.
func NewCSVPeopleStore(path string, log *slog.Logger) PeopleStore {
	return &csvPeopleStore{path: path, log: log}
}

func (s *csvPeopleStore) Load(ctx context.Context) ([]domain.Member, []domain.Host, error) {
	if !csvio.Exists(s.path) {
		return nil, nil, fmt.Errorf("repo.csvPeopleStore.Load: %s: %w", s.path, domain.ErrNotFound)
	}

	var (
		members []domain.Member
		hosts   []domain.Host
		rep     csvio.Report
	)
	err := csvio.ReadFile(s.path, func(r io.Reader) error {
		var err error
		members, hosts, rep, err = csvio.ReadPeople(r, csvio.Options{Header: csvio.HeaderPresent})
		return err
	})
	logReport(ctx, s.log, s.path, rep)
	if err != nil {
		return members, hosts, fmt.Errorf("repo.csvPeopleStore.Load: %w", err)
	}
	return members, hosts, nil
}

func (s *csvPeopleStore) Save(_ context.Context, members []domain.Member, hosts []domain.Host) error {
	err := csvio.WriteFileAtomic(s.path, func(w io.Writer) error {
		return csvio.WritePeople(w, members, hosts)
	})
	if err != nil {
		return fmt.Errorf("repo.csvPeopleStore.Save: %w", err)
	}
	return nil
}

// csvTripStore keeps trips in a single CSV file in the 8-column cache form.
type csvTripStore struct {
	path string
	log  *slog.Logger
}

// NewCSVTripStore returns a TripStore backed by the CSV file at path.
func NewCSVTripStore(path string, log *slog.Logger) TripStore {
	return &csvTripStore{path: path, log: log}
}

func (s *csvTripStore) Load(ctx context.Context) ([]domain.Trip, error) {
	if !csvio.Exists(s.path) {
		return nil, fmt.Errorf("repo.csvTripStore.Load: %s: %w", s.path, domain.ErrNotFound)
	}

	var (
		trips []domain.Trip
		rep   csvio.Report
	)
	err := csvio.ReadFile(s.path, func(r io.Reader) error {
		var err error
		trips, rep, err = csvio.ReadTripCache(r, csvio.Options{Header: csvio.HeaderPresent})
		return err
	})
	logReport(ctx, s.log, s.path, rep)
	if err != nil {
		return trips, fmt.Errorf("repo.csvTripStore.Load: %w", err)
	}
	return trips, nil
}

func (s *csvTripStore) Save(_ context.Context, trips []domain.Trip) error {
	err := csvio.WriteFileAtomic(s.path, func(w io.Writer) error {
		return csvio.WriteTripCache(w, trips)
	})
	if err != nil {
		return fmt.Errorf("repo.csvTripStore.Save: %w", err)
	}
	return nil
}

func logReport(ctx context.Context, log *slog.Logger, path string, rep csvio.Report) {
	for _, err := range rep.Errors {
		log.WarnContext(ctx, "cache row skipped", "path", path, "error", err)
	}
	log.InfoContext(ctx, "cache loaded",
		"path", path,
		"summary", rep.Summary(),
		"failed", rep.Failed,
		"batch_id", rep.BatchID,
	)
}
