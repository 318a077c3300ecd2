package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/pkordes/tripbook/internal/csvio"
	"github.com/pkordes/tripbook/internal/domain"
)

// TripForm names the shape of a trip CSV being imported.
type TripForm string

const (
	// TripFormPlain is Destination,Description,StartDate,EndDate,Status.
	TripFormPlain TripForm = "plain"
	// TripFormCache is the 8-column form the trip cache is written in.
	TripFormCache TripForm = "cache"
)

// ParseTripForm accepts "plain" (the default for "") and "cache".
func ParseTripForm(s string) (TripForm, error) {
	switch TripForm(s) {
	case "", TripFormPlain:
		return TripFormPlain, nil
	case TripFormCache:
		return TripFormCache, nil
	}
	return "", fmt.Errorf("%w: unknown trip form %q", domain.ErrValidation, s)
}

// ImportOptions tune a trip import.
type ImportOptions struct {
	Form   TripForm
	Header csvio.HeaderMode
}

// Transfer moves trips and people between CSV streams and the managers.
type Transfer struct {
	trips  *TripManager
	people *PersonManager
	roster *Roster
	log    *slog.Logger
}

// NewTransfer constructs a Transfer.
func NewTransfer(trips *TripManager, people *PersonManager, roster *Roster, log *slog.Logger) *Transfer {
	return &Transfer{trips: trips, people: people, roster: roster, log: log}
}

// PreviewTrips parses r without committing anything. Plain-form IDs are
// generated as they would be by ImportTrips.
func (s *Transfer) PreviewTrips(r io.Reader, opts ImportOptions) ([]domain.Trip, csvio.Report, error) {
	trips, rep, err := s.parseTrips(r, opts)
	if err != nil {
		return trips, rep, fmt.Errorf("service.Transfer.PreviewTrips: %w", err)
	}
	if trips == nil {
		trips = []domain.Trip{}
	}
	return trips, rep, nil
}

// ImportTrips parses r and adds each trip through the trip manager. Rows
// the manager refuses, duplicate IDs included, are moved to the report's
// failed count. Cache-form attendee IDs that do not resolve to known people
// are dropped first, then the roster is resynced.
func (s *Transfer) ImportTrips(ctx context.Context, r io.Reader, opts ImportOptions) (csvio.Report, error) {
	trips, rep, err := s.parseTrips(r, opts)
	if err != nil {
		return rep, fmt.Errorf("service.Transfer.ImportTrips: %w", err)
	}
	if opts.Form == TripFormCache {
		trips = s.roster.RestoreTripAttendees(ctx, trips)
	}

	for _, t := range trips {
		if _, err := s.trips.AddTrip(ctx, t); err != nil {
			rep.Reject(err)
			s.log.WarnContext(ctx, "trip import rejected", "trip_id", t.ID, "error", err)
		}
	}
	if opts.Form == TripFormCache {
		s.roster.Resync(ctx)
	}

	s.log.InfoContext(ctx, "trips imported",
		"batch_id", rep.BatchID,
		"summary", rep.Summary(),
		"failed", rep.Failed,
	)
	return rep, nil
}

// ImportPeople parses r and adds every member and host whose ID is not
// known yet. People already present are counted as failed.
func (s *Transfer) ImportPeople(ctx context.Context, r io.Reader, header csvio.HeaderMode) (csvio.Report, error) {
	members, hosts, rep, err := csvio.ReadPeople(r, csvio.Options{Header: header})
	if err != nil {
		return rep, fmt.Errorf("service.Transfer.ImportPeople: %w", err)
	}

	for _, m := range members {
		if _, err := s.people.AddMember(ctx, m); err != nil {
			rep.Reject(err)
		}
	}
	for _, h := range hosts {
		if _, err := s.people.AddHost(ctx, h); err != nil {
			rep.Reject(err)
		}
	}
	s.roster.Resync(ctx)

	s.log.InfoContext(ctx, "people imported",
		"batch_id", rep.BatchID,
		"summary", rep.Summary(),
		"failed", rep.Failed,
	)
	return rep, nil
}

// ExportTrips writes every trip in the cache form.
func (s *Transfer) ExportTrips(w io.Writer) error {
	if err := csvio.WriteTripCache(w, s.trips.Trips()); err != nil {
		return fmt.Errorf("service.Transfer.ExportTrips: %w", err)
	}
	return nil
}

// ExportPeople writes every member and host in the people cache form.
func (s *Transfer) ExportPeople(w io.Writer) error {
	if err := csvio.WritePeople(w, s.people.Members(), s.people.Hosts()); err != nil {
		return fmt.Errorf("service.Transfer.ExportPeople: %w", err)
	}
	return nil
}

func (s *Transfer) parseTrips(r io.Reader, opts ImportOptions) ([]domain.Trip, csvio.Report, error) {
	base := s.trips.NextSequence()
	read := 0
	copts := csvio.Options{
		Header: opts.Header,
		Sequence: func() int {
			read++
			return base + read - 1
		},
	}
	switch opts.Form {
	case TripFormCache:
		return csvio.ReadTripCache(r, copts)
	case TripFormPlain, "":
		return csvio.ReadTrips(r, copts)
	}
	return nil, csvio.Report{}, fmt.Errorf("%w: unknown trip form %q", domain.ErrValidation, opts.Form)
}
