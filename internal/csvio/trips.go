package csvio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkordes/tripbook/internal/domain"
)

// TripCacheHeader is the first line of the trip cache and of trip exports.
var TripCacheHeader = []string{"ID", "Destination", "Description", "StartDate", "EndDate", "Status", "HostID", "MemberIDs"}

const (
	minCacheTripFields = 6
	minPlainTripFields = 5
)

// ReadTripCache parses the cache form:
//
//	ID,Destination,Description,StartDate,EndDate,Status[,HostID[,MemberIDs]]
//
// Host and member IDs are returned exactly as written; they are still
// unresolved references until the caller checks them against the people it
// knows about. Malformed rows are skipped and recorded in the Report. The
// error is non-nil only when r itself fails.
func ReadTripCache(r io.Reader, opts Options) ([]domain.Trip, Report, error) {
	rep := newReport()
	var trips []domain.Trip
	seq := sequence(opts, &rep)

	err := scanRows(r, opts.Header, tripMarkers, func(line int, f []string) {
		if len(f) < minCacheTripFields {
			rep.fail(tooFewFields(line, minCacheTripFields, len(f)))
			return
		}
		t, err := tripFromFields(line, f[1:6])
		if err != nil {
			rep.fail(err)
			return
		}
		t.ID = strings.TrimSpace(f[0])
		if t.ID == "" {
			t.ID = domain.NewTripID(t.Destination, t.StartDate, seq())
		}
		if len(f) > 6 {
			t.HostID = strings.TrimSpace(f[6])
		}
		if len(f) > 7 {
			t.MemberIDs = splitList(f[7])
		}
		trips = append(trips, t)
		rep.succeed()
	})
	if err != nil {
		return trips, rep, &domain.FileError{Op: "read", Err: err}
	}
	return trips, rep, nil
}

// ReadTrips parses the plain import form without IDs or attendees:
//
//	Destination,Description,StartDate,EndDate,Status
//
// Each trip gets an ID generated from its destination and start date.
func ReadTrips(r io.Reader, opts Options) ([]domain.Trip, Report, error) {
	rep := newReport()
	var trips []domain.Trip
	seq := sequence(opts, &rep)

	err := scanRows(r, opts.Header, tripMarkers, func(line int, f []string) {
		if len(f) < minPlainTripFields {
			rep.fail(tooFewFields(line, minPlainTripFields, len(f)))
			return
		}
		t, err := tripFromFields(line, f[:5])
		if err != nil {
			rep.fail(err)
			return
		}
		t.ID = domain.NewTripID(t.Destination, t.StartDate, seq())
		trips = append(trips, t)
		rep.succeed()
	})
	if err != nil {
		return trips, rep, &domain.FileError{Op: "read", Err: err}
	}
	return trips, rep, nil
}

// tripFromFields reads destination, description, start, end and status.
func tripFromFields(line int, f []string) (domain.Trip, error) {
	start, err := domain.ParseDate(f[2])
	if err != nil {
		return domain.Trip{}, &domain.ParseError{Line: line, Field: "StartDate", Err: err}
	}
	end, err := domain.ParseDate(f[3])
	if err != nil {
		return domain.Trip{}, &domain.ParseError{Line: line, Field: "EndDate", Err: err}
	}
	return domain.Trip{
		Destination: f[0],
		Description: f[1],
		StartDate:   start,
		EndDate:     end,
		Status:      domain.ParseStatus(strings.TrimSpace(f[4])),
	}, nil
}

// WriteTripCache writes trips in the cache form, header first.
func WriteTripCache(w io.Writer, trips []domain.Trip) error {
	bw := bufio.NewWriter(w)
	writeLine(bw, TripCacheHeader...)
	for _, t := range trips {
		writeLine(bw,
			encodeField(t.ID, false),
			encodeField(t.Destination, false),
			encodeField(t.Description, false),
			t.StartDate.String(),
			t.EndDate.String(),
			t.Status.String(),
			encodeField(t.HostID, false),
			encodeField(strings.Join(t.MemberIDs, ";"), false),
		)
	}
	if err := bw.Flush(); err != nil {
		return &domain.FileError{Op: "write", Err: err}
	}
	return nil
}

func sequence(opts Options, rep *Report) func() int {
	if opts.Sequence != nil {
		return opts.Sequence
	}
	return func() int { return rep.Imported + 1 }
}

func tooFewFields(line, want, got int) error {
	return &domain.ParseError{Line: line, Err: fmt.Errorf("expected at least %d fields, got %d", want, got)}
}

// splitList splits a ';'-joined column, trimming entries and dropping empty ones.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
