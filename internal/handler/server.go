// Package handler implements the HTTP API for Tripbook.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, person.go, transfer.go) but share the same
// Server struct so they can reach its dependencies.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/tripbook/internal/csvio"
	"github.com/pkordes/tripbook/internal/domain"
	"github.com/pkordes/tripbook/internal/service"
	"github.com/pkordes/tripbook/spec"
)

// TripServicer defines the trip operations the handlers depend on.
// Defining the interface here, in the consumer package, lets handler tests
// inject a fake without a cache file or database behind it.
type TripServicer interface {
	AddTrip(ctx context.Context, t domain.Trip) (domain.Trip, error)
	RemoveTrip(ctx context.Context, id string) error
	UpdateTrip(ctx context.Context, originalID string, updated domain.Trip) (domain.Trip, error)
	FindTripByID(id string) (domain.Trip, error)
	Query(f service.TripFilter, s service.TripSort) []domain.Trip
}

// PersonServicer defines the member and host operations the handlers depend on.
type PersonServicer interface {
	AddMember(ctx context.Context, m domain.Member) (domain.Member, error)
	AddHost(ctx context.Context, h domain.Host) (domain.Host, error)
	RemoveMember(ctx context.Context, id string) error
	RemoveHost(ctx context.Context, id string) error
	UpdateMember(ctx context.Context, originalID string, updated domain.Member) (domain.Member, error)
	UpdateHost(ctx context.Context, originalID string, updated domain.Host) (domain.Host, error)
	FindMemberByID(id string) (domain.Member, error)
	FindHostByID(id string) (domain.Host, error)
	Members() []domain.Member
	Hosts() []domain.Host
	People() []domain.Person
}

// RosterServicer links trips to their host and members.
type RosterServicer interface {
	View(id string) (service.TripView, error)
	AssignHost(ctx context.Context, tripID, hostID string) error
	AddMember(ctx context.Context, tripID, memberID string) error
	RemoveMember(ctx context.Context, tripID, memberID string) error
}

// TransferServicer moves trips and people in and out as CSV.
type TransferServicer interface {
	PreviewTrips(r io.Reader, opts service.ImportOptions) ([]domain.Trip, csvio.Report, error)
	ImportTrips(ctx context.Context, r io.Reader, opts service.ImportOptions) (csvio.Report, error)
	ImportPeople(ctx context.Context, r io.Reader, header csvio.HeaderMode) (csvio.Report, error)
	ExportTrips(w io.Writer) error
	ExportPeople(w io.Writer) error
}

// Server holds the dependencies shared by every handler.
type Server struct {
	trips    TripServicer
	people   PersonServicer
	roster   RosterServicer
	transfer TransferServicer
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, people PersonServicer, roster RosterServicer, transfer TransferServicer, log *slog.Logger) *Server {
	return &Server{trips: trips, people: people, roster: roster, transfer: transfer, log: log}
}

// Routes returns a router serving every endpoint. Middleware is applied by
// the caller so tests exercise the bare handlers.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", serveOpenAPI)

	r.Route("/trips", func(r chi.Router) {
		r.Get("/", s.ListTrips)
		r.Post("/", s.CreateTrip)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Put("/", s.UpdateTrip)
			r.Delete("/", s.DeleteTrip)
			r.Get("/roster", s.GetRoster)
			r.Put("/host", s.AssignHost)
			r.Post("/members", s.AddTripMember)
			r.Delete("/members/{memberID}", s.RemoveTripMember)
		})
	})

	r.Get("/people", s.ListPeople)

	r.Route("/members", func(r chi.Router) {
		r.Get("/", s.ListMembers)
		r.Post("/", s.CreateMember)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetMember)
			r.Put("/", s.UpdateMember)
			r.Delete("/", s.DeleteMember)
			r.Post("/interests", s.AddInterest)
			r.Post("/spend", s.AddSpend)
		})
	})

	r.Route("/hosts", func(r chi.Router) {
		r.Get("/", s.ListHosts)
		r.Post("/", s.CreateHost)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetHost)
			r.Put("/", s.UpdateHost)
			r.Delete("/", s.DeleteHost)
		})
	})

	r.Post("/import/trips", s.ImportTrips)
	r.Post("/import/people", s.ImportPeople)
	r.Get("/export/trips", s.ExportTrips)
	r.Get("/export/people", s.ExportPeople)

	return r
}

func serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(spec.OpenAPI)
}
