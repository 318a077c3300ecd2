package service_test

import (
	"context"
	"io"
	"log/slog"

	"github.com/pkordes/tripbook/internal/domain"
	"github.com/pkordes/tripbook/internal/event"
	"github.com/pkordes/tripbook/internal/repo"
	"github.com/pkordes/tripbook/internal/service"
)

// fakePeopleStore is a hand-written test double for repo.PeopleStore.
// Set only the function fields a test needs; nil fields fall back to an
// in-memory snapshot so write-through can be asserted.
type fakePeopleStore struct {
	load func(ctx context.Context) ([]domain.Member, []domain.Host, error)
	save func(ctx context.Context, members []domain.Member, hosts []domain.Host) error

	saves   int
	members []domain.Member
	hosts   []domain.Host
}

func (f *fakePeopleStore) Load(ctx context.Context) ([]domain.Member, []domain.Host, error) {
	if f.load != nil {
		return f.load(ctx)
	}
	if f.saves == 0 {
		return nil, nil, domain.ErrNotFound
	}
	return f.members, f.hosts, nil
}

func (f *fakePeopleStore) Save(ctx context.Context, members []domain.Member, hosts []domain.Host) error {
	f.saves++
	f.members = append([]domain.Member(nil), members...)
	f.hosts = append([]domain.Host(nil), hosts...)
	if f.save != nil {
		return f.save(ctx, members, hosts)
	}
	return nil
}

// fakeTripStore is a hand-written test double for repo.TripStore.
type fakeTripStore struct {
	load func(ctx context.Context) ([]domain.Trip, error)
	save func(ctx context.Context, trips []domain.Trip) error

	saves int
	trips []domain.Trip
}

func (f *fakeTripStore) Load(ctx context.Context) ([]domain.Trip, error) {
	if f.load != nil {
		return f.load(ctx)
	}
	if f.saves == 0 {
		return nil, domain.ErrNotFound
	}
	return f.trips, nil
}

func (f *fakeTripStore) Save(ctx context.Context, trips []domain.Trip) error {
	f.saves++
	f.trips = append([]domain.Trip(nil), trips...)
	if f.save != nil {
		return f.save(ctx, trips)
	}
	return nil
}

// compile-time checks: the fakes must satisfy the repo interfaces.
var (
	_ repo.PeopleStore = (*fakePeopleStore)(nil)
	_ repo.TripStore   = (*fakeTripStore)(nil)
)

// ---- helpers ---------------------------------------------------------------

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPersonManager(store *fakePeopleStore, bus *event.Bus) *service.PersonManager {
	return service.NewPersonManager(store, bus, discardLogger())
}

func newTripManager(store *fakeTripStore, bus *event.Bus) *service.TripManager {
	return service.NewTripManager(store, bus, discardLogger())
}

func john() domain.Member {
	return domain.Member{
		Identity: domain.Identity{
			FullName:    "JOHN DOE",
			Email:       "john@x.com",
			DateOfBirth: domain.NewDate(15, 3, 1990),
		},
		Interests:  []string{"Hiking"},
		TotalSpent: 100.5,
	}
}

func jane() domain.Member {
	return domain.Member{
		Identity: domain.Identity{
			FullName:    "JANE ROE",
			Gender:      domain.GenderFemale,
			DateOfBirth: domain.NewDate(2, 4, 1992),
		},
	}
}

func anna() domain.Host {
	return domain.Host{
		Identity: domain.Identity{
			FullName:    "ANNA SMITH",
			Gender:      domain.GenderFemale,
			DateOfBirth: domain.NewDate(1, 2, 1980),
		},
	}
}

func tokyo() domain.Trip {
	return domain.Trip{
		Destination: "Tokyo",
		Description: "A nice city trip",
		StartDate:   domain.NewDate(1, 6, 2025),
		EndDate:     domain.NewDate(10, 6, 2025),
		Status:      domain.StatusPlanned,
	}
}

func paris() domain.Trip {
	return domain.Trip{
		Destination: "Paris",
		Description: "Museums and fine food",
		StartDate:   domain.NewDate(1, 7, 2025),
		EndDate:     domain.NewDate(5, 7, 2025),
		Status:      domain.StatusOngoing,
	}
}

// recorder collects every event published on a bus.
type recorder struct {
	events []event.Event
}

func record(bus *event.Bus) *recorder {
	r := &recorder{}
	bus.Subscribe(func(e event.Event) { r.events = append(r.events, e) })
	return r
}

func (r *recorder) kinds() []event.Kind {
	out := make([]event.Kind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}
