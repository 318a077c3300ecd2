package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/pkordes/tripbook/internal/domain"
	"github.com/pkordes/tripbook/internal/event"
	"github.com/pkordes/tripbook/internal/repo"
)

// TripManager is the authoritative store for trips. It persists the same
// way PersonManager does: every mutation rewrites the trip cache.
//
// seq counts trips added through the manager and falls when one is
// removed. It feeds the "TRIP_<n>" IDs given to trips without a
// destination.
type TripManager struct {
	store repo.TripStore
	bus   *event.Bus
	log   *slog.Logger

	mu    sync.Mutex
	trips []domain.Trip
	seq   int
}

// NewTripManager constructs an empty TripManager. Call Load to read the cache.
func NewTripManager(store repo.TripStore, bus *event.Bus, log *slog.Logger) *TripManager {
	return &TripManager{store: store, bus: bus, log: log}
}

// Load replaces the in-memory trips with the cached ones. Host and member
// IDs are taken as written; run Roster.RestoreTripAttendees afterwards to
// drop references to unknown people.
func (m *TripManager) Load(ctx context.Context) {
	trips, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		m.log.InfoContext(ctx, "no trip cache, starting empty")
	case err != nil:
		m.log.ErrorContext(ctx, "load trip cache", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = trips
	m.seq = len(trips)
	m.log.InfoContext(ctx, "trips loaded", "trips", len(trips))
}

// Close writes the current trips to the cache unconditionally.
func (m *TripManager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(ctx, m.trips); err != nil {
		return fmt.Errorf("service.TripManager.Close: %w", err)
	}
	return nil
}

// AddTrip validates t, fills in its ID when empty and appends it.
// The destination is stored upper-cased.
// Returns domain.ErrValidation if the dates are missing or the end date is
// before the start date, and domain.ErrDuplicateID if the ID is taken.
func (m *TripManager) AddTrip(ctx context.Context, t domain.Trip) (domain.Trip, error) {
	if err := prepareTrip(&t); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripManager.AddTrip: %w", err)
	}

	m.mu.Lock()
	if t.ID == "" {
		t.ID = domain.NewTripID(t.Destination, t.StartDate, m.seq+1)
	}
	if m.indexLocked(t.ID) >= 0 {
		m.mu.Unlock()
		return domain.Trip{}, fmt.Errorf("service.TripManager.AddTrip: %s: %w", t.ID, domain.ErrDuplicateID)
	}
	m.trips = append(m.trips, t.Clone())
	m.seq++
	m.persistLocked(ctx)
	m.mu.Unlock()

	m.bus.Publish(event.Event{Kind: event.TripAdded, ID: t.ID})
	return t, nil
}

// RemoveTrip deletes the trip with id. Returns domain.ErrNotFound, with
// nothing changed, when there is no such trip.
func (m *TripManager) RemoveTrip(ctx context.Context, id string) error {
	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("service.TripManager.RemoveTrip: %s: %w", id, domain.ErrNotFound)
	}
	m.trips = slices.Delete(m.trips, i, i+1)
	if m.seq > 0 {
		m.seq--
	}
	m.persistLocked(ctx)
	m.mu.Unlock()

	m.bus.Publish(event.Event{Kind: event.TripRemoved, ID: id})
	return nil
}

// UpdateTrip replaces the trip stored under originalID with updated.
// An empty updated.ID keeps the original ID.
func (m *TripManager) UpdateTrip(ctx context.Context, originalID string, updated domain.Trip) (domain.Trip, error) {
	if updated.ID == "" {
		updated.ID = originalID
	}
	if err := prepareTrip(&updated); err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripManager.UpdateTrip: %w", err)
	}

	m.mu.Lock()
	i := m.indexLocked(originalID)
	if i < 0 {
		m.mu.Unlock()
		return domain.Trip{}, fmt.Errorf("service.TripManager.UpdateTrip: %s: %w", originalID, domain.ErrNotFound)
	}
	if updated.ID != originalID && m.indexLocked(updated.ID) >= 0 {
		m.mu.Unlock()
		return domain.Trip{}, fmt.Errorf("service.TripManager.UpdateTrip: %s: %w", updated.ID, domain.ErrDuplicateID)
	}
	m.trips[i] = updated.Clone()
	m.persistLocked(ctx)
	m.mu.Unlock()

	m.bus.Publish(event.Event{Kind: event.TripUpdated, ID: updated.ID, PrevID: originalID})
	return updated, nil
}

// Trips returns a copy of every trip in insertion order. Never nil.
func (m *TripManager) Trips() []domain.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneAll(m.trips, domain.Trip.Clone)
}

// FindTripByID returns a copy of the trip with id, or domain.ErrNotFound.
func (m *TripManager) FindTripByID(id string) (domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.indexLocked(id); i >= 0 {
		return m.trips[i].Clone(), nil
	}
	return domain.Trip{}, fmt.Errorf("service.TripManager.FindTripByID: %s: %w", id, domain.ErrNotFound)
}

func (m *TripManager) TripCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trips)
}

// NextSequence is the number the next ID-less, destination-less trip gets.
func (m *TripManager) NextSequence() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq + 1
}

// Replace swaps in a whole new set of trips and rewrites the cache.
func (m *TripManager) Replace(ctx context.Context, trips []domain.Trip) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = cloneAll(trips, domain.Trip.Clone)
	m.seq = len(trips)
	m.persistLocked(ctx)
}

// Query returns the trips matching f, ordered by s.
func (m *TripManager) Query(f TripFilter, s TripSort) []domain.Trip {
	m.mu.Lock()
	out := make([]domain.Trip, 0, len(m.trips))
	for _, t := range m.trips {
		if f.Match(t) {
			out = append(out, t.Clone())
		}
	}
	m.mu.Unlock()

	s.Apply(out)
	return out
}

// editTrip applies fn to the trip with id and rewrites the cache.
// It publishes TripUpdated when fn reports a change.
func (m *TripManager) editTrip(ctx context.Context, id string, fn func(*domain.Trip) bool) error {
	m.mu.Lock()
	i := m.indexLocked(id)
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("trip %s: %w", id, domain.ErrNotFound)
	}
	changed := fn(&m.trips[i])
	if changed {
		m.persistLocked(ctx)
	}
	m.mu.Unlock()

	if changed {
		m.bus.Publish(event.Event{Kind: event.TripUpdated, ID: id})
	}
	return nil
}

// rewriteLinks lets fn edit every trip in place without publishing, then
// rewrites the cache if fn reported a change.
func (m *TripManager) rewriteLinks(ctx context.Context, fn func(trips []domain.Trip) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn(m.trips) {
		m.persistLocked(ctx)
	}
}

func (m *TripManager) indexLocked(id string) int {
	return slices.IndexFunc(m.trips, func(t domain.Trip) bool { return t.ID == id })
}

func (m *TripManager) persistLocked(ctx context.Context) {
	if err := m.store.Save(ctx, m.trips); err != nil {
		m.log.ErrorContext(ctx, "write trip cache", "error", err)
	}
}

// prepareTrip normalises t and enforces the rules shared by add and update.
func prepareTrip(t *domain.Trip) error {
	t.ID = strings.TrimSpace(t.ID)
	t.Destination = strings.ToUpper(strings.TrimSpace(t.Destination))
	if t.StartDate.IsZero() {
		return fmt.Errorf("%w: start_date is required", domain.ErrValidation)
	}
	if t.EndDate.IsZero() {
		return fmt.Errorf("%w: end_date is required", domain.ErrValidation)
	}
	if t.EndDate.Before(t.StartDate) {
		return fmt.Errorf("%w: end_date must not be before start_date", domain.ErrValidation)
	}
	return nil
}
