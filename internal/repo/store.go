// Package repo holds the cache stores behind the trip and person managers.
// Each store rewrites its whole snapshot on Save; there is no incremental
// update. Two implementations exist: CSV files (the default, compatible with
// the application's historical cache files) and Postgres tables.
package repo

import (
	"context"

	"github.com/pkordes/tripbook/internal/domain"
)

// PeopleStore persists the full set of members and hosts.
// The service layer depends on this interface, not on a concrete store,
// which lets manager tests run against an in-memory fake.
type PeopleStore interface {
	// Load returns the cached members and hosts. It returns an error
	// wrapping domain.ErrNotFound when no cache has been written yet.
	Load(ctx context.Context) ([]domain.Member, []domain.Host, error)

	// Save replaces the cached snapshot with members and hosts.
	Save(ctx context.Context, members []domain.Member, hosts []domain.Host) error
}

// TripStore persists the full list of trips.
type TripStore interface {
	// Load returns the cached trips with their host and member IDs as
	// written. The IDs are not checked against any person store.
	// Returns an error wrapping domain.ErrNotFound when no cache exists.
	Load(ctx context.Context) ([]domain.Trip, error)

	// Save replaces the cached snapshot with trips.
	Save(ctx context.Context, trips []domain.Trip) error
}
