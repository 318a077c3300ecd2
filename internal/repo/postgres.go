package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkordes/tripbook/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool and pgx.Tx.
// Passing a pgx.Tx in tests makes Save run inside a savepoint that is
// discarded when the outer transaction rolls back.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var peopleColumns = []string{
	"position", "id", "role", "full_name", "date_of_birth", "email", "phone_number",
	"address", "gender", "emergency_contact", "has_driver_license", "interests",
	"total_spent", "joined_trip_ids", "hosted_trip_ids",
}

var tripColumns = []string{
	"position", "id", "destination", "description", "start_date", "end_date",
	"status", "host_id", "member_ids",
}

// pgPeopleStore is the Postgres implementation of PeopleStore.
// Rows keep their insertion order through the position column so a reload
// yields members and hosts in the order they were saved.
type pgPeopleStore struct {
	db db
}

// NewPostgresPeopleStore constructs a PeopleStore backed by the people table.
func NewPostgresPeopleStore(db db) PeopleStore {
	return &pgPeopleStore{db: db}
}

func (s *pgPeopleStore) Load(ctx context.Context) ([]domain.Member, []domain.Host, error) {
	const q = `
		SELECT role, id, full_name, date_of_birth, email, phone_number, address, gender,
		       emergency_contact, has_driver_license, interests, total_spent,
		       joined_trip_ids, hosted_trip_ids
		FROM people
		ORDER BY position`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, nil, fmt.Errorf("repo.pgPeopleStore.Load: %w", err)
	}
	defer rows.Close()

	var (
		members []domain.Member
		hosts   []domain.Host
		n       int
	)
	for rows.Next() {
		n++
		var (
			role, dob, gender, emergency string
			license                      bool
			interests, joined, hosted    []string
			spent                        float64
			id                           domain.Identity
		)
		err := rows.Scan(&role, &id.ID, &id.FullName, &dob, &id.Email, &id.PhoneNumber,
			&id.Address, &gender, &emergency, &license, &interests, &spent, &joined, &hosted)
		if err != nil {
			return nil, nil, fmt.Errorf("repo.pgPeopleStore.Load: scan: %w", err)
		}
		if id.DateOfBirth, err = domain.ParseDate(dob); err != nil {
			return nil, nil, fmt.Errorf("repo.pgPeopleStore.Load: person %s: %w", id.ID, err)
		}
		id.Gender = domain.ParseGender(gender)

		r, ok := domain.ParseRole(role)
		if !ok {
			return nil, nil, fmt.Errorf("repo.pgPeopleStore.Load: person %s: role %q: %w", id.ID, role, domain.ErrValidation)
		}
		switch r {
		case domain.RoleMember:
			members = append(members, domain.Member{
				Identity:         id,
				JoinedTripIDs:    joined,
				EmergencyContact: emergency,
				HasDriverLicense: license,
				Interests:        interests,
				TotalSpent:       spent,
			})
		case domain.RoleHost:
			hosts = append(hosts, domain.Host{
				Identity:         id,
				HostedTripIDs:    hosted,
				EmergencyContact: emergency,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("repo.pgPeopleStore.Load: rows: %w", err)
	}
	if n == 0 {
		return nil, nil, fmt.Errorf("repo.pgPeopleStore.Load: %w", domain.ErrNotFound)
	}
	return members, hosts, nil
}

func (s *pgPeopleStore) Save(ctx context.Context, members []domain.Member, hosts []domain.Host) error {
	rows := make([][]any, 0, len(members)+len(hosts))
	for _, m := range members {
		rows = append(rows, personRow(len(rows), m.Identity, domain.RoleMember, m.EmergencyContact,
			m.HasDriverLicense, m.Interests, m.TotalSpent, m.JoinedTripIDs, nil))
	}
	for _, h := range hosts {
		rows = append(rows, personRow(len(rows), h.Identity, domain.RoleHost, h.EmergencyContact,
			false, nil, 0, nil, h.HostedTripIDs))
	}

	if err := replaceTable(ctx, s.db, "people", peopleColumns, rows); err != nil {
		return fmt.Errorf("repo.pgPeopleStore.Save: %w", err)
	}
	return nil
}

func personRow(pos int, id domain.Identity, role domain.Role, emergency string, license bool,
	interests []string, spent float64, joined, hosted []string) []any {
	return []any{
		pos, id.ID, role.String(), id.FullName, id.DateOfBirth.String(), id.Email,
		id.PhoneNumber, id.Address, id.Gender.String(), emergency, license,
		orEmpty(interests), spent, orEmpty(joined), orEmpty(hosted),
	}
}

// pgTripStore is the Postgres implementation of TripStore.
type pgTripStore struct {
	db db
}

// NewPostgresTripStore constructs a TripStore backed by the trips table.
func NewPostgresTripStore(db db) TripStore {
	return &pgTripStore{db: db}
}

func (s *pgTripStore) Load(ctx context.Context) ([]domain.Trip, error) {
	const q = `
		SELECT id, destination, description, start_date, end_date, status, host_id, member_ids
		FROM trips
		ORDER BY position`

	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.pgTripStore.Load: %w", err)
	}
	defer rows.Close()

	var trips []domain.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.pgTripStore.Load: %w", err)
		}
		trips = append(trips, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.pgTripStore.Load: rows: %w", err)
	}
	if len(trips) == 0 {
		return nil, fmt.Errorf("repo.pgTripStore.Load: %w", domain.ErrNotFound)
	}
	return trips, nil
}

func (s *pgTripStore) Save(ctx context.Context, trips []domain.Trip) error {
	rows := make([][]any, len(trips))
	for i, t := range trips {
		rows[i] = []any{
			i, t.ID, t.Destination, t.Description, t.StartDate.String(), t.EndDate.String(),
			t.Status.String(), t.HostID, orEmpty(t.MemberIDs),
		}
	}
	if err := replaceTable(ctx, s.db, "trips", tripColumns, rows); err != nil {
		return fmt.Errorf("repo.pgTripStore.Save: %w", err)
	}
	return nil
}

// scanTrip maps a single trips row into a domain.Trip.
func scanTrip(rows pgx.Rows) (domain.Trip, error) {
	var (
		t                  domain.Trip
		start, end, status string
	)
	err := rows.Scan(&t.ID, &t.Destination, &t.Description, &start, &end, &status, &t.HostID, &t.MemberIDs)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("scan: %w", err)
	}
	if t.StartDate, err = domain.ParseDate(start); err != nil {
		return domain.Trip{}, fmt.Errorf("trip %s: %w", t.ID, err)
	}
	if t.EndDate, err = domain.ParseDate(end); err != nil {
		return domain.Trip{}, fmt.Errorf("trip %s: %w", t.ID, err)
	}
	t.Status = domain.ParseStatus(status)
	return t, nil
}

// replaceTable swaps the table contents for rows in one transaction:
// everything is deleted, then the new snapshot is bulk-copied in.
func replaceTable(ctx context.Context, db db, table string, columns []string, rows [][]any) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, "DELETE FROM "+pgx.Identifier{table}.Sanitize()); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy %s: %w", table, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
