package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/pkordes/tripbook/internal/domain"
	"github.com/pkordes/tripbook/internal/event"
)

// Roster keeps trips and people pointing at each other. A trip holds its
// host and member IDs; each host and member holds the IDs of the trips it
// hosts or has joined. Roster is the only writer of both sides.
type Roster struct {
	trips  *TripManager
	people *PersonManager
	log    *slog.Logger
}

// NewRoster constructs a Roster over the two managers.
func NewRoster(trips *TripManager, people *PersonManager, log *slog.Logger) *Roster {
	return &Roster{trips: trips, people: people, log: log}
}

// TripView is a trip with its attendees resolved against the people
// currently known. Missing lists referenced IDs that did not resolve.
type TripView struct {
	domain.Trip
	Host    *domain.Host    `json:"host"`
	Members []domain.Member `json:"members"`
	Missing []string        `json:"missing,omitempty"`
}

// View resolves the attendees of the trip with id.
func (r *Roster) View(id string) (TripView, error) {
	t, err := r.trips.FindTripByID(id)
	if err != nil {
		return TripView{}, fmt.Errorf("service.Roster.View: %w", err)
	}

	v := TripView{Trip: t, Members: []domain.Member{}}
	if t.HasHost() {
		if h, err := r.people.FindHostByID(t.HostID); err == nil {
			v.Host = &h
		} else {
			v.Missing = append(v.Missing, t.HostID)
		}
	}
	for _, mid := range t.MemberIDs {
		if mem, err := r.people.FindMemberByID(mid); err == nil {
			v.Members = append(v.Members, mem)
		} else {
			v.Missing = append(v.Missing, mid)
		}
	}
	return v, nil
}

// RestoreTripAttendees is the second phase of a cache load. It keeps only
// the host and member IDs of each trip that resolve to a known host or
// member; every other reference is logged and dropped. Trips are edited in
// place and returned for convenience.
func (r *Roster) RestoreTripAttendees(ctx context.Context, trips []domain.Trip) []domain.Trip {
	known := r.knownPeople()
	for i := range trips {
		restoreAttendees(ctx, r.log, &trips[i], known)
	}
	return trips
}

// RestoreLoaded runs RestoreTripAttendees over the trips held by the trip
// manager, rewriting its cache only when something was dropped.
func (r *Roster) RestoreLoaded(ctx context.Context) {
	known := r.knownPeople()
	r.trips.rewriteLinks(ctx, func(trips []domain.Trip) bool {
		changed := false
		for i := range trips {
			if restoreAttendees(ctx, r.log, &trips[i], known) {
				changed = true
			}
		}
		return changed
	})
}

// AssignHost makes hostID the host of tripID, replacing any previous host.
// An empty hostID leaves the trip without a host.
func (r *Roster) AssignHost(ctx context.Context, tripID, hostID string) error {
	if hostID != "" {
		if _, err := r.people.FindHostByID(hostID); err != nil {
			return fmt.Errorf("service.Roster.AssignHost: %w", err)
		}
	}

	var previous string
	err := r.trips.editTrip(ctx, tripID, func(t *domain.Trip) bool {
		previous = t.HostID
		if previous == hostID {
			return false
		}
		t.SetHost(hostID)
		return true
	})
	if err != nil {
		return fmt.Errorf("service.Roster.AssignHost: %w", err)
	}
	if previous == hostID {
		return nil
	}

	if previous != "" {
		// The previous host may have been removed since; nothing to undo then.
		_ = r.people.updateHostLinks(ctx, previous, func(h *domain.Host) { h.DropTrip(tripID) })
	}
	if hostID != "" {
		if err := r.people.updateHostLinks(ctx, hostID, func(h *domain.Host) { h.HostTrip(tripID) }); err != nil {
			return fmt.Errorf("service.Roster.AssignHost: %w", err)
		}
	}
	return nil
}

// AddMember puts memberID on tripID's roster. Adding an existing member is
// a no-op.
func (r *Roster) AddMember(ctx context.Context, tripID, memberID string) error {
	if _, err := r.people.FindMemberByID(memberID); err != nil {
		return fmt.Errorf("service.Roster.AddMember: %w", err)
	}
	err := r.trips.editTrip(ctx, tripID, func(t *domain.Trip) bool {
		if t.HasMember(memberID) {
			return false
		}
		t.AddMember(memberID)
		return true
	})
	if err != nil {
		return fmt.Errorf("service.Roster.AddMember: %w", err)
	}
	err = r.people.updateMemberLinks(ctx, memberID, func(m *domain.Member) { m.JoinTrip(tripID) })
	if err != nil {
		return fmt.Errorf("service.Roster.AddMember: %w", err)
	}
	return nil
}

// RemoveMember takes memberID off tripID's roster. Returns domain.ErrNotFound
// if the trip does not exist or the member is not on it.
func (r *Roster) RemoveMember(ctx context.Context, tripID, memberID string) error {
	found := false
	err := r.trips.editTrip(ctx, tripID, func(t *domain.Trip) bool {
		found = t.RemoveMember(memberID)
		return found
	})
	if err != nil {
		return fmt.Errorf("service.Roster.RemoveMember: %w", err)
	}
	if !found {
		return fmt.Errorf("service.Roster.RemoveMember: member %s on trip %s: %w", memberID, tripID, domain.ErrNotFound)
	}
	_ = r.people.updateMemberLinks(ctx, memberID, func(m *domain.Member) { m.LeaveTrip(tripID) })
	return nil
}

// Resync rebuilds every member's joined trips and every host's hosted trips
// from the trips themselves. The people cache does not store these lists,
// so this runs after every load.
func (r *Roster) Resync(ctx context.Context) {
	joined := map[string][]string{}
	hosted := map[string][]string{}
	for _, t := range r.trips.Trips() {
		if t.HasHost() {
			hosted[t.HostID] = append(hosted[t.HostID], t.ID)
		}
		for _, mid := range t.MemberIDs {
			joined[mid] = append(joined[mid], t.ID)
		}
	}

	r.people.rewriteLinks(ctx, func(members []domain.Member, hosts []domain.Host) bool {
		changed := false
		for i := range members {
			want := joined[members[i].ID]
			if !slices.Equal(members[i].JoinedTripIDs, want) {
				members[i].JoinedTripIDs = want
				changed = true
			}
		}
		for i := range hosts {
			want := hosted[hosts[i].ID]
			if !slices.Equal(hosts[i].HostedTripIDs, want) {
				hosts[i].HostedTripIDs = want
				changed = true
			}
		}
		return changed
	})
}

// Watch subscribes the roster to bus so that removing or renaming a trip or
// person is reflected on the other side. Call the returned function to stop.
func (r *Roster) Watch(bus *event.Bus) (unsubscribe func()) {
	return bus.Subscribe(func(e event.Event) {
		ctx := context.Background()
		switch e.Kind {
		case event.TripRemoved:
			r.renameTrip(ctx, e.ID, "")
		case event.TripUpdated:
			if e.Renamed() {
				r.renameTrip(ctx, e.PrevID, e.ID)
			}
		case event.PersonRemoved:
			r.renamePerson(ctx, e.ID, "")
		case event.PersonUpdated:
			if e.Renamed() {
				r.renamePerson(ctx, e.PrevID, e.ID)
			}
			// After a role change the trips still list the person in the
			// old slot; drop those references, then rebuild the person side.
			r.RestoreLoaded(ctx)
			r.Resync(ctx)
		}
	})
}

// renameTrip replaces from with to in every person's trip list; an empty
// to removes it.
func (r *Roster) renameTrip(ctx context.Context, from, to string) {
	r.people.rewriteLinks(ctx, func(members []domain.Member, hosts []domain.Host) bool {
		changed := false
		for i := range members {
			if replaceID(&members[i].JoinedTripIDs, from, to) {
				changed = true
			}
		}
		for i := range hosts {
			if replaceID(&hosts[i].HostedTripIDs, from, to) {
				changed = true
			}
		}
		return changed
	})
}

// renamePerson replaces from with to as host or member of every trip; an
// empty to removes the reference.
func (r *Roster) renamePerson(ctx context.Context, from, to string) {
	r.trips.rewriteLinks(ctx, func(trips []domain.Trip) bool {
		changed := false
		for i := range trips {
			if trips[i].HostID == from {
				trips[i].HostID = to
				changed = true
			}
			if replaceID(&trips[i].MemberIDs, from, to) {
				changed = true
			}
		}
		return changed
	})
}

// knownPeople maps every person ID to its role.
func (r *Roster) knownPeople() map[string]domain.Role {
	known := map[string]domain.Role{}
	for _, p := range r.people.People() {
		known[p.Ident().ID] = p.Role()
	}
	return known
}

func restoreAttendees(ctx context.Context, log *slog.Logger, t *domain.Trip, known map[string]domain.Role) bool {
	changed := false
	if t.HasHost() {
		if role, ok := known[t.HostID]; !ok || role != domain.RoleHost {
			log.WarnContext(ctx, "trip host not found", "trip_id", t.ID, "host_id", t.HostID)
			t.HostID = ""
			changed = true
		}
	}
	kept := t.MemberIDs[:0:0]
	for _, mid := range t.MemberIDs {
		role, ok := known[mid]
		if !ok || role != domain.RoleMember {
			log.WarnContext(ctx, "trip member not found", "trip_id", t.ID, "member_id", mid)
			changed = true
			continue
		}
		kept = append(kept, mid)
	}
	t.MemberIDs = kept
	return changed
}

// replaceID swaps from for to in ids, or deletes it when to is empty.
func replaceID(ids *[]string, from, to string) bool {
	i := slices.Index(*ids, from)
	if i < 0 {
		return false
	}
	if to == "" || slices.Contains(*ids, to) {
		*ids = slices.Delete(*ids, i, i+1)
	} else {
		(*ids)[i] = to
	}
	return true
}
