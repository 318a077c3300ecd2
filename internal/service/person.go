// Package service contains the business logic of the trip book.
// Managers own the authoritative in-memory collections, enforce the
// insert rules, write every change through to their store and announce it
// on the event bus. No file or SQL handling lives here; managers depend on
// repo interfaces, not implementations.
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

// PersonManager is the authoritative store for members and hosts.
// It is safe for concurrent use.
//
// Every mutation rewrites the whole people cache before returning. A
// failed write is logged and the in-memory change stands. Events are
// published after the lock is released so subscribers may call back in.
type PersonManager struct {
	store repo.PeopleStore
	bus   *event.Bus
	log   *slog.Logger

	mu      sync.Mutex
	members []domain.Member
	hosts   []domain.Host

	// people is the combined view returned by People. It is rebuilt lazily
	// after any change to members or hosts.
	people []domain.Person
	dirty  bool
}

// NewPersonManager constructs an empty PersonManager. Call Load to read the
// cache.
func NewPersonManager(store repo.PeopleStore, bus *event.Bus, log *slog.Logger) *PersonManager {
	return &PersonManager{store: store, bus: bus, log: log, dirty: true}
}

// Load replaces the in-memory state with the cached people. A missing cache
// leaves the manager empty; any other failure is logged and whatever was
// read is kept.
func (m *PersonManager) Load(ctx context.Context) {
	members, hosts, err := m.store.Load(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		m.log.InfoContext(ctx, "no people cache, starting empty")
	case err != nil:
		m.log.ErrorContext(ctx, "load people cache", "error", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.members = members
	m.hosts = hosts
	m.dirty = true
	m.log.InfoContext(ctx, "people loaded", "members", len(members), "hosts", len(hosts))
}

// Close writes the current state to the cache whether or not anything
// changed since Load.
func (m *PersonManager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(ctx, m.members, m.hosts); err != nil {
		return fmt.Errorf("service.PersonManager.Close: %w", err)
	}
	return nil
}

// AddMember validates mem and appends it. An empty ID is derived from the
// name and date of birth. Returns domain.ErrValidation for a blank name and
// domain.ErrDuplicateID when any person already uses the ID.
func (m *PersonManager) AddMember(ctx context.Context, mem domain.Member) (domain.Member, error) {
	if err := preparePerson(&mem.Identity); err != nil {
		return domain.Member{}, fmt.Errorf("service.PersonManager.AddMember: %w", err)
	}

	m.mu.Lock()
	if m.indexLocked(mem.ID) != nil {
		m.mu.Unlock()
		return domain.Member{}, fmt.Errorf("service.PersonManager.AddMember: %s: %w", mem.ID, domain.ErrDuplicateID)
	}
	m.members = append(m.members, mem.Clone())
	m.changedLocked(ctx)
	m.mu.Unlock()

	m.bus.Publish(event.Event{Kind: event.PersonAdded, ID: mem.ID})
	return mem, nil
}

// AddHost is AddMember for hosts.
func (m *PersonManager) AddHost(ctx context.Context, h domain.Host) (domain.Host, error) {
	if err := preparePerson(&h.Identity); err != nil {
		return domain.Host{}, fmt.Errorf("service.PersonManager.AddHost: %w", err)
	}

	m.mu.Lock()
	if m.indexLocked(h.ID) != nil {
		m.mu.Unlock()
		return domain.Host{}, fmt.Errorf("service.PersonManager.AddHost: %s: %w", h.ID, domain.ErrDuplicateID)
	}
	m.hosts = append(m.hosts, h.Clone())
	m.changedLocked(ctx)
	m.mu.Unlock()

	m.bus.Publish(event.Event{Kind: event.PersonAdded, ID: h.ID})
	return h, nil
}

// AddPerson dispatches on the concrete type of p.
func (m *PersonManager) AddPerson(ctx context.Context, p domain.Person) (domain.Person, error) {
	switch p := p.(type) {
	case domain.Member:
		mem, err := m.AddMember(ctx, p)
		if err != nil {
			return nil, err
		}
		return mem, nil
	case domain.Host:
		h, err := m.AddHost(ctx, p)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
	return nil, fmt.Errorf("service.PersonManager.AddPerson: %T: %w", p, domain.ErrValidation)
}

// AddMembers appends every member whose ID is not taken yet, rewriting the
// cache once. It returns how many were added.
func (m *PersonManager) AddMembers(ctx context.Context, members []domain.Member) int {
	var added []string

	m.mu.Lock()
	for _, mem := range members {
		if err := preparePerson(&mem.Identity); err != nil || m.indexLocked(mem.ID) != nil {
			continue
		}
		m.members = append(m.members, mem.Clone())
		added = append(added, mem.ID)
	}
	if len(added) > 0 {
		m.changedLocked(ctx)
	}
	m.mu.Unlock()

	m.publishAll(event.PersonAdded, added)
	return len(added)
}

// AddHosts is AddMembers for hosts.
func (m *PersonManager) AddHosts(ctx context.Context, hosts []domain.Host) int {
	var added []string

	m.mu.Lock()
	for _, h := range hosts {
		if err := preparePerson(&h.Identity); err != nil || m.indexLocked(h.ID) != nil {
			continue
		}
		m.hosts = append(m.hosts, h.Clone())
		added = append(added, h.ID)
	}
	if len(added) > 0 {
		m.changedLocked(ctx)
	}
	m.mu.Unlock()

	m.publishAll(event.PersonAdded, added)
	return len(added)
}

// RemoveMember deletes the member with id. Returns domain.ErrNotFound, with
// nothing changed, when there is no such member.
func (m *PersonManager) RemoveMember(ctx context.Context, id string) error {
	m.mu.Lock()
	i := slices.IndexFunc(m.members, func(x domain.Member) bool { return x.ID == id })
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("service.PersonManager.RemoveMember: %s: %w", id, domain.ErrNotFound)
	}
	m.members = slices.Delete(m.members, i, i+1)
	m.changedLocked(ctx)
	m.mu.Unlock()

	m.bus.Publish(event.Event{Kind: event.PersonRemoved, ID: id})
	return nil
}

// RemoveHost deletes the host with id.
func (m *PersonManager) RemoveHost(ctx context.Context, id string) error {
	m.mu.Lock()
	i := slices.IndexFunc(m.hosts, func(x domain.Host) bool { return x.ID == id })
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("service.PersonManager.RemoveHost: %s: %w", id, domain.ErrNotFound)
	}
	m.hosts = slices.Delete(m.hosts, i, i+1)
	m.changedLocked(ctx)
	m.mu.Unlock()

	m.bus.Publish(event.Event{Kind: event.PersonRemoved, ID: id})
	return nil
}

// RemovePerson deletes whichever member or host has id.
func (m *PersonManager) RemovePerson(ctx context.Context, id string) error {
	err := m.RemoveMember(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		err = m.RemoveHost(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("service.PersonManager.RemovePerson: %w", err)
	}
	return nil
}

// UpdateMember replaces the member stored under originalID with updated.
// An empty updated.ID keeps the original ID. Moving to an ID that another
// person holds returns domain.ErrDuplicateID.
func (m *PersonManager) UpdateMember(ctx context.Context, originalID string, updated domain.Member) (domain.Member, error) {
	if updated.ID == "" {
		updated.ID = originalID
	}
	if err := preparePerson(&updated.Identity); err != nil {
		return domain.Member{}, fmt.Errorf("service.PersonManager.UpdateMember: %w", err)
	}

	m.mu.Lock()
	i := slices.IndexFunc(m.members, func(x domain.Member) bool { return x.ID == originalID })
	if i < 0 {
		m.mu.Unlock()
		return domain.Member{}, fmt.Errorf("service.PersonManager.UpdateMember: %s: %w", originalID, domain.ErrNotFound)
	}
	if updated.ID != originalID && m.indexLocked(updated.ID) != nil {
		m.mu.Unlock()
		return domain.Member{}, fmt.Errorf("service.PersonManager.UpdateMember: %s: %w", updated.ID, domain.ErrDuplicateID)
	}
	m.members[i] = updated.Clone()
	m.changedLocked(ctx)
	m.mu.Unlock()

	m.bus.Publish(event.Event{Kind: event.PersonUpdated, ID: updated.ID, PrevID: originalID})
	return updated, nil
}

// UpdateHost replaces the host stored under originalID with updated.
func (m *PersonManager) UpdateHost(ctx context.Context, originalID string, updated domain.Host) (domain.Host, error) {
	if updated.ID == "" {
		updated.ID = originalID
	}
	if err := preparePerson(&updated.Identity); err != nil {
		return domain.Host{}, fmt.Errorf("service.PersonManager.UpdateHost: %w", err)
	}

	m.mu.Lock()
	i := slices.IndexFunc(m.hosts, func(x domain.Host) bool { return x.ID == originalID })
	if i < 0 {
		m.mu.Unlock()
		return domain.Host{}, fmt.Errorf("service.PersonManager.UpdateHost: %s: %w", originalID, domain.ErrNotFound)
	}
	if updated.ID != originalID && m.indexLocked(updated.ID) != nil {
		m.mu.Unlock()
		return domain.Host{}, fmt.Errorf("service.PersonManager.UpdateHost: %s: %w", updated.ID, domain.ErrDuplicateID)
	}
	m.hosts[i] = updated.Clone()
	m.changedLocked(ctx)
	m.mu.Unlock()

	m.bus.Publish(event.Event{Kind: event.PersonUpdated, ID: updated.ID, PrevID: originalID})
	return updated, nil
}

// UpdatePerson replaces the person stored under originalID. When the role
// changes the old record is removed and the new one appended, all under one
// lock and one cache rewrite.
func (m *PersonManager) UpdatePerson(ctx context.Context, originalID string, updated domain.Person) (domain.Person, error) {
	if updated == nil {
		return nil, fmt.Errorf("service.PersonManager.UpdatePerson: %w: person is required", domain.ErrValidation)
	}
	current, err := m.FindPersonByID(originalID)
	if err != nil {
		return nil, fmt.Errorf("service.PersonManager.UpdatePerson: %w", err)
	}
	if current.Role() == updated.Role() {
		switch u := updated.(type) {
		case domain.Member:
			mem, err := m.UpdateMember(ctx, originalID, u)
			if err != nil {
				return nil, err
			}
			return mem, nil
		case domain.Host:
			h, err := m.UpdateHost(ctx, originalID, u)
			if err != nil {
				return nil, err
			}
			return h, nil
		}
	}

	var id domain.Identity
	switch u := updated.(type) {
	case domain.Member:
		id = u.Identity
	case domain.Host:
		id = u.Identity
	default:
		return nil, fmt.Errorf("service.PersonManager.UpdatePerson: %T: %w", updated, domain.ErrValidation)
	}
	if id.ID == "" {
		id.ID = originalID
	}
	if err := preparePerson(&id); err != nil {
		return nil, fmt.Errorf("service.PersonManager.UpdatePerson: %w", err)
	}

	m.mu.Lock()
	if m.indexLocked(originalID) == nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("service.PersonManager.UpdatePerson: %s: %w", originalID, domain.ErrNotFound)
	}
	if id.ID != originalID && m.indexLocked(id.ID) != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("service.PersonManager.UpdatePerson: %s: %w", id.ID, domain.ErrDuplicateID)
	}
	m.members = slices.DeleteFunc(m.members, func(x domain.Member) bool { return x.ID == originalID })
	m.hosts = slices.DeleteFunc(m.hosts, func(x domain.Host) bool { return x.ID == originalID })
	var result domain.Person
	switch u := updated.(type) {
	case domain.Member:
		u.Identity = id
		m.members = append(m.members, u.Clone())
		result = u
	case domain.Host:
		u.Identity = id
		m.hosts = append(m.hosts, u.Clone())
		result = u
	}
	m.changedLocked(ctx)
	m.mu.Unlock()

	m.bus.Publish(event.Event{Kind: event.PersonUpdated, ID: id.ID, PrevID: originalID})
	return result, nil
}

// FindMemberByID returns a copy of the member with id, or domain.ErrNotFound.
func (m *PersonManager) FindMemberByID(id string) (domain.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.members {
		if x.ID == id {
			return x.Clone(), nil
		}
	}
	return domain.Member{}, fmt.Errorf("service.PersonManager.FindMemberByID: %s: %w", id, domain.ErrNotFound)
}

// FindHostByID returns a copy of the host with id, or domain.ErrNotFound.
func (m *PersonManager) FindHostByID(id string) (domain.Host, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.hosts {
		if x.ID == id {
			return x.Clone(), nil
		}
	}
	return domain.Host{}, fmt.Errorf("service.PersonManager.FindHostByID: %s: %w", id, domain.ErrNotFound)
}

// FindPersonByID looks in members first, then hosts.
func (m *PersonManager) FindPersonByID(id string) (domain.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p := m.indexLocked(id); p != nil {
		return p, nil
	}
	return nil, fmt.Errorf("service.PersonManager.FindPersonByID: %s: %w", id, domain.ErrNotFound)
}

// Members returns a copy of all members in insertion order. The result is
// never nil.
func (m *PersonManager) Members() []domain.Member {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Member, len(m.members))
	for i, x := range m.members {
		out[i] = x.Clone()
	}
	return out
}

// Hosts returns a copy of all hosts in insertion order.
func (m *PersonManager) Hosts() []domain.Host {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Host, len(m.hosts))
	for i, x := range m.hosts {
		out[i] = x.Clone()
	}
	return out
}

// People returns every member followed by every host.
func (m *PersonManager) People() []domain.Person {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.compositeLocked())
}

func (m *PersonManager) PersonCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.compositeLocked())
}

func (m *PersonManager) MemberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.members)
}

func (m *PersonManager) HostCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hosts)
}

// Replace swaps in a whole new set of people and rewrites the cache.
// No per-person events are published.
func (m *PersonManager) Replace(ctx context.Context, members []domain.Member, hosts []domain.Host) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members = cloneAll(members, domain.Member.Clone)
	m.hosts = cloneAll(hosts, domain.Host.Clone)
	m.changedLocked(ctx)
}

func (m *PersonManager) ClearMembers(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members = nil
	m.changedLocked(ctx)
}

func (m *PersonManager) ClearHosts(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hosts = nil
	m.changedLocked(ctx)
}

func (m *PersonManager) ClearAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members = nil
	m.hosts = nil
	m.changedLocked(ctx)
}

// ValidateDataIntegrity reports every ID used by more than one person,
// within members, within hosts, or across the two. Nil means every ID is
// unique. Data loaded from an older cache can violate this.
func (m *PersonManager) ValidateDataIntegrity() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[string]domain.Role, len(m.members)+len(m.hosts))
	var errs []error
	check := func(id string, role domain.Role) {
		prev, ok := seen[id]
		switch {
		case !ok:
			seen[id] = role
		case prev == role:
			errs = append(errs, fmt.Errorf("%w: %s appears twice among %ss", domain.ErrDuplicateID, id, strings.ToLower(role.String())))
		default:
			errs = append(errs, fmt.Errorf("%w: %s is both a member and a host", domain.ErrDuplicateID, id))
		}
	}
	for _, x := range m.members {
		check(x.ID, domain.RoleMember)
	}
	for _, x := range m.hosts {
		check(x.ID, domain.RoleHost)
	}
	return errors.Join(errs...)
}

// updateMemberLinks applies fn to the member with id and rewrites the cache.
// It does not publish; the roster announces the trip-side change instead.
func (m *PersonManager) updateMemberLinks(ctx context.Context, id string, fn func(*domain.Member)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.members, func(x domain.Member) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("member %s: %w", id, domain.ErrNotFound)
	}
	fn(&m.members[i])
	m.changedLocked(ctx)
	return nil
}

// updateHostLinks is updateMemberLinks for hosts.
func (m *PersonManager) updateHostLinks(ctx context.Context, id string, fn func(*domain.Host)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := slices.IndexFunc(m.hosts, func(x domain.Host) bool { return x.ID == id })
	if i < 0 {
		return fmt.Errorf("host %s: %w", id, domain.ErrNotFound)
	}
	fn(&m.hosts[i])
	m.changedLocked(ctx)
	return nil
}

// rewriteLinks lets fn edit every member and host in place, then rewrites
// the cache if fn reported a change.
func (m *PersonManager) rewriteLinks(ctx context.Context, fn func(members []domain.Member, hosts []domain.Host) bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if fn(m.members, m.hosts) {
		m.changedLocked(ctx)
	}
}

// indexLocked returns the person with id, or nil.
func (m *PersonManager) indexLocked(id string) domain.Person {
	for _, x := range m.members {
		if x.ID == id {
			return x.Clone()
		}
	}
	for _, x := range m.hosts {
		if x.ID == id {
			return x.Clone()
		}
	}
	return nil
}

func (m *PersonManager) compositeLocked() []domain.Person {
	if m.dirty {
		m.people = make([]domain.Person, 0, len(m.members)+len(m.hosts))
		for _, x := range m.members {
			m.people = append(m.people, x.Clone())
		}
		for _, x := range m.hosts {
			m.people = append(m.people, x.Clone())
		}
		m.dirty = false
	}
	return m.people
}

// changedLocked marks the composite view stale and writes the cache through.
func (m *PersonManager) changedLocked(ctx context.Context) {
	m.dirty = true
	if err := m.store.Save(ctx, m.members, m.hosts); err != nil {
		m.log.ErrorContext(ctx, "write people cache", "error", err)
	}
}

func (m *PersonManager) publishAll(kind event.Kind, ids []string) {
	for _, id := range ids {
		m.bus.Publish(event.Event{Kind: kind, ID: id})
	}
}

// preparePerson normalises the identity fields and fills a missing ID.
func preparePerson(id *domain.Identity) error {
	id.FullName = strings.TrimSpace(id.FullName)
	if id.FullName == "" {
		return fmt.Errorf("%w: full_name is required", domain.ErrValidation)
	}
	id.ID = strings.TrimSpace(id.ID)
	if id.ID == "" {
		id.ID = domain.NewPersonID(id.FullName, id.DateOfBirth)
	}
	return nil
}

func cloneAll[T any](in []T, clone func(T) T) []T {
	out := make([]T, len(in))
	for i, x := range in {
		out[i] = clone(x)
	}
	return out
}
