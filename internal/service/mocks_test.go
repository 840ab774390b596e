package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/prohmpiriya/venue-calendar/internal/domain"
	"github.com/prohmpiriya/venue-calendar/internal/repository"
)

var errStoreDown = errors.New("connection refused")

// memStore is the shared state behind the in-memory repositories
type memStore struct {
	mu        sync.Mutex
	events    map[string]*domain.Event
	relations []*domain.EventRelation

	// failInsertFor makes Insert fail for edges pointing at these children
	failInsertFor map[string]bool
	// failAll makes every repository call fail
	failAll bool

	createCalls   int
	updateCalls   int
	getByIDsCalls int
	listCalls     int
}

func newMemStore() *memStore {
	return &memStore{
		events:        make(map[string]*domain.Event),
		failInsertFor: make(map[string]bool),
	}
}

func (s *memStore) repos() repository.Repositories {
	return repository.Repositories{
		Events:    &MockEventRepository{store: s},
		Relations: &MockRelationRepository{store: s},
	}
}

// put stores a copy of e
func (s *memStore) put(e *domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *e
	s.events[e.ID] = &c
}

func (s *memStore) edges() []domain.EventRelation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.EventRelation, len(s.relations))
	for i, r := range s.relations {
		out[i] = *r
	}
	return out
}

func stripCreatedAt(edges []domain.EventRelation) []domain.EventRelation {
	for i := range edges {
		edges[i].CreatedAt = time.Time{}
	}
	return edges
}

func (s *memStore) hasEdge(parent, child string) bool {
	for _, r := range s.edges() {
		if r.ParentEventID == parent && r.ChildEventID == child {
			return true
		}
	}
	return false
}

type memSnapshot struct {
	events    map[string]*domain.Event
	relations []*domain.EventRelation
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{events: make(map[string]*domain.Event, len(s.events))}
	for id, e := range s.events {
		c := *e
		snap.events[id] = &c
	}
	snap.relations = append(snap.relations, s.relations...)
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = snap.events
	s.relations = snap.relations
}

// MockTransactor runs fn against the store and rolls back on error
type MockTransactor struct {
	store   *memStore
	txCount int
}

func (t *MockTransactor) WithinTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	t.txCount++
	snap := t.store.snapshot()
	if err := fn(t.store.repos()); err != nil {
		t.store.restore(snap)
		return err
	}
	return nil
}

// MockEventRepository is an in-memory EventRepository
type MockEventRepository struct {
	store *memStore
}

func (m *MockEventRepository) Create(ctx context.Context, event *domain.Event) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failAll {
		return errStoreDown
	}
	m.store.createCalls++
	c := *event
	m.store.events[event.ID] = &c
	return nil
}

func (m *MockEventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failAll {
		return nil, errStoreDown
	}
	e, ok := m.store.events[id]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

func (m *MockEventRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Event, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failAll {
		return nil, errStoreDown
	}
	m.store.getByIDsCalls++
	var out []*domain.Event
	for _, id := range ids {
		if e, ok := m.store.events[id]; ok {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *MockEventRepository) ExistingIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failAll {
		return nil, errStoreDown
	}
	existing := make(map[string]bool)
	for _, id := range ids {
		if _, ok := m.store.events[id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func (m *MockEventRepository) Update(ctx context.Context, event *domain.Event) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failAll {
		return errStoreDown
	}
	if _, ok := m.store.events[event.ID]; !ok {
		return repository.ErrEventNotFound
	}
	m.store.updateCalls++
	c := *event
	m.store.events[event.ID] = &c
	return nil
}

func (m *MockEventRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failAll {
		return false, errStoreDown
	}
	if _, ok := m.store.events[id]; !ok {
		return false, nil
	}
	delete(m.store.events, id)
	return true, nil
}

func (m *MockEventRepository) List(ctx context.Context, filter *repository.EventFilter, limit, offset int) ([]*domain.Event, int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failAll {
		return nil, 0, errStoreDown
	}
	m.store.listCalls++

	var matched []*domain.Event
	for _, e := range m.store.events {
		if matchesFilter(e, filter) {
			c := *e
			matched = append(matched, &c)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.StartDate.Equal(b.StartDate) {
			return a.StartDate.Before(b.StartDate)
		}
		if c := domain.CompareTimeOfDay(a.StartTime, b.StartTime); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})

	total := len(matched)
	if offset >= total {
		return []*domain.Event{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func matchesFilter(e *domain.Event, f *repository.EventFilter) bool {
	if f == nil {
		return true
	}
	if len(f.Types) > 0 && !containsType(f.Types, e.Type) {
		return false
	}
	if f.Category != nil && (e.Category == nil || *e.Category != *f.Category) {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, e.Status) {
		return false
	}
	if f.LocationType != nil && e.LocationType != *f.LocationType {
		return false
	}
	if f.IsActive != nil && e.IsActive != *f.IsActive {
		return false
	}
	if f.To != nil && e.StartDate.After(*f.To) {
		return false
	}
	if f.From != nil && e.LastDate().Before(*f.From) {
		return false
	}
	if f.Date != nil && !e.OccursOn(*f.Date) {
		return false
	}
	return true
}

func containsType(types []domain.EventType, t domain.EventType) bool {
	for _, v := range types {
		if v == t {
			return true
		}
	}
	return false
}

func containsStatus(statuses []domain.EventStatus, s domain.EventStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

// MockRelationRepository is an in-memory RelationRepository
type MockRelationRepository struct {
	store *memStore
}

func (m *MockRelationRepository) Insert(ctx context.Context, relation *domain.EventRelation) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failAll || m.store.failInsertFor[relation.ChildEventID] {
		return false, errStoreDown
	}
	for _, r := range m.store.relations {
		if r.ParentEventID == relation.ParentEventID && r.ChildEventID == relation.ChildEventID && r.RelationType == relation.RelationType {
			return false, nil
		}
	}
	c := *relation
	m.store.relations = append(m.store.relations, &c)
	return true, nil
}

func (m *MockRelationRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	return m.deleteWhere(func(r *domain.EventRelation) bool {
		return r.ParentEventID == eventID || r.ChildEventID == eventID
	})
}

func (m *MockRelationRepository) DeleteOutgoing(ctx context.Context, parentID string) (int64, error) {
	return m.deleteWhere(func(r *domain.EventRelation) bool {
		return r.ParentEventID == parentID
	})
}

func (m *MockRelationRepository) deleteWhere(match func(*domain.EventRelation) bool) (int64, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failAll {
		return 0, errStoreDown
	}
	var kept []*domain.EventRelation
	var n int64
	for _, r := range m.store.relations {
		if match(r) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.store.relations = kept
	return n, nil
}

func (m *MockRelationRepository) ListTouching(ctx context.Context, ids []string) ([]*domain.EventRelation, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if m.store.failAll {
		return nil, errStoreDown
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []*domain.EventRelation
	for _, r := range m.store.relations {
		if want[r.ParentEventID] || want[r.ChildEventID] {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

// test fixtures

func mustDate(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func datePtr(s string) *time.Time {
	d := mustDate(s)
	return &d
}

func strPtr(s string) *string { return &s }

func category(c domain.EventCategory) *domain.EventCategory { return &c }

// newEvent returns an active public external event on start
func newEvent(id, start string) *domain.Event {
	return &domain.Event{
		ID:           id,
		Type:         domain.EventTypeExternal,
		Status:       domain.EventStatusPublic,
		StartDate:    mustDate(start),
		LocationType: domain.LocationTypeMuseum,
		IsActive:     true,
		TitleFr:      "Évènement " + id,
	}
}
