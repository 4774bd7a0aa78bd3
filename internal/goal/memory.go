package goal

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Repository. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
	latest  map[string]string // session -> goal id
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]*Record),
		latest:  make(map[string]string),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryStore) Create(ctx context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[rec.GoalID]; ok {
		return ErrDuplicateID
	}
	r := rec.Clone()
	r.Plan = nil
	r.CheckIns = []CheckIn{}
	r.Reflections = []Reflection{}
	r.CreatedAt = m.now()
	r.UpdatedAt = r.CreatedAt
	m.records[r.GoalID] = &r
	m.latest[SessionFrom(ctx)] = r.GoalID
	return nil
}

func (m *MemoryStore) AttachPlan(ctx context.Context, id string, p Plan) error {
	return m.mutate(ctx, id, func(r *Record) {
		cp := p.clone()
		r.Plan = &cp
	})
}

func (m *MemoryStore) PrependCheckIn(ctx context.Context, id string, c CheckIn) error {
	return m.mutate(ctx, id, func(r *Record) {
		r.CheckIns = append([]CheckIn{c}, r.CheckIns...)
	})
}

func (m *MemoryStore) PrependReflection(ctx context.Context, id string, ref Reflection) error {
	return m.mutate(ctx, id, func(r *Record) {
		r.Reflections = append([]Reflection{ref.clone()}, r.Reflections...)
	})
}

func (m *MemoryStore) UpdateDetails(ctx context.Context, id string, d Details) error {
	return m.mutate(ctx, id, func(r *Record) {
		r.TimeframeWeeks = d.TimeframeWeeks
		r.Motivation = d.Motivation
		r.Constraints = cloneStrings(d.Constraints)
	})
}

func (m *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r.Clone(), nil
}

func (m *MemoryStore) Latest(ctx context.Context) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.latest[SessionFrom(ctx)]
	if !ok {
		return Record{}, ErrNotFound
	}
	r, ok := m.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r.Clone(), nil
}

func (m *MemoryStore) mutate(ctx context.Context, id string, fn func(*Record)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[id]
	if !ok {
		return ErrNotFound
	}
	fn(r)
	r.UpdatedAt = m.now()
	m.latest[SessionFrom(ctx)] = id
	return nil
}
