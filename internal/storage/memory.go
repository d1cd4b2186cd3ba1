package storage

import (
	"context"
	"sync"

	"github.com/dennisdiepolder/monti/calldesk/internal/types"
	"github.com/google/uuid"
)

// MemoryStore keeps records in process memory, in insertion order
type MemoryStore struct {
	mu      sync.RWMutex
	order   []types.RecordID
	records map[types.RecordID]types.Record
	newID   func() types.RecordID
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[types.RecordID]types.Record),
		newID:   func() types.RecordID { return types.RecordID(uuid.New().String()) },
	}
}

func (s *MemoryStore) List(_ context.Context) ([]types.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id types.RecordID) (types.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return types.Record{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) Create(_ context.Context, fields types.RecordFields) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := types.Record{ID: s.newID(), RecordFields: fields}
	s.records[r.ID] = r
	s.order = append(s.order, r.ID)
	return r, nil
}

func (s *MemoryStore) Update(_ context.Context, id types.RecordID, patch Patch) (types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.records[id]
	if !ok {
		return types.Record{}, ErrNotFound
	}
	r.RecordFields = patch.Apply(r.RecordFields)
	s.records[id] = r
	return r, nil
}

func (s *MemoryStore) Delete(_ context.Context, id types.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) Close() error { return nil }
