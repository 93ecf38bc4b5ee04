package memory

import (
	"context"
	"fmt"
	"sync"

	audit "audittrail/pkg/platform/audit"
	"audittrail/pkg/platform/sentinel"
)

// InMemoryStore keeps records in insertion order and assigns sequential ids.
type InMemoryStore struct {
	mu      sync.RWMutex
	records []audit.EventRecord
	byID    map[int64]int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byID: make(map[int64]int)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.byID = make(map[int64]int)
}

// Persist stores a copy of record and returns its new id.
func (s *InMemoryStore) Persist(_ context.Context, record audit.EventRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := int64(len(s.records) + 1)
	record.ID = id
	record.Changes = append([]audit.ChangeRecord(nil), record.Changes...)
	s.records = append(s.records, record)
	s.byID[id] = len(s.records) - 1
	return id, nil
}

func (s *InMemoryStore) SetIntegrityFull(_ context.Context, id int64, full string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("audit event %d: %w", id, sentinel.ErrNotFound)
	}
	s.records[idx].IntegrityFull = full
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id int64) (audit.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return audit.EventRecord{}, fmt.Errorf("audit event %d: %w", id, sentinel.ErrNotFound)
	}
	return clone(s.records[idx]), nil
}

// List returns all records in id order.
func (s *InMemoryStore) List(_ context.Context) ([]audit.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]audit.EventRecord, len(s.records))
	for i, r := range s.records {
		out[i] = clone(r)
	}
	return out, nil
}

// ListSince returns up to limit records with an id greater than afterID.
func (s *InMemoryStore) ListSince(_ context.Context, afterID int64, limit int) ([]audit.EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]audit.EventRecord, 0)
	for _, r := range s.records {
		if r.ID <= afterID {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, clone(r))
	}
	return out, nil
}

func clone(r audit.EventRecord) audit.EventRecord {
	r.Changes = append([]audit.ChangeRecord(nil), r.Changes...)
	return r
}
