package visit

import (
	"context"
	"sync"

	"fieldsafe/pkg/domain"
	"fieldsafe/pkg/platform/sentinel"
)

type recordKey struct {
	worksiteID domain.WorksiteID
	month      domain.Month
}

// InMemory is the map-backed calendar store.
type InMemory struct {
	mu      sync.RWMutex
	records map[recordKey]*Record
}

func NewInMemory() *InMemory {
	return &InMemory{records: make(map[recordKey]*Record)}
}

func (s *InMemory) Upsert(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.records[recordKey{record.WorksiteID, record.Month}] = &cp
	return nil
}

func (s *InMemory) Find(_ context.Context, worksiteID domain.WorksiteID, month domain.Month) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, exists := s.records[recordKey{worksiteID, month}]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *InMemory) ListByYear(_ context.Context, worksiteID domain.WorksiteID, year int) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Record
	for key, record := range s.records {
		if key.worksiteID == worksiteID && key.month.Year() == year {
			cp := *record
			out = append(out, &cp)
		}
	}
	return out, nil
}
