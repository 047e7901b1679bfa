package worksite

import (
	"context"
	"sync"

	"fieldsafe/pkg/domain"
	"fieldsafe/pkg/platform/sentinel"
)

// InMemory is the map-backed worksite store.
type InMemory struct {
	mu        sync.RWMutex
	worksites map[domain.WorksiteID]*Worksite
}

func NewInMemory() *InMemory {
	return &InMemory{worksites: make(map[domain.WorksiteID]*Worksite)}
}

func (s *InMemory) Create(_ context.Context, w *Worksite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.worksites[w.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.worksites[w.ID] = w.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.WorksiteID) (*Worksite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, exists := s.worksites[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return w.Clone(), nil
}

// FindByIDForUpdate matches FindByID here; commit-path serialization for
// memory deployments comes from the transaction runner's lock.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, id domain.WorksiteID) (*Worksite, error) {
	return s.FindByID(ctx, id)
}

func (s *InMemory) List(_ context.Context) ([]*Worksite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Worksite, 0, len(s.worksites))
	for _, w := range s.worksites {
		out = append(out, w.Clone())
	}
	return out, nil
}

func (s *InMemory) ListByStatus(_ context.Context, status ApprovalStatus) ([]*Worksite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Worksite
	for _, w := range s.worksites {
		if w.Status == status {
			out = append(out, w.Clone())
		}
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, w *Worksite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.worksites[w.ID]
	if !exists {
		return sentinel.ErrNotFound
	}
	if current.Version != w.Version {
		return sentinel.ErrConflict
	}
	updated := w.Clone()
	updated.Version++
	s.worksites[w.ID] = updated
	w.Version = updated.Version
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.WorksiteID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.worksites[id]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.worksites, id)
	return nil
}
