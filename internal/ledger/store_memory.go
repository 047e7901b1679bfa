package ledger

import (
	"context"
	"sync"

	"fieldsafe/pkg/domain"
	"fieldsafe/pkg/platform/sentinel"
)

// InMemory is the map-backed ledger store. A single mutex serializes Execute
// callbacks, which is what gives memory deployments the same commit
// atomicity the postgres store gets from row locks.
type InMemory struct {
	mu      sync.RWMutex
	persons map[domain.PersonID]*Person
}

func NewInMemory() *InMemory {
	return &InMemory{persons: make(map[domain.PersonID]*Person)}
}

func (s *InMemory) Create(_ context.Context, person *Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.persons[person.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.persons[person.ID] = person.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id domain.PersonID) (*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	person, exists := s.persons[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return person.Clone(), nil
}

func (s *InMemory) List(_ context.Context) ([]*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Person, 0, len(s.persons))
	for _, person := range s.persons {
		out = append(out, person.Clone())
	}
	return out, nil
}

func (s *InMemory) ListByRole(_ context.Context, role domain.Role) ([]*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Person
	for _, person := range s.persons {
		if person.Role == role {
			out = append(out, person.Clone())
		}
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, person *Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.persons[person.ID]
	if !exists {
		return sentinel.ErrNotFound
	}
	if current.Version != person.Version {
		return sentinel.ErrConflict
	}
	updated := person.Clone()
	updated.Version++
	s.persons[person.ID] = updated
	person.Version = updated.Version
	return nil
}

func (s *InMemory) Delete(_ context.Context, id domain.PersonID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	person, exists := s.persons[id]
	if !exists {
		return sentinel.ErrNotFound
	}
	if person.UsedMinutes > 0 {
		return sentinel.ErrInvalidState
	}
	delete(s.persons, id)
	return nil
}

func (s *InMemory) Execute(_ context.Context, id domain.PersonID, validate func(*Person) error, mutate func(*Person)) (*Person, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.persons[id]
	if !exists {
		return nil, sentinel.ErrNotFound
	}

	working := current.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	working.Version++
	s.persons[id] = working
	return working.Clone(), nil
}
