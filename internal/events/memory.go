package events

import (
	"context"
	"sync"
)

// MemoryPublisher retains published events in order. Tests assert against
// Events; single-process deployments can fan them straight into the visit
// watch hub via Subscribe.
type MemoryPublisher struct {
	mu     sync.RWMutex
	events []Event
	subs   []chan Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	for _, ch := range p.subs {
		// Non-blocking: a slow subscriber drops rather than stalling commits.
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Events returns a snapshot of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Subscribe returns a buffered channel receiving future events.
func (p *MemoryPublisher) Subscribe() <-chan Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan Event, 64)
	p.subs = append(p.subs, ch)
	return ch
}
