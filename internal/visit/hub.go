package visit

import (
	"sync"

	"fieldsafe/internal/events"
	"fieldsafe/pkg/domain"
)

// Hub fans calendar updates out to in-process subscribers, one channel per
// SSE connection. Sends never block: a subscriber whose buffer is full is
// disconnected, so its client reconnects and re-reads the calendar instead
// of silently missing a committed write.
type Hub struct {
	mu   sync.Mutex
	subs map[domain.WorksiteID]map[*subscriber]struct{}
}

type subscriber struct {
	ch   chan events.Event
	once sync.Once
}

func (s *subscriber) close() { s.once.Do(func() { close(s.ch) }) }

func NewHub() *Hub {
	return &Hub{subs: make(map[domain.WorksiteID]map[*subscriber]struct{})}
}

// Subscribe registers a listener for one worksite's updates. The channel
// is closed when the hub disconnects the listener; the returned cancel
// func is safe to call more than once.
func (h *Hub) Subscribe(worksiteID domain.WorksiteID) (<-chan events.Event, func()) {
	sub := &subscriber{ch: make(chan events.Event, 8)}

	h.mu.Lock()
	if h.subs[worksiteID] == nil {
		h.subs[worksiteID] = make(map[*subscriber]struct{})
	}
	h.subs[worksiteID][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		h.remove(worksiteID, sub)
		h.mu.Unlock()
	}
	return sub.ch, cancel
}

// Broadcast delivers an event to every subscriber of its worksite.
// Subscribers that cannot take the event are dropped and their channels
// closed.
func (h *Hub) Broadcast(event events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[event.WorksiteID] {
		select {
		case sub.ch <- event:
		default:
			h.remove(event.WorksiteID, sub)
		}
	}
}

// SubscriberCount reports the live subscribers for one worksite.
func (h *Hub) SubscriberCount(worksiteID domain.WorksiteID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[worksiteID])
}

// remove is called with the lock held.
func (h *Hub) remove(worksiteID domain.WorksiteID, sub *subscriber) {
	if _, ok := h.subs[worksiteID][sub]; !ok {
		return
	}
	delete(h.subs[worksiteID], sub)
	if len(h.subs[worksiteID]) == 0 {
		delete(h.subs, worksiteID)
	}
	sub.close()
}
