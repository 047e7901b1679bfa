// Package events defines the abstract notification events the engine emits
// toward its notification collaborator, plus the publisher implementations
// that carry them: an in-memory publisher for tests and single-process runs,
// a Kafka publisher, and a transactional outbox that feeds it.
package events

import (
	"context"
	"time"

	"fieldsafe/pkg/domain"
)

// Type discriminates event payloads on the wire.
type Type string

const (
	// TypeVisitStatusChanged fires on every committed visit-calendar write.
	TypeVisitStatusChanged Type = "visitStatusChanged"
	// TypeCapacityChanged fires whenever a person's granted or consumed
	// minutes change.
	TypeCapacityChanged Type = "capacityChanged"
)

// Event is the union payload for both event types. Consumers switch on Type;
// unrelated fields stay at their zero values.
type Event struct {
	Type       Type              `json:"type"`
	WorksiteID domain.WorksiteID `json:"worksiteId,omitempty"`
	PersonID   domain.PersonID   `json:"personId,omitempty"`
	Month      domain.Month      `json:"month,omitempty"`
	Visited    bool              `json:"visited,omitempty"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// VisitStatusChanged builds the calendar-write event.
func VisitStatusChanged(worksiteID domain.WorksiteID, month domain.Month, visited bool, at time.Time) Event {
	return Event{
		Type:       TypeVisitStatusChanged,
		WorksiteID: worksiteID,
		Month:      month,
		Visited:    visited,
		OccurredAt: at,
	}
}

// CapacityChanged builds the ledger-mutation event.
func CapacityChanged(personID domain.PersonID, at time.Time) Event {
	return Event{
		Type:       TypeCapacityChanged,
		PersonID:   personID,
		OccurredAt: at,
	}
}

// Publisher delivers events to the notification collaborator. Delivery is
// at-least-once; consumers must apply duplicates idempotently.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, event Event) error

func (f PublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// NopPublisher drops events. Used when no notification transport is wired.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
