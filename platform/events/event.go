// Package events is the in-process bus that carries collaboration events (stage changes,
// dispatches, results, overdue sweeps) from the services that produce them to subscribers
// such as notifications. It holds no business rules.
package events

import (
	"context"
	"time"
)

// Event is implemented by every published event.
type Event interface {
	// EventName is the subscription key, e.g. "collaborations.stage.changed".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the instant an event refers to. Embed it in concrete events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps an event with the current time.
func NewBaseEvent() BaseEvent {
	return NewBaseEventAt(time.Now())
}

// NewBaseEventAt stamps an event with at, in UTC. Sweeps use it so every event they publish
// carries the instant the sweep evaluated deadlines against.
func NewBaseEventAt(at time.Time) BaseEvent {
	return BaseEvent{Timestamp: at.UTC()}
}

// Handler processes one event. A returned error is logged by the bus and not retried.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus delivers events to the handlers subscribed to their EventName.
type Bus interface {
	// Publish hands the event to its handlers in the background and returns at once.
	Publish(ctx context.Context, event Event)

	// PublishSync runs the handlers before returning and joins their errors.
	PublishSync(ctx context.Context, event Event) error

	Subscribe(eventName string, handler Handler)
}
