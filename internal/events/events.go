package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names a kind of domain event.
type Type string

// Domain event types.
const (
	TypeUserRegistered Type = "user.registered"
	TypeDogRegistered  Type = "dog.registered"
	TypeDogAdopted     Type = "dog.adopted"
	TypeDogRemoved     Type = "dog.removed"
)

// Event records one completed state change.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	Type Type `json:"type"`

	// ActorID is the user who caused the change.
	ActorID uuid.UUID `json:"actorId"`

	// DogID is set for listing events.
	DogID *uuid.UUID `json:"dogId,omitempty"`

	OccurredAt time.Time `json:"occurredAt"`
}

// NewUserEvent creates an event about a user account.
func NewUserEvent(eventType Type, userID uuid.UUID) *Event {
	return &Event{
		ID:         uuid.New(),
		Type:       eventType,
		ActorID:    userID,
		OccurredAt: time.Now().UTC(),
	}
}

// NewDogEvent creates an event about a listing changed by actorID.
func NewDogEvent(eventType Type, actorID, dogID uuid.UUID) *Event {
	event := NewUserEvent(eventType, actorID)
	event.DogID = &dogID
	return event
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to EventHandler.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent implements EventHandler.
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *Event) error { return nil }
