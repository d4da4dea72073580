package core

import (
	"context"

	"github.com/stickyptyltd-glitch/MindMend-sub003/internal/domain"
)

// Frame is a raw payload pushed to a subscriber (a JSON-encoded Event).
type Frame []byte

// SubscriberID identifies one event-stream connection.
type SubscriberID string

// SignalConnection abstracts the messaging transport of a subscriber.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

type EventType string

const (
	EventParticipantJoined  EventType = "participant_joined"
	EventParticipantUpdated EventType = "participant_updated"
	EventSessionEnded       EventType = "session_ended"
	EventSessionExpired     EventType = "session_expired"
)

// Event is what the registry announces after a successful mutation.
type Event struct {
	Type    EventType      `json:"type"`
	UserID  domain.UserID  `json:"user_id,omitempty"`
	Session domain.Session `json:"session"`
}

// EventSink receives registry events. Implementations must not block.
type EventSink interface {
	Publish(code domain.Code, ev Event)
}

// Archiver persists sessions that housekeeping removes from the live index.
type Archiver interface {
	Save(ctx context.Context, s domain.Session) error
}

// PublishResult reports delivery stats/backpressure to the notifier.
type PublishResult struct {
	SentTo  int
	Dropped []SubscriberID
}
