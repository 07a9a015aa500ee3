package auth

import (
	"context"
	"time"
)

// Message is an outbound email.
type Message struct {
	To      string
	Subject string
	Text    string
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Activity event types.
const (
	EventSignedUp               = "user.signed_up"
	EventLoggedIn               = "user.logged_in"
	EventPasswordResetRequested = "user.password_reset_requested"
	EventPasswordResetCompleted = "user.password_reset_completed"
	EventPasswordUpdated        = "user.password_updated"
)

// Event records an auth lifecycle change.
type Event struct {
	Type       string    `msgpack:"type" json:"type"`
	UserID     string    `msgpack:"user_id" json:"userId"`
	OccurredAt time.Time `msgpack:"occurred_at" json:"occurredAt"`
}

// EventPublisher emits activity events. Publishing must not block or fail a request.
type EventPublisher interface {
	Publish(ctx context.Context, event Event)
}
