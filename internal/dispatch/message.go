package dispatch

import (
	"time"

	"github.com/google/uuid"
)

// Topic enumerates supported message identifiers.
type Topic string

const (
	TopicUserRegistered  Topic = "user.registered"
	TopicUserLoggedIn    Topic = "user.logged_in"
	TopicUserLoginFailed Topic = "user.login_failed"
	TopicEventCreated    Topic = "event.created"
	TopicEventUpdated    Topic = "event.updated"
	TopicEventDeleted    Topic = "event.deleted"
)

// EventTopics lists the topics emitted by event mutations.
var EventTopics = []Topic{TopicEventCreated, TopicEventUpdated, TopicEventDeleted}

// Actor identifies who caused a message. Empty for anonymous calls.
type Actor struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Message is a notification emitted by services.
type Message struct {
	ID        string      `json:"id"`
	Topic     Topic       `json:"topic"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewMessage stamps a message with a fresh ID and the current time.
func NewMessage(topic Topic, actor Actor, payload interface{}) Message {
	return Message{
		ID:        uuid.NewString(),
		Topic:     topic,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// UserPayload accompanies user.* messages. It never carries credentials.
type UserPayload struct {
	UserID string `json:"user_id,omitempty"`
	Email  string `json:"email"`
	Role   string `json:"role,omitempty"`
}

// EventPayload accompanies event.* messages.
type EventPayload struct {
	EventID int64  `json:"event_id"`
	Name    string `json:"name,omitempty"`
}
