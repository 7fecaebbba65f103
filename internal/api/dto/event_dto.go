package dto

import (
	"time"

	"github.com/spec-kit/event-service/internal/domain"
)

// EventRequest is the body of create and update calls.
type EventRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Venue       string `json:"venue"`
}

// EventResponse renders an event with a calendar date.
type EventResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Venue       string    `json:"venue"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventCreatedResponse is returned by POST /api/events.
type EventCreatedResponse struct {
	Message string `json:"message"`
	EventID int64  `json:"eventId"`
}

// MessageResponse carries a bare confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewEventResponse converts a domain event.
func NewEventResponse(e domain.Event) EventResponse {
	return EventResponse{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		Date:        e.Date.Format(domain.DateLayout),
		Venue:       e.Venue,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// NewEventResponses converts a list, never returning nil.
func NewEventResponses(events []domain.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, NewEventResponse(e))
	}
	return out
}
