package domain

import "time"

// DateLayout is the wire and storage format of an event date.
const DateLayout = "2006-01-02"

// Event is an entry in the protected events collection.
type Event struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Venue       string    `json:"venue"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventPatch carries the fields of a partial update; nil fields are left untouched.
type EventPatch struct {
	Name        *string
	Description *string
	Date        *time.Time
	Venue       *string
}

// Empty reports whether the patch changes nothing.
func (p EventPatch) Empty() bool {
	return p.Name == nil && p.Description == nil && p.Date == nil && p.Venue == nil
}
