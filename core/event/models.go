// Package event holds alumni events and their QR-code attendance check-in.
package event

import (
	"time"

	"github.com/trezcool/trace/core"
)

type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Venue       string    `json:"venue"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Capacity    int       `json:"capacity"`
	Attendees   int       `json:"attendees"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	// CheckinToken is only sent to administrators.
	CheckinToken string `json:"checkin_token,omitempty"`
}

// IsFull reports whether the event reached its capacity. 0 means unlimited.
func (e Event) IsFull() bool {
	return e.Capacity > 0 && e.Attendees >= e.Capacity
}

// NewEvent contains information needed to create or update an event.
type NewEvent struct {
	Title       string `json:"title" validate:"required,notblank,max=120"`
	Description string `json:"description"`
	Venue       string `json:"venue" validate:"required,notblank"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Capacity    int    `json:"capacity" validate:"gte=0"`
}

func (ne *NewEvent) Clean() {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	ne.Venue = core.CleanString(ne.Venue)
	ne.Date = core.CleanString(ne.Date)
}

func (ne *NewEvent) Validate() error {
	ne.Clean()
	return core.ValidateStruct(ne)
}

// Attendance is one check-in of an alumnus to an event.
type Attendance struct {
	EventID     string    `json:"event_id"`
	UserID      string    `json:"user_id"`
	CheckedInAt time.Time `json:"checked_in_at"`
}

// CheckinRequest is the body of POST /events/{id}/attendance.
type CheckinRequest struct {
	Token string `json:"token" validate:"required"`
}
