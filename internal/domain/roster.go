package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Attendee is one registration record; records are appended and never removed.
type Attendee struct {
	ID           string
	DonorID      string
	Status       AttendeeStatus
	RegisteredAt time.Time
	AttendedAt   *time.Time
	CancelledAt  *time.Time
}

// ActiveAttendeeCount is the authoritative count: registered + attended records.
func (e *Event) ActiveAttendeeCount() int {
	n := 0
	for _, a := range e.Attendees {
		if a.Status.Counts() {
			n++
		}
	}
	return n
}

func (e *Event) IsFull() bool {
	return e.ActiveAttendeeCount() >= e.ExpectedCapacity
}

func (e *Event) recount() {
	e.CurrentAttendees = e.ActiveAttendeeCount()
}

// activeRecord returns the index of the donor's non-cancelled record, or -1.
func (e *Event) activeRecord(donorID string) int {
	for i := range e.Attendees {
		if e.Attendees[i].DonorID == donorID && e.Attendees[i].Status.Counts() {
			return i
		}
	}
	return -1
}

func (e *Event) hasHistory(donorID string) bool {
	for _, a := range e.Attendees {
		if a.DonorID == donorID {
			return true
		}
	}
	return false
}

// RegistrationsOf returns every record of the donor in roster order.
func (e *Event) RegistrationsOf(donorID string) []Attendee {
	var out []Attendee
	for _, a := range e.Attendees {
		if a.DonorID == donorID {
			out = append(out, a)
		}
	}
	return out
}

// Register appends a registered record. Callers refresh the status first.
func (e *Event) Register(donorID string, now time.Time) (Attendee, error) {
	donorID = strings.TrimSpace(donorID)
	if donorID == "" {
		return Attendee{}, ErrValidationField("donor_id", "donor_id is required")
	}
	if !e.Status.Active() {
		return Attendee{}, ErrInvalidState("event is not open for registration")
	}
	if e.activeRecord(donorID) >= 0 {
		return Attendee{}, ErrConflict("donor already registered for this event")
	}
	if e.IsFull() {
		return Attendee{}, ErrConflict("event is full")
	}

	t := now.UTC()
	a := Attendee{
		ID:           uuid.NewString(),
		DonorID:      donorID,
		Status:       AttendeeRegistered,
		RegisteredAt: t,
	}
	e.Attendees = append(e.Attendees, a)
	e.UpdatedAt = t
	e.recount()
	return a, nil
}

// CancelRegistration flips the donor's active record to cancelled, keeping it in the roster.
func (e *Event) CancelRegistration(donorID string, now time.Time) (Attendee, error) {
	idx := e.activeRecord(donorID)
	if idx < 0 {
		if e.hasHistory(donorID) {
			return Attendee{}, ErrConflict("registration already cancelled")
		}
		return Attendee{}, ErrNotFound("registration not found")
	}
	a := &e.Attendees[idx]
	if a.Status == AttendeeAttended {
		return Attendee{}, ErrInvalidState("attendance already recorded")
	}
	if e.Status == StatusCompleted {
		return Attendee{}, ErrInvalidState("registration for a completed event cannot be cancelled")
	}

	t := now.UTC()
	a.Status = AttendeeCancelled
	a.CancelledAt = &t
	e.UpdatedAt = t
	e.recount()
	return *a, nil
}

// MarkAttended records a donation for a registered donor once the event has started.
func (e *Event) MarkAttended(donorID string, now time.Time) (Attendee, error) {
	if e.Status != StatusOngoing && e.Status != StatusCompleted {
		return Attendee{}, ErrInvalidState("attendance can only be recorded once the event has started")
	}
	idx := e.activeRecord(donorID)
	if idx < 0 {
		return Attendee{}, ErrNotFound("no active registration for donor")
	}
	a := &e.Attendees[idx]
	if a.Status == AttendeeAttended {
		return Attendee{}, ErrConflict("attendance already recorded")
	}

	t := now.UTC()
	a.Status = AttendeeAttended
	a.AttendedAt = &t
	e.UpdatedAt = t
	e.recount()
	return *a, nil
}
