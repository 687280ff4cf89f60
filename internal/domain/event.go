package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID          string
	OrganizerID string

	Title            string
	OrganizationName string
	Description      string
	Location         string
	ContactEmail     string
	ContactPhone     string
	BloodTypesNeeded []BloodType

	StartDate time.Time
	EndDate   time.Time
	TimeRange string

	ExpectedCapacity int
	// CurrentAttendees is a read projection of Attendees, rewritten by every roster mutation.
	CurrentAttendees int

	Status      EventStatus
	CancelledAt *time.Time

	Attendees []Attendee

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Draft carries organizer input for a new event.
type Draft struct {
	OrganizerID      string
	Title            string
	OrganizationName string
	Description      string
	Location         string
	ContactEmail     string
	ContactPhone     string
	BloodTypesNeeded []string

	StartDate time.Time
	EndDate   time.Time // zero = same as StartDate
	TimeRange string

	ExpectedCapacity int
}

// Patch carries a partial update; nil fields are left untouched.
type Patch struct {
	Title            *string
	OrganizationName *string
	Description      *string
	Location         *string
	ContactEmail     *string
	ContactPhone     *string
	BloodTypesNeeded *[]string

	StartDate *time.Time
	EndDate   *time.Time
	TimeRange *string

	ExpectedCapacity *int
}

const (
	maxTitleLen       = 120
	maxOrgNameLen     = 120
	maxLocationLen    = 200
	maxDescriptionLen = 4000
)

func NewEvent(d Draft, now time.Time) (*Event, error) {
	organizerID := strings.TrimSpace(d.OrganizerID)
	if organizerID == "" {
		return nil, ErrValidationField("organizer_id", "organizer_id is required")
	}

	title, err := requiredText("title", d.Title, maxTitleLen)
	if err != nil {
		return nil, err
	}
	orgName, err := requiredText("organization_name", d.OrganizationName, maxOrgNameLen)
	if err != nil {
		return nil, err
	}
	if d.StartDate.IsZero() {
		return nil, ErrValidationField("start_date", "start_date is required")
	}
	timeRange := strings.TrimSpace(d.TimeRange)
	if timeRange == "" {
		return nil, ErrValidationField("time_range", "time_range is required")
	}
	location, err := requiredText("location", d.Location, maxLocationLen)
	if err != nil {
		return nil, err
	}
	if d.ExpectedCapacity <= 0 {
		return nil, ErrValidationField("expected_capacity", "expected_capacity must be greater than 0")
	}
	bloodTypes, err := ParseBloodTypes(d.BloodTypesNeeded)
	if err != nil {
		return nil, err
	}
	description, err := requiredText("description", d.Description, maxDescriptionLen)
	if err != nil {
		return nil, err
	}
	email, err := requiredText("contact_email", d.ContactEmail, 0)
	if err != nil {
		return nil, err
	}
	phone, err := requiredText("contact_phone", d.ContactPhone, 0)
	if err != nil {
		return nil, err
	}

	start := DateOf(d.StartDate)
	end := start
	if !d.EndDate.IsZero() {
		end = DateOf(d.EndDate)
	}
	if err := checkSchedule(start, end, timeRange, now, true); err != nil {
		return nil, err
	}

	return &Event{
		ID:               uuid.NewString(),
		OrganizerID:      organizerID,
		Title:            title,
		OrganizationName: orgName,
		Description:      description,
		Location:         location,
		ContactEmail:     email,
		ContactPhone:     phone,
		BloodTypesNeeded: bloodTypes,
		StartDate:        start,
		EndDate:          end,
		TimeRange:        timeRange,
		ExpectedCapacity: d.ExpectedCapacity,
		Status:           StatusUpcoming,
		Attendees:        []Attendee{},
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}, nil
}

// checkSchedule enforces date ordering, a parseable range, same-day time
// ordering and, when checkPast is set, a start date no earlier than today.
func checkSchedule(start, end time.Time, timeRange string, now time.Time, checkPast bool) error {
	if DateOf(end).Before(DateOf(start)) {
		return ErrValidationField("end_date", "end date must not be before start date")
	}
	tr, ok := ParseTimeRange(timeRange)
	if !ok {
		return ErrValidationField("time_range", `time range must look like "9:00 AM - 5:30 PM"`)
	}
	if SameDay(start, end) && tr.EndMinutes <= tr.StartMinutes {
		return ErrValidationField("time_range", "end time must be after start time")
	}
	if checkPast && dayBefore(start, now) {
		return ErrValidationField("start_date", "start date cannot be in the past")
	}
	return nil
}

func requiredText(field, v string, maxLen int) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", ErrValidationField(field, field+" is required")
	}
	if maxLen > 0 && len(v) > maxLen {
		return "", ErrValidationField(field, field+" is too long")
	}
	return v, nil
}

func (e *Event) IsOwnedBy(actorID string) bool {
	return strings.TrimSpace(actorID) != "" && e.OrganizerID == actorID
}

// Refresh recomputes the derived status and reports the previous value.
func (e *Event) Refresh(now time.Time) (EventStatus, bool) {
	prev := e.Status
	e.Status = ResolveStatus(now, e.Status, e.StartDate, e.EndDate, e.TimeRange)
	return prev, prev != e.Status
}

// ApplyUpdate validates the whole patch before touching e, so a rejected
// update leaves the event unchanged. Callers refresh the status first.
func (e *Event) ApplyUpdate(p Patch, now time.Time) error {
	if !e.Status.Active() {
		return ErrInvalidState(string(e.Status) + " event cannot be updated")
	}

	next := *e
	var err error

	if p.Title != nil {
		if next.Title, err = requiredText("title", *p.Title, maxTitleLen); err != nil {
			return err
		}
	}
	if p.OrganizationName != nil {
		if next.OrganizationName, err = requiredText("organization_name", *p.OrganizationName, maxOrgNameLen); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if next.Description, err = requiredText("description", *p.Description, maxDescriptionLen); err != nil {
			return err
		}
	}
	if p.Location != nil {
		if next.Location, err = requiredText("location", *p.Location, maxLocationLen); err != nil {
			return err
		}
	}
	if p.ContactEmail != nil {
		if next.ContactEmail, err = requiredText("contact_email", *p.ContactEmail, 0); err != nil {
			return err
		}
	}
	if p.ContactPhone != nil {
		if next.ContactPhone, err = requiredText("contact_phone", *p.ContactPhone, 0); err != nil {
			return err
		}
	}
	if p.BloodTypesNeeded != nil {
		if next.BloodTypesNeeded, err = ParseBloodTypes(*p.BloodTypesNeeded); err != nil {
			return err
		}
	}
	if p.ExpectedCapacity != nil {
		if *p.ExpectedCapacity <= 0 {
			return ErrValidationField("expected_capacity", "expected_capacity must be greater than 0")
		}
		if *p.ExpectedCapacity < e.ActiveAttendeeCount() {
			return ErrConflict("expected_capacity cannot be below the current attendee count")
		}
		next.ExpectedCapacity = *p.ExpectedCapacity
	}

	if p.StartDate != nil || p.EndDate != nil || p.TimeRange != nil {
		if p.StartDate != nil {
			if p.StartDate.IsZero() {
				return ErrValidationField("start_date", "start_date is required")
			}
			next.StartDate = DateOf(*p.StartDate)
		}
		if p.EndDate != nil {
			next.EndDate = DateOf(*p.EndDate)
			if p.EndDate.IsZero() {
				next.EndDate = next.StartDate
			}
		}
		if p.TimeRange != nil {
			next.TimeRange = strings.TrimSpace(*p.TimeRange)
			if next.TimeRange == "" {
				return ErrValidationField("time_range", "time_range is required")
			}
		}
		// a resent start date is not a reschedule
		moved := p.StartDate != nil && !SameDay(next.StartDate, e.StartDate)
		if err := checkSchedule(next.StartDate, next.EndDate, next.TimeRange, now, moved); err != nil {
			return err
		}
	}

	next.UpdatedAt = now.UTC()
	*e = next
	return nil
}

// Cancel moves the event to cancelled and cancels every registered attendee.
// Attended records are kept. It returns the records it cancelled.
func (e *Event) Cancel(now time.Time) ([]Attendee, error) {
	switch e.Status {
	case StatusCancelled:
		return nil, ErrInvalidState("event already cancelled")
	case StatusCompleted:
		return nil, ErrInvalidState("completed event cannot be cancelled")
	}

	t := now.UTC()
	var affected []Attendee
	for i := range e.Attendees {
		a := &e.Attendees[i]
		if a.Status != AttendeeRegistered {
			continue
		}
		a.Status = AttendeeCancelled
		a.CancelledAt = &t
		affected = append(affected, *a)
	}

	e.Status = StatusCancelled
	e.CancelledAt = &t
	e.UpdatedAt = t
	e.recount()
	return affected, nil
}

// CheckDeletable rejects deletion once the roster holds any history.
func (e *Event) CheckDeletable() error {
	if len(e.Attendees) > 0 {
		return ErrInvalidState("event with attendee history cannot be deleted")
	}
	return nil
}

// Clone returns a deep copy; stores hand out clones so callers never alias persisted state.
func (e *Event) Clone() *Event {
	if e == nil {
		return nil
	}
	c := *e
	c.BloodTypesNeeded = append([]BloodType(nil), e.BloodTypesNeeded...)
	c.CancelledAt = copyTime(e.CancelledAt)
	c.Attendees = make([]Attendee, len(e.Attendees))
	for i, a := range e.Attendees {
		a.AttendedAt = copyTime(a.AttendedAt)
		a.CancelledAt = copyTime(a.CancelledAt)
		c.Attendees[i] = a
	}
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
