package domain

type EventStatus string

const (
	StatusUpcoming  EventStatus = "upcoming"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

func (s EventStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Active reports whether the event still accepts registrations and blocks its title.
func (s EventStatus) Active() bool {
	return s == StatusUpcoming || s == StatusOngoing
}

type AttendeeStatus string

const (
	AttendeeRegistered AttendeeStatus = "registered"
	AttendeeAttended   AttendeeStatus = "attended"
	AttendeeCancelled  AttendeeStatus = "cancelled"
)

func (s AttendeeStatus) Valid() bool {
	return s == AttendeeRegistered || s == AttendeeAttended || s == AttendeeCancelled
}

// Counts reports whether the record occupies a capacity slot.
func (s AttendeeStatus) Counts() bool {
	return s == AttendeeRegistered || s == AttendeeAttended
}
