package profile

import "time"

type Summary struct {
	SubjectID    string        `json:"subject_id"`
	Role         string        `json:"role"`
	Counts       Counts        `json:"counts"`
	Achievements []Achievement `json:"achievements"`
	Recent       []RecentItem  `json:"recent"`
	ComputedAt   time.Time     `json:"computed_at"`
}

// Counts carries donor fields (Registrations..CancelledRegistrations) or
// organizer fields (EventsHosted..TotalAttendees); Donations is shared.
type Counts struct {
	Registrations          int `json:"registrations"`
	UpcomingRegistrations  int `json:"upcoming_registrations"`
	CancelledRegistrations int `json:"cancelled_registrations"`

	EventsHosted    int `json:"events_hosted"`
	ActiveEvents    int `json:"active_events"`
	CompletedEvents int `json:"completed_events"`
	TotalAttendees  int `json:"total_attendees"`

	Donations int `json:"donations"`
}

type Achievement struct {
	Name      string `json:"name"`
	Threshold int    `json:"threshold"`
	Progress  int    `json:"progress"`
	Unlocked  bool   `json:"unlocked"`
}

type RecentItem struct {
	EventID            string `json:"event_id"`
	Title              string `json:"title"`
	StartDate          string `json:"start_date"`
	EventStatus        string `json:"event_status"`
	RegistrationStatus string `json:"registration_status,omitempty"`
}

type tier struct {
	name      string
	threshold int
}

// Donor tiers count donations; organizer tiers count attendees across events.
var (
	donorTiers = []tier{
		{"First Drop", 1},
		{"Bronze Donor", 3},
		{"Silver Donor", 5},
		{"Gold Donor", 10},
		{"Platinum Donor", 25},
	}
	organizerTiers = []tier{
		{"Starter Host", 10},
		{"Bronze Host", 50},
		{"Silver Host", 100},
		{"Gold Host", 250},
		{"Platinum Host", 500},
	}
)

func achievements(tiers []tier, progress int) []Achievement {
	out := make([]Achievement, len(tiers))
	for i, t := range tiers {
		out[i] = Achievement{
			Name:      t.name,
			Threshold: t.threshold,
			Progress:  progress,
			Unlocked:  progress >= t.threshold,
		}
	}
	return out
}
