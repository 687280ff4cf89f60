package dto

// Dates travel as YYYY-MM-DD and are anchored in the service's event zone.
// Presence rules live in the domain so every field gets the same message;
// tags here only check wire formats.

type CreateEventReq struct {
	Title            string   `json:"title"`
	OrganizationName string   `json:"organization_name"`
	Description      string   `json:"description"`
	Location         string   `json:"location"`
	ContactEmail     string   `json:"contact_email" validate:"omitempty,email"`
	ContactPhone     string   `json:"contact_phone"`
	BloodTypesNeeded []string `json:"blood_types_needed"`
	StartDate        string   `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate          string   `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	TimeRange        string   `json:"time_range"`
	ExpectedCapacity int      `json:"expected_capacity"`
}

type UpdateEventReq struct {
	Title            *string   `json:"title,omitempty"`
	OrganizationName *string   `json:"organization_name,omitempty"`
	Description      *string   `json:"description,omitempty"`
	Location         *string   `json:"location,omitempty"`
	ContactEmail     *string   `json:"contact_email,omitempty" validate:"omitempty,email"`
	ContactPhone     *string   `json:"contact_phone,omitempty"`
	BloodTypesNeeded *[]string `json:"blood_types_needed,omitempty"`
	StartDate        *string   `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate          *string   `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	TimeRange        *string   `json:"time_range,omitempty"`
	ExpectedCapacity *int      `json:"expected_capacity,omitempty"`
}

type EventResp struct {
	ID               string   `json:"id"`
	OrganizerID      string   `json:"organizer_id"`
	Title            string   `json:"title"`
	OrganizationName string   `json:"organization_name"`
	Description      string   `json:"description"`
	Location         string   `json:"location"`
	ContactEmail     string   `json:"contact_email"`
	ContactPhone     string   `json:"contact_phone"`
	BloodTypesNeeded []string `json:"blood_types_needed"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	TimeRange        string   `json:"time_range"`
	ExpectedCapacity int      `json:"expected_capacity"`
	CurrentAttendees int      `json:"current_attendees"`
	SpotsLeft        int      `json:"spots_left"`
	Status           string   `json:"status"`
	Registrable      bool     `json:"registrable"`

	CancelledAt *string `json:"cancelled_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

type AttendeeResp struct {
	ID           string  `json:"id"`
	DonorID      string  `json:"donor_id"`
	Status       string  `json:"status"`
	RegisteredAt string  `json:"registered_at"`
	AttendedAt   *string `json:"attended_at,omitempty"`
	CancelledAt  *string `json:"cancelled_at,omitempty"`
}

type RegistrationResp struct {
	Event        EventResp    `json:"event"`
	Registration AttendeeResp `json:"registration"`
}

type PageResp[T any] struct {
	Items    []T `json:"items"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}
