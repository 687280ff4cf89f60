package dto

import (
	"time"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	"github.com/baechuer/blood-drive-service/internal/domain"
)

// ToEventResp is the public projection; the roster is never included.
func ToEventResp(e *domain.Event) EventResp {
	spots := e.ExpectedCapacity - e.CurrentAttendees
	if spots < 0 {
		spots = 0
	}
	return EventResp{
		ID:               e.ID,
		OrganizerID:      e.OrganizerID,
		Title:            e.Title,
		OrganizationName: e.OrganizationName,
		Description:      e.Description,
		Location:         e.Location,
		ContactEmail:     e.ContactEmail,
		ContactPhone:     e.ContactPhone,
		BloodTypesNeeded: domain.BloodTypeStrings(e.BloodTypesNeeded),
		StartDate:        domain.FormatDate(e.StartDate),
		EndDate:          domain.FormatDate(e.EndDate),
		TimeRange:        e.TimeRange,
		ExpectedCapacity: e.ExpectedCapacity,
		CurrentAttendees: e.CurrentAttendees,
		SpotsLeft:        spots,
		Status:           string(e.Status),
		Registrable:      e.Status.Active() && spots > 0,

		CancelledAt: timePtr(e.CancelledAt),
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func ToEventList(items []*domain.Event) []EventResp {
	out := make([]EventResp, 0, len(items))
	for _, it := range items {
		out = append(out, ToEventResp(it))
	}
	return out
}

func ToPageResp(p event.Page) PageResp[EventResp] {
	return PageResp[EventResp]{
		Items:    ToEventList(p.Items),
		Page:     p.Page,
		PageSize: p.PageSize,
		Total:    p.Total,
	}
}

func ToAttendeeResp(a domain.Attendee) AttendeeResp {
	return AttendeeResp{
		ID:           a.ID,
		DonorID:      a.DonorID,
		Status:       string(a.Status),
		RegisteredAt: a.RegisteredAt.UTC().Format(time.RFC3339),
		AttendedAt:   timePtr(a.AttendedAt),
		CancelledAt:  timePtr(a.CancelledAt),
	}
}

func ToRoster(list []domain.Attendee) []AttendeeResp {
	out := make([]AttendeeResp, 0, len(list))
	for _, a := range list {
		out = append(out, ToAttendeeResp(a))
	}
	return out
}

func ToRegistrationResp(r event.RegistrationResult) RegistrationResp {
	return RegistrationResp{
		Event:        ToEventResp(r.Event),
		Registration: ToAttendeeResp(r.Attendee),
	}
}

func timePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
