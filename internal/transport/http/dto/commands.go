package dto

import (
	"time"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	"github.com/baechuer/blood-drive-service/internal/domain"
)

func (req CreateEventReq) Command(actor domain.Actor, loc *time.Location) (event.CreateCmd, error) {
	start, err := optionalDate("start_date", req.StartDate, loc)
	if err != nil {
		return event.CreateCmd{}, err
	}
	end, err := optionalDate("end_date", req.EndDate, loc)
	if err != nil {
		return event.CreateCmd{}, err
	}
	return event.CreateCmd{
		Actor:            actor,
		Title:            req.Title,
		OrganizationName: req.OrganizationName,
		Description:      req.Description,
		Location:         req.Location,
		ContactEmail:     req.ContactEmail,
		ContactPhone:     req.ContactPhone,
		BloodTypesNeeded: req.BloodTypesNeeded,
		StartDate:        start,
		EndDate:          end,
		TimeRange:        req.TimeRange,
		ExpectedCapacity: req.ExpectedCapacity,
	}, nil
}

func (req UpdateEventReq) Command(actor domain.Actor, eventID string, loc *time.Location) (event.UpdateCmd, error) {
	cmd := event.UpdateCmd{
		Actor:            actor,
		EventID:          eventID,
		Title:            req.Title,
		OrganizationName: req.OrganizationName,
		Description:      req.Description,
		Location:         req.Location,
		ContactEmail:     req.ContactEmail,
		ContactPhone:     req.ContactPhone,
		BloodTypesNeeded: req.BloodTypesNeeded,
		TimeRange:        req.TimeRange,
		ExpectedCapacity: req.ExpectedCapacity,
	}
	if req.StartDate != nil {
		d, err := requiredDate("start_date", *req.StartDate, loc)
		if err != nil {
			return event.UpdateCmd{}, err
		}
		cmd.StartDate = &d
	}
	if req.EndDate != nil {
		d, err := requiredDate("end_date", *req.EndDate, loc)
		if err != nil {
			return event.UpdateCmd{}, err
		}
		cmd.EndDate = &d
	}
	return cmd, nil
}

// optionalDate maps "" to the zero time so the domain reports a missing date.
func optionalDate(field, s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return requiredDate(field, s, loc)
}

func requiredDate(field, s string, loc *time.Location) (time.Time, error) {
	d, err := domain.ParseDate(s, loc)
	if err != nil {
		return time.Time{}, domain.ErrValidationField(field, field+" must be a date in YYYY-MM-DD format")
	}
	return d, nil
}
