package event

import (
	"context"
	"time"

	"github.com/baechuer/blood-drive-service/internal/domain"
)

type CreateCmd struct {
	Actor domain.Actor

	Title            string
	OrganizationName string
	Description      string
	Location         string
	ContactEmail     string
	ContactPhone     string
	BloodTypesNeeded []string

	StartDate time.Time
	EndDate   time.Time
	TimeRange string

	ExpectedCapacity int
}

// Create validates the draft and inserts it unless an active event already
// holds the same normalised title. The title lock makes check-and-insert atomic.
func (s *Service) Create(ctx context.Context, cmd CreateCmd) (*domain.Event, error) {
	if !cmd.Actor.IsOrganizer() {
		return nil, observe("create", domain.ErrForbidden("only organizers can create events"))
	}

	now := s.now()
	ev, err := domain.NewEvent(domain.Draft{
		OrganizerID:      cmd.Actor.ID,
		Title:            cmd.Title,
		OrganizationName: cmd.OrganizationName,
		Description:      cmd.Description,
		Location:         cmd.Location,
		ContactEmail:     cmd.ContactEmail,
		ContactPhone:     cmd.ContactPhone,
		BloodTypesNeeded: cmd.BloodTypesNeeded,
		StartDate:        cmd.StartDate,
		EndDate:          cmd.EndDate,
		TimeRange:        cmd.TimeRange,
		ExpectedCapacity: cmd.ExpectedCapacity,
	}, now)
	if err != nil {
		return nil, observe("create", err)
	}
	// A drive starting today may already be under way.
	ev.Refresh(now)

	err = s.repo.WithTx(ctx, func(r TxEventRepo) error {
		if err := r.LockTitle(ctx, domain.NormalizeTitle(ev.Title)); err != nil {
			return err
		}
		if err := checkTitleFree(ctx, r, ev.Title, "", now); err != nil {
			return err
		}
		if err := r.Create(ctx, ev); err != nil {
			return err
		}
		return emit(ctx, r, RKEventCreated, eventPayload(ev, cmd.Actor.ID), now)
	})
	if err != nil {
		return nil, observe("create", err)
	}

	s.audit.EventCreated(ctx, ev)
	s.invalidateStats(ctx, ev.OrganizerID)
	return ev, observe("create", nil)
}
