package event

import (
	"context"
	"time"

	"github.com/baechuer/blood-drive-service/internal/domain"
)

type UpdateCmd struct {
	Actor   domain.Actor
	EventID string

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

func (s *Service) Update(ctx context.Context, cmd UpdateCmd) (*domain.Event, error) {
	var (
		out *domain.Event
		tr  transition
	)
	now := s.now()

	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := s.lockForWrite(ctx, r, cmd.EventID, now, &tr)
		if err != nil {
			return err
		}
		if err := requireOwner(ev, cmd.Actor); err != nil {
			return err
		}

		oldTitle := domain.NormalizeTitle(ev.Title)
		if err := ev.ApplyUpdate(domain.Patch{
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
		}, now); err != nil {
			return err
		}

		if newTitle := domain.NormalizeTitle(ev.Title); newTitle != oldTitle {
			if err := r.LockTitle(ctx, newTitle); err != nil {
				return err
			}
			if err := checkTitleFree(ctx, r, ev.Title, ev.ID, now); err != nil {
				return err
			}
		}

		// A schedule change can move the derived status either way.
		if prev, changed := ev.Refresh(now); changed {
			if err := noteRefresh(ctx, r, ev, prev, now, &tr); err != nil {
				return err
			}
		}

		if err := r.Update(ctx, ev); err != nil {
			return err
		}
		out = ev
		return emit(ctx, r, RKEventUpdated, eventPayload(ev, cmd.Actor.ID), now)
	})
	if err != nil {
		return nil, observe("update", err)
	}

	s.invalidateDetails(ctx, out.ID)
	s.audit.EventUpdated(ctx, out, cmd.Actor.ID)
	s.statusMoved(ctx, out, tr)
	s.invalidateStats(ctx, out.OrganizerID)
	return out, observe("update", nil)
}
