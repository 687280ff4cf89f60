package event

import (
	"context"

	"github.com/baechuer/blood-drive-service/internal/domain"
)

// Delete removes an event that never had a registration.
func (s *Service) Delete(ctx context.Context, eventID string, actor domain.Actor) error {
	var organizerID string
	now := s.now()

	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := r.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if err := requireOwner(ev, actor); err != nil {
			return err
		}
		if err := ev.CheckDeletable(); err != nil {
			return err
		}
		if err := r.Delete(ctx, ev.ID); err != nil {
			return err
		}
		organizerID = ev.OrganizerID
		return emit(ctx, r, RKEventDeleted, eventPayload(ev, actor.ID), now)
	})
	if err != nil {
		return observe("delete", err)
	}

	s.invalidateDetails(ctx, eventID)
	s.audit.EventDeleted(ctx, eventID, actor.ID)
	s.invalidateStats(ctx, organizerID)
	return observe("delete", nil)
}
