package event

import (
	"context"

	"github.com/baechuer/blood-drive-service/internal/domain"
	"github.com/baechuer/blood-drive-service/internal/metrics"
)

// Cancel moves the event to cancelled and cascades to every registered donor.
func (s *Service) Cancel(ctx context.Context, eventID string, actor domain.Actor) (*domain.Event, error) {
	var (
		out      *domain.Event
		affected []domain.Attendee
		tr       transition
	)
	now := s.now()

	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := s.lockForWrite(ctx, r, eventID, now, &tr)
		if err != nil {
			return err
		}
		if err := requireOwner(ev, actor); err != nil {
			return err
		}

		affected, err = ev.Cancel(now)
		if err != nil {
			return err
		}
		if err := r.Update(ctx, ev); err != nil {
			return err
		}
		for _, a := range affected {
			if err := r.SaveAttendee(ctx, ev.ID, a); err != nil {
				return err
			}
		}

		payload := eventPayload(ev, actor.ID)
		for _, a := range affected {
			payload.CancelledDonorIDs = append(payload.CancelledDonorIDs, a.DonorID)
		}
		out = ev
		return emit(ctx, r, RKEventCancelled, payload, now)
	})
	if err != nil {
		return nil, observe("cancel", err)
	}

	donors := make([]string, 0, len(affected)+1)
	for _, a := range affected {
		donors = append(donors, a.DonorID)
	}

	metrics.RecordRegistration("cancelled_by_event", len(affected))
	s.invalidateDetails(ctx, out.ID)
	s.statusMoved(ctx, out, tr)
	s.audit.EventCancelled(ctx, out, actor.ID, len(affected))
	s.invalidateStats(ctx, append(donors, out.OrganizerID)...)
	return out, observe("cancel", nil)
}
