package event

import (
	"context"

	"github.com/baechuer/blood-drive-service/internal/domain"
	"github.com/baechuer/blood-drive-service/internal/metrics"
)

type RegistrationResult struct {
	Event    *domain.Event
	Attendee domain.Attendee
}

// Register appends a registered record for the acting donor. The event row
// lock makes the capacity and duplicate checks hold at commit time.
func (s *Service) Register(ctx context.Context, eventID string, actor domain.Actor) (RegistrationResult, error) {
	if !actor.IsDonor() {
		return RegistrationResult{}, observe("register", domain.ErrForbidden("only donors can register for events"))
	}

	var (
		res RegistrationResult
		tr  transition
	)
	now := s.now()

	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := s.lockForWrite(ctx, r, eventID, now, &tr)
		if err != nil {
			return err
		}
		a, err := ev.Register(actor.ID, now)
		if err != nil {
			return err
		}
		if err := r.SaveAttendee(ctx, ev.ID, a); err != nil {
			return err
		}
		if err := r.Update(ctx, ev); err != nil {
			return err
		}
		res = RegistrationResult{Event: ev, Attendee: a}
		return emit(ctx, r, RKRegistrationCreated, registrationPayload(ev, a, actor.ID), now)
	})
	if err != nil {
		return RegistrationResult{}, observe("register", err)
	}

	metrics.RecordRegistration("registered", 1)
	s.invalidateDetails(ctx, eventID)
	s.statusMoved(ctx, res.Event, tr)
	s.audit.RegistrationCreated(ctx, eventID, actor.ID, res.Event.CurrentAttendees, res.Event.ExpectedCapacity)
	s.invalidateStats(ctx, actor.ID, res.Event.OrganizerID)
	return res, observe("register", nil)
}

// CancelRegistration flips the acting donor's active record to cancelled.
func (s *Service) CancelRegistration(ctx context.Context, eventID string, actor domain.Actor) (RegistrationResult, error) {
	if !actor.IsDonor() {
		return RegistrationResult{}, observe("cancel_registration", domain.ErrForbidden("only donors hold registrations"))
	}

	var (
		res RegistrationResult
		tr  transition
	)
	now := s.now()

	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := s.lockForWrite(ctx, r, eventID, now, &tr)
		if err != nil {
			return err
		}
		a, err := ev.CancelRegistration(actor.ID, now)
		if err != nil {
			return err
		}
		if err := r.SaveAttendee(ctx, ev.ID, a); err != nil {
			return err
		}
		if err := r.Update(ctx, ev); err != nil {
			return err
		}
		res = RegistrationResult{Event: ev, Attendee: a}
		return emit(ctx, r, RKRegistrationCancelled, registrationPayload(ev, a, actor.ID), now)
	})
	if err != nil {
		return RegistrationResult{}, observe("cancel_registration", err)
	}

	metrics.RecordRegistration("cancelled", 1)
	s.invalidateDetails(ctx, eventID)
	s.statusMoved(ctx, res.Event, tr)
	s.audit.RegistrationCancelled(ctx, eventID, actor.ID)
	s.invalidateStats(ctx, actor.ID, res.Event.OrganizerID)
	return res, observe("cancel_registration", nil)
}

// MarkAttended records that a registered donor gave blood. Owner only.
func (s *Service) MarkAttended(ctx context.Context, eventID, donorID string, actor domain.Actor) (RegistrationResult, error) {
	var (
		res RegistrationResult
		tr  transition
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
		a, err := ev.MarkAttended(donorID, now)
		if err != nil {
			return err
		}
		if err := r.SaveAttendee(ctx, ev.ID, a); err != nil {
			return err
		}
		if err := r.Update(ctx, ev); err != nil {
			return err
		}
		res = RegistrationResult{Event: ev, Attendee: a}
		return emit(ctx, r, RKRegistrationAttended, registrationPayload(ev, a, actor.ID), now)
	})
	if err != nil {
		return RegistrationResult{}, observe("mark_attended", err)
	}

	metrics.RecordRegistration("attended", 1)
	s.invalidateDetails(ctx, eventID)
	s.statusMoved(ctx, res.Event, tr)
	s.audit.AttendanceMarked(ctx, eventID, donorID, actor.ID)
	s.invalidateStats(ctx, donorID, res.Event.OrganizerID)
	return res, observe("mark_attended", nil)
}
