package event

import (
	"context"

	"github.com/baechuer/blood-drive-service/internal/domain"
	zlog "github.com/rs/zerolog/log"
)

// Get returns the event with a freshly derived status. A changed status is
// persisted before returning; a cached copy is refreshed the same way.
func (s *Service) Get(ctx context.Context, id string) (*domain.Event, error) {
	key := cacheKeyEventDetails(id)

	var ev *domain.Event
	if s.cache != nil {
		var cached domain.Event
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache get failed")
		} else if found {
			zlog.Debug().Str("key", key).Msg("cache hit")
			ev = &cached
		}
	}

	fromCache := ev != nil
	if ev == nil {
		var err error
		ev, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	if _, changed := ev.Refresh(s.now()); changed {
		return s.materialize(ctx, ev), nil
	}

	if !fromCache && s.cache != nil {
		if err := s.cache.Set(ctx, key, ev, s.ttlDetails); err != nil {
			zlog.Warn().Err(err).Str("key", key).Msg("cache set failed")
		}
	}
	return ev, nil
}

// materialize persists a status change observed on read. Failures are logged
// and the refreshed in-memory event is returned unchanged.
func (s *Service) materialize(ctx context.Context, seen *domain.Event) *domain.Event {
	now := s.now()
	var (
		out *domain.Event
		tr  transition
	)

	err := s.repo.WithTx(ctx, func(r TxEventRepo) error {
		ev, err := s.lockForWrite(ctx, r, seen.ID, now, &tr)
		if err != nil {
			return err
		}
		out = ev
		if !tr.moved() {
			return nil
		}
		ev.UpdatedAt = now
		return r.Update(ctx, ev)
	})
	if err != nil {
		zlog.Warn().Err(err).Str("event_id", seen.ID).Msg("status materialize failed")
		return seen
	}

	s.invalidateDetails(ctx, out.ID)
	s.statusMoved(ctx, out, tr)
	return out
}

// Roster returns every attendee record in registration order. Owner only.
func (s *Service) Roster(ctx context.Context, eventID string, actor domain.Actor) ([]domain.Attendee, error) {
	ev, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(ev, actor); err != nil {
		return nil, err
	}
	return ev.Attendees, nil
}
