package event

import (
	"context"
	"time"

	"github.com/baechuer/blood-drive-service/internal/domain"
	"github.com/baechuer/blood-drive-service/internal/metrics"
	zlog "github.com/rs/zerolog/log"
)

type Service struct {
	repo  EventRepo
	cache Cache
	stats StatsInvalidator
	audit Auditor
	clock Clock

	ttlDetails time.Duration
}

func New(
	repo EventRepo,
	clock Clock,
	cache Cache,
	stats StatsInvalidator,
	audit Auditor,
	ttlDetails time.Duration,
) *Service {
	if ttlDetails == 0 {
		ttlDetails = 30 * time.Second
	}
	if audit == nil {
		audit = noopAuditor{}
	}
	return &Service{
		repo:       repo,
		cache:      cache,
		stats:      stats,
		audit:      audit,
		clock:      clock,
		ttlDetails: ttlDetails,
	}
}

func (s *Service) now() time.Time { return s.clock.Now().UTC() }

// transition is a status move observed inside a write transaction. Several
// refreshes in one transaction collapse into a single from/to pair.
type transition struct {
	from, to domain.EventStatus
}

func (t transition) moved() bool { return t.from != "" && t.from != t.to }

// noteRefresh queues an event.status_changed message for a refresh that moved
// the status and folds it into t.
func noteRefresh(ctx context.Context, r TxEventRepo, ev *domain.Event, prev domain.EventStatus, now time.Time, t *transition) error {
	if t.from == "" {
		t.from = prev
	}
	t.to = ev.Status
	return emit(ctx, r, RKEventStatusChanged, StatusChangedPayload{
		EventID: ev.ID, OrganizerID: ev.OrganizerID, From: string(prev), To: string(ev.Status),
	}, now)
}

// lockForWrite loads the event under a row lock and refreshes its status.
// Callers pass the transition to statusMoved once the transaction commits.
func (s *Service) lockForWrite(ctx context.Context, r TxEventRepo, id string, now time.Time, t *transition) (*domain.Event, error) {
	ev, err := r.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev, changed := ev.Refresh(now); changed {
		if err := noteRefresh(ctx, r, ev, prev, now, t); err != nil {
			return nil, err
		}
	}
	return ev, nil
}

// statusMoved runs the post-commit side of a status transition: the metric,
// the audit line, and the stats of the organizer and every active donor.
func (s *Service) statusMoved(ctx context.Context, ev *domain.Event, t transition) {
	if !t.moved() {
		return
	}
	metrics.RecordStatusTransition(string(t.from), string(t.to))
	s.audit.StatusMaterialized(ctx, ev.ID, t.from, t.to)
	s.invalidateStats(ctx, append(activeDonors(ev), ev.OrganizerID)...)
}

func requireOwner(ev *domain.Event, actor domain.Actor) error {
	if !actor.IsOrganizer() || !ev.IsOwnedBy(actor.ID) {
		return domain.ErrForbidden("only the owning organizer may manage this event")
	}
	return nil
}

// checkTitleFree rejects a title held by another event whose freshly derived
// status is active. Callers hold the title lock.
func checkTitleFree(ctx context.Context, r TxEventRepo, title, excludeID string, now time.Time) error {
	matches, err := r.FindByNormalizedTitle(ctx, domain.NormalizeTitle(title))
	if err != nil {
		return err
	}
	for _, m := range matches {
		if m.ID == excludeID {
			continue
		}
		m.Refresh(now)
		if m.Status.Active() {
			return domain.ErrConflictField("title", "an active event with this title already exists")
		}
	}
	return nil
}

func (s *Service) invalidateDetails(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	key := cacheKeyEventDetails(eventID)
	if err := s.cache.Delete(ctx, key); err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
	}
}

func (s *Service) invalidateStats(ctx context.Context, subjectIDs ...string) {
	if s.stats == nil || len(subjectIDs) == 0 {
		return
	}
	if err := s.stats.Invalidate(ctx, subjectIDs...); err != nil {
		zlog.Warn().Err(err).Strs("subjects", subjectIDs).Msg("profile stats invalidate failed")
	}
}

// observe counts the operation outcome and passes err through.
func observe(op string, err error) error {
	if err == nil {
		metrics.RecordEventOperation(op, "ok")
		return nil
	}
	metrics.RecordEventOperation(op, string(domain.CodeOf(err)))
	return err
}

func activeDonors(ev *domain.Event) []string {
	var out []string
	for _, a := range ev.Attendees {
		if a.Status.Counts() {
			out = append(out, a.DonorID)
		}
	}
	return out
}
