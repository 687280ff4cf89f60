package profile

import (
	"context"
	"sort"

	"github.com/baechuer/blood-drive-service/internal/domain"
	"github.com/baechuer/blood-drive-service/internal/metrics"
	zlog "github.com/rs/zerolog/log"
)

const recentLimit = 5

type Service struct {
	events EventReader
	cache  Cache
	clock  Clock
}

func New(events EventReader, cache Cache, clock Clock) *Service {
	return &Service{events: events, cache: cache, clock: clock}
}

// Summary returns the caller's derived profile stats, served from the cache
// while fresh.
func (s *Service) Summary(ctx context.Context, actor domain.Actor) (*Summary, error) {
	if actor.ID == "" {
		return nil, domain.ErrForbidden("authentication required")
	}
	key := Key{SubjectID: actor.ID, Role: actor.Role}

	if s.cache != nil {
		cached, found, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			metrics.RecordStatsCacheLookup("error")
			zlog.Warn().Err(err).Str("subject_id", actor.ID).Msg("profile stats cache get failed")
		case found:
			metrics.RecordStatsCacheLookup("hit")
			return cached, nil
		default:
			metrics.RecordStatsCacheLookup("miss")
		}
	}

	var (
		sum *Summary
		err error
	)
	switch actor.Role {
	case domain.RoleDonor:
		sum, err = s.donorSummary(ctx, actor.ID)
	case domain.RoleOrganizer:
		sum, err = s.organizerSummary(ctx, actor.ID)
	default:
		return nil, domain.ErrForbidden("unknown role")
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, sum); err != nil {
			zlog.Warn().Err(err).Str("subject_id", actor.ID).Msg("profile stats cache set failed")
		}
	}
	return sum, nil
}

// Invalidate drops cached summaries of the given users.
func (s *Service) Invalidate(ctx context.Context, subjectIDs ...string) error {
	if s.cache == nil || len(subjectIDs) == 0 {
		return nil
	}
	return s.cache.Invalidate(ctx, subjectIDs...)
}

func (s *Service) donorSummary(ctx context.Context, donorID string) (*Summary, error) {
	events, err := s.events.ListByDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	type reg struct {
		ev *domain.Event
		a  domain.Attendee
	}
	var regs []reg
	var c Counts
	for _, ev := range events {
		ev.Refresh(now)
		for _, a := range ev.RegistrationsOf(donorID) {
			regs = append(regs, reg{ev: ev, a: a})
			c.Registrations++
			switch a.Status {
			case domain.AttendeeAttended:
				c.Donations++
			case domain.AttendeeCancelled:
				c.CancelledRegistrations++
			case domain.AttendeeRegistered:
				if ev.Status.Active() {
					c.UpcomingRegistrations++
				}
			}
		}
	}

	sort.SliceStable(regs, func(i, j int) bool {
		return regs[i].a.RegisteredAt.After(regs[j].a.RegisteredAt)
	})
	recent := []RecentItem{}
	for i := 0; i < len(regs) && i < recentLimit; i++ {
		recent = append(recent, RecentItem{
			EventID:            regs[i].ev.ID,
			Title:              regs[i].ev.Title,
			StartDate:          domain.FormatDate(regs[i].ev.StartDate),
			EventStatus:        string(regs[i].ev.Status),
			RegistrationStatus: string(regs[i].a.Status),
		})
	}

	return &Summary{
		SubjectID:    donorID,
		Role:         string(domain.RoleDonor),
		Counts:       c,
		Achievements: achievements(donorTiers, c.Donations),
		Recent:       recent,
		ComputedAt:   now.UTC(),
	}, nil
}

func (s *Service) organizerSummary(ctx context.Context, organizerID string) (*Summary, error) {
	events, err := s.events.ListAllByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()

	var c Counts
	for _, ev := range events {
		ev.Refresh(now)
		c.EventsHosted++
		switch {
		case ev.Status.Active():
			c.ActiveEvents++
		case ev.Status == domain.StatusCompleted:
			c.CompletedEvents++
		}
		c.TotalAttendees += ev.ActiveAttendeeCount()
		for _, a := range ev.Attendees {
			if a.Status == domain.AttendeeAttended {
				c.Donations++
			}
		}
	}

	sorted := append([]*domain.Event(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	recent := []RecentItem{}
	for i := 0; i < len(sorted) && i < recentLimit; i++ {
		recent = append(recent, RecentItem{
			EventID:     sorted[i].ID,
			Title:       sorted[i].Title,
			StartDate:   domain.FormatDate(sorted[i].StartDate),
			EventStatus: string(sorted[i].Status),
		})
	}

	return &Summary{
		SubjectID:    organizerID,
		Role:         string(domain.RoleOrganizer),
		Counts:       c,
		Achievements: achievements(organizerTiers, c.TotalAttendees),
		Recent:       recent,
		ComputedAt:   now.UTC(),
	}, nil
}
