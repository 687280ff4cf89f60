package event

import (
	"context"
	"strings"

	"github.com/baechuer/blood-drive-service/internal/domain"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ListFilter struct {
	BloodType string
	Status    string

	Page     int
	PageSize int
}

func (f *ListFilter) Normalize() error {
	f.BloodType = strings.ToUpper(strings.TrimSpace(f.BloodType))
	f.Status = strings.ToLower(strings.TrimSpace(f.Status))

	if f.BloodType != "" && !domain.BloodType(f.BloodType).Valid() {
		return domain.ErrValidationMeta("invalid query param", map[string]string{
			"blood_type": "must be one of: A+, A-, B+, B-, AB+, AB-, O+, O-",
		})
	}
	if f.Status != "" && !domain.EventStatus(f.Status).Valid() {
		return domain.ErrValidationMeta("invalid query param", map[string]string{
			"status": "must be one of: upcoming, ongoing, completed, cancelled",
		})
	}
	f.Page, f.PageSize = normalizePage(f.Page, f.PageSize)
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

type Page struct {
	Items    []*domain.Event
	Total    int
	Page     int
	PageSize int
}

// storedCandidates lists the stored statuses that can resolve to want.
// Status only moves forward in time, so a stale row lags behind its real value.
func storedCandidates(want domain.EventStatus) []domain.EventStatus {
	switch want {
	case domain.StatusUpcoming:
		return []domain.EventStatus{domain.StatusUpcoming}
	case domain.StatusOngoing:
		return []domain.EventStatus{domain.StatusUpcoming, domain.StatusOngoing}
	case domain.StatusCompleted:
		return []domain.EventStatus{domain.StatusUpcoming, domain.StatusOngoing, domain.StatusCompleted}
	case domain.StatusCancelled:
		return []domain.EventStatus{domain.StatusCancelled}
	}
	return nil
}

// ListPublic returns events ordered by start date. The status filter applies
// to the derived status, so candidates are refreshed before filtering.
func (s *Service) ListPublic(ctx context.Context, f ListFilter) (Page, error) {
	if err := f.Normalize(); err != nil {
		return Page{}, err
	}

	q := PublicQuery{BloodType: domain.BloodType(f.BloodType)}
	if f.Status != "" {
		q.Statuses = storedCandidates(domain.EventStatus(f.Status))
	}
	candidates, err := s.repo.ListPublic(ctx, q)
	if err != nil {
		return Page{}, err
	}

	s.refreshAll(ctx, candidates)

	matched := candidates[:0]
	for _, ev := range candidates {
		if f.Status == "" || string(ev.Status) == f.Status {
			matched = append(matched, ev)
		}
	}

	return Page{
		Items:    paginate(matched, f.Page, f.PageSize),
		Total:    len(matched),
		Page:     f.Page,
		PageSize: f.PageSize,
	}, nil
}

// ListMine returns the organizer's own events, newest first.
func (s *Service) ListMine(ctx context.Context, actor domain.Actor, page, pageSize int) (Page, error) {
	if !actor.IsOrganizer() {
		return Page{}, domain.ErrForbidden("only organizers have hosted events")
	}
	page, pageSize = normalizePage(page, pageSize)

	items, total, err := s.repo.ListByOrganizer(ctx, actor.ID, pageSize, (page-1)*pageSize)
	if err != nil {
		return Page{}, err
	}
	s.refreshAll(ctx, items)
	return Page{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

func (s *Service) refreshAll(ctx context.Context, events []*domain.Event) {
	now := s.now()
	for i, ev := range events {
		if _, changed := ev.Refresh(now); changed {
			events[i] = s.materialize(ctx, ev)
		}
	}
}

func paginate(items []*domain.Event, page, pageSize int) []*domain.Event {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []*domain.Event{}
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
