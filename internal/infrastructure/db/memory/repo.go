package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	"github.com/baechuer/blood-drive-service/internal/domain"
)

// EventRepo keeps events in process. One mutex guards the whole store and is
// held for the full WithTx callback, so transactions are serialised.
type EventRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Event
	outbox []event.OutboxMessage
}

func NewEventRepo() *EventRepo {
	return &EventRepo{byID: make(map[string]*domain.Event)}
}

func (r *EventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	return e.Clone(), nil
}

func (r *EventRepo) ListPublic(ctx context.Context, q event.PublicQuery) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*domain.Event{}
	for _, e := range r.byID {
		if q.BloodType != "" && !needs(e, q.BloodType) {
			continue
		}
		if len(q.Statuses) > 0 && !hasStatus(q.Statuses, e.Status) {
			continue
		}
		out = append(out, e.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *EventRepo) ListByOrganizer(ctx context.Context, organizerID string, limit, offset int) ([]*domain.Event, int, error) {
	all, err := r.ListAllByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, 0, err
	}
	total := len(all)
	if offset >= total {
		return []*domain.Event{}, total, nil
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}
	return all[offset:end], total, nil
}

// ListAllByOrganizer returns the organizer's events, newest first.
func (r *EventRepo) ListAllByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*domain.Event{}
	for _, e := range r.byID {
		if e.OrganizerID == organizerID {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// ListByDonor returns every event holding at least one record of the donor.
func (r *EventRepo) ListByDonor(ctx context.Context, donorID string) ([]*domain.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []*domain.Event{}
	for _, e := range r.byID {
		for _, a := range e.Attendees {
			if a.DonorID == donorID {
				out = append(out, e.Clone())
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *EventRepo) WithTx(ctx context.Context, fn func(tr event.TxEventRepo) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &txRepo{
		store:   r,
		staged:  make(map[string]*domain.Event),
		deleted: make(map[string]bool),
	}
	if err := fn(tx); err != nil {
		return err
	}

	for id := range tx.deleted {
		delete(r.byID, id)
	}
	for id, e := range tx.staged {
		r.byID[id] = e
	}
	r.outbox = append(r.outbox, tx.outbox...)
	return nil
}

// Outbox returns a copy of the messages committed so far.
func (r *EventRepo) Outbox() []event.OutboxMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event.OutboxMessage(nil), r.outbox...)
}

func needs(e *domain.Event, bt domain.BloodType) bool {
	for _, b := range e.BloodTypesNeeded {
		if b == bt {
			return true
		}
	}
	return false
}

func hasStatus(list []domain.EventStatus, s domain.EventStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
