package memory

import (
	"context"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	"github.com/baechuer/blood-drive-service/internal/domain"
)

// txRepo stages writes until the WithTx callback returns nil.
type txRepo struct {
	store   *EventRepo
	staged  map[string]*domain.Event
	deleted map[string]bool
	outbox  []event.OutboxMessage
}

func (t *txRepo) current(id string) (*domain.Event, bool) {
	if t.deleted[id] {
		return nil, false
	}
	if e, ok := t.staged[id]; ok {
		return e, true
	}
	e, ok := t.store.byID[id]
	return e, ok
}

func (t *txRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	e, ok := t.current(id)
	if !ok {
		return nil, domain.ErrNotFound("event not found")
	}
	return e.Clone(), nil
}

// LockTitle is a no-op: the store mutex already serialises transactions.
func (t *txRepo) LockTitle(ctx context.Context, normalizedTitle string) error {
	return nil
}

func (t *txRepo) FindByNormalizedTitle(ctx context.Context, normalizedTitle string) ([]*domain.Event, error) {
	seen := make(map[string]bool)
	var out []*domain.Event
	collect := func(e *domain.Event) {
		if seen[e.ID] || t.deleted[e.ID] {
			return
		}
		seen[e.ID] = true
		if domain.NormalizeTitle(e.Title) == normalizedTitle {
			out = append(out, e.Clone())
		}
	}
	for _, e := range t.staged {
		collect(e)
	}
	for _, e := range t.store.byID {
		collect(e)
	}
	return out, nil
}

func (t *txRepo) Create(ctx context.Context, e *domain.Event) error {
	if _, exists := t.current(e.ID); exists {
		return domain.ErrConflict("event already exists")
	}
	t.staged[e.ID] = e.Clone()
	delete(t.deleted, e.ID)
	return nil
}

// Update replaces the row fields and keeps the stored roster.
func (t *txRepo) Update(ctx context.Context, e *domain.Event) error {
	cur, ok := t.current(e.ID)
	if !ok {
		return domain.ErrNotFound("event not found")
	}
	next := e.Clone()
	next.Attendees = cur.Clone().Attendees
	t.staged[e.ID] = next
	return nil
}

// SaveAttendee upserts by record id and refuses a second active record per donor.
func (t *txRepo) SaveAttendee(ctx context.Context, eventID string, a domain.Attendee) error {
	cur, ok := t.current(eventID)
	if !ok {
		return domain.ErrNotFound("event not found")
	}
	next := cur.Clone()

	for i := range next.Attendees {
		if next.Attendees[i].ID == a.ID {
			next.Attendees[i] = a
			t.staged[eventID] = next
			return nil
		}
	}
	if a.Status.Counts() {
		for _, ex := range next.Attendees {
			if ex.DonorID == a.DonorID && ex.Status.Counts() {
				return domain.ErrConflict("donor already registered for this event")
			}
		}
	}
	next.Attendees = append(next.Attendees, a)
	t.staged[eventID] = next
	return nil
}

func (t *txRepo) Delete(ctx context.Context, id string) error {
	if _, ok := t.current(id); !ok {
		return domain.ErrNotFound("event not found")
	}
	delete(t.staged, id)
	t.deleted[id] = true
	return nil
}

func (t *txRepo) InsertOutbox(ctx context.Context, msg event.OutboxMessage) error {
	t.outbox = append(t.outbox, msg)
	return nil
}
