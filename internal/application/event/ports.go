package event

import (
	"context"
	"time"

	"github.com/baechuer/blood-drive-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// EventRepo is the persistence collaborator. Reads return events with their
// full roster; every mutation goes through WithTx.
type EventRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Event, error)

	ListPublic(ctx context.Context, q PublicQuery) ([]*domain.Event, error)
	ListByOrganizer(ctx context.Context, organizerID string, limit, offset int) ([]*domain.Event, int, error)
	ListAllByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error)
	ListByDonor(ctx context.Context, donorID string) ([]*domain.Event, error)

	WithTx(ctx context.Context, fn func(r TxEventRepo) error) error
}

// TxEventRepo is the transaction-scoped view handed to WithTx callbacks.
type TxEventRepo interface {
	// GetByIDForUpdate locks the event row until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error)
	// LockTitle serialises creations and renames that share a normalised title.
	LockTitle(ctx context.Context, normalizedTitle string) error
	FindByNormalizedTitle(ctx context.Context, normalizedTitle string) ([]*domain.Event, error)

	Create(ctx context.Context, e *domain.Event) error
	// Update writes the event row only; roster records go through SaveAttendee.
	Update(ctx context.Context, e *domain.Event) error
	SaveAttendee(ctx context.Context, eventID string, a domain.Attendee) error
	Delete(ctx context.Context, id string) error

	InsertOutbox(ctx context.Context, msg OutboxMessage) error
}

// PublicQuery narrows the candidate set by stored values. Statuses lists the
// stored statuses that may still resolve to the requested derived status.
type PublicQuery struct {
	BloodType domain.BloodType
	Statuses  []domain.EventStatus
}

type OutboxMessage struct {
	MessageID  string
	RoutingKey string
	Body       []byte
	CreatedAt  time.Time
}

type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

// StatsInvalidator drops cached profile summaries for the given users.
type StatsInvalidator interface {
	Invalidate(ctx context.Context, subjectIDs ...string) error
}

type Auditor interface {
	EventCreated(ctx context.Context, ev *domain.Event)
	EventUpdated(ctx context.Context, ev *domain.Event, actorID string)
	EventCancelled(ctx context.Context, ev *domain.Event, actorID string, affectedDonors int)
	EventDeleted(ctx context.Context, eventID, actorID string)
	RegistrationCreated(ctx context.Context, eventID, donorID string, count, capacity int)
	RegistrationCancelled(ctx context.Context, eventID, donorID string)
	AttendanceMarked(ctx context.Context, eventID, donorID, actorID string)
	StatusMaterialized(ctx context.Context, eventID string, from, to domain.EventStatus)
}
