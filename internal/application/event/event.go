package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/baechuer/blood-drive-service/internal/domain"
	pkgctx "github.com/baechuer/blood-drive-service/internal/pkg/context"
	"github.com/google/uuid"
)

const (
	EventVersion  = 1
	EventProducer = "blood-drive-service"
)

// Routing keys of the integration events written to the outbox.
const (
	RKEventCreated          = "event.created"
	RKEventUpdated          = "event.updated"
	RKEventCancelled        = "event.cancelled"
	RKEventDeleted          = "event.deleted"
	RKEventStatusChanged    = "event.status_changed"
	RKRegistrationCreated   = "registration.created"
	RKRegistrationCancelled = "registration.cancelled"
	RKRegistrationAttended  = "registration.attended"
)

// DomainEventEnvelope is the stable contract for all messages emitted by this service.
type DomainEventEnvelope[T any] struct {
	Version    int       `json:"version"`
	Producer   string    `json:"producer"`
	MessageID  string    `json:"message_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    T         `json:"payload"`
}

type EventPayload struct {
	EventID          string   `json:"event_id"`
	OrganizerID      string   `json:"organizer_id"`
	Title            string   `json:"title"`
	OrganizationName string   `json:"organization_name"`
	Location         string   `json:"location"`
	BloodTypesNeeded []string `json:"blood_types_needed"`
	StartDate        string   `json:"start_date"`
	EndDate          string   `json:"end_date"`
	TimeRange        string   `json:"time_range"`
	ExpectedCapacity int      `json:"expected_capacity"`
	CurrentAttendees int      `json:"current_attendees"`
	Status           string   `json:"status"`
	ActorID          string   `json:"actor_id,omitempty"`

	// Set on event.cancelled only.
	CancelledDonorIDs []string `json:"cancelled_donor_ids,omitempty"`
}

type RegistrationPayload struct {
	EventID          string `json:"event_id"`
	OrganizerID      string `json:"organizer_id"`
	RegistrationID   string `json:"registration_id"`
	DonorID          string `json:"donor_id"`
	Status           string `json:"status"`
	CurrentAttendees int    `json:"current_attendees"`
	ExpectedCapacity int    `json:"expected_capacity"`
	ActorID          string `json:"actor_id,omitempty"`
}

type StatusChangedPayload struct {
	EventID     string `json:"event_id"`
	OrganizerID string `json:"organizer_id"`
	From        string `json:"from"`
	To          string `json:"to"`
}

func eventPayload(ev *domain.Event, actorID string) EventPayload {
	return EventPayload{
		EventID:          ev.ID,
		OrganizerID:      ev.OrganizerID,
		Title:            ev.Title,
		OrganizationName: ev.OrganizationName,
		Location:         ev.Location,
		BloodTypesNeeded: domain.BloodTypeStrings(ev.BloodTypesNeeded),
		StartDate:        domain.FormatDate(ev.StartDate),
		EndDate:          domain.FormatDate(ev.EndDate),
		TimeRange:        ev.TimeRange,
		ExpectedCapacity: ev.ExpectedCapacity,
		CurrentAttendees: ev.CurrentAttendees,
		Status:           string(ev.Status),
		ActorID:          actorID,
	}
}

func registrationPayload(ev *domain.Event, a domain.Attendee, actorID string) RegistrationPayload {
	return RegistrationPayload{
		EventID:          ev.ID,
		OrganizerID:      ev.OrganizerID,
		RegistrationID:   a.ID,
		DonorID:          a.DonorID,
		Status:           string(a.Status),
		CurrentAttendees: ev.CurrentAttendees,
		ExpectedCapacity: ev.ExpectedCapacity,
		ActorID:          actorID,
	}
}

// emit writes one envelope to the outbox inside the caller's transaction.
func emit[T any](ctx context.Context, r TxEventRepo, routingKey string, payload T, now time.Time) error {
	messageID := uuid.NewString()
	env := DomainEventEnvelope[T]{
		Version:    EventVersion,
		Producer:   EventProducer,
		MessageID:  messageID,
		TraceID:    pkgctx.GetRequestID(ctx),
		OccurredAt: now.UTC(),
		Payload:    payload,
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", routingKey, err)
	}
	return r.InsertOutbox(ctx, OutboxMessage{
		MessageID:  messageID,
		RoutingKey: routingKey,
		Body:       body,
		CreatedAt:  now.UTC(),
	})
}
