package audit

import (
	"context"

	"github.com/baechuer/blood-drive-service/internal/domain"
	pkgctx "github.com/baechuer/blood-drive-service/internal/pkg/context"
	"github.com/rs/zerolog"
)

// Logger writes one structured line per committed business mutation.
type Logger struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Logger {
	return &Logger{
		log: log.With().Bool("audit", true).Logger(),
	}
}

func (l *Logger) EventCreated(ctx context.Context, ev *domain.Event) {
	l.log.Info().
		Str("action", "event_created").
		Str("event_id", ev.ID).
		Str("organizer_id", ev.OrganizerID).
		Str("title", ev.Title).
		Str("start_date", domain.FormatDate(ev.StartDate)).
		Int("expected_capacity", ev.ExpectedCapacity).
		Str("trace_id", pkgctx.GetRequestID(ctx)).
		Msg("Event created")
}

func (l *Logger) EventUpdated(ctx context.Context, ev *domain.Event, actorID string) {
	l.log.Info().
		Str("action", "event_updated").
		Str("event_id", ev.ID).
		Str("actor_id", actorID).
		Str("status", string(ev.Status)).
		Str("trace_id", pkgctx.GetRequestID(ctx)).
		Msg("Event updated")
}

// EventCancelled is logged at warn: it cascades to every registered donor.
func (l *Logger) EventCancelled(ctx context.Context, ev *domain.Event, actorID string, affectedDonors int) {
	l.log.Warn().
		Str("action", "event_cancelled").
		Str("event_id", ev.ID).
		Str("actor_id", actorID).
		Int("affected_registrations", affectedDonors).
		Str("trace_id", pkgctx.GetRequestID(ctx)).
		Msg("Event cancelled")
}

func (l *Logger) EventDeleted(ctx context.Context, eventID, actorID string) {
	l.log.Warn().
		Str("action", "event_deleted").
		Str("event_id", eventID).
		Str("actor_id", actorID).
		Str("trace_id", pkgctx.GetRequestID(ctx)).
		Msg("Event deleted")
}

func (l *Logger) RegistrationCreated(ctx context.Context, eventID, donorID string, count, capacity int) {
	l.log.Info().
		Str("action", "registration_created").
		Str("event_id", eventID).
		Str("donor_id", donorID).
		Int("current_attendees", count).
		Int("expected_capacity", capacity).
		Str("trace_id", pkgctx.GetRequestID(ctx)).
		Msg("Donor registered")
}

func (l *Logger) RegistrationCancelled(ctx context.Context, eventID, donorID string) {
	l.log.Info().
		Str("action", "registration_cancelled").
		Str("event_id", eventID).
		Str("donor_id", donorID).
		Str("trace_id", pkgctx.GetRequestID(ctx)).
		Msg("Registration cancelled")
}

func (l *Logger) AttendanceMarked(ctx context.Context, eventID, donorID, actorID string) {
	l.log.Info().
		Str("action", "attendance_marked").
		Str("event_id", eventID).
		Str("donor_id", donorID).
		Str("actor_id", actorID).
		Str("trace_id", pkgctx.GetRequestID(ctx)).
		Msg("Attendance recorded")
}

func (l *Logger) StatusMaterialized(ctx context.Context, eventID string, from, to domain.EventStatus) {
	l.log.Debug().
		Str("action", "status_materialized").
		Str("event_id", eventID).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("trace_id", pkgctx.GetRequestID(ctx)).
		Msg("Event status refreshed")
}

// OutboxMessageDead logs when an outbox message is moved to dead status
func (l *Logger) OutboxMessageDead(messageID, routingKey string, attempts int, reason string) {
	l.log.Error().
		Str("action", "outbox_dead").
		Str("message_id", messageID).
		Str("routing_key", routingKey).
		Int("attempts", attempts).
		Str("last_error", reason).
		Msg("Outbox message moved to dead status")
}
