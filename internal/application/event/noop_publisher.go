package event

import (
	"context"

	"github.com/baechuer/blood-drive-service/internal/domain"
)

type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	return nil
}

type noopAuditor struct{}

func (noopAuditor) EventCreated(context.Context, *domain.Event)                                        {}
func (noopAuditor) EventUpdated(context.Context, *domain.Event, string)                                {}
func (noopAuditor) EventCancelled(context.Context, *domain.Event, string, int)                         {}
func (noopAuditor) EventDeleted(context.Context, string, string)                                       {}
func (noopAuditor) RegistrationCreated(context.Context, string, string, int, int)                      {}
func (noopAuditor) RegistrationCancelled(context.Context, string, string)                              {}
func (noopAuditor) AttendanceMarked(context.Context, string, string, string)                           {}
func (noopAuditor) StatusMaterialized(context.Context, string, domain.EventStatus, domain.EventStatus) {}
