package profile

import (
	"context"
	"time"

	"github.com/baechuer/blood-drive-service/internal/domain"
)

type Clock interface {
	Now() time.Time
}

type EventReader interface {
	ListAllByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error)
	ListByDonor(ctx context.Context, donorID string) ([]*domain.Event, error)
}

// Key identifies one cached summary.
type Key struct {
	SubjectID string
	Role      domain.Role
}

// Cache holds at most one fresh summary per key. A lookup older than the TTL
// is a miss; Invalidate drops every role of the given subjects.
type Cache interface {
	Get(ctx context.Context, key Key) (*Summary, bool, error)
	Set(ctx context.Context, key Key, s *Summary) error
	Invalidate(ctx context.Context, subjectIDs ...string) error
}
