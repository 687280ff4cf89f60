package postgres

import (
	"errors"

	"github.com/baechuer/blood-drive-service/internal/domain"
	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// mapError turns constraint violations into domain errors; anything else is
// returned unchanged.
func mapError(err error) error {
	var pe *pq.Error
	if !errors.As(err, &pe) {
		return err
	}
	switch pe.Code {
	case pqUniqueViolation:
		if pe.Constraint == "event_attendees_active_donor_uq" {
			return domain.ErrConflict("donor already registered for this event")
		}
		return domain.ErrConflict("record already exists")
	case pqForeignKeyViolation:
		return domain.ErrNotFound("event not found")
	}
	return err
}
