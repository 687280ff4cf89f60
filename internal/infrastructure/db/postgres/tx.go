package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	"github.com/baechuer/blood-drive-service/internal/domain"
	"github.com/lib/pq"
)

func (r *Repo) WithTx(ctx context.Context, fn func(tr event.TxEventRepo) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
		ReadOnly:  false,
	})
	if err != nil {
		return err
	}

	tr := &txRepo{repo: r, tx: tx}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tr); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txRepo struct {
	repo *Repo
	tx   *sql.Tx
}

func (t *txRepo) GetByIDForUpdate(ctx context.Context, id string) (*domain.Event, error) {
	return t.repo.getOne(ctx, t.tx, selectEventForUpdateSQL, id)
}

// LockTitle takes a transaction-scoped advisory lock keyed by the title hash.
func (t *txRepo) LockTitle(ctx context.Context, normalizedTitle string) error {
	_, err := t.tx.ExecContext(ctx, lockTitleSQL, normalizedTitle)
	return err
}

// FindByNormalizedTitle returns candidates without their rosters.
func (t *txRepo) FindByNormalizedTitle(ctx context.Context, normalizedTitle string) ([]*domain.Event, error) {
	rows, err := t.tx.QueryContext(ctx, selectByTitleSQL, normalizedTitle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Event
	for rows.Next() {
		e, err := t.repo.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (t *txRepo) Create(ctx context.Context, e *domain.Event) error {
	_, err := t.tx.ExecContext(ctx, insertEventSQL,
		e.ID, e.OrganizerID, e.Title, domain.NormalizeTitle(e.Title), e.OrganizationName, e.Description, e.Location,
		e.ContactEmail, e.ContactPhone, pq.Array(bloodTypeStrings(e.BloodTypesNeeded)),
		domain.FormatDate(e.StartDate), domain.FormatDate(e.EndDate), e.TimeRange,
		e.ExpectedCapacity, e.CurrentAttendees, string(e.Status), e.CancelledAt,
		e.CreatedAt.UTC(), e.UpdatedAt.UTC(),
	)
	return mapError(err)
}

func (t *txRepo) Update(ctx context.Context, e *domain.Event) error {
	res, err := t.tx.ExecContext(ctx, updateEventSQL,
		e.ID,
		e.Title, domain.NormalizeTitle(e.Title), e.OrganizationName, e.Description, e.Location,
		e.ContactEmail, e.ContactPhone, pq.Array(bloodTypeStrings(e.BloodTypesNeeded)),
		domain.FormatDate(e.StartDate), domain.FormatDate(e.EndDate), e.TimeRange,
		e.ExpectedCapacity, e.CurrentAttendees, string(e.Status), e.CancelledAt,
		e.UpdatedAt.UTC(),
	)
	if err != nil {
		return mapError(err)
	}
	return requireRow(res)
}

func (t *txRepo) SaveAttendee(ctx context.Context, eventID string, a domain.Attendee) error {
	_, err := t.tx.ExecContext(ctx, upsertAttendeeSQL,
		a.ID, eventID, a.DonorID, string(a.Status),
		a.RegisteredAt.UTC(), a.AttendedAt, a.CancelledAt,
	)
	return mapError(err)
}

func (t *txRepo) Delete(ctx context.Context, id string) error {
	res, err := t.tx.ExecContext(ctx, deleteEventSQL, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (t *txRepo) InsertOutbox(ctx context.Context, msg event.OutboxMessage) error {
	// JSON goes in as text cast to jsonb; next_retry_at = created_at makes it due immediately.
	_, err := t.tx.ExecContext(ctx, insertOutboxSQL,
		msg.MessageID,
		msg.RoutingKey,
		string(msg.Body),
		msg.CreatedAt.UTC(),
	)
	return err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrNotFound("event not found")
	}
	return nil
}
