package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	"github.com/baechuer/blood-drive-service/internal/domain"
	"github.com/lib/pq"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

type Repo struct {
	db  *sql.DB
	loc *time.Location
}

// New builds a repo whose calendar dates are anchored in loc.
func New(db *sql.DB, loc *time.Location) *Repo {
	if loc == nil {
		loc = time.Local
	}
	return &Repo{db: db, loc: loc}
}

func (r *Repo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	return r.getOne(ctx, r.db, getEventSQL, id)
}

func (r *Repo) getOne(ctx context.Context, q querier, query, id string) (*domain.Event, error) {
	e, err := r.scanEvent(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound("event not found")
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadAttendees(ctx, q, []*domain.Event{e}); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *Repo) ListPublic(ctx context.Context, f event.PublicQuery) ([]*domain.Event, error) {
	var where []string
	var args []any
	argN := 1

	add := func(condFmt string, val any) {
		where = append(where, fmt.Sprintf(condFmt, argN))
		args = append(args, val)
		argN++
	}

	if f.BloodType != "" {
		add("$%d = ANY(blood_types_needed)", string(f.BloodType))
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		add("status = ANY($%d)", pq.Array(statuses))
	}

	whereSQL := ""
	if len(where) > 0 {
		whereSQL = "WHERE " + strings.Join(where, " AND ")
	}

	listSQL := `SELECT ` + eventColumns + `
FROM events
` + whereSQL + `
ORDER BY start_date ASC, id ASC`

	return r.queryEvents(ctx, r.db, listSQL, args...)
}

func (r *Repo) ListByOrganizer(ctx context.Context, organizerID string, limit, offset int) ([]*domain.Event, int, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events WHERE organizer_id=$1`, organizerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	out, err := r.queryEvents(ctx, r.db, listByOrganizerSQL+` LIMIT $2 OFFSET $3`, organizerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Repo) ListAllByOrganizer(ctx context.Context, organizerID string) ([]*domain.Event, error) {
	return r.queryEvents(ctx, r.db, listByOrganizerSQL, organizerID)
}

func (r *Repo) ListByDonor(ctx context.Context, donorID string) ([]*domain.Event, error) {
	return r.queryEvents(ctx, r.db, listByDonorSQL, donorID)
}

func (r *Repo) queryEvents(ctx context.Context, q querier, query string, args ...any) ([]*domain.Event, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Event{}
	for rows.Next() {
		e, err := r.scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadAttendees(ctx, q, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) scanEvent(row rowScanner) (*domain.Event, error) {
	var e domain.Event
	var bloodTypes []string
	var status string
	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.Title, &e.OrganizationName, &e.Description, &e.Location,
		&e.ContactEmail, &e.ContactPhone, pq.Array(&bloodTypes),
		&e.StartDate, &e.EndDate, &e.TimeRange,
		&e.ExpectedCapacity, &e.CurrentAttendees, &status, &e.CancelledAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Status = domain.EventStatus(status)
	if !e.Status.Valid() {
		return nil, domain.ErrInvalidState("invalid status in db")
	}
	e.BloodTypesNeeded = make([]domain.BloodType, len(bloodTypes))
	for i, bt := range bloodTypes {
		e.BloodTypesNeeded[i] = domain.BloodType(bt)
	}
	e.StartDate = r.inZone(e.StartDate)
	e.EndDate = r.inZone(e.EndDate)
	return &e, nil
}

// inZone re-anchors a DATE column, read back as UTC midnight, to midnight in
// the configured zone.
func (r *Repo) inZone(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, r.loc)
}

func (r *Repo) loadAttendees(ctx context.Context, q querier, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, len(events))
	byID := make(map[string]*domain.Event, len(events))
	for i, e := range events {
		ids[i] = e.ID
		byID[e.ID] = e
	}

	rows, err := q.QueryContext(ctx, selectAttendeesSQL, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.Attendee
		var eventID, status string
		if err := rows.Scan(&a.ID, &eventID, &a.DonorID, &status, &a.RegisteredAt, &a.AttendedAt, &a.CancelledAt); err != nil {
			return err
		}
		a.Status = domain.AttendeeStatus(status)
		if e, ok := byID[eventID]; ok {
			e.Attendees = append(e.Attendees, a)
		}
	}
	return rows.Err()
}

func bloodTypeStrings(bts []domain.BloodType) []string {
	out := make([]string, len(bts))
	for i, bt := range bts {
		out[i] = string(bt)
	}
	return out
}
