package postgres

const eventColumns = `
id, organizer_id, title, organization_name, description, location,
contact_email, contact_phone, blood_types_needed,
start_date, end_date, time_range,
expected_capacity, current_attendees, status, cancelled_at,
created_at, updated_at`

const insertEventSQL = `
INSERT INTO events (
  id, organizer_id, title, title_normalized, organization_name, description, location,
  contact_email, contact_phone, blood_types_needed,
  start_date, end_date, time_range,
  expected_capacity, current_attendees, status, cancelled_at,
  created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
`

const getEventSQL = `SELECT ` + eventColumns + `
FROM events WHERE id = $1
`

const selectEventForUpdateSQL = `SELECT ` + eventColumns + `
FROM events WHERE id = $1
FOR UPDATE
`

const updateEventSQL = `
UPDATE events SET
  title=$2, title_normalized=$3, organization_name=$4, description=$5, location=$6,
  contact_email=$7, contact_phone=$8, blood_types_needed=$9,
  start_date=$10, end_date=$11, time_range=$12,
  expected_capacity=$13, current_attendees=$14, status=$15, cancelled_at=$16,
  updated_at=$17
WHERE id=$1
`

const deleteEventSQL = `DELETE FROM events WHERE id = $1`

// Stored completed/cancelled rows can never become active again, so they
// are not candidates for a title clash.
const selectByTitleSQL = `SELECT ` + eventColumns + `
FROM events
WHERE title_normalized = $1
  AND status IN ('upcoming', 'ongoing')
`

const lockTitleSQL = `SELECT pg_advisory_xact_lock(hashtext($1))`

const attendeeColumns = `id, event_id, donor_id, status, registered_at, attended_at, cancelled_at`

const selectAttendeesSQL = `SELECT ` + attendeeColumns + `
FROM event_attendees
WHERE event_id = ANY($1)
ORDER BY event_id, seq
`

const upsertAttendeeSQL = `
INSERT INTO event_attendees (` + attendeeColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  attended_at = EXCLUDED.attended_at,
  cancelled_at = EXCLUDED.cancelled_at
`

const listByOrganizerSQL = `SELECT ` + eventColumns + `
FROM events
WHERE organizer_id = $1
ORDER BY created_at DESC, id DESC
`

const listByDonorSQL = `SELECT ` + eventColumns + `
FROM events
WHERE id IN (SELECT event_id FROM event_attendees WHERE donor_id = $1)
ORDER BY start_date ASC, id ASC
`

const insertOutboxSQL = `
INSERT INTO event_outbox (
  message_id, routing_key, body, created_at, status, next_retry_at
) VALUES ($1, $2, $3::jsonb, $4, 'pending', $4)
`
