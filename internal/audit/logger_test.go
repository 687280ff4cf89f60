package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/baechuer/blood-drive-service/internal/domain"
	pkgctx "github.com/baechuer/blood-drive-service/internal/pkg/context"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestLogger_TagsAuditLines(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf))
	ctx := pkgctx.WithRequestID(context.Background(), "req-7")

	l.RegistrationCreated(ctx, "ev-1", "donor-1", 3, 10)

	line := decodeLine(t, &buf)
	assert.Equal(t, true, line["audit"])
	assert.Equal(t, "registration_created", line["action"])
	assert.Equal(t, "ev-1", line["event_id"])
	assert.Equal(t, "donor-1", line["donor_id"])
	assert.Equal(t, float64(3), line["current_attendees"])
	assert.Equal(t, "req-7", line["trace_id"])
}

func TestLogger_EventCancelledIsWarn(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf))
	ev := &domain.Event{ID: "ev-2", StartDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)}

	l.EventCancelled(context.Background(), ev, "org-1", 4)

	line := decodeLine(t, &buf)
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "event_cancelled", line["action"])
	assert.Equal(t, float64(4), line["affected_registrations"])
}

func TestLogger_StatusMaterializedIsDebug(t *testing.T) {
	var buf bytes.Buffer
	l := New(zerolog.New(&buf).Level(zerolog.InfoLevel))

	l.StatusMaterialized(context.Background(), "ev-3", domain.StatusUpcoming, domain.StatusOngoing)
	assert.Empty(t, buf.String())
}
