package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordEventOperation(t *testing.T) {
	before := testutil.ToFloat64(eventOperationsTotal.WithLabelValues("create", "ok"))
	RecordEventOperation("create", "ok")
	assert.Equal(t, before+1, testutil.ToFloat64(eventOperationsTotal.WithLabelValues("create", "ok")))

	before = testutil.ToFloat64(eventOperationsTotal.WithLabelValues("create", "internal"))
	RecordEventOperation("create", "")
	assert.Equal(t, before+1, testutil.ToFloat64(eventOperationsTotal.WithLabelValues("create", "internal")))
}

func TestRecordRegistration_IgnoresNonPositive(t *testing.T) {
	c := registrationsTotal.WithLabelValues("cancelled_by_event")
	before := testutil.ToFloat64(c)
	RecordRegistration("cancelled_by_event", 0)
	RecordRegistration("cancelled_by_event", 3)
	assert.Equal(t, before+3, testutil.ToFloat64(c))
}

func TestSetDependencyHealth(t *testing.T) {
	SetDependencyHealth("postgres", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(dependencyHealth.WithLabelValues("postgres")))
	SetDependencyHealth("postgres", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(dependencyHealth.WithLabelValues("postgres")))
}

func TestHandler_ExposesNamespace(t *testing.T) {
	RecordStatusTransition("upcoming", "ongoing")
	RecordOutboxPublish("sent")
	RecordStatsCacheLookup("hit")

	rr := httptest.NewRecorder()
	Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "blood_drive_status_transitions_total")
	assert.Contains(t, rr.Body.String(), "blood_drive_outbox_publish_total")
}

func TestRecordHTTPRequest(t *testing.T) {
	c := httpRequestsTotal.WithLabelValues("POST", "/drive/v1/events", "201")
	before := testutil.ToFloat64(c)
	RecordHTTPRequest("POST", "/drive/v1/events", 201, 15*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
