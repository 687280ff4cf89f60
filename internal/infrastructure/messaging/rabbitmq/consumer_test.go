package rabbitmq

import (
	"context"
	"errors"
	"sync"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockInvalidator struct {
	mock.Mock
}

func (m *mockInvalidator) Invalidate(ctx context.Context, subjectIDs ...string) error {
	args := m.Called(subjectIDs)
	return args.Error(0)
}

type fakeAck struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue bool
}

func (a *fakeAck) Ack(tag uint64, multiple bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked++
	return nil
}

func (a *fakeAck) Nack(tag uint64, multiple, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked++
	a.requeue = requeue
	return nil
}

func (a *fakeAck) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

func newTestConsumer(inv Invalidator) (*StatsConsumer, *[]amqp.Publishing) {
	var retried []amqp.Publishing
	c := &StatsConsumer{queue: "q", retryQueue: "q.retry", stats: inv}
	c.publishRetry = func(ctx context.Context, msg amqp.Publishing) error {
		retried = append(retried, msg)
		return nil
	}
	return c, &retried
}

const registrationBody = `{"version":1,"message_id":"m1","payload":{"event_id":"e1","organizer_id":"org_1","donor_id":"donor_1"}}`

func TestSubjectsOf(t *testing.T) {
	t.Run("registration_names_donor_and_organizer", func(t *testing.T) {
		got, err := subjectsOf([]byte(registrationBody))
		require.NoError(t, err)
		assert.Equal(t, []string{"org_1", "donor_1"}, got)
	})

	t.Run("cancellation_names_every_affected_donor_once", func(t *testing.T) {
		got, err := subjectsOf([]byte(`{"payload":{"organizer_id":"org_1","cancelled_donor_ids":["d1","d2","d1"]}}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"org_1", "d1", "d2"}, got)
	})

	t.Run("garbage_is_an_error", func(t *testing.T) {
		_, err := subjectsOf([]byte("not json"))
		assert.Error(t, err)
	})
}

func TestStatsConsumer_HandleMessage(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidates_and_acks", func(t *testing.T) {
		inv := new(mockInvalidator)
		inv.On("Invalidate", []string{"org_1", "donor_1"}).Return(nil).Once()
		c, retried := newTestConsumer(inv)
		ack := &fakeAck{}

		c.handleMessage(ctx, amqp.Delivery{Acknowledger: ack, RoutingKey: "registration.created", Body: []byte(registrationBody)})

		assert.Equal(t, 1, ack.acked)
		assert.Empty(t, *retried)
		inv.AssertExpectations(t)
	})

	t.Run("poison_message_goes_to_dlq", func(t *testing.T) {
		inv := new(mockInvalidator)
		c, _ := newTestConsumer(inv)
		ack := &fakeAck{}

		c.handleMessage(ctx, amqp.Delivery{Acknowledger: ack, Body: []byte("{")})

		assert.Equal(t, 1, ack.nacked)
		assert.False(t, ack.requeue)
		inv.AssertNotCalled(t, "Invalidate", mock.Anything)
	})

	t.Run("failure_schedules_retry_with_headers", func(t *testing.T) {
		inv := new(mockInvalidator)
		inv.On("Invalidate", mock.Anything).Return(errors.New("redis down"))
		c, retried := newTestConsumer(inv)
		ack := &fakeAck{}

		c.handleMessage(ctx, amqp.Delivery{
			Acknowledger: ack, RoutingKey: "registration.created", MessageId: "m1",
			Body: []byte(registrationBody),
		})

		assert.Equal(t, 1, ack.acked)
		require.Len(t, *retried, 1)
		assert.Equal(t, int32(1), (*retried)[0].Headers["x-retry-count"])
		assert.Equal(t, "registration.created", (*retried)[0].Headers["x-original-routing-key"])
		assert.Equal(t, "m1", (*retried)[0].MessageId)
	})

	t.Run("max_retries_dead_letters", func(t *testing.T) {
		inv := new(mockInvalidator)
		inv.On("Invalidate", mock.Anything).Return(errors.New("redis down"))
		c, retried := newTestConsumer(inv)
		ack := &fakeAck{}

		c.handleMessage(ctx, amqp.Delivery{
			Acknowledger: ack,
			Headers:      amqp.Table{"x-retry-count": int32(maxRetries)},
			Body:         []byte(registrationBody),
		})

		assert.Equal(t, 1, ack.nacked)
		assert.Empty(t, *retried)
	})

	t.Run("message_without_subjects_is_acked", func(t *testing.T) {
		inv := new(mockInvalidator)
		c, _ := newTestConsumer(inv)
		ack := &fakeAck{}

		c.handleMessage(ctx, amqp.Delivery{Acknowledger: ack, Body: []byte(`{"payload":{"event_id":"e1"}}`)})

		assert.Equal(t, 1, ack.acked)
		inv.AssertNotCalled(t, "Invalidate", mock.Anything)
	})
}

func TestDeadLetterArgs(t *testing.T) {
	a := deadLetterArgs("stats.host-a")
	b := deadLetterArgs("stats.host-b")

	assert.Equal(t, statsDLX, a["x-dead-letter-exchange"])
	assert.Equal(t, "stats.host-a.dlq", a["x-dead-letter-routing-key"])
	assert.NotEqual(t, a["x-dead-letter-routing-key"], b["x-dead-letter-routing-key"])
}
