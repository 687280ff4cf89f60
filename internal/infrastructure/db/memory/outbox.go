package memory

import (
	"context"
	"time"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	"github.com/baechuer/blood-drive-service/internal/metrics"
	zlog "github.com/rs/zerolog/log"
)

// StartOutboxWorker drains committed messages to pub. Failed messages stay
// queued for the next tick.
func (r *EventRepo) StartOutboxWorker(ctx context.Context, pub event.EventPublisher, interval time.Duration) {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.flushOutbox(ctx, pub)
			}
		}
	}()
}

func (r *EventRepo) flushOutbox(ctx context.Context, pub event.EventPublisher) int {
	r.mu.Lock()
	batch := r.outbox
	r.outbox = nil
	r.mu.Unlock()

	sent := 0
	var failed []event.OutboxMessage
	for _, msg := range batch {
		if err := pub.PublishEvent(ctx, msg.RoutingKey, msg.MessageID, msg.Body); err != nil {
			zlog.Warn().Err(err).Str("message_id", msg.MessageID).Str("rk", msg.RoutingKey).Msg("outbox publish failed")
			metrics.RecordOutboxPublish("retry")
			failed = append(failed, msg)
			continue
		}
		metrics.RecordOutboxPublish("sent")
		sent++
	}

	if len(failed) > 0 {
		r.mu.Lock()
		r.outbox = append(failed, r.outbox...)
		r.mu.Unlock()
	}
	return sent
}
