package postgres

import (
	"context"
	"database/sql"
	"math"
	"math/rand"
	"time"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	"github.com/baechuer/blood-drive-service/internal/metrics"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

type outboxRow struct {
	ID         int64
	MessageID  string
	RoutingKey string
	Body       []byte
	Attempts   int
}

// Pending rows that are due, claimed with SKIP LOCKED so several relays can run.
const selectOutboxClaimsSQL = `
SELECT id, message_id, routing_key, body, attempts
FROM event_outbox
WHERE status = 'pending'
  AND (next_retry_at IS NULL OR next_retry_at <= NOW())
ORDER BY next_retry_at ASC, created_at ASC
LIMIT $1
FOR UPDATE SKIP LOCKED
`

const updateOutboxClaimSQL = `
UPDATE event_outbox
SET next_retry_at = $2,
    status = 'processing'
WHERE id = $1
`

const markOutboxSentSQL = `
UPDATE event_outbox
SET status = 'sent',
    sent_at = $2,
    last_error = NULL
WHERE id = $1
`

const markOutboxFailedSQL = `
UPDATE event_outbox
SET status = 'pending',
    attempts = attempts + 1,
    next_retry_at = $2,
    last_error = $3
WHERE id = $1
`

const markOutboxDeadSQL = `
UPDATE event_outbox
SET status = 'dead',
    attempts = attempts + 1,
    last_error = $2
WHERE id = $1
`

// Rows stuck in 'processing' past their reservation go back to 'pending'.
const releaseStaleClaimsSQL = `
UPDATE event_outbox
SET status = 'pending'
WHERE status = 'processing'
  AND next_retry_at <= NOW()
`

const maxAttempts = 10

// DeadLetterHook is told about messages that exhausted their retries.
type DeadLetterHook func(messageID, routingKey string, attempts int, reason string)

type OutboxOptions struct {
	Interval  time.Duration
	BatchSize int
	OnDead    DeadLetterHook
	Logger    *zerolog.Logger
}

func (o OutboxOptions) withDefaults() OutboxOptions {
	if o.Interval <= 0 {
		o.Interval = 500 * time.Millisecond
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 20
	}
	if o.Logger == nil {
		o.Logger = &zlog.Logger
	}
	return o
}

// StartOutboxWorker polls pending outbox rows and relays them to pub.
// Claim in a short tx, publish outside any lock, then record the result.
func (r *Repo) StartOutboxWorker(ctx context.Context, pub event.EventPublisher, opts OutboxOptions) {
	opts = opts.withDefaults()
	go func() {
		// jitter so instances started together don't poll in lockstep
		time.Sleep(time.Duration(rand.Intn(1000)) * time.Millisecond)
		ticker := time.NewTicker(opts.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := r.processOutboxBatch(ctx, pub, opts); err != nil && ctx.Err() == nil {
					opts.Logger.Error().Err(err).Msg("outbox batch failed")
				}
			}
		}
	}()
}

func (r *Repo) processOutboxBatch(ctx context.Context, pub event.EventPublisher, opts OutboxOptions) (int, error) {
	claimCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.db.ExecContext(claimCtx, releaseStaleClaimsSQL); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(claimCtx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	batch, err := claimRows(claimCtx, tx, opts.BatchSize)
	if err != nil {
		return 0, err
	}
	if len(batch) == 0 {
		return 0, tx.Commit()
	}

	// reserve the rows so a crashed relay releases them after 30s
	reservation := time.Now().UTC().Add(30 * time.Second)
	for _, item := range batch {
		if _, err := tx.ExecContext(claimCtx, updateOutboxClaimSQL, item.ID, reservation); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	sent := 0
	for _, item := range batch {
		if r.processSingleItem(ctx, pub, item, opts) {
			sent++
		}
	}
	return sent, nil
}

func claimRows(ctx context.Context, tx *sql.Tx, limit int) ([]outboxRow, error) {
	rows, err := tx.QueryContext(ctx, selectOutboxClaimsSQL, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batch []outboxRow
	for rows.Next() {
		var item outboxRow
		if err := rows.Scan(&item.ID, &item.MessageID, &item.RoutingKey, &item.Body, &item.Attempts); err != nil {
			return nil, err
		}
		batch = append(batch, item)
	}
	return batch, rows.Err()
}

func (r *Repo) processSingleItem(ctx context.Context, pub event.EventPublisher, item outboxRow, opts OutboxOptions) bool {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := pub.PublishEvent(pubCtx, item.RoutingKey, item.MessageID, item.Body)

	resCtx, cancelRes := context.WithTimeout(ctx, 3*time.Second)
	defer cancelRes()

	log := opts.Logger.With().
		Str("message_id", item.MessageID).
		Str("rk", item.RoutingKey).
		Int("attempts", item.Attempts).
		Logger()

	if err != nil {
		errMsg := err.Error()
		if item.Attempts+1 >= maxAttempts {
			if _, dbErr := r.db.ExecContext(resCtx, markOutboxDeadSQL, item.ID, errMsg); dbErr != nil {
				log.Error().Err(dbErr).Msg("outbox mark dead failed")
			}
			metrics.RecordOutboxPublish("dead")
			if opts.OnDead != nil {
				opts.OnDead(item.MessageID, item.RoutingKey, item.Attempts+1, errMsg)
			}
			return false
		}

		nextRetry := time.Now().UTC().Add(backoff(item.Attempts))
		if _, dbErr := r.db.ExecContext(resCtx, markOutboxFailedSQL, item.ID, nextRetry, errMsg); dbErr != nil {
			log.Error().Err(dbErr).Msg("outbox mark failed failed")
		}
		log.Warn().Err(err).Time("next_retry_at", nextRetry).Msg("outbox publish failed")
		metrics.RecordOutboxPublish("retry")
		return false
	}

	if _, dbErr := r.db.ExecContext(resCtx, markOutboxSentSQL, item.ID, time.Now().UTC()); dbErr != nil {
		// the message went out; a redelivery is deduplicated downstream by message_id
		log.Error().Err(dbErr).Msg("outbox mark sent failed")
	}
	metrics.RecordOutboxPublish("sent")
	return true
}

// backoff is 2^attempts seconds plus up to 1s of jitter.
func backoff(attempts int) time.Duration {
	d := time.Duration(math.Pow(2, float64(attempts))) * time.Second
	return d + time.Duration(rand.Intn(1000))*time.Millisecond
}
