package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/baechuer/blood-drive-service/internal/application/event"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

const (
	// direct, so a dead letter reaches only the DLQ of the queue that dropped it
	statsDLX        = "blood.events.stats.dlx"
	maxRetries      = 3
	retryDelayMilli = 5000
)

// statsRoutingKeys are the events that change someone's profile summary.
var statsRoutingKeys = []string{
	event.RKEventCreated,
	event.RKEventUpdated,
	event.RKEventCancelled,
	event.RKEventDeleted,
	event.RKEventStatusChanged,
	event.RKRegistrationCreated,
	event.RKRegistrationCancelled,
	event.RKRegistrationAttended,
}

// Invalidator drops cached profile summaries.
type Invalidator interface {
	Invalidate(ctx context.Context, subjectIDs ...string) error
}

// statsEnvelope decodes the union of payload fields naming affected users.
type statsEnvelope struct {
	MessageID string `json:"message_id"`
	Payload   struct {
		OrganizerID       string   `json:"organizer_id"`
		DonorID           string   `json:"donor_id"`
		CancelledDonorIDs []string `json:"cancelled_donor_ids"`
	} `json:"payload"`
}

// StatsConsumer keeps per-instance profile stats caches coherent across
// replicas: every instance binds its own queue and drops the summaries named
// by each lifecycle or roster message.
type StatsConsumer struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	queue      string
	retryQueue string
	exchange   string
	stats      Invalidator

	publishRetry func(ctx context.Context, msg amqp.Publishing) error
}

func NewStatsConsumer(rabbitURL, exchange, queueName string, stats Invalidator) (*StatsConsumer, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(rabbitURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c := &StatsConsumer{
		conn:       conn,
		channel:    ch,
		queue:      queueName,
		retryQueue: queueName + ".retry",
		exchange:   exchange,
		stats:      stats,
	}
	c.publishRetry = c.publishToRetryQueue

	if err := c.declare(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *StatsConsumer) declare() error {
	ch := c.channel

	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	if err := ch.ExchangeDeclare(statsDLX, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dlx: %w", err)
	}
	dlq := dlqName(c.queue)
	if _, err := ch.QueueDeclare(dlq, true, true, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dlq: %w", err)
	}
	if err := ch.QueueBind(dlq, dlq, statsDLX, false, nil); err != nil {
		return fmt.Errorf("failed to bind dlq: %w", err)
	}

	// per-instance queues go away with the instance
	if _, err := ch.QueueDeclare(c.queue, true, true, false, false, deadLetterArgs(c.queue)); err != nil {
		return fmt.Errorf("failed to declare main queue: %w", err)
	}

	retryArgs := amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": c.queue,
		"x-message-ttl":             retryDelayMilli,
	}
	if _, err := ch.QueueDeclare(c.retryQueue, true, true, false, false, retryArgs); err != nil {
		return fmt.Errorf("failed to declare retry queue: %w", err)
	}

	for _, key := range statsRoutingKeys {
		if err := ch.QueueBind(c.queue, key, c.exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue to %s: %w", key, err)
		}
	}
	return nil
}

func dlqName(queue string) string { return queue + ".dlq" }

// deadLetterArgs routes rejected messages to the queue's own DLQ.
func deadLetterArgs(queue string) amqp.Table {
	return amqp.Table{
		"x-dead-letter-exchange":    statsDLX,
		"x-dead-letter-routing-key": dlqName(queue),
	}
}

// Start begins consuming in the background until ctx is done.
func (c *StatsConsumer) Start(ctx context.Context) error {
	msgs, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("stats consumer shutting down")
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Warn().Msg("stats consumer channel closed")
					return
				}
				c.handleMessage(ctx, msg)
			}
		}
	}()

	log.Info().
		Str("queue", c.queue).
		Str("exchange", c.exchange).
		Msg("stats consumer started")
	return nil
}

func (c *StatsConsumer) handleMessage(ctx context.Context, msg amqp.Delivery) {
	routingKey := msg.RoutingKey
	if val, ok := msg.Headers["x-original-routing-key"].(string); ok {
		routingKey = val
	}

	subjects, err := subjectsOf(msg.Body)
	if err != nil {
		log.Error().Err(err).Str("routing_key", routingKey).Str("message_id", msg.MessageId).Msg("undecodable stats message")
		_ = msg.Nack(false, false) // poison -> DLQ
		return
	}
	if len(subjects) == 0 {
		_ = msg.Ack(false)
		return
	}

	opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.stats.Invalidate(opCtx, subjects...); err != nil {
		c.retryOrDeadLetter(ctx, msg, routingKey, err)
		return
	}

	log.Debug().
		Str("routing_key", routingKey).
		Strs("subjects", subjects).
		Msg("profile stats invalidated")
	_ = msg.Ack(false)
}

func (c *StatsConsumer) retryOrDeadLetter(ctx context.Context, msg amqp.Delivery, routingKey string, cause error) {
	retryCount := 0
	if val, ok := msg.Headers["x-retry-count"].(int32); ok {
		retryCount = int(val)
	}

	if retryCount >= maxRetries {
		log.Error().Err(cause).Str("message_id", msg.MessageId).Msg("max retries reached, sending to DLQ")
		_ = msg.Nack(false, false)
		return
	}

	log.Warn().Err(cause).Int("retry_count", retryCount).Msg("stats invalidation failed, scheduling retry")

	headers := make(amqp.Table, len(msg.Headers)+2)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["x-retry-count"] = int32(retryCount + 1)
	headers["x-original-routing-key"] = routingKey

	err := c.publishRetry(ctx, amqp.Publishing{
		ContentType: msg.ContentType,
		Body:        msg.Body,
		Headers:     headers,
		MessageId:   msg.MessageId,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to publish to retry queue")
		_ = msg.Nack(false, false)
		return
	}
	_ = msg.Ack(false)
}

func (c *StatsConsumer) publishToRetryQueue(ctx context.Context, msg amqp.Publishing) error {
	return c.channel.PublishWithContext(ctx, "", c.retryQueue, false, false, msg)
}

// subjectsOf lists the distinct users named by a message payload.
func subjectsOf(body []byte) ([]string, error) {
	var env statsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	add(env.Payload.OrganizerID)
	add(env.Payload.DonorID)
	for _, id := range env.Payload.CancelledDonorIDs {
		add(id)
	}
	return out, nil
}

func (c *StatsConsumer) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
