package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	zlog "github.com/rs/zerolog/log"
)

const (
	DefaultExchange = "blood.events"

	// Wait window for Return / Confirm
	publishWait = 150 * time.Millisecond
)

var ErrNotConnected = errors.New("publisher channel not ready")

type Publisher struct {
	url      string
	exchange string

	mu sync.Mutex

	conn *amqp.Connection
	ch   *amqp.Channel

	confirmCh <-chan amqp.Confirmation
	returnCh  <-chan amqp.Return
	closeCh   <-chan *amqp.Error
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	p := &Publisher{
		url:      url,
		exchange: exchange,
	}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Publisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(p.exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("enable confirms: %w", err)
	}

	p.conn = conn
	p.ch = ch

	p.confirmCh = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	p.returnCh = ch.NotifyReturn(make(chan amqp.Return, 1))
	p.closeCh = ch.NotifyClose(make(chan *amqp.Error, 1))

	return nil
}

// ensureChannel redials once if the broker closed the channel. Caller holds mu.
func (p *Publisher) ensureChannel() error {
	if p.ch != nil {
		select {
		case err, ok := <-p.closeCh:
			if ok || err != nil {
				zlog.Warn().Err(err).Str("exchange", p.exchange).Msg("rabbitmq channel closed, reconnecting")
			}
			p.teardown()
		default:
			return nil
		}
	}
	if p.url == "" {
		return ErrNotConnected
	}
	return p.connect()
}

func (p *Publisher) teardown() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Healthy reports whether the underlying connection is open.
func (p *Publisher) Healthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn != nil && !p.conn.IsClosed()
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardown()
	return nil
}

// PublishEvent publishes a JSON envelope to the topic exchange with mandatory + confirms.
// messageID must be stable across retries (outbox message_id); consumers dedupe on it.
func (p *Publisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	if strings.TrimSpace(routingKey) == "" {
		return errors.New("missing routingKey")
	}
	if strings.TrimSpace(messageID) == "" {
		return errors.New("missing messageID")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	err := p.ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			MessageId:    messageID,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return err
	}

	select {
	case ret := <-p.returnCh:
		// the broker still acks a returned message; drain it so the next publish doesn't see it
		select {
		case <-p.confirmCh:
		case <-time.After(publishWait):
		}
		return errors.New("NO_ROUTE: " + ret.RoutingKey)
	case conf := <-p.confirmCh:
		if !conf.Ack {
			return errors.New("publish nack")
		}
		// a return is always dispatched before its ack
		select {
		case ret := <-p.returnCh:
			return errors.New("NO_ROUTE: " + ret.RoutingKey)
		default:
		}
		return nil
	case <-time.After(publishWait):
		// no confirm inside the window; the outbox row is marked sent and consumers dedupe
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
