package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/movie-ticket-booking/internal/logger"
)

// defaultDialTimeout bounds a dial when the caller's context has no deadline.
const defaultDialTimeout = 5 * time.Second

// Publisher sends ticket events to RabbitMQ over one long-lived connection.
// The connection is opened lazily and re-dialed after any failure, so a
// broker outage only costs the events published while it lasts.  Dials are
// bounded by the publish context; at most one runs at a time and waiters give
// up when their own context ends.  Safe for concurrent use.
type Publisher struct {
	url string
	log *zap.Logger

	dialing chan struct{} // one-slot semaphore around dial

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the broker at url.  No connection is
// made until the first publish.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	return &Publisher{url: url, log: logger.OrNop(log), dialing: make(chan struct{}, 1)}
}

// PublishTicketIssued publishes ev as a persistent JSON message on the
// ticket.issued queue.
func (p *Publisher) PublishTicketIssued(ctx context.Context, ev TicketIssuedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}
	err = ch.PublishWithContext(ctx,
		"",                // default exchange
		TicketIssuedQueue, // routing key = queue name
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    ev.MessageID,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
	if err != nil {
		p.drop(ch)
		return fmt.Errorf("publish %s: %w", TicketIssuedQueue, err)
	}
	return nil
}

// current returns the open channel, or nil.
func (p *Publisher) current() *amqp.Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch
	}
	return nil
}

// channel returns an open channel, dialing if needed.  p.mu is not held
// while dialing.
func (p *Publisher) channel(ctx context.Context) (*amqp.Channel, error) {
	if ch := p.current(); ch != nil {
		return ch, nil
	}
	select {
	case p.dialing <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("rabbitmq dial: %w", ctx.Err())
	}
	defer func() { <-p.dialing }()

	// Another caller may have connected while we waited.
	if ch := p.current(); ch != nil {
		return ch, nil
	}
	timeout, err := dialTimeout(ctx)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}
	if _, err := ch.QueueDeclare(TicketIssuedQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare: %w", err)
	}

	p.mu.Lock()
	p.reset()
	p.conn, p.ch = conn, ch
	p.mu.Unlock()
	p.log.Info("rabbitmq publisher connected", zap.String("queue", TicketIssuedQueue))
	return ch, nil
}

// dialTimeout is the time left before ctx's deadline, capped at
// defaultDialTimeout.
func dialTimeout(ctx context.Context) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		return defaultDialTimeout, nil
	}
	left := time.Until(deadline)
	if left <= 0 {
		return 0, context.DeadlineExceeded
	}
	return min(left, defaultDialTimeout), nil
}

// drop discards ch if it is still the current channel.
func (p *Publisher) drop(ch *amqp.Channel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch == ch {
		p.reset()
	}
}

// reset drops the current connection.  p.mu must be held.
func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
