package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/roomforge/api/internal/config"
	"github.com/roomforge/api/internal/pkg/retry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	EventDesignCreated       = "design.created"
	EventDesignStatusChanged = "design.status_changed"
	EventDesignDeleted       = "design.deleted"
)

// DesignEvent is published on every lifecycle change of a design.
type DesignEvent struct {
	Type             string     `json:"type"`
	DesignID         uuid.UUID  `json:"design_id"`
	OwnerID          string     `json:"owner_id"`
	ParentID         *uuid.UUID `json:"parent_id,omitempty"`
	Status           string     `json:"status"`
	GenerationNumber int        `json:"generation_number"`
	OutputCount      int        `json:"output_count,omitempty"`
	At               time.Time  `json:"at"`
}

// RoutingKey is design.<status>, or design.deleted for deletions.
func (e DesignEvent) RoutingKey() string {
	if e.Type == EventDesignDeleted {
		return EventDesignDeleted
	}
	return "design." + e.Status
}

type EventPublisher interface {
	PublishDesignEvent(ctx context.Context, ev DesignEvent) error
	Close() error
}

var (
	ErrPublisherClosed = errors.New("publisher is closed")
	ErrNoChannel       = errors.New("channel is not available")
)

// tableCarrier lets the otel propagator read and write amqp headers.
type tableCarrier struct {
	table amqp.Table
}

func (c tableCarrier) Get(key string) string {
	v, ok := c.table[key]
	if !ok {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (c tableCarrier) Set(key, value string) {
	c.table[key] = value
}

func (c tableCarrier) Keys() []string {
	keys := make([]string, 0, len(c.table))
	for k := range c.table {
		keys = append(keys, k)
	}
	return keys
}

// DialFunc opens a fresh broker connection when the current one drops.
type DialFunc func() (*amqp.Connection, error)

type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	log      *zap.Logger
	exchange string
	tracer   string
	dialFn   DialFunc
	backoff  retry.Policy
	mu       sync.RWMutex
	closed   bool
}

// NewEventPublisher dials cfg.URL and declares the topic exchange. An empty
// URL yields a publisher that drops every event.
func NewEventPublisher(cfg config.RabbitMQCfg, appName string, log *zap.Logger) (EventPublisher, error) {
	log = log.Named("mq")
	if cfg.URL == "" {
		log.Info("rabbitmq not configured, design events are dropped")
		return NoopPublisher{}, nil
	}

	dial := func() (*amqp.Connection, error) { return amqp.Dial(cfg.URL) }
	conn, err := dial()
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	p, err := NewPublisher(conn, cfg.Exchange, appName, log, dial)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return p, nil
}

func NewPublisher(conn *amqp.Connection, exchange, tracer string, log *zap.Logger, dialFn DialFunc) (*Publisher, error) {
	ch, err := openChannel(conn, exchange)
	if err != nil {
		return nil, err
	}

	p := &Publisher{
		conn:     conn,
		ch:       ch,
		log:      log,
		exchange: exchange,
		tracer:   tracer,
		dialFn:   dialFn,
		backoff:  retry.Policy{BaseDelay: time.Second, MaxDelay: 30 * time.Second},
	}

	go p.watchConnection()

	return p, nil
}

func openChannel(conn *amqp.Connection, exchange string) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return ch, nil
}

func (p *Publisher) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// watchConnection reconnects every time the broker drops the connection,
// until Close.
func (p *Publisher) watchConnection() {
	for {
		p.mu.RLock()
		if p.closed {
			p.mu.RUnlock()
			return
		}
		conn := p.conn
		p.mu.RUnlock()

		notifyClose := conn.NotifyClose(make(chan *amqp.Error, 1))
		amqpErr := <-notifyClose

		if p.isClosed() {
			return
		}
		if amqpErr != nil {
			p.log.Warn("rabbitmq connection closed", zap.Error(amqpErr))
		} else {
			p.log.Warn("rabbitmq connection closed gracefully")
		}

		if !p.reconnect() {
			return
		}
	}
}

// reconnect retries until a channel is open again or the publisher is closed.
func (p *Publisher) reconnect() bool {
	for attempt := 1; ; attempt++ {
		if p.isClosed() {
			return false
		}

		wait := p.backoff.Delay(attempt)
		conn, err := p.dialFn()
		if err != nil {
			p.log.Error("reconnect to rabbitmq failed", zap.Int("attempt", attempt), zap.Duration("backoff", wait), zap.Error(err))
			time.Sleep(wait)
			continue
		}

		ch, err := openChannel(conn, p.exchange)
		if err != nil {
			p.log.Error("reopen channel failed", zap.Int("attempt", attempt), zap.Error(err))
			conn.Close()
			time.Sleep(wait)
			continue
		}

		p.mu.Lock()
		p.conn = conn
		p.ch = ch
		p.mu.Unlock()

		p.log.Info("reconnected to rabbitmq", zap.Int("attempts", attempt))
		return true
	}
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch {
	case p.closed:
		return nil, ErrPublisherClosed
	case p.ch == nil:
		return nil, ErrNoChannel
	}
	return p.ch, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

func (p *Publisher) PublishDesignEvent(ctx context.Context, ev DesignEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return p.PublishJSON(ctx, p.exchange, ev.RoutingKey(), ev)
}

func (p *Publisher) PublishJSON(ctx context.Context, exchangeName string, routingKey string, body any) error {
	b, err := sonic.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, span := otel.Tracer(p.tracer).Start(ctx, "rabbitmq.publish",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination", exchangeName),
			attribute.String("messaging.destination_kind", "exchange"),
			attribute.String("messaging.rabbitmq.routing_key", routingKey),
		))
	defer span.End()

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now(),
		Body:         b,
		Headers:      newHeaders(ctx),
	}

	ch, err := p.channel()
	if err != nil {
		span.RecordError(err)
		return err
	}

	if err := ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, publishing); err != nil {
		span.RecordError(err)
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	span.SetAttributes(attribute.Int("messaging.message.body.size", len(b)))
	return nil
}

// newHeaders carries the trace context of ctx.
func newHeaders(ctx context.Context) amqp.Table {
	headers := make(amqp.Table)
	otel.GetTextMapPropagator().Inject(ctx, tableCarrier{table: headers})
	return headers
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishDesignEvent(context.Context, DesignEvent) error { return nil }
func (NoopPublisher) Close() error                                         { return nil }
