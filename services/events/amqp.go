package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"reservo/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Exchange is the topic exchange lifecycle events are published to; the routing key is the event type.
const Exchange = "booking.events"

// AMQPPublisher keeps one connection and channel open and redials on the next publish after a failure.
type AMQPPublisher struct {
	url    string
	logger *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string, logger *zap.Logger) *AMQPPublisher {
	return &AMQPPublisher{url: url, logger: logger}
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: dial failed: %w", err)
		}
		p.conn = conn
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: channel open failed: %w", err)
	}
	if err := declareExchange(ch); err != nil {
		_ = ch.Close()
		return nil, err
	}
	p.ch = ch
	return ch, nil
}

func declareExchange(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: exchange declare failed: %w", err)
	}
	return nil
}

// Publish sends evt as a persistent JSON message routed by its type.
func (p *AMQPPublisher) Publish(ctx context.Context, evt models.BookingEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event failed: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		p.logger.Error("Event publish failed", zap.String("type", string(evt.Type)), zap.Error(err))
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.ID,
		Timestamp:    time.Now().UTC(),
		Type:         string(evt.Type),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, Exchange, string(evt.Type), false, false, pub); err != nil {
		p.ch = nil
		p.logger.Error("Event publish failed", zap.String("type", string(evt.Type)), zap.Error(err))
		return fmt.Errorf("rabbitmq: publish failed: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// Consumer binds a durable queue to the exchange for the given event types and feeds a handler.
type Consumer struct {
	URL     string
	Queue   string
	Types   []models.BookingEventType
	Handler Handler
	Logger  *zap.Logger
}

// Run reconnects with backoff until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warn("Consumer dial failed", zap.String("queue", c.Queue), zap.Duration("retryIn", backoff), zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warn("Consume loop ended, reconnecting", zap.String("queue", c.Queue), zap.Error(err))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Logger.Warn("Consumer QoS failed", zap.Error(err))
	}
	if err := declareExchange(ch); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	for _, t := range c.Types {
		if err := ch.QueueBind(c.Queue, string(t), Exchange, false, nil); err != nil {
			return fmt.Errorf("queue bind %s: %w", t, err)
		}
	}
	msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

// deliver acks on success. A failed message is requeued once, then dropped.
func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	var evt models.BookingEvent
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.Logger.Error("Undecodable event", zap.String("queue", c.Queue), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}
	if err := c.Handler(ctx, evt); err != nil {
		c.Logger.Error("Event handling failed",
			zap.String("type", string(evt.Type)),
			zap.String("bookingId", evt.BookingID),
			zap.Bool("redelivered", d.Redelivered),
			zap.Error(err))
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	_ = d.Ack(false)
}
