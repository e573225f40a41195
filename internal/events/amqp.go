package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPPublisher publishes JSON events to a durable topic exchange, routed by
// event type.
type AMQPPublisher struct {
	mu       sync.Mutex // amqp channels are not safe for concurrent publishing
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	log      *zap.Logger
}

func NewAMQPPublisher(url, exchange string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	log.Info("rabbitmq publisher ready", zap.String("exchange", exchange))
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

func encode(e Event) (amqp.Publishing, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encode event %s: %w", e.Type, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    e.OccurredAt,
		Type:         e.Type,
		Body:         body,
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	msg, err := encode(e)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, e.Type, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	p.log.Debug("event published", zap.String("type", e.Type), zap.String("id", msg.MessageId))
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.log.Warn("close rabbitmq channel", zap.Error(err))
	}
	return p.conn.Close()
}
