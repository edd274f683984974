// Package event publishes seat state changes to RabbitMQ so downstream
// consumers can react without polling the seat store.
package event

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Action string

const (
	ActionCreated  Action = "created"
	ActionBooked   Action = "booked"
	ActionUnbooked Action = "unbooked"
	ActionUpdated  Action = "updated"
)

// SeatEvent is the JSON payload of every message.
type SeatEvent struct {
	ID          string    `json:"id"`
	Resource    string    `json:"resource"`
	Action      Action    `json:"action"`
	SeatNumbers []int     `json:"seatNumbers"`
	OccurredAt  time.Time `json:"occurredAt"`
}

type Publisher interface {
	Publish(ctx context.Context, evt SeatEvent) error
	Close() error
}

type amqpPublisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	log   *zap.Logger
}

// NewAMQPPublisher dials url and declares a durable queue.
func NewAMQPPublisher(url, queue string, log *zap.Logger) (Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	return &amqpPublisher{
		conn:  conn,
		ch:    ch,
		queue: queue,
		log:   log.With(zap.String("publisher", "amqp"), zap.String("queue", queue)),
	}, nil
}

func (p *amqpPublisher) Publish(ctx context.Context, evt SeatEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal seat event: %w", err)
	}

	msg := amqp.Publishing{
		MessageId:    evt.ID,
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    evt.OccurredAt,
		Type:         evt.Resource + "." + string(evt.Action),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		msg,
	); err != nil {
		return fmt.Errorf("publish seat event: %w", err)
	}

	p.log.Debug("Seat event published",
		zap.String("resource", evt.Resource),
		zap.String("action", string(evt.Action)),
		zap.Int("seat_count", len(evt.SeatNumbers)),
	)
	return nil
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	chErr := p.ch.Close()
	if err := p.conn.Close(); err != nil {
		return err
	}
	return chErr
}

type noopPublisher struct{}

// NewNoopPublisher discards events; used when RabbitMQ is disabled.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, SeatEvent) error { return nil }

func (noopPublisher) Close() error { return nil }
