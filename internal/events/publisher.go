package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"roadside/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends events to a durable queue over one AMQP channel.
type Publisher struct {
	mu    sync.Mutex
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(url, queue string) (*Publisher, error) {
	if queue == "" {
		queue = RequestCancelledQueue
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events.NewPublisher: dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events.NewPublisher: channel: %w", err)
	}

	_, err = ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("events.NewPublisher: queue declare: %w", err)
	}

	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) RequestCancelled(ctx context.Context, c models.Cancellation) error {
	body, err := json.Marshal(NewRequestCancelledEvent(c))
	if err != nil {
		return fmt.Errorf("events.Publisher.RequestCancelled: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    c.RequestId,
		Type:         RequestCancelledQueue,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("events.Publisher.RequestCancelled: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return errors.Join(p.ch.Close(), p.conn.Close())
}
