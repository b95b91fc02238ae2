package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AmqpNotifier publishes recovery events to a RabbitMQ queue consumed by the
// external mailer.
type AmqpNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
}

type recoveryEvent struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	IssuedAt  time.Time `json:"issued_at"`
	EventType string    `json:"event_type"`
}

func NewAmqpNotifier(url, queue string) (*AmqpNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %q: %w", queue, err)
	}

	return &AmqpNotifier{conn: conn, channel: ch, queue: queue}, nil
}

func (n *AmqpNotifier) RecoveryRequested(ctx context.Context, email, token string) error {
	body, err := json.Marshal(recoveryEvent{
		Email:     email,
		Token:     token,
		IssuedAt:  time.Now().UTC(),
		EventType: "password_recovery_requested",
	})
	if err != nil {
		return err
	}

	return n.channel.PublishWithContext(ctx, "", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

func (n *AmqpNotifier) Close() error {
	if err := n.channel.Close(); err != nil {
		n.conn.Close()
		return err
	}
	return n.conn.Close()
}
