package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const socialExchange = "social_events"

const (
	EventPostLiked      = "post.liked"
	EventUserFollowed   = "user.followed"
	EventCommentCreated = "comment.created"
)

// Event is a domain event addressed to one recipient.
type Event struct {
	Type      string    `json:"type"`
	Recipient string    `json:"recipient"`
	ActorID   string    `json:"actorId"`
	PostID    string    `json:"postId,omitempty"`
	CommentID string    `json:"commentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// RabbitBus publishes events to a topic exchange keyed by recipient.
type RabbitBus struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

func DialRabbitBus(url string, logger *zap.Logger) (*RabbitBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(
		socialExchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // args
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	logger.Info("RabbitMQ initialized", zap.String("exchange", socialExchange))
	return &RabbitBus{conn: conn, channel: channel, logger: logger}, nil
}

func (b *RabbitBus) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return b.channel.PublishWithContext(ctx,
		socialExchange,
		routingKey(event),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   event.CreatedAt,
			Body:        body,
		},
	)
}

func routingKey(event Event) string {
	return "user." + event.Recipient
}

// StartConsumer binds queueName to every user's events and hands each
// decoded event to deliver until ctx is done.
func (b *RabbitBus) StartConsumer(ctx context.Context, queueName string, deliver func(Event)) error {
	q, err := b.channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	if err := b.channel.QueueBind(q.Name, "user.*", socialExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	msgs, err := b.channel.Consume(
		q.Name,
		"",
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					b.logger.Warn("RabbitMQ delivery channel closed")
					return
				}
				var event Event
				if err := json.Unmarshal(msg.Body, &event); err != nil {
					b.logger.Warn("failed to unmarshal event", zap.Error(err))
					continue
				}
				deliver(event)
			}
		}
	}()
	return nil
}

func (b *RabbitBus) Close() error {
	if b.channel != nil {
		b.channel.Close()
	}
	return b.conn.Close()
}
