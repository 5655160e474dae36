package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	// DefaultExchangeName is the default exchange change events are published to
	DefaultExchangeName = "todo_events"
)

// RabbitMQPublisher implements EventPublisher using a RabbitMQ fanout exchange
type RabbitMQPublisher struct {
	conn         *amqp.Connection
	mu           sync.Mutex // guards channel
	channel      *amqp.Channel
	exchangeName string
}

// NewRabbitMQPublisher connects to RabbitMQ and declares the events exchange
func NewRabbitMQPublisher(amqpURL string) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	publisher := &RabbitMQPublisher{
		conn:         conn,
		channel:      ch,
		exchangeName: DefaultExchangeName,
	}

	if err := publisher.setup(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup exchange: %w", err)
	}

	return publisher, nil
}

// setup declares the events exchange
func (p *RabbitMQPublisher) setup() error {
	err := p.channel.ExchangeDeclare(
		p.exchangeName,
		"fanout",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

// Publish sends event to the exchange as a persistent JSON message
func (p *RabbitMQPublisher) Publish(ctx context.Context, event *ChangeEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID.String(),
		Timestamp:    event.Timestamp,
		Type:         event.Action,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(
		ctx,
		p.exchangeName,
		event.RoutingKey(),
		false, // mandatory
		false, // immediate
		publishing,
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// HealthCheck verifies the connection and channel are open
func (p *RabbitMQPublisher) HealthCheck(ctx context.Context) error {
	if p.conn == nil || p.conn.IsClosed() {
		return errors.New("rabbitmq connection is closed")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil || p.channel.IsClosed() {
		return errors.New("rabbitmq channel is closed")
	}
	return nil
}

// Close closes the channel and the connection
func (p *RabbitMQPublisher) Close() error {
	var err error
	p.mu.Lock()
	if p.channel != nil {
		err = p.channel.Close()
	}
	p.mu.Unlock()
	if p.conn != nil {
		if closeErr := p.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}

// RetryPolicy controls ConnectWithRetry
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryPolicy retries for RabbitMQ startup delays
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:   10,
	InitialDelay: 2 * time.Second,
	MaxDelay:     30 * time.Second,
}

// ConnectWithRetry calls connect with exponential backoff until it succeeds,
// the retries run out, or ctx is cancelled.
func ConnectWithRetry(ctx context.Context, policy RetryPolicy, logger *zap.Logger, connect func() (EventPublisher, error)) (EventPublisher, error) {
	var lastErr error
	for attempt := 0; attempt < policy.MaxRetries; attempt++ {
		publisher, err := connect()
		if err == nil {
			return publisher, nil
		}
		lastErr = err

		delay := policy.InitialDelay * time.Duration(1<<uint(attempt))
		if delay > policy.MaxDelay {
			delay = policy.MaxDelay
		}
		logger.Warn("failed_to_connect_to_rabbitmq_retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", policy.MaxRetries),
			zap.Error(err),
			zap.Duration("retry_delay", delay),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("failed to connect after %d attempts: %w", policy.MaxRetries, lastErr)
}
