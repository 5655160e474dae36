package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Delivery is a change event received from the broker. Exactly one of Ack or
// Nack must be called once the event is handled.
type Delivery struct {
	Event *ChangeEvent
	ack   func() error
	nack  func(requeue bool) error
}

// NewDelivery wraps event with its acknowledgement callbacks
func NewDelivery(event *ChangeEvent, ack func() error, nack func(requeue bool) error) *Delivery {
	return &Delivery{Event: event, ack: ack, nack: nack}
}

// Ack acknowledges the delivery
func (d *Delivery) Ack() error {
	if d.ack == nil {
		return nil
	}
	return d.ack()
}

// Nack rejects the delivery, optionally requeueing it
func (d *Delivery) Nack(requeue bool) error {
	if d.nack == nil {
		return nil
	}
	return d.nack(requeue)
}

// RabbitMQSubscriber consumes change events from the events exchange through
// its own queue, so every subscriber sees every event.
type RabbitMQSubscriber struct {
	conn         *amqp.Connection
	channel      *amqp.Channel
	exchangeName string
	queueName    string
}

// NewRabbitMQSubscriber connects to RabbitMQ and binds queueName to the
// events exchange. An empty queueName declares an exclusive server-named
// queue that disappears with the connection.
func NewRabbitMQSubscriber(amqpURL, queueName string) (*RabbitMQSubscriber, error) {
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	s := &RabbitMQSubscriber{
		conn:         conn,
		channel:      ch,
		exchangeName: DefaultExchangeName,
	}

	if err := s.setup(queueName); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return s, nil
}

func (s *RabbitMQSubscriber) setup(queueName string) error {
	err := s.channel.ExchangeDeclare(
		s.exchangeName,
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

	named := queueName != ""
	q, err := s.channel.QueueDeclare(
		queueName,
		named,  // durable
		!named, // delete when unused
		!named, // exclusive
		false,  // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	s.queueName = q.Name

	if err := s.channel.QueueBind(q.Name, "", s.exchangeName, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue: %w", err)
	}
	return nil
}

// QueueName returns the bound queue, including server-generated names
func (s *RabbitMQSubscriber) QueueName() string {
	return s.queueName
}

// Consume starts delivering events. Malformed messages are rejected without
// requeue and reported on the error channel. Both channels close when ctx is
// done or the broker closes the delivery stream.
func (s *RabbitMQSubscriber) Consume(ctx context.Context, prefetchCount int) (<-chan *Delivery, <-chan error, error) {
	if prefetchCount <= 0 {
		prefetchCount = 1
	}
	if err := s.channel.Qos(prefetchCount, 0, false); err != nil {
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := s.channel.Consume(
		s.queueName,
		"",    // consumer tag (empty = auto-generate)
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	out := make(chan *Delivery, prefetchCount)
	errs := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errs)

		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					sendErr(errs, errors.New("delivery channel closed"))
					return
				}

				var event ChangeEvent
				if err := json.Unmarshal(d.Body, &event); err != nil {
					_ = d.Nack(false, false)
					sendErr(errs, fmt.Errorf("failed to unmarshal change event: %w", err))
					continue
				}

				delivery := NewDelivery(&event,
					func() error { return d.Ack(false) },
					func(requeue bool) error { return d.Nack(false, requeue) },
				)

				select {
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				case out <- delivery:
				}
			}
		}
	}()

	return out, errs, nil
}

// sendErr reports err without blocking the consume loop
func sendErr(errs chan<- error, err error) {
	select {
	case errs <- err:
	default:
	}
}

// Close closes the channel and the connection
func (s *RabbitMQSubscriber) Close() error {
	var err error
	if s.channel != nil {
		err = s.channel.Close()
	}
	if s.conn != nil {
		if closeErr := s.conn.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	return err
}
