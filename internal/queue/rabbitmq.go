package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go-storefront/internal/payment"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQ publishes to and consumes from one durable queue.
type RabbitMQ struct {
	conn  *amqp.Connection
	queue string
}

func Dial(url, queue string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	r := &RabbitMQ{conn: conn, queue: queue}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()
	if err := r.declare(ch); err != nil {
		conn.Close()
		return nil, err
	}
	return r, nil
}

func (r *RabbitMQ) declare(ch *amqp.Channel) error {
	if _, err := ch.QueueDeclare(r.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", r.queue, err)
	}
	return nil
}

func (r *RabbitMQ) Publish(ctx context.Context, n payment.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}

	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	return ch.PublishWithContext(ctx, "", r.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// Consume applies deliveries until ctx is done or the broker closes the
// channel. Acknowledgement is manual: a failed delivery is requeued once,
// then dropped.
func (r *RabbitMQ) Consume(ctx context.Context, h Handler) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer ch.Close()

	if err := r.declare(ch); err != nil {
		return err
	}
	if err := ch.Qos(8, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	msgs, err := ch.Consume(r.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", r.queue, err)
	}

	zap.L().Info("payment worker started", zap.String("queue", r.queue))
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return amqp.ErrClosed
			}
			handleDelivery(ctx, d, h)
		}
	}
}

func (r *RabbitMQ) Close() error {
	return r.conn.Close()
}

func handleDelivery(ctx context.Context, d amqp.Delivery, h Handler) {
	var n payment.Notification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		zap.L().Error("invalid payment event", zap.Error(err))
		// malformed, never retry
		_ = d.Nack(false, false)
		return
	}

	if err := h(ctx, n); err != nil {
		zap.L().Warn("payment event failed",
			zap.String("order_id", n.OrderID()), zap.Bool("redelivered", d.Redelivered), zap.Error(err))
		_ = d.Nack(false, !d.Redelivered)
		return
	}

	if err := d.Ack(false); err != nil {
		zap.L().Error("failed to ack payment event", zap.Error(err))
	}
}
