// Package queue carries resolved payment notifications from the webhook to
// the worker that applies them to orders.
package queue

import (
	"context"
	"errors"

	"go-storefront/internal/payment"
)

// ErrClosed is returned when publishing to a stopped queue.
var ErrClosed = errors.New("queue: closed")

// Handler applies one notification. A non-nil error asks for a retry.
type Handler func(ctx context.Context, n payment.Notification) error

// Publisher hands a notification off for background processing.
type Publisher interface {
	Publish(ctx context.Context, n payment.Notification) error
}
