package queue

import (
	"context"
	"sync"
	"time"

	"go-storefront/internal/payment"

	"go.uber.org/zap"
)

const localAttempts = 3

// Local is the in-process queue used when no broker is configured.
// Notifications are buffered and applied by a fixed set of goroutines.
type Local struct {
	handler Handler
	events  chan payment.Notification

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	retryDelay time.Duration
}

func NewLocal(h Handler, workers, buffer int) *Local {
	if workers < 1 {
		workers = 1
	}
	l := &Local{
		handler:    h,
		events:     make(chan payment.Notification, buffer),
		retryDelay: 500 * time.Millisecond,
	}
	for i := 0; i < workers; i++ {
		l.wg.Add(1)
		go l.run()
	}
	return l
}

// Publish blocks only while the buffer is full.
func (l *Local) Publish(ctx context.Context, n payment.Notification) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	select {
	case l.events <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events and waits for the buffered ones to finish.
func (l *Local) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	close(l.events)
	l.mu.Unlock()
	l.wg.Wait()
}

func (l *Local) run() {
	defer l.wg.Done()
	for n := range l.events {
		l.apply(n)
	}
}

// apply runs the handler outside any request context; the webhook caller is
// long gone by the time the event is processed.
func (l *Local) apply(n payment.Notification) {
	for attempt := 1; attempt <= localAttempts; attempt++ {
		err := l.handler(context.Background(), n)
		if err == nil {
			return
		}
		zap.L().Warn("payment event failed",
			zap.String("order_id", n.OrderID()), zap.Int("attempt", attempt), zap.Error(err))
		if attempt < localAttempts {
			time.Sleep(time.Duration(attempt) * l.retryDelay)
		}
	}
	zap.L().Error("payment event dropped after retries", zap.String("order_id", n.OrderID()))
}
