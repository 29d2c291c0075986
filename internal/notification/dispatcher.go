package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"qrorder-be/internal/logger"

	"go.uber.org/zap"
)

// Notifier is the fire-and-forget contract producers depend on.
// Notify never blocks on delivery and never reports failure.
type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Pusher is a realtime delivery channel.
type Pusher interface {
	Push(ctx context.Context, n *Notification) error
}

type Dispatcher struct {
	repo    Repository
	pushers []Pusher
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(repo Repository, pushers ...Pusher) *Dispatcher {
	return &Dispatcher{
		repo:    repo,
		pushers: pushers,
		timeout: 5 * time.Second,
	}
}

// Notify persists and pushes e in the background. The caller's cancellation does not
// abort delivery; request-scoped values such as the request id are kept for logging.
func (d *Dispatcher) Notify(ctx context.Context, e Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		if err := d.deliver(dctx, e); err != nil {
			logger.FromCtx(dctx).Warn("notification delivery failed",
				zap.String("type", string(e.Type)),
				zap.String("audience", string(e.Audience)),
				zap.Int64("order_id", e.OrderID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until every in-flight delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during delivery: %v", r)
		}
	}()

	n := e.toNotification()
	log := logger.FromCtx(ctx).With(
		zap.String("type", string(n.Type)),
		zap.String("channel", n.Channel()),
	)

	if err := d.repo.Save(ctx, n); err != nil {
		// still worth pushing: the realtime view does not need the row
		log.Warn("failed to persist notification", zap.Error(err))
	}

	var failed int
	for _, p := range d.pushers {
		if err := p.Push(ctx, n); err != nil {
			failed++
			log.Warn("failed to push notification", zap.Error(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d pushers failed", failed, len(d.pushers))
	}
	return nil
}
