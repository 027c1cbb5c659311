package telegram

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Handler consumes one update from the long-poll stream.
type Handler func(ctx context.Context, upd Update)

// Listener drives the getUpdates long poll and dispatches each update
// to a handler. One listener per bot token; Telegram rejects concurrent
// pollers.
type Listener struct {
	client      Client
	pollTimeout time.Duration
	retryDelay  time.Duration
	log         *zap.Logger
}

// NewListener creates a listener with a 30s poll window.
func NewListener(client Client, log *zap.Logger) *Listener {
	return &Listener{
		client:      client,
		pollTimeout: 30 * time.Second,
		retryDelay:  3 * time.Second,
		log:         log,
	}
}

// Run polls until ctx is cancelled. Poll errors are logged and retried
// after a short delay; handler invocations are sequential so session
// mutations observe message order.
func (l *Listener) Run(ctx context.Context, handle Handler) error {
	var offset int64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := l.client.GetUpdates(ctx, offset, l.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			l.log.Warn("telegram poll failed", zap.Error(err))
			select {
			case <-time.After(l.retryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(ctx, upd)
		}
	}
}
