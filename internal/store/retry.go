package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/DoyleJ11/blackjack-backend/internal/metrics"
)

type pending struct {
	op  string
	key string
	run func(ctx context.Context) error
}

// Retrying wraps a Store so failed writes are queued and replayed in the
// background instead of blocking a table. Reads pass straight through.
type Retrying struct {
	Store
	log        *zap.Logger
	queue      chan pending
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
	callTO     time.Duration
}

type RetryOption func(*Retrying)

func WithMaxRetries(n int) RetryOption          { return func(r *Retrying) { r.maxRetries = n } }
func WithRetryDelay(d time.Duration) RetryOption { return func(r *Retrying) { r.retryDelay = d } }
func WithQueueSize(n int) RetryOption {
	return func(r *Retrying) { r.queue = make(chan pending, n) }
}

func NewRetrying(s Store, log *zap.Logger, opts ...RetryOption) *Retrying {
	r := &Retrying{
		Store:      s,
		log:        log.Named("ledger"),
		queue:      make(chan pending, 1024),
		maxRetries: 8,
		retryDelay: 250 * time.Millisecond,
		maxDelay:   30 * time.Second,
		callTO:     5 * time.Second,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// permanent errors are answers from the store, not outages; replaying them
// cannot succeed.
func permanent(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) || errors.Is(err, ErrNotFound)
}

func (r *Retrying) do(ctx context.Context, op, key string, run func(ctx context.Context) error) error {
	err := run(ctx)
	if err == nil {
		return nil
	}
	metrics.Metrics.LedgerFailed(op)
	if permanent(err) {
		return err
	}
	select {
	case r.queue <- pending{op: op, key: key, run: run}:
		metrics.Metrics.LedgerRetry("queued")
		r.log.Warn("write failed, queued for retry", zap.String("op", op), zap.String("key", key), zap.Error(err))
	default:
		metrics.Metrics.LedgerRetry("dropped")
		r.log.Error("write failed and retry queue is full", zap.String("op", op), zap.String("key", key), zap.Error(err))
	}
	return err
}

// DebitBalance and CreditBalance replay with the caller's key, so a write
// that landed before its error was reported is not applied twice. Calls
// without a key get one here.
func (r *Retrying) DebitBalance(ctx context.Context, playerID string, amount int64, key string) error {
	key = keyOrNew(key)
	return r.do(ctx, "debit", playerID, func(ctx context.Context) error {
		return r.Store.DebitBalance(ctx, playerID, amount, key)
	})
}

func (r *Retrying) CreditBalance(ctx context.Context, playerID string, amount int64, key string) error {
	key = keyOrNew(key)
	return r.do(ctx, "credit", playerID, func(ctx context.Context) error {
		return r.Store.CreditBalance(ctx, playerID, amount, key)
	})
}

func keyOrNew(key string) string {
	if key == "" {
		return uuid.NewString()
	}
	return key
}

func (r *Retrying) RecordRoundOutcome(ctx context.Context, rec RoundRecord) error {
	return r.do(ctx, "record_round", rec.PlayerID, func(ctx context.Context) error {
		return r.Store.RecordRoundOutcome(ctx, rec)
	})
}

func (r *Retrying) SaveSeat(ctx context.Context, tableID string, e RosterEntry) error {
	return r.do(ctx, "save_seat", tableID, func(ctx context.Context) error {
		return r.Store.SaveSeat(ctx, tableID, e)
	})
}

func (r *Retrying) RemoveSeat(ctx context.Context, tableID, playerID string) error {
	return r.do(ctx, "remove_seat", tableID, func(ctx context.Context) error {
		return r.Store.RemoveSeat(ctx, tableID, playerID)
	})
}

func (r *Retrying) MarkStarted(ctx context.Context, tableID string, at time.Time) error {
	return r.do(ctx, "mark_started", tableID, func(ctx context.Context) error {
		return r.Store.MarkStarted(ctx, tableID, at)
	})
}

func (r *Retrying) PersistTableClosed(ctx context.Context, tableID string, at time.Time) error {
	return r.do(ctx, "close_table", tableID, func(ctx context.Context) error {
		return r.Store.PersistTableClosed(ctx, tableID, at)
	})
}

// Pending reports how many writes are waiting to be replayed.
func (r *Retrying) Pending() int { return len(r.queue) }

// Run replays queued writes until ctx is done. Each write is tried up to
// maxRetries times with doubling delays before it is logged as divergent.
func (r *Retrying) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if n := len(r.queue); n > 0 {
				r.log.Error("stopping with unreplayed writes", zap.Int("pending", n))
			}
			return nil
		case p := <-r.queue:
			r.replay(ctx, p)
		}
	}
}

func (r *Retrying) replay(ctx context.Context, p pending) {
	delay := r.retryDelay
	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		callCtx, cancel := context.WithTimeout(ctx, r.callTO)
		err := p.run(callCtx)
		cancel()
		if err == nil {
			metrics.Metrics.LedgerRetry("succeeded")
			r.log.Info("retried write succeeded", zap.String("op", p.op), zap.String("key", p.key), zap.Int("attempt", attempt))
			return
		}
		if permanent(err) {
			break
		}
		r.log.Warn("retry failed", zap.String("op", p.op), zap.String("key", p.key), zap.Int("attempt", attempt), zap.Error(err))
		delay = min(delay*2, r.maxDelay)
	}
	metrics.Metrics.LedgerRetry("abandoned")
	r.log.Error("ledger diverged from table state", zap.String("op", p.op), zap.String("key", p.key))
}
