package table

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/blackjack-backend/internal/engine"
	"github.com/DoyleJ11/blackjack-backend/internal/logging"
	"github.com/DoyleJ11/blackjack-backend/internal/metrics"
	"github.com/DoyleJ11/blackjack-backend/internal/store"
)

const (
	reasonClosed   = "closed"
	reasonDeleted  = "deleted"
	reasonHostLeft = "host_left"
	reasonEmpty    = "empty"
	reasonShutdown = "shutdown"
	reasonFatal    = "fatal"
)

// callCtx outlives the actor's own context so that refunds issued while
// shutting down still reach the store.
func (t *Table) callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(t.ctx), t.callTimeout)
}

// persist runs one store write. Failures are logged and left to the store,
// which may queue them for retry; the table keeps going either way.
func (t *Table) persist(op string, run func(ctx context.Context) error) {
	ctx, cancel := t.callCtx()
	defer cancel()
	if err := run(ctx); err != nil {
		t.log.Warn("store write failed", zap.String("op", op), zap.Error(err))
	}
}

// commit records events in the action log and mirrors every balance
// movement they carry into the ledger. Each movement gets its own key so a
// replayed write lands once.
func (t *Table) commit(events []engine.Event) {
	if len(events) == 0 {
		return
	}
	t.state.Record(t.now(), events)
	for _, e := range events {
		id := e.PlayerID
		if amount := e.Debit(); amount > 0 {
			key := uuid.NewString()
			t.persist("debit", func(ctx context.Context) error {
				return t.store.DebitBalance(ctx, id, amount, key)
			})
		}
		t.credit(e)
	}
}

func (t *Table) credit(e engine.Event) {
	amount := e.Credit()
	if amount <= 0 {
		return
	}
	id, key := e.PlayerID, uuid.NewString()
	t.persist("credit", func(ctx context.Context) error {
		return t.store.CreditBalance(ctx, id, amount, key)
	})
}

// stakes reports whether cmd puts more of the player's money on the table.
func stakes(cmd engine.Command) bool {
	switch cmd.Type {
	case engine.CmdBet, engine.CmdDouble, engine.CmdSplit:
		return true
	case engine.CmdInsurance:
		return cmd.Take
	}
	return false
}

// wager applies a staking action and takes the stake from the ledger before
// the action counts. The balance is re-read first so money staked at
// another table is seen. A debit the ledger refuses puts the table back as
// it was. An outage leaves the action standing with the debit queued.
func (t *Table) wager(cmd engine.Command) error {
	t.refreshBalance(cmd.PlayerID)
	before := t.state.Clone()
	events, err := t.state.Apply(cmd)
	if err != nil {
		return err
	}
	var stake int64
	for _, e := range events {
		stake += e.Debit()
	}
	if stake > 0 {
		ctx, cancel := t.callCtx()
		err := t.store.DebitBalance(ctx, cmd.PlayerID, stake, uuid.NewString())
		cancel()
		switch {
		case errors.Is(err, store.ErrInsufficientFunds), errors.Is(err, store.ErrNotFound):
			t.state = before
			t.refreshBalance(cmd.PlayerID)
			t.log.Info("stake refused by ledger",
				logging.Player(cmd.PlayerID),
				zap.String("action", string(cmd.Type)),
				zap.Int64("amount", stake),
				zap.Error(err))
			if errors.Is(err, store.ErrNotFound) {
				return errBalanceUnavailable
			}
			return engine.ErrInsufficientBalance
		case err != nil:
			t.log.Warn("store write failed", zap.String("op", "debit"), zap.Error(err))
		}
	}
	t.state.Record(t.now(), events)
	for _, e := range events {
		t.credit(e)
	}
	return nil
}

// refreshBalance loads the player's balance from the ledger. The table's
// own figure stays when the read fails.
func (t *Table) refreshBalance(playerID string) {
	p := t.state.Player(playerID)
	if p == nil {
		return
	}
	ctx, cancel := t.callCtx()
	balance, err := t.store.Balance(ctx, playerID)
	cancel()
	if err != nil {
		t.log.Warn("balance refresh failed", logging.Player(playerID), zap.Error(err))
		return
	}
	p.Balance = balance
}

func (t *Table) recordOutcome(s engine.Settlement) {
	p := t.state.Player(s.PlayerID)
	if p == nil {
		return
	}
	rec := store.RoundRecord{
		PlayerID:    p.ID,
		TableID:     t.id,
		Round:       t.state.Round,
		Bet:         s.Wagered,
		Result:      s.Result,
		Payout:      s.Payout + p.Round.InsurancePayout,
		Net:         s.Net,
		DealerCards: append([]engine.Card(nil), t.state.Dealer.Cards...),
		DealerValue: t.state.Dealer.Value,
	}
	for _, h := range p.Round.Hands() {
		rec.PlayerCards = append(rec.PlayerCards, append([]engine.Card(nil), h.Cards...))
		rec.PlayerValue = max(rec.PlayerValue, h.Value)
		if h.Result == engine.ResultBlackjack {
			rec.Blackjack = true
		}
	}
	t.persist("record_round", func(ctx context.Context) error {
		return t.store.RecordRoundOutcome(ctx, rec)
	})
}

// teardown refunds whatever is still on the felt, tells every subscriber
// the table is gone and stops the actor.
func (t *Table) teardown(reason, message string) {
	if t.closed {
		return
	}
	t.cancelTimer()
	t.commit(t.state.Close())

	switch reason {
	case reasonDeleted:
		t.persist("delete_table", func(ctx context.Context) error {
			return t.store.DeleteTable(ctx, t.id)
		})
	case reasonShutdown:
	default:
		at := t.now()
		t.persist("close_table", func(ctx context.Context) error {
			return t.store.PersistTableClosed(ctx, t.id, at)
		})
	}

	for id, c := range t.clients {
		select {
		case c.outbox <- Outbound{Type: OutClosed, Message: message}:
		default:
		}
		close(c.outbox)
		delete(t.clients, id)
	}

	t.closed = true
	t.publishSummary()
	metrics.Metrics.TableTornDown(reason)
	t.log.Info("table torn down", zap.String("reason", reason), zap.Int(logging.KeyRound, t.state.Round))
	t.cancel()
	if t.onClosed != nil {
		go t.onClosed(t)
	}
}

func (t *Table) fatal(err error) {
	t.log.Error("table failed", zap.String(logging.KeyPhase, string(t.state.Phase)), zap.Error(err))
	t.teardown(reasonFatal, "The table hit an internal error and was closed")
}
