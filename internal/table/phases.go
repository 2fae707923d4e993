package table

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/blackjack-backend/internal/engine"
	"github.com/DoyleJ11/blackjack-backend/internal/logging"
	"github.com/DoyleJ11/blackjack-backend/internal/metrics"
)

type timerKind int

const (
	timerNone timerKind = iota
	timerBetting
	timerDeal
	timerInsurance
	timerTurn
	timerDealer
	timerSettlement
)

func (k timerKind) String() string {
	switch k {
	case timerBetting:
		return "betting"
	case timerDeal:
		return "deal"
	case timerInsurance:
		return "insurance"
	case timerTurn:
		return "turn"
	case timerDealer:
		return "dealer"
	case timerSettlement:
		return "settlement"
	}
	return "none"
}

// schedule is the only place a timer is armed. The previous timer is
// always cancelled first, so at most one is pending.
func (t *Table) schedule(d time.Duration, kind timerKind) {
	t.cancelTimer()
	gen := t.timerGen
	t.timerKind = kind
	t.timer = time.AfterFunc(d, func() {
		select {
		case t.inbox <- timerFired{gen: gen, kind: kind}:
		case <-t.ctx.Done():
		}
	})
}

// cancelTimer also invalidates a firing that is already queued.
func (t *Table) cancelTimer() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.timerGen++
	t.timerKind = timerNone
}

func (t *Table) onTimer(kind timerKind) {
	switch kind {
	case timerBetting:
		t.closeBetting()
	case timerDeal:
		t.afterDeal()
	case timerInsurance:
		t.resolveInsurance()
	case timerTurn:
		t.commit(t.state.TimeoutCurrent())
		t.afterTurnChange()
	case timerDealer:
		t.dealerStep()
	case timerSettlement:
		t.enterBetting()
	}
}

func (t *Table) enterBetting() {
	events := t.state.OpenBetting()
	for _, e := range events {
		if e.Type != engine.EvtPlayerLeft {
			continue
		}
		id := e.PlayerID
		t.persist("remove_seat", func(ctx context.Context) error {
			return t.store.RemoveSeat(ctx, t.id, id)
		})
	}
	t.commit(events)
	if len(t.state.Players) == 0 {
		t.teardown(reasonEmpty, "Everyone left the table")
		return
	}
	d := t.state.Rules.BettingTimeout
	t.state.BettingEndsAt = t.now().Add(d)
	t.schedule(d, timerBetting)
	t.log.Debug("betting opened", zap.Int(logging.KeyRound, t.state.Round))
}

func (t *Table) closeBetting() {
	t.cancelTimer()
	t.state.BettingEndsAt = time.Time{}
	ok, events := t.state.CloseBetting()
	t.commit(events)
	if !ok {
		t.enterBetting()
		return
	}
	events, err := t.state.Deal()
	t.commit(events)
	if err != nil {
		t.fatal(err)
		return
	}
	t.schedule(t.state.Rules.DealDelay, timerDeal)
}

func (t *Table) afterDeal() {
	if t.state.DealerShowsAce() {
		t.commit(t.state.OpenInsurance())
		d := t.state.Rules.InsuranceTimeout
		t.state.BettingEndsAt = t.now().Add(d)
		t.schedule(d, timerInsurance)
		return
	}
	t.commit(t.state.BeginTurns())
	t.afterTurnChange()
}

func (t *Table) resolveInsurance() {
	t.cancelTimer()
	t.state.BettingEndsAt = time.Time{}
	dealerBlackjack, events := t.state.ResolveInsurance()
	t.commit(events)
	if dealerBlackjack {
		t.commit(t.state.RevealDealer())
		t.settle()
		return
	}
	t.commit(t.state.BeginTurns())
	t.afterTurnChange()
}

// afterTurnChange restarts the turn clock for whoever acts next, or hands
// over to the dealer once nobody is left to act.
func (t *Table) afterTurnChange() {
	if t.state.Phase != engine.PhasePlayerTurn {
		return
	}
	if t.state.TurnsDone() {
		t.state.TurnEndsAt = time.Time{}
		t.commit(t.state.RevealDealer())
		t.schedule(t.state.Rules.DealerStartDelay, timerDealer)
		return
	}
	d := t.state.Rules.TurnTimeout
	t.state.TurnEndsAt = t.now().Add(d)
	t.schedule(d, timerTurn)
}

func (t *Table) dealerStep() {
	done, events, err := t.state.DealerStep()
	t.commit(events)
	if err != nil {
		t.fatal(err)
		return
	}
	if !done {
		t.schedule(t.state.Rules.DealerDrawDelay, timerDealer)
		return
	}
	t.settle()
}

func (t *Table) settle() {
	t.cancelTimer()
	settlements, events := t.state.Settle()
	t.commit(events)
	for _, s := range settlements {
		t.recordOutcome(s)
	}
	metrics.Metrics.RoundSettled()
	t.log.Info("round settled",
		zap.Int(logging.KeyRound, t.state.Round),
		zap.Int("players", len(settlements)),
		zap.Int("dealer_value", t.state.Dealer.Value))
	t.schedule(t.state.Rules.SettlementDelay, timerSettlement)
}
