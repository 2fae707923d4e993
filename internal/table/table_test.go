package table

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/blackjack-backend/internal/engine"
	"github.com/DoyleJ11/blackjack-backend/internal/store"
	"github.com/DoyleJ11/blackjack-backend/internal/view"
)

const wait = 2 * time.Second

var (
	tenS   = engine.NewCard(engine.RankTen, engine.SuitSpades)
	tenH   = engine.NewCard(engine.RankTen, engine.SuitHearts)
	kingD  = engine.NewCard(engine.RankKing, engine.SuitDiamonds)
	kingC  = engine.NewCard(engine.RankKing, engine.SuitClubs)
	aceS   = engine.NewCard(engine.RankAce, engine.SuitSpades)
	aceH   = engine.NewCard(engine.RankAce, engine.SuitHearts)
	nineC  = engine.NewCard(engine.RankNine, engine.SuitClubs)
	eightD = engine.NewCard(engine.RankEight, engine.SuitDiamonds)
	eightC = engine.NewCard(engine.RankEight, engine.SuitClubs)
	sevenD = engine.NewCard(engine.RankSeven, engine.SuitDiamonds)
	twoH   = engine.NewCard(engine.RankTwo, engine.SuitHearts)
)

// testRules leave the player-facing clocks long and the dealer's pacing
// short, so a test drives every decision itself.
func testRules() engine.Rules {
	r := engine.DefaultRules()
	r.BettingTimeout = time.Hour
	r.TurnTimeout = time.Hour
	r.InsuranceTimeout = time.Hour
	r.DealDelay = time.Millisecond
	r.DealerStartDelay = time.Millisecond
	r.DealerDrawDelay = time.Millisecond
	r.SettlementDelay = time.Hour
	return r
}

type harness struct {
	tbl    *Table
	mem    *store.Memory
	closed chan string
}

func newHarness(t *testing.T, rules engine.Rules, top ...engine.Card) *harness {
	t.Helper()
	mem := store.NewMemory(1000)
	return newHarnessOn(t, mem, mem, "t1", rules, top...)
}

// newHarnessOn starts table id, hosted by "host", writing through st.
// Several harnesses can share one mem.
func newHarnessOn(t *testing.T, mem *store.Memory, st store.Store, id string, rules engine.Rules, top ...engine.Card) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	settings := engine.DefaultSettings()
	require.NoError(t, mem.CreateTable(ctx, store.TableRecord{
		ID: id, Name: settings.Name, HostID: "host", Visibility: settings.Visibility,
		MinBet: settings.MinBet, MaxBet: settings.MaxBet, MaxSeats: settings.MaxSeats,
	}))

	h := &harness{mem: mem, closed: make(chan string, 1)}
	state := engine.NewTable(id, "host", settings, rules, engine.StackedShoe(6, top...))
	h.tbl = New(ctx, state, Deps{
		Store:    st,
		OnClosed: func(tb *Table) { h.closed <- tb.ID() },
	})
	return h
}

// connect subscribes a connection for playerID and joins the table.
func (h *harness) connect(t *testing.T, connID, playerID string) chan Outbound {
	t.Helper()
	out := make(chan Outbound, 64)
	h.tbl.Inbox() <- Subscribe{ConnID: connID, PlayerID: playerID, Outbox: out}
	recvOutbound(t, out, wait)
	h.send(connID, engine.Command{Type: engine.CmdJoin, PlayerID: playerID, Name: "name-" + playerID})
	waitFor(t, out, func(s *view.Snapshot) bool { return s.MyPlayer != nil })
	return out
}

func (h *harness) send(connID string, cmd engine.Command) {
	h.tbl.Inbox() <- FromClient{ConnID: connID, Cmd: cmd}
}

func (h *harness) view(t *testing.T) View {
	t.Helper()
	reply := make(chan View, 1)
	h.tbl.Inbox() <- GetState{Reply: reply}
	return recvView(t, reply, wait)
}

// helper: receive one message with a timeout so tests never hang
func recvOutbound(t *testing.T, ch <-chan Outbound, within time.Duration) Outbound {
	t.Helper()
	select {
	case out, ok := <-ch:
		if !ok {
			t.Fatalf("client outbox closed unexpectedly")
		}
		return out
	case <-time.After(within):
		t.Fatalf("timed out waiting for outbound message")
		return Outbound{}
	}
}

func recvNoOutbound(t *testing.T, ch <-chan Outbound, within time.Duration) {
	t.Helper()
	select {
	case out, ok := <-ch:
		if !ok {
			return
		}
		t.Fatalf("expected nothing within %v, got %+v", within, out)
	case <-time.After(within):
	}
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{}
	}
}

// waitFor reads snapshots until one satisfies ok.
func waitFor(t *testing.T, ch <-chan Outbound, ok func(*view.Snapshot) bool) *view.Snapshot {
	t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case out, open := <-ch:
			if !open {
				t.Fatalf("client outbox closed while waiting for snapshot")
			}
			if out.Type == OutState && ok(out.State) {
				return out.State
			}
		case <-deadline:
			t.Fatalf("timed out waiting for matching snapshot")
			return nil
		}
	}
}

// waitError reads until an error notice arrives, skipping snapshots.
func waitError(t *testing.T, ch <-chan Outbound) Outbound {
	t.Helper()
	deadline := time.After(wait)
	for {
		select {
		case out, open := <-ch:
			if !open {
				t.Fatalf("client outbox closed while waiting for error")
			}
			if out.Type == OutError {
				return out
			}
		case <-deadline:
			t.Fatalf("timed out waiting for error")
			return Outbound{}
		}
	}
}

func inPhase(p engine.Phase) func(*view.Snapshot) bool {
	return func(s *view.Snapshot) bool { return s.Phase == p }
}

func balance(t *testing.T, mem *store.Memory, id string) int64 {
	t.Helper()
	b, err := mem.Balance(context.Background(), id)
	require.NoError(t, err)
	return b
}

func TestTable_JoinBroadcastsSnapshotAndVersionIncrements(t *testing.T) {
	h := newHarness(t, testRules())

	out := make(chan Outbound, 4)
	h.tbl.Inbox() <- Subscribe{ConnID: "c1", PlayerID: "host", Outbox: out}

	first := recvOutbound(t, out, wait)
	assert.Equal(t, OutState, first.Type)
	assert.Equal(t, 0, first.Version)
	assert.Equal(t, engine.PhaseLobby, first.State.Phase)
	assert.Empty(t, first.State.Players)

	h.send("c1", engine.Command{Type: engine.CmdJoin, PlayerID: "host", Name: "Ann"})

	next := recvOutbound(t, out, wait)
	assert.Equal(t, 1, next.Version)
	require.Len(t, next.State.Players, 1)
	require.NotNil(t, next.State.MyPlayer)
	assert.True(t, next.State.IsHost)
	assert.Equal(t, 1, next.State.MyPlayer.Seat)
	require.NotNil(t, next.State.MyPlayer.Balance)
	assert.EqualValues(t, 1000, *next.State.MyPlayer.Balance)

	_, roster, err := h.mem.LoadTable(context.Background(), "t1")
	require.NoError(t, err)
	assert.Len(t, roster, 1)

	sum := h.tbl.Summary()
	assert.Equal(t, 1, sum.Players)
	assert.Equal(t, engine.PhaseLobby, sum.Phase)
}

func TestTable_RejectedActionOnlyReachesSender(t *testing.T) {
	h := newHarness(t, testRules())
	hostOut := h.connect(t, "c1", "host")
	guestOut := h.connect(t, "c2", "guest")
	waitFor(t, hostOut, func(s *view.Snapshot) bool { return len(s.Players) == 2 })
	before := h.view(t).Version

	h.send("c2", engine.Command{Type: engine.CmdStart, PlayerID: "guest"})

	got := recvOutbound(t, guestOut, wait)
	assert.Equal(t, OutError, got.Type)
	assert.Equal(t, engine.ErrNotHost.Error(), got.Message)
	recvNoOutbound(t, hostOut, 50*time.Millisecond)
	assert.Equal(t, before, h.view(t).Version)
}

func TestTable_BetShortCircuitsBettingTimer(t *testing.T) {
	h := newHarness(t, testRules(), tenS, nineC, sevenD, eightD)
	out := h.connect(t, "c1", "host")

	h.send("c1", engine.Command{Type: engine.CmdStart, PlayerID: "host"})
	betting := waitFor(t, out, inPhase(engine.PhaseBetting))
	assert.Equal(t, 1, betting.Round)
	assert.NotZero(t, betting.BettingEndsAt)

	h.send("c1", engine.Command{Type: engine.CmdBet, PlayerID: "host", Amount: 10})
	turn := waitFor(t, out, inPhase(engine.PhasePlayerTurn))
	assert.True(t, turn.IsMyTurn)
	assert.NotZero(t, turn.TurnEndsAt)
	assert.Zero(t, turn.BettingEndsAt)
	assert.Nil(t, turn.Dealer.Value, "hole card stays down")
	assert.EqualValues(t, 990, balance(t, h.mem, "host"))

	h.send("c1", engine.Command{Type: engine.CmdStand, PlayerID: "host"})
	done := waitFor(t, out, inPhase(engine.PhaseSettlement))
	require.NotNil(t, done.Dealer.Value)
	assert.Equal(t, 17, *done.Dealer.Value)
	assert.Equal(t, engine.ResultPush, done.MyPlayer.Result)
	assert.EqualValues(t, 1000, balance(t, h.mem, "host"))

	history := h.mem.History("t1")
	require.Len(t, history, 1)
	assert.Equal(t, engine.ResultPush, history[0].Result)
	assert.EqualValues(t, 10, history[0].Bet)
	assert.Equal(t, 17, history[0].PlayerValue)
}

func TestTable_NaturalBlackjackSettlesThroughDealer(t *testing.T) {
	h := newHarness(t, testRules(), aceS, sevenD, kingD, nineC, twoH)
	out := h.connect(t, "c1", "host")

	h.send("c1", engine.Command{Type: engine.CmdStart, PlayerID: "host"})
	waitFor(t, out, inPhase(engine.PhaseBetting))
	h.send("c1", engine.Command{Type: engine.CmdBet, PlayerID: "host", Amount: 10})

	done := waitFor(t, out, inPhase(engine.PhaseSettlement))
	assert.Equal(t, 18, *done.Dealer.Value)
	assert.Len(t, done.Dealer.Cards, 3)
	assert.Equal(t, engine.ResultBlackjack, done.MyPlayer.Result)
	assert.EqualValues(t, 25, done.MyPlayer.Payout)
	assert.EqualValues(t, 1015, balance(t, h.mem, "host"))

	stats, ok := h.mem.Stats("host")
	require.True(t, ok)
	assert.Equal(t, 1, stats.BlackjackCount)
	assert.Equal(t, 1, stats.GamesWon)
	assert.Equal(t, 1, stats.BestStreak)
}

func TestTable_InsuranceDecisionBypassesTimer(t *testing.T) {
	h := newHarness(t, testRules(), tenS, aceH, kingD, kingC)
	out := h.connect(t, "c1", "host")

	h.send("c1", engine.Command{Type: engine.CmdStart, PlayerID: "host"})
	waitFor(t, out, inPhase(engine.PhaseBetting))
	h.send("c1", engine.Command{Type: engine.CmdBet, PlayerID: "host", Amount: 20})

	ins := waitFor(t, out, inPhase(engine.PhaseInsurance))
	assert.NotZero(t, ins.BettingEndsAt)
	assert.Equal(t, "insurance", h.view(t).Timer)

	h.send("c1", engine.Command{Type: engine.CmdInsurance, PlayerID: "host", Take: true})
	done := waitFor(t, out, inPhase(engine.PhaseSettlement))
	assert.Equal(t, 21, *done.Dealer.Value)
	assert.Equal(t, engine.ResultLose, done.MyPlayer.Result)
	assert.EqualValues(t, 1000, balance(t, h.mem, "host"), "insurance covers the lost bet")
}

func TestTable_TurnTimeoutStandsAndAdvances(t *testing.T) {
	rules := testRules()
	rules.TurnTimeout = 20 * time.Millisecond
	h := newHarness(t, rules, tenS, tenH, nineC, sevenD, eightC, eightD)
	out := h.connect(t, "c1", "host")
	h.connect(t, "c2", "guest")

	h.send("c1", engine.Command{Type: engine.CmdStart, PlayerID: "host"})
	waitFor(t, out, inPhase(engine.PhaseBetting))
	h.send("c1", engine.Command{Type: engine.CmdBet, PlayerID: "host", Amount: 10})
	h.send("c2", engine.Command{Type: engine.CmdBet, PlayerID: "guest", Amount: 10})

	waitFor(t, out, func(s *view.Snapshot) bool {
		return s.Phase == engine.PhasePlayerTurn && s.CurrentPlayerID == "guest"
	})
	done := waitFor(t, out, inPhase(engine.PhaseSettlement))

	var timedOut []string
	for _, e := range done.Log {
		if e.Action == string(engine.EvtTimedOut) {
			timedOut = append(timedOut, e.Player)
		}
	}
	assert.Equal(t, []string{"name-host", "name-guest"}, timedOut)
	assert.Equal(t, engine.ResultPush, done.MyPlayer.Result)
}

func TestTable_StaleTimerIsIgnored(t *testing.T) {
	h := newHarness(t, testRules())
	out := h.connect(t, "c1", "host")
	h.send("c1", engine.Command{Type: engine.CmdStart, PlayerID: "host"})
	waitFor(t, out, inPhase(engine.PhaseBetting))
	before := h.view(t)

	h.tbl.Inbox() <- timerFired{gen: 0, kind: timerBetting}

	after := h.view(t)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, engine.PhaseBetting, after.State.Phase)
	assert.Equal(t, "betting", after.Timer)
	recvNoOutbound(t, out, 50*time.Millisecond)
}

func TestTable_NoBetsRestartsBetting(t *testing.T) {
	rules := testRules()
	rules.BettingTimeout = 20 * time.Millisecond
	h := newHarness(t, rules)
	out := h.connect(t, "c1", "host")
	h.send("c1", engine.Command{Type: engine.CmdStart, PlayerID: "host"})

	again := waitFor(t, out, func(s *view.Snapshot) bool { return s.Round >= 2 })
	assert.Equal(t, engine.PhaseBetting, again.Phase)
	assert.False(t, again.MyPlayer.SittingOut)
}

func TestTable_DeferredLeaveCompletesAtNextBetting(t *testing.T) {
	rules := testRules()
	rules.SettlementDelay = 20 * time.Millisecond
	h := newHarness(t, rules, tenS, tenH, nineC, sevenD, eightC, eightD)
	out := h.connect(t, "c1", "host")
	guestOut := h.connect(t, "c2", "guest")

	h.send("c1", engine.Command{Type: engine.CmdStart, PlayerID: "host"})
	waitFor(t, out, inPhase(engine.PhaseBetting))
	h.send("c1", engine.Command{Type: engine.CmdBet, PlayerID: "host", Amount: 10})
	h.send("c2", engine.Command{Type: engine.CmdBet, PlayerID: "guest", Amount: 10})
	waitFor(t, out, inPhase(engine.PhasePlayerTurn))

	h.send("c1", engine.Command{Type: engine.CmdStand, PlayerID: "host"})
	waitFor(t, guestOut, func(s *view.Snapshot) bool { return s.IsMyTurn })

	h.send("c2", engine.Command{Type: engine.CmdLeave, PlayerID: "guest"})
	notice := recvOutbound(t, guestOut, wait)
	assert.Equal(t, OutError, notice.Type)

	settled := waitFor(t, out, inPhase(engine.PhaseSettlement))
	assert.Len(t, settled.Players, 2)

	next := waitFor(t, out, func(s *view.Snapshot) bool { return s.Round == 2 })
	assert.Equal(t, engine.PhaseBetting, next.Phase)
	require.Len(t, next.Players, 1)
	assert.Equal(t, "host", next.Players[0].ID)

	_, roster, err := h.mem.LoadTable(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "host", roster[0].PlayerID)
	assert.EqualValues(t, 1010, balance(t, h.mem, "guest"), "the deferred round still settles")
}

func TestTable_CloseRefundsAndNotifies(t *testing.T) {
	h := newHarness(t, testRules())
	out := h.connect(t, "c1", "host")
	guestOut := h.connect(t, "c2", "guest")

	h.send("c1", engine.Command{Type: engine.CmdStart, PlayerID: "host"})
	waitFor(t, out, inPhase(engine.PhaseBetting))
	h.send("c1", engine.Command{Type: engine.CmdBet, PlayerID: "host", Amount: 50})
	waitFor(t, out, func(s *view.Snapshot) bool { return s.MyPlayer.HasBet })
	assert.EqualValues(t, 950, balance(t, h.mem, "host"))

	h.send("c1", engine.Command{Type: engine.CmdClose, PlayerID: "host"})

	for _, ch := range []chan Outbound{out, guestOut} {
		var last Outbound
		for o := range ch {
			last = o
		}
		assert.Equal(t, OutClosed, last.Type)
	}

	select {
	case id := <-h.closed:
		assert.Equal(t, "t1", id)
	case <-time.After(wait):
		t.Fatal("registry was not told about the closed table")
	}
	<-h.tbl.Done()

	assert.EqualValues(t, 1000, balance(t, h.mem, "host"))
	_, _, err := h.mem.LoadTable(context.Background(), "t1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, h.tbl.Send(GetState{Reply: make(chan View, 1)}))
	assert.Equal(t, engine.PhaseClosed, h.tbl.Summary().Phase)
}

func TestTable_LeaveRules(t *testing.T) {
	t.Run("guest leaves lobby", func(t *testing.T) {
		h := newHarness(t, testRules())
		out := h.connect(t, "c1", "host")
		h.connect(t, "c2", "guest")

		h.send("c2", engine.Command{Type: engine.CmdLeave, PlayerID: "guest"})
		left := waitFor(t, out, func(s *view.Snapshot) bool { return len(s.Players) == 1 })
		assert.Equal(t, "host", left.Players[0].ID)

		_, roster, err := h.mem.LoadTable(context.Background(), "t1")
		require.NoError(t, err)
		assert.Len(t, roster, 1)
	})

	t.Run("host leaving closes the table", func(t *testing.T) {
		h := newHarness(t, testRules())
		h.connect(t, "c1", "host")
		guestOut := h.connect(t, "c2", "guest")

		h.send("c1", engine.Command{Type: engine.CmdLeave, PlayerID: "host"})
		var last Outbound
		for o := range guestOut {
			last = o
		}
		assert.Equal(t, OutClosed, last.Type)
		<-h.tbl.Done()
	})
}

func TestTable_DeleteOnlyFromLobby(t *testing.T) {
	h := newHarness(t, testRules())
	out := h.connect(t, "c1", "host")
	h.send("c1", engine.Command{Type: engine.CmdStart, PlayerID: "host"})
	waitFor(t, out, inPhase(engine.PhaseBetting))

	h.send("c1", engine.Command{Type: engine.CmdDelete, PlayerID: "host"})
	got := recvOutbound(t, out, wait)
	assert.Equal(t, OutError, got.Type)
	assert.Equal(t, engine.ErrWrongPhase.Error(), got.Message)

	fresh := newHarness(t, testRules())
	freshOut := fresh.connect(t, "c1", "host")
	fresh.send("c1", engine.Command{Type: engine.CmdDelete, PlayerID: "host"})
	var last Outbound
	for o := range freshOut {
		last = o
	}
	assert.Equal(t, OutClosed, last.Type)
	<-fresh.tbl.Done()
	_, _, err := fresh.mem.LoadTable(context.Background(), "t1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTable_DropSlowClient(t *testing.T) {
	h := newHarness(t, testRules())

	slow := make(chan Outbound, 1)
	h.tbl.Inbox() <- Subscribe{ConnID: "slow", PlayerID: "watcher", Outbox: slow}
	h.send("c2", engine.Command{Type: engine.CmdJoin, PlayerID: "host", Name: "Ann"})

	v := h.view(t)
	assert.Equal(t, 0, v.NumClients)
	assert.Len(t, v.State.Players, 1)
}

func TestTable_ShutdownRefundsWithoutClosingRow(t *testing.T) {
	h := newHarness(t, testRules())
	out := h.connect(t, "c1", "host")
	h.send("c1", engine.Command{Type: engine.CmdStart, PlayerID: "host"})
	waitFor(t, out, inPhase(engine.PhaseBetting))
	h.send("c1", engine.Command{Type: engine.CmdBet, PlayerID: "host", Amount: 30})
	waitFor(t, out, func(s *view.Snapshot) bool { return s.MyPlayer.HasBet })

	h.tbl.Inbox() <- Shutdown{}
	<-h.tbl.Done()

	assert.EqualValues(t, 1000, balance(t, h.mem, "host"))
	rec, _, err := h.mem.LoadTable(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, rec.Open, "a restart can pick the table up again")
}

func TestTable_StakeCannotUseMoneyHeldAtAnotherTable(t *testing.T) {
	mem := store.NewMemory(600)
	a := newHarnessOn(t, mem, mem, "ta", testRules(), tenS, nineC, sevenD, eightD)
	b := newHarnessOn(t, mem, mem, "tb", testRules())
	outA := a.connect(t, "ca", "host")
	outB := b.connect(t, "cb", "host")

	a.send("ca", engine.Command{Type: engine.CmdStart, PlayerID: "host"})
	waitFor(t, outA, inPhase(engine.PhaseBetting))
	a.send("ca", engine.Command{Type: engine.CmdBet, PlayerID: "host", Amount: 500})
	waitFor(t, outA, inPhase(engine.PhasePlayerTurn))
	assert.EqualValues(t, 100, balance(t, mem, "host"))

	b.send("cb", engine.Command{Type: engine.CmdStart, PlayerID: "host"})
	waitFor(t, outB, inPhase(engine.PhaseBetting))
	b.send("cb", engine.Command{Type: engine.CmdBet, PlayerID: "host", Amount: 500})

	got := waitError(t, outB)
	assert.Equal(t, engine.ErrInsufficientBalance.Error(), got.Message)
	assert.EqualValues(t, 100, balance(t, mem, "host"))

	v := b.view(t)
	p := v.State.Player("host")
	require.NotNil(t, p)
	assert.False(t, p.Round.HasBet)
	assert.EqualValues(t, 100, p.Balance, "the table picks up the ledger balance")

	b.send("cb", engine.Command{Type: engine.CmdBet, PlayerID: "host", Amount: 100})
	waitFor(t, outB, func(s *view.Snapshot) bool { return s.Phase != engine.PhaseBetting })
	assert.EqualValues(t, 0, balance(t, mem, "host"))
}

// staleBalances answers balance reads with a fixed figure, as a read that
// raced a debit made elsewhere.
type staleBalances struct {
	*store.Memory
	balance int64
}

func (s *staleBalances) Balance(context.Context, string) (int64, error) {
	return s.balance, nil
}

func TestTable_RefusedDebitUndoesTheBet(t *testing.T) {
	mem := store.NewMemory(600)
	h := newHarnessOn(t, mem, &staleBalances{Memory: mem, balance: 600}, "t1", testRules())
	out := h.connect(t, "c1", "host")
	h.send("c1", engine.Command{Type: engine.CmdStart, PlayerID: "host"})
	waitFor(t, out, inPhase(engine.PhaseBetting))

	require.NoError(t, mem.DebitBalance(context.Background(), "host", 300, ""))
	before := h.view(t)

	h.send("c1", engine.Command{Type: engine.CmdBet, PlayerID: "host", Amount: 500})
	got := waitError(t, out)
	assert.Equal(t, engine.ErrInsufficientBalance.Error(), got.Message)

	after := h.view(t)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, engine.PhaseBetting, after.State.Phase)
	assert.Equal(t, "betting", after.Timer)
	assert.False(t, after.State.Player("host").Round.HasBet)
	assert.Len(t, after.State.Log, len(before.State.Log))
	assert.EqualValues(t, 300, balance(t, mem, "host"))

	h.send("c1", engine.Command{Type: engine.CmdBet, PlayerID: "host", Amount: 300})
	waitFor(t, out, func(s *view.Snapshot) bool { return s.Phase != engine.PhaseBetting })
	assert.EqualValues(t, 0, balance(t, mem, "host"))
}
