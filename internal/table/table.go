package table

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/blackjack-backend/internal/engine"
	"github.com/DoyleJ11/blackjack-backend/internal/logging"
	"github.com/DoyleJ11/blackjack-backend/internal/metrics"
	"github.com/DoyleJ11/blackjack-backend/internal/store"
	"github.com/DoyleJ11/blackjack-backend/internal/view"
)

type Msg interface{ isTableMsg() }

// Subscribe attaches a connection. The current snapshot is sent to it
// right away.
type Subscribe struct {
	ConnID   string
	PlayerID string
	Outbox   chan Outbound
}

func (Subscribe) isTableMsg() {}

type Unsubscribe struct{ ConnID string }

func (Unsubscribe) isTableMsg() {}

// FromClient carries one inbound event. Errors go back to ConnID only.
type FromClient struct {
	ConnID string
	Cmd    engine.Command
}

func (FromClient) isTableMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isTableMsg() {}

type Shutdown struct{}

func (Shutdown) isTableMsg() {}

type timerFired struct {
	gen  uint64
	kind timerKind
}

func (timerFired) isTableMsg() {}

const (
	OutState  = "table:state"
	OutError  = "table:error"
	OutClosed = "table:closed"
)

// Outbound is what a subscriber receives.
type Outbound struct {
	Type    string
	Version int
	State   *view.Snapshot
	Message string
}

// View is a consistent read of the actor for tests and diagnostics.
type View struct {
	Version    int
	NumClients int
	Timer      string
	State      engine.Table
}

// Summary is the directory entry for a live table.
type Summary struct {
	ID         string
	Name       string
	HostID     string
	Visibility engine.Visibility
	Players    int
	MaxSeats   int
	MinBet     int64
	MaxBet     int64
	Phase      engine.Phase
	Round      int
}

type client struct {
	playerID string
	outbox   chan Outbound
}

type Deps struct {
	Store  store.Store
	Logger *zap.Logger
	// OnClosed runs once, on its own goroutine, after the actor stops.
	OnClosed func(*Table)
	// CallTimeout bounds each persistence call made while handling a message.
	CallTimeout time.Duration
	Now         func() time.Time
}

type Table struct {
	id      string
	inbox   chan Msg
	state   engine.Table
	version int
	clients map[string]*client

	store       store.Store
	log         *zap.Logger
	onClosed    func(*Table)
	callTimeout time.Duration
	now         func() time.Time

	timer     *time.Timer
	timerGen  uint64
	timerKind timerKind

	summary atomic.Pointer[Summary]
	closed  bool
	done    chan struct{}
	ctx     context.Context
	cancel  context.CancelFunc
}

func New(parent context.Context, initial engine.Table, deps Deps) *Table {
	ctx, cancel := context.WithCancel(parent)
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.CallTimeout <= 0 {
		deps.CallTimeout = 3 * time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	t := &Table{
		id:          initial.ID,
		inbox:       make(chan Msg, 64),
		state:       initial,
		clients:     make(map[string]*client),
		store:       deps.Store,
		log:         deps.Logger.With(logging.Table(initial.ID)),
		onClosed:    deps.OnClosed,
		callTimeout: deps.CallTimeout,
		now:         deps.Now,
		done:        make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	t.publishSummary()

	go t.loop()
	return t
}

func (t *Table) ID() string { return t.id }

// Inbox exposes the queue for callers that can block.
func (t *Table) Inbox() chan<- Msg { return t.inbox }

// Send queues m unless the actor has stopped.
func (t *Table) Send(m Msg) bool {
	select {
	case <-t.done:
		return false
	default:
	}
	select {
	case t.inbox <- m:
		return true
	case <-t.done:
		return false
	}
}

// Done is closed once the actor has stopped.
func (t *Table) Done() <-chan struct{} { return t.done }

// Summary returns the latest directory entry without touching the actor.
func (t *Table) Summary() Summary { return *t.summary.Load() }

func (t *Table) loop() {
	defer close(t.done)
	for {
		select {
		case <-t.ctx.Done():
			if !t.closed {
				t.teardown(reasonShutdown, "The server is shutting down")
			}
			return

		case m := <-t.inbox:
			changed := t.handle(m)
			if t.closed {
				return
			}
			if changed {
				t.version++
				t.publishSummary()
				t.broadcast()
			}
		}
	}
}

func (t *Table) handle(m Msg) bool {
	switch msg := m.(type) {
	case Subscribe:
		c := &client{playerID: msg.PlayerID, outbox: msg.Outbox}
		t.clients[msg.ConnID] = c
		snap := t.state.Clone()
		t.deliver(msg.ConnID, c, t.snapshotFor(&snap, c.playerID))
		return false

	case Unsubscribe:
		delete(t.clients, msg.ConnID)
		return false

	case FromClient:
		return t.fromClient(msg)

	case timerFired:
		if msg.gen != t.timerGen {
			t.log.Debug("stale timer dropped", zap.String("timer", msg.kind.String()))
			return false
		}
		t.timer = nil
		t.timerKind = timerNone
		t.onTimer(msg.kind)
		return true

	case GetState:
		msg.Reply <- View{
			Version:    t.version,
			NumClients: len(t.clients),
			Timer:      t.timerKind.String(),
			State:      t.state.Clone(),
		}
		return false

	case Shutdown:
		t.teardown(reasonShutdown, "The server is shutting down")
		return false
	}
	return false
}

func (t *Table) fromClient(msg FromClient) bool {
	cmd := msg.Cmd
	err := t.dispatch(msg.ConnID, cmd)
	if err == nil {
		metrics.Metrics.ActionAccepted(string(cmd.Type))
		return true
	}
	if errors.Is(err, engine.ErrShoeExhausted) {
		t.fatal(err)
		return false
	}
	metrics.Metrics.ActionRejected(string(cmd.Type))
	t.log.Debug("action rejected",
		logging.Player(cmd.PlayerID),
		zap.String("action", string(cmd.Type)),
		zap.Error(err))
	t.sendError(msg.ConnID, err.Error())
	return false
}

func (t *Table) dispatch(connID string, cmd engine.Command) error {
	switch cmd.Type {
	case engine.CmdJoin:
		return t.join(cmd.PlayerID, cmd.Name)
	case engine.CmdLeave:
		return t.leave(connID, cmd.PlayerID)
	case engine.CmdStart:
		return t.start(cmd.PlayerID)
	case engine.CmdClose:
		if err := t.state.CanClose(cmd.PlayerID); err != nil {
			return err
		}
		t.teardown(reasonClosed, "The host closed the table")
		return nil
	case engine.CmdDelete:
		if err := t.state.CanDelete(cmd.PlayerID); err != nil {
			return err
		}
		t.teardown(reasonDeleted, "The table was deleted")
		return nil
	}

	if stakes(cmd) {
		if err := t.wager(cmd); err != nil {
			return err
		}
	} else {
		events, err := t.state.Apply(cmd)
		if err != nil {
			return err
		}
		t.commit(events)
	}

	switch cmd.Type {
	case engine.CmdBet:
		if t.state.AllBet() {
			t.closeBetting()
		}
	case engine.CmdInsurance:
		if t.state.InsuranceComplete() {
			t.resolveInsurance()
		}
	default:
		t.afterTurnChange()
	}
	return nil
}

func (t *Table) join(playerID, name string) error {
	// A reconnect only needs the fresh snapshot the broadcast sends.
	if t.state.Player(playerID) != nil {
		return nil
	}
	ctx, cancel := t.callCtx()
	balance, err := t.store.EnsurePlayer(ctx, playerID, name)
	cancel()
	if err != nil {
		t.log.Warn("balance lookup failed", logging.Player(playerID), zap.Error(err))
		return errBalanceUnavailable
	}
	events, err := t.state.Join(playerID, name, balance)
	if err != nil {
		return err
	}
	p := t.state.Player(playerID)
	t.persist("save_seat", func(ctx context.Context) error {
		return t.store.SaveSeat(ctx, t.id, store.RosterEntry{PlayerID: p.ID, Name: p.Name, Seat: p.Seat, Balance: p.Balance})
	})
	t.commit(events)
	return nil
}

func (t *Table) leave(connID, playerID string) error {
	if t.state.IsHost(playerID) && t.state.Player(playerID) != nil {
		t.teardown(reasonHostLeft, "The host left and the table was closed")
		return nil
	}
	cur := t.state.CurrentPlayer()
	wasCurrent := cur != nil && cur.ID == playerID
	deferred, events, err := t.state.Leave(playerID)
	if err != nil {
		return err
	}
	t.commit(events)
	if deferred {
		t.sendError(connID, "You will leave the table when this round ends")
		if wasCurrent && t.state.Phase == engine.PhasePlayerTurn {
			t.afterTurnChange()
		}
		if t.state.Phase == engine.PhaseInsurance && t.state.InsuranceComplete() {
			t.resolveInsurance()
		}
		return nil
	}
	t.persist("remove_seat", func(ctx context.Context) error {
		return t.store.RemoveSeat(ctx, t.id, playerID)
	})
	if len(t.state.Players) == 0 {
		t.teardown(reasonEmpty, "Everyone left the table")
		return nil
	}
	if t.state.Phase == engine.PhaseBetting && t.state.AllBet() {
		t.closeBetting()
	}
	return nil
}

func (t *Table) start(by string) error {
	events, err := t.state.Start(by)
	if err != nil {
		return err
	}
	t.commit(events)
	at := t.now()
	t.persist("mark_started", func(ctx context.Context) error {
		return t.store.MarkStarted(ctx, t.id, at)
	})
	t.enterBetting()
	return nil
}

var errBalanceUnavailable = errors.New("could not load your balance, try again")

func (t *Table) snapshotFor(state *engine.Table, playerID string) Outbound {
	s := view.Project(*state, playerID)
	return Outbound{Type: OutState, Version: t.version, State: &s}
}

// broadcast sends every subscriber its own projection of one immutable
// copy of the state.
func (t *Table) broadcast() {
	snap := t.state.Clone()
	for id, c := range t.clients {
		t.deliver(id, c, t.snapshotFor(&snap, c.playerID))
	}
}

// deliver never blocks the actor. A subscriber whose buffer is full is
// dropped and its outbox closed.
func (t *Table) deliver(connID string, c *client, out Outbound) {
	select {
	case c.outbox <- out:
	default:
		t.log.Info("dropping slow subscriber", logging.Conn(connID))
		close(c.outbox)
		delete(t.clients, connID)
	}
}

func (t *Table) sendError(connID, message string) {
	if c := t.clients[connID]; c != nil {
		t.deliver(connID, c, Outbound{Type: OutError, Message: message})
	}
}

func (t *Table) publishSummary() {
	s := t.state
	t.summary.Store(&Summary{
		ID:         s.ID,
		Name:       s.Settings.Name,
		HostID:     s.HostID,
		Visibility: s.Settings.Visibility,
		Players:    len(s.Players),
		MaxSeats:   s.Settings.MaxSeats,
		MinBet:     s.Settings.MinBet,
		MaxBet:     s.Settings.MaxBet,
		Phase:      s.Phase,
		Round:      s.Round,
	})
}
