// Package hub is the table registry: one supervising goroutine owns every
// live table actor, creates them on demand and forgets them once they stop.
package hub

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/blackjack-backend/internal/engine"
	"github.com/DoyleJ11/blackjack-backend/internal/logging"
	"github.com/DoyleJ11/blackjack-backend/internal/metrics"
	"github.com/DoyleJ11/blackjack-backend/internal/store"
	"github.com/DoyleJ11/blackjack-backend/internal/table"
)

var ErrTableNotFound = errors.New("table not found")

type HubMsg interface{ isHubMsg() }

// CreateTable starts an actor for State unless one already runs under the
// same id, in which case the existing actor is returned.
type CreateTable struct {
	State engine.Table
	Reply chan *table.Table
}

type GetTable struct {
	ID    string
	Reply chan *table.Table // nil when not live
}

// RemoveTable forgets Table. A newer actor registered under the same id is
// left alone.
type RemoveTable struct {
	ID    string
	Table *table.Table
}

type ListTables struct {
	Reply chan []table.Summary
}

// ShutdownHub stops every table. Done is closed once all of them have
// finished tearing down.
type ShutdownHub struct {
	Done chan struct{}
}

func (CreateTable) isHubMsg() {}
func (GetTable) isHubMsg()    {}
func (RemoveTable) isHubMsg() {}
func (ListTables) isHubMsg()  {}
func (ShutdownHub) isHubMsg() {}

type Config struct {
	Store  store.Store
	Rules  engine.Rules
	Logger *zap.Logger
	// NewShoe builds the shoe for a hydrated table. Defaults to a shuffled
	// shoe.
	NewShoe     func(decks int) *engine.Shoe
	CallTimeout time.Duration
}

type Hub struct {
	inbox  chan HubMsg
	tables map[string]*table.Table
	cfg    Config
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, cfg Config) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.NewShoe == nil {
		cfg.NewShoe = func(decks int) *engine.Shoe { return engine.NewShoe(decks, nil) }
	}
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		tables: make(map[string]*table.Table),
		cfg:    cfg,
		log:    cfg.Logger,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateTable:
				if tb := h.tables[msg.State.ID]; tb != nil {
					msg.Reply <- tb
					break
				}
				tb := table.New(h.ctx, msg.State, table.Deps{
					Store:       h.cfg.Store,
					Logger:      h.log,
					OnClosed:    h.forget,
					CallTimeout: h.cfg.CallTimeout,
				})
				h.tables[msg.State.ID] = tb
				h.log.Info("table opened", logging.Table(msg.State.ID), zap.Int("players", len(msg.State.Players)))
				msg.Reply <- tb

			case GetTable:
				msg.Reply <- h.tables[msg.ID]

			case RemoveTable:
				if h.tables[msg.ID] == msg.Table {
					delete(h.tables, msg.ID)
					h.log.Info("table removed", logging.Table(msg.ID))
				}

			case ListTables:
				out := make([]table.Summary, 0, len(h.tables))
				for _, tb := range h.tables {
					out = append(out, tb.Summary())
				}
				msg.Reply <- out

			case ShutdownHub:
				live := make([]*table.Table, 0, len(h.tables))
				for _, tb := range h.tables {
					tb.Send(table.Shutdown{})
					live = append(live, tb)
				}
				clear(h.tables)
				go func() {
					for _, tb := range live {
						<-tb.Done()
					}
					close(msg.Done)
				}()
				h.cancel()
			}
			metrics.Metrics.SetActiveTables(len(h.tables))
		}
	}
}

// forget runs on the closing table's goroutine.
func (h *Hub) forget(tb *table.Table) {
	select {
	case h.inbox <- RemoveTable{ID: tb.ID(), Table: tb}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) send(ctx context.Context, m HubMsg) error {
	select {
	case h.inbox <- m:
		return nil
	case <-h.ctx.Done():
		return h.ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) Get(ctx context.Context, id string) (*table.Table, error) {
	reply := make(chan *table.Table, 1)
	if err := h.send(ctx, GetTable{ID: id, Reply: reply}); err != nil {
		return nil, err
	}
	return recv(ctx, h.ctx.Done(), reply)
}

// Ensure returns the live actor for id, loading the table and its seated
// players from the store when it is not running yet.
func (h *Hub) Ensure(ctx context.Context, id string) (*table.Table, error) {
	if tb, err := h.Get(ctx, id); err != nil || tb != nil {
		return tb, err
	}

	rec, roster, err := h.cfg.Store.LoadTable(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTableNotFound
	}
	if err != nil {
		return nil, err
	}

	state := engine.NewTable(rec.ID, rec.HostID, rec.Settings(), h.cfg.Rules, h.cfg.NewShoe(h.cfg.Rules.Decks))
	for _, e := range roster {
		if _, err := state.Join(e.PlayerID, e.Name, e.Balance); err != nil {
			h.log.Warn("dropping seat on load", logging.Table(id), logging.Player(e.PlayerID), zap.Error(err))
		}
	}

	reply := make(chan *table.Table, 1)
	if err := h.send(ctx, CreateTable{State: state, Reply: reply}); err != nil {
		return nil, err
	}
	return recv(ctx, h.ctx.Done(), reply)
}

// Live returns the summaries of every running table.
func (h *Hub) Live(ctx context.Context) ([]table.Summary, error) {
	reply := make(chan []table.Summary, 1)
	if err := h.send(ctx, ListTables{Reply: reply}); err != nil {
		return nil, err
	}
	return recv(ctx, h.ctx.Done(), reply)
}

// Shutdown stops every table and waits for them, or for ctx.
func (h *Hub) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	if err := h.send(ctx, ShutdownHub{Done: done}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func recv[T any](ctx context.Context, stopped <-chan struct{}, ch <-chan T) (T, error) {
	var zero T
	select {
	case v := <-ch:
		return v, nil
	case <-stopped:
		return zero, context.Canceled
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
