package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/DoyleJ11/blackjack-backend/internal/auth"
	"github.com/DoyleJ11/blackjack-backend/internal/engine"
	"github.com/DoyleJ11/blackjack-backend/internal/hub"
	"github.com/DoyleJ11/blackjack-backend/internal/logging"
	"github.com/DoyleJ11/blackjack-backend/internal/metrics"
	"github.com/DoyleJ11/blackjack-backend/internal/table"
	"github.com/DoyleJ11/blackjack-backend/internal/types"
)

type Config struct {
	Logger *zap.Logger
	// MsgsPerSec caps inbound events per connection; the burst is the same.
	MsgsPerSec     float64
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	OriginPatterns []string
}

var errTableGone = errors.New("table closed")

func Handler(h *hub.Hub, verifier *auth.Verifier, cfg Config) http.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.MsgsPerSec <= 0 {
		cfg.MsgsPerSec = 10
	}
	if cfg.PingInterval <= 0 {
		cfg.PingInterval = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 3 * time.Second
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := verifier.Verify(auth.TokenFromRequest(r))
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		tableID := r.URL.Query().Get("table")
		if tableID == "" {
			http.Error(w, "missing table", http.StatusBadRequest)
			return
		}

		tb, err := h.Ensure(r.Context(), tableID)
		if errors.Is(err, hub.ErrTableNotFound) {
			http.Error(w, "table not found", http.StatusNotFound)
			return
		}
		if err != nil {
			cfg.Logger.Warn("table lookup failed", logging.Table(tableID), zap.Error(err))
			http.Error(w, "table unavailable", http.StatusServiceUnavailable)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: cfg.OriginPatterns})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		connID := uuid.NewString()
		log := cfg.Logger.With(logging.Conn(connID), logging.Table(tableID), logging.Player(id.PlayerID))
		metrics.Metrics.ConnectionOpened()
		defer metrics.Metrics.ConnectionClosed()
		log.Debug("connection opened")

		out := make(chan table.Outbound, 16)
		if !tb.Send(table.Subscribe{ConnID: connID, PlayerID: id.PlayerID, Outbox: out}) {
			conn.Close(websocket.StatusGoingAway, "table closed")
			return
		}
		defer tb.Send(table.Unsubscribe{ConnID: connID})
		tb.Send(table.FromClient{ConnID: connID, Cmd: engine.Command{Type: engine.CmdJoin, PlayerID: id.PlayerID, Name: id.Name}})

		s := &session{conn: conn, tb: tb, connID: connID, id: id, cfg: cfg, log: log}
		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error { return s.writeLoop(ctx, out) })
		g.Go(func() error { return s.keepAlive(ctx) })
		// The reader stops when the conn is closed, not when ctx is.
		g.Go(func() error { return s.readLoop(r.Context()) })

		err = g.Wait()
		switch {
		case errors.Is(err, errTableGone),
			websocket.CloseStatus(err) == websocket.StatusNormalClosure,
			websocket.CloseStatus(err) == websocket.StatusGoingAway:
		default:
			log.Debug("connection ended", zap.Error(err))
		}
	}
}

type session struct {
	conn   *websocket.Conn
	tb     *table.Table
	connID string
	id     auth.Identity
	cfg    Config
	log    *zap.Logger
}

// writeLoop forwards the table's messages until the table drops the
// subscriber by closing out.
func (s *session) writeLoop(ctx context.Context, out <-chan table.Outbound) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case o, ok := <-out:
			if !ok {
				s.conn.Close(websocket.StatusNormalClosure, "table closed")
				return errTableGone
			}
			msg := types.ServerMessage{Type: o.Type, Version: o.Version, State: o.State, Message: o.Message}
			if err := s.write(ctx, msg); err != nil {
				s.conn.Close(websocket.StatusInternalError, "write failed")
				return err
			}
		}
	}
}

func (s *session) write(ctx context.Context, msg types.ServerMessage) error {
	wctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	return wsjson.Write(wctx, s.conn, msg)
}

func (s *session) keepAlive(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, s.cfg.PingInterval/2)
			err := s.conn.Ping(pctx)
			cancel()
			if err != nil {
				s.conn.Close(websocket.StatusGoingAway, "ping timeout")
				return err
			}
		}
	}
}

func (s *session) readLoop(ctx context.Context) error {
	limiter := rate.NewLimiter(rate.Limit(s.cfg.MsgsPerSec), max(1, int(s.cfg.MsgsPerSec)))
	for {
		_, data, err := s.conn.Read(ctx)
		if err != nil {
			return err
		}
		if !limiter.Allow() {
			s.reject(ctx, "too many messages, slow down")
			continue
		}

		var cm types.ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			s.reject(ctx, "bad json")
			continue
		}
		cmd, ok := toEngineCommand(cm, s.id)
		if !ok {
			s.reject(ctx, "unknown type")
			continue
		}
		if !s.tb.Send(table.FromClient{ConnID: s.connID, Cmd: cmd}) {
			return errTableGone
		}
	}
}

func (s *session) reject(ctx context.Context, message string) {
	if err := s.write(ctx, types.ServerMessage{Type: table.OutError, Message: message}); err != nil {
		s.log.Debug("error reply failed", zap.Error(err))
	}
}

func toEngineCommand(m types.ClientMessage, id auth.Identity) (engine.Command, bool) {
	cmd := engine.Command{PlayerID: id.PlayerID, Name: id.Name}
	switch m.Type {
	case types.TableJoin:
		cmd.Type = engine.CmdJoin
	case types.TableLeave:
		cmd.Type = engine.CmdLeave
	case types.TableStart:
		cmd.Type = engine.CmdStart
	case types.TableClose:
		cmd.Type = engine.CmdClose
	case types.TableDelete:
		cmd.Type = engine.CmdDelete
	case types.TableBet:
		cmd.Type = engine.CmdBet
		cmd.Amount = m.Amount
	case types.TableHit:
		cmd.Type = engine.CmdHit
	case types.TableStand:
		cmd.Type = engine.CmdStand
	case types.TableDouble:
		cmd.Type = engine.CmdDouble
	case types.TableSplit:
		cmd.Type = engine.CmdSplit
	case types.TableInsurance:
		cmd.Type = engine.CmdInsurance
		cmd.Take = m.TakeInsurance
	default:
		return engine.Command{}, false
	}
	return cmd, true
}
