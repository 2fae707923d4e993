// Package store is the persistence side of the table server: player
// balances and statistics, table rows, seat rosters and round history.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/DoyleJ11/blackjack-backend/internal/engine"
)

var ErrNotFound = errors.New("not found")
var ErrInsufficientFunds = errors.New("insufficient funds")

// Ledger owns player balances and per-round records.
type Ledger interface {
	// EnsurePlayer returns the player's balance, creating the account with
	// the starting balance if it does not exist yet.
	EnsurePlayer(ctx context.Context, playerID, name string) (int64, error)
	Balance(ctx context.Context, playerID string) (int64, error)
	// DebitBalance and CreditBalance move money. A non-empty key makes the
	// movement apply at most once; repeating a key is a successful no-op.
	DebitBalance(ctx context.Context, playerID string, amount int64, key string) error
	CreditBalance(ctx context.Context, playerID string, amount int64, key string) error
	// RecordRoundOutcome stores the round and folds it into the player's
	// statistics in one step. It does not move money.
	RecordRoundOutcome(ctx context.Context, rec RoundRecord) error
}

// Tables owns table rows, seat rosters and the public directory.
type Tables interface {
	CreateTable(ctx context.Context, rec TableRecord) error
	LoadTable(ctx context.Context, tableID string) (TableRecord, []RosterEntry, error)
	SaveSeat(ctx context.Context, tableID string, e RosterEntry) error
	RemoveSeat(ctx context.Context, tableID, playerID string) error
	MarkStarted(ctx context.Context, tableID string, at time.Time) error
	PersistTableClosed(ctx context.Context, tableID string, at time.Time) error
	DeleteTable(ctx context.Context, tableID string) error
	// ListOpenTables returns public open tables, newest first.
	ListOpenTables(ctx context.Context, limit int) ([]TableRecord, error)
}

type Store interface {
	Ledger
	Tables
}

type TableRecord struct {
	ID         string
	Name       string
	HostID     string
	HostName   string
	Visibility engine.Visibility
	MinBet     int64
	MaxBet     int64
	MaxSeats   int
	Open       bool
	Seated     int
	CreatedAt  time.Time
	StartedAt  *time.Time
}

// Settings converts the row into engine table settings.
func (r TableRecord) Settings() engine.Settings {
	return engine.Settings{
		Name:       r.Name,
		Visibility: r.Visibility,
		MinBet:     r.MinBet,
		MaxBet:     r.MaxBet,
		MaxSeats:   r.MaxSeats,
	}
}

type RosterEntry struct {
	PlayerID string
	Name     string
	Seat     int
	Balance  int64
}

// RoundRecord is one player's settled round. Bet is the total wagered
// across hands and insurance.
type RoundRecord struct {
	PlayerID    string
	TableID     string
	Round       int
	Bet         int64
	Result      engine.Result
	Payout      int64
	Net         int64
	Blackjack   bool
	PlayerCards [][]engine.Card
	PlayerValue int
	DealerCards []engine.Card
	DealerValue int
}

// Won reports whether the round counts as a win in the statistics.
func (r RoundRecord) Won() bool {
	return r.Result == engine.ResultWin || r.Result == engine.ResultBlackjack
}

// Stats are the lifetime counters kept per player.
type Stats struct {
	GamesPlayed    int
	GamesWon       int
	TotalWinnings  int64
	TotalLosses    int64
	BlackjackCount int
	CurrentStreak  int
	BestStreak     int
}

// apply folds one round into the counters.
func (s *Stats) apply(rec RoundRecord) {
	s.GamesPlayed++
	if rec.Blackjack {
		s.BlackjackCount++
	}
	switch {
	case rec.Won():
		s.GamesWon++
		s.TotalWinnings += rec.Net
		s.CurrentStreak++
		s.BestStreak = max(s.BestStreak, s.CurrentStreak)
	case rec.Result == engine.ResultLose:
		s.TotalLosses += rec.Bet
		s.CurrentStreak = 0
	default:
		s.CurrentStreak = 0
	}
}
