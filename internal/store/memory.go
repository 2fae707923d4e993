package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/DoyleJ11/blackjack-backend/internal/engine"
)

const DefaultStartingBalance = 1000

type account struct {
	name    string
	balance int64
	stats   Stats
}

// Memory keeps everything in process. It backs local runs and tests.
type Memory struct {
	mu              sync.Mutex
	startingBalance int64
	accounts        map[string]*account
	tables          map[string]*TableRecord
	seats           map[string]map[string]RosterEntry
	history         []RoundRecord
	applied         map[string]struct{}
}

func NewMemory(startingBalance int64) *Memory {
	if startingBalance <= 0 {
		startingBalance = DefaultStartingBalance
	}
	return &Memory{
		startingBalance: startingBalance,
		accounts:        make(map[string]*account),
		tables:          make(map[string]*TableRecord),
		seats:           make(map[string]map[string]RosterEntry),
		applied:         make(map[string]struct{}),
	}
}

func (m *Memory) EnsurePlayer(_ context.Context, playerID, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[playerID]
	if !ok {
		a = &account{name: name, balance: m.startingBalance}
		m.accounts[playerID] = a
	}
	return a.balance, nil
}

func (m *Memory) Balance(_ context.Context, playerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[playerID]
	if !ok {
		return 0, ErrNotFound
	}
	return a.balance, nil
}

func (m *Memory) DebitBalance(_ context.Context, playerID string, amount int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen(key) {
		return nil
	}
	a, ok := m.accounts[playerID]
	if !ok {
		return ErrNotFound
	}
	if a.balance < amount {
		return ErrInsufficientFunds
	}
	a.balance -= amount
	m.markApplied(key)
	return nil
}

func (m *Memory) CreditBalance(_ context.Context, playerID string, amount int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen(key) {
		return nil
	}
	a, ok := m.accounts[playerID]
	if !ok {
		return ErrNotFound
	}
	a.balance += amount
	m.markApplied(key)
	return nil
}

func (m *Memory) seen(key string) bool {
	_, ok := m.applied[key]
	return key != "" && ok
}

func (m *Memory) markApplied(key string) {
	if key != "" {
		m.applied[key] = struct{}{}
	}
}

func (m *Memory) RecordRoundOutcome(_ context.Context, rec RoundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[rec.PlayerID]
	if !ok {
		return ErrNotFound
	}
	a.stats.apply(rec)
	m.history = append(m.history, rec)
	return nil
}

// Stats returns a copy of the player's counters.
func (m *Memory) Stats(playerID string) (Stats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[playerID]
	if !ok {
		return Stats{}, false
	}
	return a.stats, true
}

// History returns the recorded rounds for a table in insertion order.
func (m *Memory) History(tableID string) []RoundRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []RoundRecord
	for _, r := range m.history {
		if r.TableID == tableID {
			out = append(out, r)
		}
	}
	return out
}

func (m *Memory) CreateTable(_ context.Context, rec TableRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.Open = true
	if a, ok := m.accounts[rec.HostID]; ok && rec.HostName == "" {
		rec.HostName = a.name
	}
	m.tables[rec.ID] = &rec
	return nil
}

func (m *Memory) LoadTable(_ context.Context, tableID string) (TableRecord, []RosterEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableID]
	if !ok || !t.Open {
		return TableRecord{}, nil, ErrNotFound
	}
	roster := make([]RosterEntry, 0, len(m.seats[tableID]))
	for _, e := range m.seats[tableID] {
		if a, ok := m.accounts[e.PlayerID]; ok {
			e.Balance = a.balance
			e.Name = a.name
		}
		roster = append(roster, e)
	}
	sort.Slice(roster, func(i, j int) bool { return roster[i].Seat < roster[j].Seat })
	rec := *t
	rec.Seated = len(roster)
	return rec, roster, nil
}

func (m *Memory) SaveSeat(_ context.Context, tableID string, e RosterEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[tableID]; !ok {
		return ErrNotFound
	}
	if m.seats[tableID] == nil {
		m.seats[tableID] = make(map[string]RosterEntry)
	}
	if _, ok := m.seats[tableID][e.PlayerID]; ok {
		return nil
	}
	m.seats[tableID][e.PlayerID] = e
	return nil
}

func (m *Memory) RemoveSeat(_ context.Context, tableID, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.seats[tableID], playerID)
	return nil
}

func (m *Memory) MarkStarted(_ context.Context, tableID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableID]
	if !ok {
		return ErrNotFound
	}
	t.StartedAt = &at
	return nil
}

func (m *Memory) PersistTableClosed(_ context.Context, tableID string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[tableID]
	if !ok {
		return ErrNotFound
	}
	t.Open = false
	return nil
}

func (m *Memory) DeleteTable(_ context.Context, tableID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tables, tableID)
	delete(m.seats, tableID)
	return nil
}

func (m *Memory) ListOpenTables(_ context.Context, limit int) ([]TableRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []TableRecord
	for _, t := range m.tables {
		if !t.Open || t.Visibility != engine.VisibilityPublic {
			continue
		}
		rec := *t
		rec.Seated = len(m.seats[t.ID])
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
