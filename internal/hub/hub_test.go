package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/blackjack-backend/internal/engine"
	"github.com/DoyleJ11/blackjack-backend/internal/store"
	"github.com/DoyleJ11/blackjack-backend/internal/table"
)

func newTestHub(t *testing.T) (*Hub, *store.Memory) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	mem := store.NewMemory(1000)
	h := NewHub(ctx, Config{
		Store:   mem,
		Rules:   engine.DefaultRules(),
		NewShoe: func(decks int) *engine.Shoe { return engine.StackedShoe(decks) },
	})
	return h, mem
}

func createRow(t *testing.T, mem *store.Memory, id, host string, created time.Time) {
	t.Helper()
	s := engine.DefaultSettings()
	require.NoError(t, mem.CreateTable(context.Background(), store.TableRecord{
		ID: id, Name: "table " + id, HostID: host, Visibility: s.Visibility,
		MinBet: s.MinBet, MaxBet: s.MaxBet, MaxSeats: s.MaxSeats, CreatedAt: created,
	}))
}

func stateOf(t *testing.T, tb *table.Table) table.View {
	t.Helper()
	reply := make(chan table.View, 1)
	tb.Inbox() <- table.GetState{Reply: reply}
	select {
	case v := <-reply:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for view")
		return table.View{}
	}
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h, _ := newTestHub(t)
	reply := make(chan *table.Table, 1)

	state := engine.NewTable("ZED123", "host", engine.DefaultSettings(), engine.DefaultRules(), engine.StackedShoe(1))
	h.Inbox() <- CreateTable{State: state, Reply: reply}
	tb1 := <-reply

	h.Inbox() <- CreateTable{State: state, Reply: reply}
	tb2 := <-reply

	tb3, err := h.Get(context.Background(), "ZED123")
	require.NoError(t, err)

	require.NotNil(t, tb1)
	assert.Same(t, tb1, tb2)
	assert.Same(t, tb1, tb3)
}

func TestHub_EnsureLoadsRoster(t *testing.T) {
	h, mem := newTestHub(t)
	ctx := context.Background()
	createRow(t, mem, "t1", "host", time.Now())

	_, err := mem.EnsurePlayer(ctx, "host", "Ann")
	require.NoError(t, err)
	_, err = mem.EnsurePlayer(ctx, "guest", "Bob")
	require.NoError(t, err)
	require.NoError(t, mem.DebitBalance(ctx, "guest", 300, ""))
	require.NoError(t, mem.SaveSeat(ctx, "t1", store.RosterEntry{PlayerID: "host", Name: "Ann", Seat: 1}))
	require.NoError(t, mem.SaveSeat(ctx, "t1", store.RosterEntry{PlayerID: "guest", Name: "Bob", Seat: 2}))

	tb, err := h.Ensure(ctx, "t1")
	require.NoError(t, err)
	again, err := h.Ensure(ctx, "t1")
	require.NoError(t, err)
	assert.Same(t, tb, again)

	v := stateOf(t, tb)
	assert.Equal(t, engine.PhaseLobby, v.State.Phase)
	assert.Equal(t, "host", v.State.HostID)
	require.Len(t, v.State.Players, 2)
	assert.Equal(t, "Bob", v.State.Players[1].Name)
	assert.EqualValues(t, 700, v.State.Players[1].Balance)
}

func TestHub_EnsureUnknownTable(t *testing.T) {
	h, _ := newTestHub(t)
	_, err := h.Ensure(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestHub_ForgetsClosedTables(t *testing.T) {
	h, mem := newTestHub(t)
	ctx := context.Background()
	createRow(t, mem, "t1", "host", time.Now())

	tb, err := h.Ensure(ctx, "t1")
	require.NoError(t, err)
	tb.Inbox() <- table.FromClient{Cmd: engine.Command{Type: engine.CmdDelete, PlayerID: "host"}}

	require.Eventually(t, func() bool {
		got, err := h.Get(ctx, "t1")
		return err == nil && got == nil
	}, time.Second, 5*time.Millisecond)

	_, err = h.Ensure(ctx, "t1")
	assert.ErrorIs(t, err, ErrTableNotFound, "deleted tables stay gone")
}

func TestHub_DirectoryMergesLiveTables(t *testing.T) {
	h, mem := newTestHub(t)
	ctx := context.Background()
	now := time.Now()
	createRow(t, mem, "old", "a", now.Add(-time.Minute))
	createRow(t, mem, "new", "b", now)

	tb, err := h.Ensure(ctx, "old")
	require.NoError(t, err)
	out := make(chan table.Outbound, 8)
	tb.Inbox() <- table.Subscribe{ConnID: "c1", PlayerID: "a", Outbox: out}
	tb.Inbox() <- table.FromClient{ConnID: "c1", Cmd: engine.Command{Type: engine.CmdJoin, PlayerID: "a", Name: "Ann"}}
	tb.Inbox() <- table.FromClient{ConnID: "c1", Cmd: engine.Command{Type: engine.CmdStart, PlayerID: "a"}}
	stateOf(t, tb)

	list, err := h.Directory(ctx, 20)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, engine.PhaseLobby, list[0].Phase)
	assert.Equal(t, 0, list[0].Players)
	assert.Equal(t, "old", list[1].ID)
	assert.Equal(t, engine.PhaseBetting, list[1].Phase)
	assert.Equal(t, 1, list[1].Players)
}

func TestHub_ShutdownStopsTables(t *testing.T) {
	h, mem := newTestHub(t)
	ctx := context.Background()
	createRow(t, mem, "t1", "host", time.Now())
	tb, err := h.Ensure(ctx, "t1")
	require.NoError(t, err)

	sctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, h.Shutdown(sctx))

	select {
	case <-tb.Done():
	default:
		t.Fatal("table still running after shutdown")
	}
	rec, _, err := mem.LoadTable(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, rec.Open)
}
