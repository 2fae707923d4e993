package hub

import (
	"context"
	"time"

	"github.com/DoyleJ11/blackjack-backend/internal/engine"
)

// Listing is one row of the public table directory.
type Listing struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	HostID    string       `json:"hostId"`
	HostName  string       `json:"hostName"`
	Players   int          `json:"currentPlayers"`
	MaxSeats  int          `json:"maxPlayers"`
	MinBet    int64        `json:"minBet"`
	MaxBet    int64        `json:"maxBet"`
	Phase     engine.Phase `json:"phase"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Directory lists open public tables, newest first. Occupancy and phase
// come from the running actor when there is one.
func (h *Hub) Directory(ctx context.Context, limit int) ([]Listing, error) {
	recs, err := h.cfg.Store.ListOpenTables(ctx, limit)
	if err != nil {
		return nil, err
	}
	live, err := h.Live(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]int, len(live))
	for i, s := range live {
		byID[s.ID] = i
	}

	out := make([]Listing, 0, len(recs))
	for _, r := range recs {
		l := Listing{
			ID:        r.ID,
			Name:      r.Name,
			HostID:    r.HostID,
			HostName:  r.HostName,
			Players:   r.Seated,
			MaxSeats:  r.MaxSeats,
			MinBet:    r.MinBet,
			MaxBet:    r.MaxBet,
			Phase:     engine.PhaseLobby,
			CreatedAt: r.CreatedAt,
		}
		if i, ok := byID[r.ID]; ok {
			l.Players = live[i].Players
			l.Phase = live[i].Phase
		}
		out = append(out, l)
	}
	return out, nil
}
