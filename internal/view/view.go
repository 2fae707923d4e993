// Package view turns authoritative table state into what one viewer is
// allowed to see.
package view

import (
	"time"

	"github.com/DoyleJ11/blackjack-backend/internal/engine"
)

type Card struct {
	Suit   engine.Suit `json:"suit,omitempty"`
	Rank   engine.Rank `json:"rank,omitempty"`
	Value  int         `json:"value,omitempty"`
	Hidden bool        `json:"hidden,omitempty"`
}

type Hand struct {
	Cards    []Card        `json:"cards"`
	Value    int           `json:"value"`
	Busted   bool          `json:"isBusted"`
	Standing bool          `json:"isStanding"`
	Bet      int64         `json:"bet"`
	Result   engine.Result `json:"result,omitempty"`
	Payout   int64         `json:"payout"`
}

type Dealer struct {
	Cards  []Card `json:"cards"`
	Value  *int   `json:"value"` // nil while the hole card is down
	Busted bool   `json:"isBusted"`
}

type Player struct {
	ID           string        `json:"id"`
	Name         string        `json:"username"`
	Seat         int           `json:"seatIndex"`
	Balance      *int64        `json:"balance,omitempty"` // owner only
	Bet          int64         `json:"bet"`
	InsuranceBet int64         `json:"insuranceBet"`
	HasBet       bool          `json:"hasBet"`
	SittingOut   bool          `json:"isSittingOut"`
	Leaving      bool          `json:"isLeaving"`
	HasBlackjack bool          `json:"hasBlackjack"`
	HasDoubled   bool          `json:"hasDoubled"`
	IsSplit      bool          `json:"isSplit"`
	Hands        []Hand        `json:"hands"`
	ActiveHand   int           `json:"currentSplitHandIndex"`
	CanDouble    bool          `json:"canDouble"`
	CanSplit     bool          `json:"canSplit"`
	Result       engine.Result `json:"result,omitempty"`
	Payout       int64         `json:"payout"`
	CurrentTurn  bool          `json:"isCurrentTurn"`
}

// Snapshot is one viewer's picture of a table. Deadlines are unix
// milliseconds, zero when no clock is running.
type Snapshot struct {
	TableID         string                 `json:"tableId"`
	Name            string                 `json:"name"`
	Visibility      engine.Visibility      `json:"visibility"`
	Phase           engine.Phase           `json:"phase"`
	Round           int                    `json:"currentRound"`
	MinBet          int64                  `json:"minBet"`
	MaxBet          int64                  `json:"maxBet"`
	MaxSeats        int                    `json:"maxPlayers"`
	HostID          string                 `json:"hostId"`
	BettingEndsAt   int64                  `json:"bettingEndTime"`
	TurnEndsAt      int64                  `json:"turnEndTime"`
	ShoeRemaining   int                    `json:"shoeRemaining"`
	Dealer          Dealer                 `json:"dealer"`
	Players         []Player               `json:"players"`
	CurrentPlayerID string                 `json:"currentPlayerId,omitempty"`
	Log             []engine.LogEntry      `json:"actionLog"`
	DealerHistory   []engine.DealerOutcome `json:"dealerHistory"`

	IsMyTurn      bool                   `json:"isMyTurn"`
	IsHost        bool                   `json:"isHost"`
	MyPlayer      *Player                `json:"myPlayer,omitempty"`
	PlayerHistory []engine.PlayerOutcome `json:"playerHistory"`
}

const (
	maxLog     = 20
	maxHistory = 5
)

// Project builds the snapshot viewerID may see. It never mutates t; callers
// pass a clone taken inside the owning actor.
func Project(t engine.Table, viewerID string) Snapshot {
	s := Snapshot{
		TableID:       t.ID,
		Name:          t.Settings.Name,
		Visibility:    t.Settings.Visibility,
		Phase:         t.Phase,
		Round:         t.Round,
		MinBet:        t.Settings.MinBet,
		MaxBet:        t.Settings.MaxBet,
		MaxSeats:      t.Settings.MaxSeats,
		HostID:        t.HostID,
		BettingEndsAt: millis(t.BettingEndsAt),
		TurnEndsAt:    millis(t.TurnEndsAt),
		Dealer:        projectDealer(t.Dealer, t.Phase),
		Log:           tail(t.Log, maxLog),
		DealerHistory: tail(t.DealerHistory, maxHistory),
		IsHost:        t.IsHost(viewerID),
		PlayerHistory: []engine.PlayerOutcome{},
	}
	if t.Shoe != nil {
		s.ShoeRemaining = t.Shoe.Len()
	}

	var currentID string
	if cur := t.CurrentPlayer(); cur != nil {
		currentID = cur.ID
		s.CurrentPlayerID = cur.ID
	}

	cardsPublic := t.Phase != engine.PhaseLobby && t.Phase != engine.PhaseBetting
	s.Players = make([]Player, 0, len(t.Players))
	for _, p := range t.Players {
		own := p.ID == viewerID
		pv := projectPlayer(p, own || cardsPublic)
		pv.CurrentTurn = p.ID == currentID
		if own {
			bal := p.Balance
			pv.Balance = &bal
			if pv.CurrentTurn {
				pv.CanDouble, pv.CanSplit = t.Options(p.ID)
			}
			mine := pv
			s.MyPlayer = &mine
			s.PlayerHistory = tail(p.History, maxHistory)
		}
		s.Players = append(s.Players, pv)
	}
	s.IsMyTurn = currentID != "" && currentID == viewerID
	return s
}

func projectDealer(d engine.Hand, phase engine.Phase) Dealer {
	reveal := phase == engine.PhaseDealerTurn || phase == engine.PhaseSettlement
	out := Dealer{Cards: make([]Card, 0, len(d.Cards)), Busted: d.Busted}
	for i, c := range d.Cards {
		if i == 1 && !reveal {
			out.Cards = append(out.Cards, Card{Hidden: true})
			continue
		}
		out.Cards = append(out.Cards, card(c))
	}
	if reveal {
		v := d.Value
		out.Value = &v
	}
	return out
}

func projectPlayer(p *engine.Player, showCards bool) Player {
	r := p.Round
	pv := Player{
		ID:           p.ID,
		Name:         p.Name,
		Seat:         p.Seat,
		Bet:          r.Bet,
		InsuranceBet: r.InsuranceBet,
		HasBet:       r.HasBet,
		SittingOut:   p.SittingOut,
		Leaving:      p.Leaving,
		HasBlackjack: r.HasBlackjack,
		HasDoubled:   r.HasDoubled,
		Result:       r.Result,
		Payout:       r.Payout,
		Hands:        []Hand{},
	}
	if sp, ok := r.Play.(*engine.SplitHands); ok {
		pv.IsSplit = true
		pv.ActiveHand = sp.Active
	}
	for _, h := range r.Hands() {
		hv := Hand{Bet: h.Bet, Result: h.Result, Payout: h.Payout, Standing: h.Standing}
		if showCards {
			hv.Value = h.Value
			hv.Busted = h.Busted
			hv.Cards = make([]Card, 0, len(h.Cards))
			for _, c := range h.Cards {
				hv.Cards = append(hv.Cards, card(c))
			}
		} else {
			hv.Cards = make([]Card, len(h.Cards))
			for i := range hv.Cards {
				hv.Cards[i].Hidden = true
			}
		}
		pv.Hands = append(pv.Hands, hv)
	}
	return pv
}

func card(c engine.Card) Card {
	return Card{Suit: c.Suit, Rank: c.Rank, Value: c.Value}
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func tail[T any](list []T, n int) []T {
	if len(list) > n {
		list = list[len(list)-n:]
	}
	out := make([]T, len(list))
	copy(out, list)
	return out
}
