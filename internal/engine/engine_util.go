package engine

import (
	"fmt"
	"slices"
	"time"
)

func NewTable(id, hostID string, settings Settings, rules Rules, shoe *Shoe) Table {
	if shoe == nil {
		shoe = NewShoe(rules.Decks, nil)
	}
	return Table{
		ID:       id,
		HostID:   hostID,
		Settings: settings,
		Rules:    rules,
		Phase:    PhaseLobby,
		Shoe:     shoe,
		Current:  -1,
	}
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}

func (t *Table) Player(id string) *Player {
	for _, p := range t.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Active returns the players who wagered this round, in seat order.
func (t *Table) Active() []*Player {
	active := make([]*Player, 0, len(t.Players))
	for _, p := range t.Players {
		if p.Round.Active {
			active = append(active, p)
		}
	}
	return active
}

// CurrentPlayer is the player whose turn it is, or nil.
func (t *Table) CurrentPlayer() *Player {
	if t.Phase != PhasePlayerTurn {
		return nil
	}
	active := t.Active()
	if t.Current < 0 || t.Current >= len(active) {
		return nil
	}
	return active[t.Current]
}

// TurnsDone reports that no player is left to act this round.
func (t *Table) TurnsDone() bool { return t.CurrentPlayer() == nil }

func (t *Table) IsHost(playerID string) bool { return t.HostID == playerID }

// Clone deep-copies the table so it can be read outside the owning actor.
func (t *Table) Clone() Table {
	c := *t
	c.Shoe = t.Shoe.clone()
	c.Dealer = t.Dealer.clone()
	c.Players = make([]*Player, len(t.Players))
	for i, p := range t.Players {
		cp := *p
		cp.History = slices.Clone(p.History)
		cp.Round.Play = clonePlay(p.Round.Play)
		c.Players[i] = &cp
	}
	c.Log = slices.Clone(t.Log)
	c.DealerHistory = make([]DealerOutcome, len(t.DealerHistory))
	for i, d := range t.DealerHistory {
		d.Cards = slices.Clone(d.Cards)
		c.DealerHistory[i] = d
	}
	return c
}

func clonePlay(p Play) Play {
	switch v := p.(type) {
	case *SingleHand:
		return &SingleHand{Hand: v.Hand.clone()}
	case *SplitHands:
		return &SplitHands{Hands: [2]Hand{v.Hands[0].clone(), v.Hands[1].clone()}, Active: v.Active}
	}
	return nil
}

// Record appends log entries for events, keeping the last 20.
func (t *Table) Record(now time.Time, events []Event) {
	for _, e := range events {
		entry, ok := describe(e)
		if !ok {
			continue
		}
		entry.Timestamp = now
		t.Log = append(t.Log, entry)
	}
	if over := len(t.Log) - maxLogEntries; over > 0 {
		t.Log = slices.Clone(t.Log[over:])
	}
}

const dealerName = "Dealer"

func describe(e Event) (LogEntry, bool) {
	prefix := ""
	if e.Hand > 0 {
		prefix = fmt.Sprintf("hand %d: ", e.Hand)
	}
	entry := LogEntry{Player: e.Player, Action: string(e.Type)}
	switch e.Type {
	case EvtPlayerJoined:
		entry.Details = "joined the table"
	case EvtPlayerLeft:
		entry.Details = "left the table"
	case EvtLeaveDeferred:
		entry.Details = "will leave after this round"
	case EvtGameStarted:
		entry.Details = "started the game"
	case EvtRoundStarted:
		entry.Details = fmt.Sprintf("round %d, bets are open", e.Value)
	case EvtShoeShuffled:
		entry.Details = "the shoe was shuffled"
	case EvtBetPlaced:
		entry.Details = fmt.Sprintf("bets $%d", e.Amount)
	case EvtSatOut:
		entry.Details = "sits out this round"
	case EvtNoBets:
		entry.Details = "no bets, starting a new round"
	case EvtCardsDealt:
		entry.Details = "dealing cards"
	case EvtBlackjack:
		entry.Details = "BLACKJACK!"
	case EvtInsuranceOffered:
		entry.Player = dealerName
		entry.Details = "shows an ace, insurance is open"
	case EvtInsuranceTaken:
		entry.Details = fmt.Sprintf("takes insurance for $%d", e.Amount)
	case EvtInsuranceRefused:
		entry.Details = "declines insurance"
	case EvtInsurancePaid:
		entry.Details = fmt.Sprintf("wins $%d on insurance", e.Amount)
	case EvtInsuranceLost:
		entry.Details = fmt.Sprintf("loses $%d insurance", e.Amount)
	case EvtDealerBlackjack:
		entry.Player = dealerName
		entry.Details = "has BLACKJACK"
	case EvtTurnStarted:
		entry.Details = prefix + "to act"
	case EvtHit:
		entry.Details = fmt.Sprintf("%sdraws %s (%d)", prefix, e.Card, e.Value)
	case EvtStood:
		entry.Details = fmt.Sprintf("%sstands on %d", prefix, e.Value)
	case EvtBusted:
		entry.Details = fmt.Sprintf("%sBUST (%d)", prefix, e.Value)
	case EvtDoubled:
		entry.Details = fmt.Sprintf("doubles and draws %s (%d)", e.Card, e.Value)
	case EvtSplit:
		entry.Details = "splits into two hands"
	case EvtTimedOut:
		entry.Details = prefix + "ran out of time and stands"
	case EvtDealerRevealed:
		entry.Player = dealerName
		entry.Details = fmt.Sprintf("reveals %s (%d)", e.Card, e.Value)
	case EvtDealerHit:
		entry.Player = dealerName
		entry.Details = fmt.Sprintf("draws %s (%d)", e.Card, e.Value)
	case EvtDealerStood:
		entry.Player = dealerName
		entry.Details = fmt.Sprintf("stands on %d", e.Value)
	case EvtDealerBusted:
		entry.Player = dealerName
		entry.Details = fmt.Sprintf("BUST (%d)", e.Value)
	case EvtSettled:
		entry.Details = fmt.Sprintf("%s, paid $%d", e.Result, e.Amount)
	case EvtRefunded:
		entry.Details = fmt.Sprintf("refunded $%d", e.Amount)
	default:
		return LogEntry{}, false
	}
	return entry, true
}
