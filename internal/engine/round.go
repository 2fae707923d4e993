package engine

import "time"

// OpenBetting starts a new round: players who left mid-round are released,
// every remaining player gets a fresh Round, and the shoe is rebuilt when
// it runs low.
func (t *Table) OpenBetting() []Event {
	var events []Event
	kept := t.Players[:0]
	for _, p := range t.Players {
		if p.Leaving {
			events = append(events, Event{Type: EvtPlayerLeft, PlayerID: p.ID, Player: p.Name})
			continue
		}
		kept = append(kept, p)
	}
	t.Players = kept

	t.Phase = PhaseBetting
	t.Round++
	t.Current = -1
	t.Dealer = Hand{}
	t.TurnEndsAt = time.Time{}
	for _, p := range t.Players {
		p.Round = Round{}
		p.SittingOut = false
	}
	if t.Shoe.Len() < t.Rules.ReshuffleBelow {
		t.Shoe.Reshuffle()
		events = append(events, Event{Type: EvtShoeShuffled})
	}
	return append(events, Event{Type: EvtRoundStarted, Value: t.Round})
}

// AllBet reports whether every seated player has placed a bet.
func (t *Table) AllBet() bool {
	if len(t.Players) == 0 {
		return false
	}
	for _, p := range t.Players {
		if !p.Round.HasBet {
			return false
		}
	}
	return true
}

// CloseBetting sits out everyone who did not bet and fixes the round's
// active players. ok is false when nobody bet.
func (t *Table) CloseBetting() (ok bool, events []Event) {
	for _, p := range t.Players {
		if p.Round.HasBet {
			p.Round.Active = true
			ok = true
			continue
		}
		p.SittingOut = true
		events = append(events, Event{Type: EvtSatOut, PlayerID: p.ID, Player: p.Name})
	}
	if !ok {
		events = append(events, Event{Type: EvtNoBets})
	}
	return ok, events
}

// Deal gives two cards to every active player and the dealer, round-robin,
// and stands any player holding blackjack.
func (t *Table) Deal() ([]Event, error) {
	t.Phase = PhaseDealing
	active := t.Active()
	events := []Event{{Type: EvtCardsDealt}}
	for pass := 0; pass < 2; pass++ {
		for _, p := range active {
			c, err := t.Shoe.Draw()
			if err != nil {
				return events, err
			}
			h, _ := p.Round.activeHand()
			h.Add(c)
		}
		c, err := t.Shoe.Draw()
		if err != nil {
			return events, err
		}
		t.Dealer.Add(c)
	}
	for _, p := range active {
		h, _ := p.Round.activeHand()
		if IsBlackjack(h.Cards) {
			p.Round.HasBlackjack = true
			h.Standing = true
			events = append(events, Event{Type: EvtBlackjack, PlayerID: p.ID, Player: p.Name, Value: h.Value})
		}
	}
	return events, nil
}

// DealerShowsAce reports whether the dealer's up-card is an ace.
func (t *Table) DealerShowsAce() bool {
	return len(t.Dealer.Cards) > 0 && t.Dealer.Cards[0].IsAce()
}

func (t *Table) OpenInsurance() []Event {
	t.Phase = PhaseInsurance
	return []Event{{Type: EvtInsuranceOffered}}
}

// InsuranceComplete reports whether every active player has decided.
func (t *Table) InsuranceComplete() bool {
	for _, p := range t.Active() {
		if !p.Round.InsuranceDecided {
			return false
		}
	}
	return true
}

// ResolveInsurance declines for anyone still undecided, then pays insurance
// 2:1 if the dealer holds blackjack or forfeits it otherwise.
func (t *Table) ResolveInsurance() (dealerBlackjack bool, events []Event) {
	dealerBlackjack = IsBlackjack(t.Dealer.Cards)
	for _, p := range t.Active() {
		if !p.Round.InsuranceDecided {
			p.Round.InsuranceDecided = true
			events = append(events, Event{Type: EvtInsuranceRefused, PlayerID: p.ID, Player: p.Name})
		}
		if p.Round.InsuranceBet == 0 {
			continue
		}
		if dealerBlackjack {
			payout := p.Round.InsuranceBet * 3
			p.Round.InsurancePayout = payout
			p.Balance += payout
			events = append(events, Event{Type: EvtInsurancePaid, PlayerID: p.ID, Player: p.Name, Amount: payout})
		} else {
			events = append(events, Event{Type: EvtInsuranceLost, PlayerID: p.ID, Player: p.Name, Amount: p.Round.InsuranceBet})
		}
	}
	if dealerBlackjack {
		events = append(events, Event{Type: EvtDealerBlackjack})
	}
	return dealerBlackjack, events
}

// BeginTurns enters player_turn and points at the first player to act.
func (t *Table) BeginTurns() []Event {
	t.Phase = PhasePlayerTurn
	t.Current = -1
	return t.advance()
}

// TimeoutCurrent stands the hand whose turn clock ran out and moves on.
func (t *Table) TimeoutCurrent() []Event {
	p := t.CurrentPlayer()
	if p == nil {
		return nil
	}
	h, n := p.Round.activeHand()
	if h == nil || h.Done() {
		return t.advance()
	}
	h.Standing = true
	events := []Event{{Type: EvtTimedOut, PlayerID: p.ID, Player: p.Name, Hand: n, Value: h.Value}}
	return append(events, t.advance()...)
}

// RevealDealer enters dealer_turn and turns the hole card over.
func (t *Table) RevealDealer() []Event {
	t.Phase = PhaseDealerTurn
	t.Current = -1
	e := Event{Type: EvtDealerRevealed, Value: t.Dealer.Value}
	if len(t.Dealer.Cards) > 1 {
		c := t.Dealer.Cards[1]
		e.Card = &c
	}
	return []Event{e}
}

// DealerNeedsCard reports whether the dealer must draw again.
func (t *Table) DealerNeedsCard() bool {
	return !t.Dealer.Busted && t.Dealer.Value < DealerStandsOn
}

// DealerStep draws one card if the dealer is under 17. done is true once
// the dealer stands or busts.
func (t *Table) DealerStep() (done bool, events []Event, err error) {
	if t.DealerNeedsCard() {
		c, err := t.Shoe.Draw()
		if err != nil {
			return false, nil, err
		}
		t.Dealer.Add(c)
		events = append(events, Event{Type: EvtDealerHit, Card: &c, Value: t.Dealer.Value})
	}
	if t.DealerNeedsCard() {
		return false, events, nil
	}
	if t.Dealer.Busted {
		events = append(events, Event{Type: EvtDealerBusted, Value: t.Dealer.Value})
	} else {
		events = append(events, Event{Type: EvtDealerStood, Value: t.Dealer.Value})
	}
	return true, events, nil
}

// Settle pays out every active player, records histories and enters
// settlement.
func (t *Table) Settle() ([]Settlement, []Event) {
	t.Phase = PhaseSettlement
	t.Current = -1
	t.DealerHistory = appendBounded(t.DealerHistory, DealerOutcome{
		Cards:  append([]Card(nil), t.Dealer.Cards...),
		Value:  t.Dealer.Value,
		Busted: t.Dealer.Busted,
	})

	var settlements []Settlement
	var events []Event
	for _, p := range t.Active() {
		s := SettleRound(p.ID, p.Round, t.Dealer)
		for i, h := range p.Round.Hands() {
			h.Result = s.Hands[i].Result
			h.Payout = s.Hands[i].Payout
		}
		p.Round.Result = s.Result
		p.Round.Payout = s.Payout
		p.Balance += s.Payout
		p.History = appendBounded(p.History, PlayerOutcome{Round: t.Round, Result: s.Result, Net: s.Net})
		settlements = append(settlements, s)
		events = append(events, Event{Type: EvtSettled, PlayerID: p.ID, Player: p.Name, Amount: s.Payout, Result: s.Result})
	}
	return settlements, events
}

func appendBounded[T any](list []T, v T) []T {
	list = append(list, v)
	if over := len(list) - maxHistory; over > 0 {
		list = append([]T(nil), list[over:]...)
	}
	return list
}
