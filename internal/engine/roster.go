package engine

import "sort"

// Join seats a player at the lowest free seat. Joining twice is a no-op.
func (t *Table) Join(id, name string, balance int64) ([]Event, error) {
	if t.Phase == PhaseClosed {
		return nil, ErrTableClosed
	}
	if p := t.Player(id); p != nil {
		return nil, nil
	}
	seat := t.freeSeat()
	if seat == 0 {
		return nil, ErrTableFull
	}
	p := &Player{ID: id, Name: name, Seat: seat, Balance: balance}
	t.Players = append(t.Players, p)
	sort.SliceStable(t.Players, func(i, j int) bool { return t.Players[i].Seat < t.Players[j].Seat })
	return []Event{{Type: EvtPlayerJoined, PlayerID: id, Player: name}}, nil
}

func (t *Table) freeSeat() int {
	used := make(map[int]bool, len(t.Players))
	for _, p := range t.Players {
		used[p.Seat] = true
	}
	for seat := 1; seat <= t.Settings.MaxSeats; seat++ {
		if !used[seat] {
			return seat
		}
	}
	return 0
}

// Leave removes a player, or defers the removal while a round is being
// played out. deferred reports the latter. A bet placed during betting is
// refunded.
func (t *Table) Leave(id string) (deferred bool, events []Event, err error) {
	p := t.Player(id)
	if p == nil {
		return false, nil, ErrPlayerNotFound
	}
	if t.Phase.InRound() && p.Round.Active {
		return true, t.deferLeave(p), nil
	}
	if t.Phase == PhaseBetting && p.Round.HasBet {
		events = append(events, Event{Type: EvtRefunded, PlayerID: p.ID, Player: p.Name, Amount: p.Round.Bet})
		p.Balance += p.Round.Bet
	}
	t.remove(id)
	events = append(events, Event{Type: EvtPlayerLeft, PlayerID: p.ID, Player: p.Name})
	return false, events, nil
}

func (t *Table) deferLeave(p *Player) []Event {
	events := []Event{{Type: EvtLeaveDeferred, PlayerID: p.ID, Player: p.Name}}
	if p.Leaving {
		return events
	}
	wasCurrent := t.CurrentPlayer() == p
	p.Leaving = true
	p.SittingOut = true
	for _, h := range p.Round.Hands() {
		if !h.Done() {
			h.Standing = true
		}
	}
	if t.Phase == PhaseInsurance && !p.Round.InsuranceDecided {
		p.Round.InsuranceDecided = true
	}
	if wasCurrent {
		events = append(events, t.advance()...)
	}
	return events
}

func (t *Table) remove(id string) {
	for i, p := range t.Players {
		if p.ID == id {
			t.Players = append(t.Players[:i], t.Players[i+1:]...)
			return
		}
	}
}

// Start moves a lobby table into its first betting round.
func (t *Table) Start(by string) ([]Event, error) {
	if !t.IsHost(by) {
		return nil, ErrNotHost
	}
	if t.Phase != PhaseLobby {
		return nil, ErrWrongPhase
	}
	if len(t.Players) == 0 {
		return nil, ErrNoPlayers
	}
	var name string
	if p := t.Player(by); p != nil {
		name = p.Name
	}
	return []Event{{Type: EvtGameStarted, PlayerID: by, Player: name}}, nil
}

// CanClose reports whether the host may close the table now.
func (t *Table) CanClose(by string) error {
	if !t.IsHost(by) {
		return ErrNotHost
	}
	switch t.Phase {
	case PhaseLobby, PhaseBetting, PhaseSettlement:
		return nil
	}
	return ErrWrongPhase
}

// CanDelete reports whether the table may be deleted now: only from the
// lobby, by the host or by anyone once it is empty.
func (t *Table) CanDelete(by string) error {
	if !t.IsHost(by) && len(t.Players) > 0 {
		return ErrNotHost
	}
	if t.Phase != PhaseLobby {
		return ErrWrongPhase
	}
	return nil
}

// Close ends the table and refunds every wager that has not been settled.
func (t *Table) Close() []Event {
	var events []Event
	if t.Phase != PhaseSettlement && t.Phase != PhaseClosed {
		for _, p := range t.Players {
			if refund := p.outstanding(t.Phase); refund > 0 {
				p.Balance += refund
				events = append(events, Event{Type: EvtRefunded, PlayerID: p.ID, Player: p.Name, Amount: refund})
			}
		}
	}
	t.Phase = PhaseClosed
	t.Current = -1
	return events
}

// outstanding is the part of this round's stake not yet settled.
func (p *Player) outstanding(phase Phase) int64 {
	if !p.Round.HasBet {
		return 0
	}
	var total int64
	for _, h := range p.Round.Hands() {
		total += h.Bet
	}
	if phase == PhaseInsurance {
		total += p.Round.InsuranceBet
	}
	return total
}
