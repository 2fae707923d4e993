package engine

// advance moves the turn cursor past the current hand. A split player's
// remaining sub-hands come before the next player. When nobody is left
// Current becomes -1.
func (t *Table) advance() []Event {
	active := t.Active()
	if t.Current >= 0 && t.Current < len(active) {
		p := active[t.Current]
		if sp, ok := p.Round.Play.(*SplitHands); ok {
			if next := sp.nextOpen(sp.Active); next >= 0 {
				sp.Active = next
				return []Event{turnStarted(p, next+1)}
			}
		}
	}
	for i := t.Current + 1; i < len(active); i++ {
		p := active[i]
		if !p.Round.needsAction() {
			continue
		}
		t.Current = i
		hand := 0
		if sp, ok := p.Round.Play.(*SplitHands); ok {
			sp.Active = sp.nextOpen(0)
			hand = sp.Active + 1
		}
		return []Event{turnStarted(p, hand)}
	}
	t.Current = -1
	return nil
}

func turnStarted(p *Player, hand int) Event {
	return Event{Type: EvtTurnStarted, PlayerID: p.ID, Player: p.Name, Hand: hand}
}

// actingHand resolves the hand a turn action from playerID applies to.
func (t *Table) actingHand(playerID string) (*Player, *Hand, int, error) {
	if t.Phase != PhasePlayerTurn {
		return nil, nil, 0, ErrWrongPhase
	}
	p := t.CurrentPlayer()
	if p == nil || p.ID != playerID {
		return nil, nil, 0, ErrNotYourTurn
	}
	h, n := p.Round.activeHand()
	if h == nil || h.Done() {
		return nil, nil, 0, ErrHandFinished
	}
	return p, h, n, nil
}
