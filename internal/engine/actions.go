package engine

// Apply runs a player action against the table. Roster and lifecycle
// commands go through Join, Leave, Start and Close instead.
func (t *Table) Apply(cmd Command) ([]Event, error) {
	switch cmd.Type {
	case CmdBet:
		return t.PlaceBet(cmd.PlayerID, cmd.Amount)
	case CmdHit:
		return t.Hit(cmd.PlayerID)
	case CmdStand:
		return t.Stand(cmd.PlayerID)
	case CmdDouble:
		return t.Double(cmd.PlayerID)
	case CmdSplit:
		return t.Split(cmd.PlayerID)
	case CmdInsurance:
		return t.TakeInsurance(cmd.PlayerID, cmd.Take)
	}
	return nil, ErrUnsupportedCommand
}

func (t *Table) PlaceBet(playerID string, amount int64) ([]Event, error) {
	if t.Phase != PhaseBetting {
		return nil, ErrWrongPhase
	}
	p := t.Player(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if p.Round.HasBet {
		return nil, ErrAlreadyBet
	}
	if amount < t.Settings.MinBet || amount > t.Settings.MaxBet {
		return nil, ErrBetOutOfRange
	}
	if amount > p.Balance {
		return nil, ErrInsufficientBalance
	}
	p.Balance -= amount
	p.Round.HasBet = true
	p.Round.Bet = amount
	p.Round.Play = &SingleHand{Hand: Hand{Bet: amount}}
	return []Event{{Type: EvtBetPlaced, PlayerID: p.ID, Player: p.Name, Amount: amount}}, nil
}

func (t *Table) Hit(playerID string) ([]Event, error) {
	p, h, n, err := t.actingHand(playerID)
	if err != nil {
		return nil, err
	}
	c, err := t.Shoe.Draw()
	if err != nil {
		return nil, err
	}
	h.Add(c)
	events := []Event{{Type: EvtHit, PlayerID: p.ID, Player: p.Name, Card: &c, Hand: n, Value: h.Value}}
	switch {
	case h.Busted:
		events = append(events, Event{Type: EvtBusted, PlayerID: p.ID, Player: p.Name, Hand: n, Value: h.Value})
	case h.Value == Blackjack:
		h.Standing = true
		events = append(events, Event{Type: EvtStood, PlayerID: p.ID, Player: p.Name, Hand: n, Value: h.Value})
	default:
		return events, nil
	}
	return append(events, t.advance()...), nil
}

func (t *Table) Stand(playerID string) ([]Event, error) {
	p, h, n, err := t.actingHand(playerID)
	if err != nil {
		return nil, err
	}
	h.Standing = true
	events := []Event{{Type: EvtStood, PlayerID: p.ID, Player: p.Name, Hand: n, Value: h.Value}}
	return append(events, t.advance()...), nil
}

// Double doubles the stake on an unsplit two-card hand, draws exactly one
// card and stands.
func (t *Table) Double(playerID string) ([]Event, error) {
	p, h, _, err := t.actingHand(playerID)
	if err != nil {
		return nil, err
	}
	if err := canDouble(p, h); err != nil {
		return nil, err
	}
	c, err := t.Shoe.Draw()
	if err != nil {
		return nil, err
	}
	extra := h.Bet
	p.Balance -= extra
	p.Round.HasDoubled = true
	h.Bet += extra
	h.Add(c)
	h.Standing = true

	events := []Event{{Type: EvtDoubled, PlayerID: p.ID, Player: p.Name, Amount: extra, Card: &c, Value: h.Value}}
	if h.Busted {
		events = append(events, Event{Type: EvtBusted, PlayerID: p.ID, Player: p.Name, Value: h.Value})
	}
	return append(events, t.advance()...), nil
}

// Split turns a pair into two hands, each staked with the original bet and
// dealt one new card.
func (t *Table) Split(playerID string) ([]Event, error) {
	p, h, _, err := t.actingHand(playerID)
	if err != nil {
		return nil, err
	}
	if err := canSplit(p, h); err != nil {
		return nil, err
	}
	if t.Shoe.Len() < 2 {
		return nil, ErrShoeExhausted
	}
	bet := h.Bet
	p.Balance -= bet
	sp := &SplitHands{Hands: [2]Hand{
		{Cards: []Card{h.Cards[0]}, Bet: bet},
		{Cards: []Card{h.Cards[1]}, Bet: bet},
	}}
	p.Round.Play = sp

	events := []Event{{Type: EvtSplit, PlayerID: p.ID, Player: p.Name, Amount: bet}}
	for i := range sp.Hands {
		sub := &sp.Hands[i]
		c, _ := t.Shoe.Draw()
		sub.Add(c)
		events = append(events, Event{Type: EvtHit, PlayerID: p.ID, Player: p.Name, Card: &c, Hand: i + 1, Value: sub.Value})
		if sub.Value == Blackjack {
			sub.Standing = true
		}
	}
	if next := sp.nextOpen(0); next >= 0 {
		sp.Active = next
		return append(events, turnStarted(p, next+1)), nil
	}
	sp.Active = len(sp.Hands) - 1
	return append(events, t.advance()...), nil
}

func canDouble(p *Player, h *Hand) error {
	if _, single := p.Round.Play.(*SingleHand); !single || len(h.Cards) != 2 || p.Round.HasDoubled {
		return ErrIllegalDouble
	}
	if p.Balance < h.Bet {
		return ErrInsufficientBalance
	}
	return nil
}

func canSplit(p *Player, h *Hand) error {
	if _, single := p.Round.Play.(*SingleHand); !single || len(h.Cards) != 2 || h.Cards[0].Rank != h.Cards[1].Rank {
		return ErrIllegalSplit
	}
	if p.Balance < h.Bet {
		return ErrInsufficientBalance
	}
	return nil
}

// Options reports which optional moves playerID could make right now.
func (t *Table) Options(playerID string) (double, split bool) {
	p, h, _, err := t.actingHand(playerID)
	if err != nil {
		return false, false
	}
	return canDouble(p, h) == nil, canSplit(p, h) == nil
}

// TakeInsurance records a player's one insurance decision. Taking it costs
// half the original bet.
func (t *Table) TakeInsurance(playerID string, take bool) ([]Event, error) {
	if t.Phase != PhaseInsurance {
		return nil, ErrWrongPhase
	}
	p := t.Player(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if !p.Round.Active {
		return nil, ErrNotInRound
	}
	if p.Round.InsuranceDecided {
		return nil, ErrInsuranceDecided
	}
	if !take {
		p.Round.InsuranceDecided = true
		return []Event{{Type: EvtInsuranceRefused, PlayerID: p.ID, Player: p.Name}}, nil
	}
	cost := p.Round.Bet / 2
	if cost <= 0 {
		return nil, ErrBetTooSmallToInsure
	}
	if p.Balance < cost {
		return nil, ErrInsufficientBalance
	}
	p.Balance -= cost
	p.Round.InsuranceBet = cost
	p.Round.InsuranceDecided = true
	return []Event{{Type: EvtInsuranceTaken, PlayerID: p.ID, Player: p.Name, Amount: cost}}, nil
}
