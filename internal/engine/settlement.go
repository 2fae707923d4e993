package engine

// HandSettlement is the outcome of one hand against the dealer.
type HandSettlement struct {
	Result Result `json:"result"`
	Bet    int64  `json:"bet"`
	Payout int64  `json:"payout"`
}

// Settlement is a player's outcome for the round. Payout is everything
// returned at settlement; Net also counts insurance won and staked.
type Settlement struct {
	PlayerID string
	Result   Result
	Payout   int64
	Wagered  int64
	Net      int64
	Hands    []HandSettlement
}

// SettleHand compares a finished hand with the dealer. natural marks a
// two-card 21 for the player.
func SettleHand(h Hand, natural bool, dealer Hand) HandSettlement {
	dealerNatural := IsBlackjack(dealer.Cards)
	s := HandSettlement{Bet: h.Bet}
	switch {
	case h.Busted:
		s.Result = ResultLose
	case natural && !dealerNatural:
		s.Result = ResultBlackjack
		s.Payout = h.Bet * 5 / 2
	case dealerNatural && !natural:
		s.Result = ResultLose
	case natural && dealerNatural:
		s.Result = ResultPush
		s.Payout = h.Bet
	case dealer.Busted:
		s.Result = ResultWin
		s.Payout = h.Bet * 2
	case h.Value > dealer.Value:
		s.Result = ResultWin
		s.Payout = h.Bet * 2
	case h.Value < dealer.Value:
		s.Result = ResultLose
	default:
		s.Result = ResultPush
		s.Payout = h.Bet
	}
	return s
}

// SettleRound settles every hand a player played. Split hands settle
// independently; the overall label goes to whichever of wins and losses
// is more frequent.
func SettleRound(playerID string, r Round, dealer Hand) Settlement {
	s := Settlement{PlayerID: playerID, Wagered: r.Wagered()}
	switch p := r.Play.(type) {
	case *SingleHand:
		hs := SettleHand(p.Hand, r.HasBlackjack, dealer)
		s.Hands = []HandSettlement{hs}
		s.Result = hs.Result
		s.Payout = hs.Payout
	case *SplitHands:
		wins, losses := 0, 0
		for _, h := range p.Hands {
			hs := SettleHand(h, IsBlackjack(h.Cards), dealer)
			s.Hands = append(s.Hands, hs)
			s.Payout += hs.Payout
			switch hs.Result {
			case ResultWin, ResultBlackjack:
				wins++
			case ResultLose:
				losses++
			}
		}
		switch {
		case wins > losses:
			s.Result = ResultWin
		case losses > wins:
			s.Result = ResultLose
		default:
			s.Result = ResultPush
		}
	}
	s.Net = s.Payout + r.InsurancePayout - s.Wagered
	return s
}
