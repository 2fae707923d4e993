package engine

const (
	Blackjack      = 21
	DealerStandsOn = 17
	blackjackCards = 2
	aceDemotion    = 10
)

// HandValue totals the cards, demoting aces from 11 to 1 one at a time
// while the total is over 21.
func HandValue(cards []Card) int {
	total, aces := 0, 0
	for _, c := range cards {
		total += c.Value
		if c.IsAce() {
			aces++
		}
	}
	for total > Blackjack && aces > 0 {
		total -= aceDemotion
		aces--
	}
	return total
}

func IsBusted(value int) bool { return value > Blackjack }

func IsBlackjack(cards []Card) bool {
	return len(cards) == blackjackCards && HandValue(cards) == Blackjack
}

type Hand struct {
	Cards    []Card `json:"cards"`
	Value    int    `json:"value"`
	Busted   bool   `json:"isBusted"`
	Standing bool   `json:"isStanding"`
	Bet      int64  `json:"bet"`
	Result   Result `json:"result,omitempty"`
	Payout   int64  `json:"payout"`
}

func (h *Hand) Add(c Card) {
	h.Cards = append(h.Cards, c)
	h.Value = HandValue(h.Cards)
	h.Busted = IsBusted(h.Value)
}

// Done reports whether the hand can take no more actions.
func (h *Hand) Done() bool { return h.Busted || h.Standing }

func (h Hand) clone() Hand {
	h.Cards = append([]Card(nil), h.Cards...)
	return h
}
