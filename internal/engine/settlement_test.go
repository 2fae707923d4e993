package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func handOf(bet int64, cs ...Card) Hand {
	h := Hand{Bet: bet}
	for _, c := range cs {
		h.Add(c)
	}
	return h
}

func TestSettleHand(t *testing.T) {
	dealer17 := handOf(0, kingH, NewCard(RankSeven, SuitClubs))
	dealerBust := handOf(0, kingH, sixS, queenC)
	dealerBJ := handOf(0, aceH, queenC)

	cases := []struct {
		name    string
		hand    Hand
		natural bool
		dealer  Hand
		result  Result
		payout  int64
	}{
		{"bust loses even when dealer busts", handOf(10, kingH, queenC, twoH), false, dealerBust, ResultLose, 0},
		{"blackjack pays three to two", handOf(10, aceS, kingH), true, dealer17, ResultBlackjack, 25},
		{"blackjack payout floors", handOf(15, aceS, kingH), true, dealer17, ResultBlackjack, 37},
		{"dealer blackjack beats 21", handOf(10, kingH, fiveD, sixS), false, dealerBJ, ResultLose, 0},
		{"both blackjack push", handOf(10, aceS, kingH), true, dealerBJ, ResultPush, 10},
		{"dealer bust pays even", handOf(10, kingH, twoH), false, dealerBust, ResultWin, 20},
		{"higher wins", handOf(10, kingH, queenC), false, dealer17, ResultWin, 20},
		{"lower loses", handOf(10, kingH, sixS), false, dealer17, ResultLose, 0},
		{"equal pushes", handOf(10, kingH, NewCard(RankSeven, SuitSpades)), false, dealer17, ResultPush, 10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := SettleHand(tc.hand, tc.natural, tc.dealer)
			assert.Equal(t, tc.result, s.Result)
			assert.Equal(t, tc.payout, s.Payout)
		})
	}
}

func TestSettleRoundSplitMajority(t *testing.T) {
	dealer := handOf(0, kingH, NewCard(RankEight, SuitClubs))
	r := Round{
		Active: true, HasBet: true, Bet: 10,
		Play: &SplitHands{Hands: [2]Hand{
			handOf(10, NewCard(RankEight, SuitSpades), kingH, twoH),
			handOf(10, NewCard(RankEight, SuitHearts), queenC, fiveD),
		}},
	}
	s := SettleRound("p1", r, dealer)
	assert.Equal(t, ResultPush, s.Result, "one win and one loss")
	assert.Len(t, s.Hands, 2)
	assert.Equal(t, ResultWin, s.Hands[0].Result)
	assert.Equal(t, ResultLose, s.Hands[1].Result)
	assert.EqualValues(t, 20, s.Payout)
	assert.EqualValues(t, 20, s.Wagered)
	assert.EqualValues(t, 0, s.Net)
}

func TestSettleRoundCountsInsurance(t *testing.T) {
	dealer := handOf(0, aceH, queenC)
	r := Round{
		Active: true, HasBet: true, Bet: 20,
		InsuranceBet: 10, InsurancePayout: 30,
		Play: &SingleHand{Hand: handOf(20, kingH, queenC)},
	}
	s := SettleRound("p1", r, dealer)
	assert.Equal(t, ResultLose, s.Result)
	assert.EqualValues(t, 0, s.Payout)
	assert.EqualValues(t, 30, s.Wagered)
	assert.EqualValues(t, 0, s.Net)
}
