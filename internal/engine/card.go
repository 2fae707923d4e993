package engine

import "strconv"

type Suit string

const (
	SuitHearts   Suit = "hearts"
	SuitDiamonds Suit = "diamonds"
	SuitClubs    Suit = "clubs"
	SuitSpades   Suit = "spades"
)

type Rank string

const (
	RankAce   Rank = "A"
	RankTwo   Rank = "2"
	RankThree Rank = "3"
	RankFour  Rank = "4"
	RankFive  Rank = "5"
	RankSix   Rank = "6"
	RankSeven Rank = "7"
	RankEight Rank = "8"
	RankNine  Rank = "9"
	RankTen   Rank = "10"
	RankJack  Rank = "J"
	RankQueen Rank = "Q"
	RankKing  Rank = "K"
)

var Suits = []Suit{SuitHearts, SuitDiamonds, SuitClubs, SuitSpades}

var Ranks = []Rank{
	RankAce, RankTwo, RankThree, RankFour, RankFive, RankSix, RankSeven,
	RankEight, RankNine, RankTen, RankJack, RankQueen, RankKing,
}

const DeckSize = 52

type Card struct {
	Suit  Suit `json:"suit"`
	Rank  Rank `json:"rank"`
	Value int  `json:"value"`
}

// NewCard builds a card with the fixed value of its rank. Aces count 11
// here; hand evaluation demotes them.
func NewCard(rank Rank, suit Suit) Card {
	return Card{Suit: suit, Rank: rank, Value: rankValue(rank)}
}

func rankValue(r Rank) int {
	switch r {
	case RankAce:
		return 11
	case RankJack, RankQueen, RankKing:
		return 10
	default:
		v, _ := strconv.Atoi(string(r))
		return v
	}
}

func (c Card) IsAce() bool { return c.Rank == RankAce }

func (c Card) String() string {
	return string(c.Rank) + suitSymbol(c.Suit)
}

func suitSymbol(s Suit) string {
	switch s {
	case SuitHearts:
		return "♥"
	case SuitDiamonds:
		return "♦"
	case SuitClubs:
		return "♣"
	case SuitSpades:
		return "♠"
	}
	return ""
}

func NewDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for _, s := range Suits {
		for _, r := range Ranks {
			deck = append(deck, NewCard(r, s))
		}
	}
	return deck
}
