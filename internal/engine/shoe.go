package engine

import (
	"math/rand/v2"
)

// Shoe is a multi-deck card source drawn from the front.
type Shoe struct {
	cards []Card
	decks int
	rng   *rand.Rand
}

// NewShoe builds and shuffles a shoe of the given number of decks. A nil
// rng uses the global source.
func NewShoe(decks int, rng *rand.Rand) *Shoe {
	if decks <= 0 {
		decks = 6
	}
	s := &Shoe{decks: decks, rng: rng}
	s.Reshuffle()
	return s
}

// StackedShoe returns a full unshuffled shoe whose first cards are top, in
// order. Each card in top is taken out of the remaining decks so the total
// stays decks*52.
func StackedShoe(decks int, top ...Card) *Shoe {
	if decks <= 0 {
		decks = 6
	}
	rest := make([]Card, 0, decks*DeckSize)
	for i := 0; i < decks; i++ {
		rest = append(rest, NewDeck()...)
	}
	for _, c := range top {
		for i, r := range rest {
			if r == c {
				rest = append(rest[:i], rest[i+1:]...)
				break
			}
		}
	}
	cards := make([]Card, 0, decks*DeckSize)
	cards = append(cards, top...)
	cards = append(cards, rest...)
	return &Shoe{cards: cards, decks: decks}
}

// Reshuffle discards whatever is left and rebuilds a full shoe.
func (s *Shoe) Reshuffle() {
	cards := make([]Card, 0, s.decks*DeckSize)
	for i := 0; i < s.decks; i++ {
		cards = append(cards, NewDeck()...)
	}
	shuffle := rand.Shuffle
	if s.rng != nil {
		shuffle = s.rng.Shuffle
	}
	shuffle(len(cards), func(i, j int) { cards[i], cards[j] = cards[j], cards[i] })
	s.cards = cards
}

func (s *Shoe) Draw() (Card, error) {
	if len(s.cards) == 0 {
		return Card{}, ErrShoeExhausted
	}
	c := s.cards[0]
	s.cards = s.cards[1:]
	return c, nil
}

func (s *Shoe) Len() int { return len(s.cards) }

func (s *Shoe) Capacity() int { return s.decks * DeckSize }

// clone copies the remaining cards. The rng is shared, so a clone that
// replaces the original keeps reshuffling from the same source.
func (s *Shoe) clone() *Shoe {
	if s == nil {
		return nil
	}
	return &Shoe{cards: append([]Card(nil), s.cards...), decks: s.decks, rng: s.rng}
}
