package models

import (
	"math/rand"

	apperr "poker-service/pkg/errors"
)

// Deck is an ordered sequence of undealt cards. Dealing consumes from
// the front and returns the remainder as a new value, so the remainder
// can be persisted into the game row after every deal and a hand can
// resume mid-stream after a crash or reconnect.
type Deck []Card

var suits = []Suit{Spades, Hearts, Diamonds, Clubs}
var ranks = []Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// NewShuffledDeck builds the 52-card set and returns a uniformly random
// permutation. Shuffling here is fairness, not a security boundary.
func NewShuffledDeck() Deck {
	d := make(Deck, 0, 52)
	for _, s := range suits {
		for _, r := range ranks {
			d = append(d, Card{Rank: r, Suit: s})
		}
	}
	rand.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
	return d
}

// Deal removes exactly n cards from the front of the deck and returns
// them together with the remainder.
func (d Deck) Deal(n int) ([]Card, Deck, error) {
	if n < 0 || n > len(d) {
		return nil, d, apperr.ErrInsufficientCards
	}
	cards := make([]Card, n)
	copy(cards, d[:n])
	return cards, d[n:], nil
}

func (d Deck) Remaining() int {
	return len(d)
}

// Strings renders the deck in the persisted wire form.
func (d Deck) Strings() []string {
	return CardStrings(d)
}

// ParseDeck decodes a persisted deck remainder.
func ParseDeck(raw []string) (Deck, error) {
	cards, err := ParseCards(raw)
	if err != nil {
		return nil, err
	}
	return Deck(cards), nil
}
