package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCard(t *testing.T) {
	c, err := ParseCard("Ah")
	require.NoError(t, err)
	assert.Equal(t, Ace, c.Rank)
	assert.Equal(t, Hearts, c.Suit)
	assert.Equal(t, "Ah", c.String())

	// Legacy ten spelling.
	c, err = ParseCard("10d")
	require.NoError(t, err)
	assert.Equal(t, "Td", c.String())

	for _, bad := range []string{"", "A", "1h", "Ax", "Ahh"} {
		_, err := ParseCard(bad)
		assert.Error(t, err, bad)
	}
}

func TestCardValues(t *testing.T) {
	assert.Equal(t, 14, Card{Rank: Ace, Suit: Spades}.Value())
	assert.Equal(t, 10, Card{Rank: Ten, Suit: Clubs}.Value())
	assert.Equal(t, 2, Card{Rank: Two, Suit: Hearts}.Value())
}

func TestNewShuffledDeckIsComplete(t *testing.T) {
	d := NewShuffledDeck()
	require.Equal(t, 52, d.Remaining())

	seen := make(map[string]bool, 52)
	for _, c := range d {
		seen[c.String()] = true
	}
	assert.Len(t, seen, 52, "no duplicates")
}

func TestDealConsumesFromFront(t *testing.T) {
	d, err := ParseDeck([]string{"Ah", "Kd", "Qc", "Js"})
	require.NoError(t, err)

	cards, rest, err := d.Deal(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ah", "Kd"}, CardStrings(cards))
	assert.Equal(t, 2, rest.Remaining())

	_, _, err = rest.Deal(3)
	assert.Error(t, err)
}

func TestGameCardColumnsRoundTrip(t *testing.T) {
	g := &Game{}
	cards, err := ParseCards([]string{"Ah", "Td", "2c"})
	require.NoError(t, err)
	g.SetCommunityCards(cards)

	got, err := g.CommunityCardList()
	require.NoError(t, err)
	assert.Equal(t, cards, got)

	// Unset column reads as empty, not an error.
	empty := &Game{}
	got, err = empty.CommunityCardList()
	require.NoError(t, err)
	assert.Empty(t, got)
}
