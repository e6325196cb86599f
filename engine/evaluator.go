package engine

import (
	"fmt"
	"sort"

	"poker-service/models"
)

type HandCategory int

const (
	HighCard HandCategory = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
)

func (hc HandCategory) String() string {
	names := []string{"High Card", "One Pair", "Two Pair", "Three of a Kind", "Straight", "Flush", "Full House", "Four of a Kind", "Straight Flush"}
	return names[hc]
}

// Hand is an evaluated best-five holding. Tiebreaks holds the rank
// values that order two hands of the same category, most significant
// first (e.g. for a full house: trip rank, then pair rank).
type Hand struct {
	Category  HandCategory
	Cards     []models.Card
	Tiebreaks []int
}

// Name is the display form persisted into the game row at settlement.
func (h Hand) Name() string {
	if h.Category == StraightFlush && len(h.Tiebreaks) > 0 && h.Tiebreaks[0] == 14 {
		return "Royal Flush"
	}
	return h.Category.String()
}

// EvaluateHand selects the best five-card hand from 5 to 7 candidate
// cards. Fewer than 5 cards is a caller bug: hole cards plus dealt
// community cards always reach at least 5 by showdown.
func EvaluateHand(cards []models.Card) (Hand, error) {
	if len(cards) < 5 || len(cards) > 7 {
		return Hand{}, fmt.Errorf("evaluate needs 5-7 cards, got %d", len(cards))
	}

	sorted := make([]models.Card, len(cards))
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Value() > sorted[j].Value()
	})

	if h, ok := checkStraightFlush(sorted); ok {
		return h, nil
	}
	if h, ok := checkFourOfAKind(sorted); ok {
		return h, nil
	}
	if h, ok := checkFullHouse(sorted); ok {
		return h, nil
	}
	if h, ok := checkFlush(sorted); ok {
		return h, nil
	}
	if h, ok := checkStraight(sorted); ok {
		return h, nil
	}
	if h, ok := checkThreeOfAKind(sorted); ok {
		return h, nil
	}
	if h, ok := checkTwoPair(sorted); ok {
		return h, nil
	}
	if h, ok := checkOnePair(sorted); ok {
		return h, nil
	}
	return checkHighCard(sorted), nil
}

// CompareHands returns 1 if a wins, -1 if b wins, 0 on an exact tie.
// Category decides first, then the tie-break sequence lexicographically.
func CompareHands(a, b Hand) int {
	if a.Category != b.Category {
		if a.Category > b.Category {
			return 1
		}
		return -1
	}
	for i := 0; i < len(a.Tiebreaks) && i < len(b.Tiebreaks); i++ {
		if a.Tiebreaks[i] > b.Tiebreaks[i] {
			return 1
		}
		if a.Tiebreaks[i] < b.Tiebreaks[i] {
			return -1
		}
	}
	return 0
}

// rankGroups buckets cards by rank preserving the descending input
// order inside each bucket.
func rankGroups(cards []models.Card) map[models.Rank][]models.Card {
	groups := make(map[models.Rank][]models.Card)
	for _, c := range cards {
		groups[c.Rank] = append(groups[c.Rank], c)
	}
	return groups
}

// findStraight returns the five highest consecutive distinct ranks, or
// the wheel (5-4-3-2-A) as a last resort. Input must be sorted
// descending. The wheel comes back 5-high so its tie-break value is 5.
func findStraight(cards []models.Card) ([]models.Card, bool) {
	byValue := make(map[int]models.Card)
	values := make([]int, 0, len(cards))
	for _, c := range cards {
		v := c.Value()
		if _, seen := byValue[v]; !seen {
			byValue[v] = c
			values = append(values, v)
		}
	}

	run := []models.Card{}
	for i, v := range values {
		if i > 0 && values[i-1]-v != 1 {
			run = run[:0]
		}
		run = append(run, byValue[v])
		if len(run) == 5 {
			out := make([]models.Card, 5)
			copy(out, run)
			return out, true
		}
	}

	// Wheel: Ace plays low under 5-4-3-2.
	if _, hasAce := byValue[14]; hasAce {
		wheel := make([]models.Card, 0, 5)
		for _, v := range []int{5, 4, 3, 2} {
			c, ok := byValue[v]
			if !ok {
				return nil, false
			}
			wheel = append(wheel, c)
		}
		wheel = append(wheel, byValue[14])
		return wheel, true
	}

	return nil, false
}

func checkStraightFlush(cards []models.Card) (Hand, bool) {
	bySuit := make(map[models.Suit][]models.Card)
	for _, c := range cards {
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}
	for _, suited := range bySuit {
		if len(suited) < 5 {
			continue
		}
		if run, ok := findStraight(suited); ok {
			return Hand{Category: StraightFlush, Cards: run, Tiebreaks: []int{run[0].Value()}}, true
		}
	}
	return Hand{}, false
}

func checkFourOfAKind(cards []models.Card) (Hand, bool) {
	for rank, group := range rankGroups(cards) {
		if len(group) != 4 {
			continue
		}
		for _, c := range cards {
			if c.Rank != rank {
				best := append(append([]models.Card{}, group...), c)
				return Hand{Category: FourOfAKind, Cards: best, Tiebreaks: []int{group[0].Value(), c.Value()}}, true
			}
		}
	}
	return Hand{}, false
}

func checkFullHouse(cards []models.Card) (Hand, bool) {
	groups := rankGroups(cards)

	var trips, pair []models.Card
	for _, group := range groups {
		if len(group) >= 3 && (trips == nil || group[0].Value() > trips[0].Value()) {
			trips = group[:3]
		}
	}
	if trips == nil {
		return Hand{}, false
	}
	for _, group := range groups {
		if group[0].Rank == trips[0].Rank {
			continue
		}
		if len(group) >= 2 && (pair == nil || group[0].Value() > pair[0].Value()) {
			pair = group[:2]
		}
	}
	if pair == nil {
		return Hand{}, false
	}

	best := append(append([]models.Card{}, trips...), pair...)
	return Hand{Category: FullHouse, Cards: best, Tiebreaks: []int{trips[0].Value(), pair[0].Value()}}, true
}

func checkFlush(cards []models.Card) (Hand, bool) {
	bySuit := make(map[models.Suit][]models.Card)
	for _, c := range cards {
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}
	for _, suited := range bySuit {
		if len(suited) < 5 {
			continue
		}
		best := suited[:5]
		ties := make([]int, 5)
		for i, c := range best {
			ties[i] = c.Value()
		}
		return Hand{Category: Flush, Cards: best, Tiebreaks: ties}, true
	}
	return Hand{}, false
}

func checkStraight(cards []models.Card) (Hand, bool) {
	run, ok := findStraight(cards)
	if !ok {
		return Hand{}, false
	}
	return Hand{Category: Straight, Cards: run, Tiebreaks: []int{run[0].Value()}}, true
}

func checkThreeOfAKind(cards []models.Card) (Hand, bool) {
	for rank, group := range rankGroups(cards) {
		if len(group) < 3 {
			continue
		}
		kickers := topExcluding(cards, 2, rank)
		best := append(append([]models.Card{}, group[:3]...), kickers...)
		ties := []int{group[0].Value()}
		for _, k := range kickers {
			ties = append(ties, k.Value())
		}
		return Hand{Category: ThreeOfAKind, Cards: best, Tiebreaks: ties}, true
	}
	return Hand{}, false
}

func checkTwoPair(cards []models.Card) (Hand, bool) {
	pairs := [][]models.Card{}
	for _, group := range rankGroups(cards) {
		if len(group) >= 2 {
			pairs = append(pairs, group[:2])
		}
	}
	if len(pairs) < 2 {
		return Hand{}, false
	}
	sort.Slice(pairs, func(i, j int) bool {
		return pairs[i][0].Value() > pairs[j][0].Value()
	})

	kickers := topExcluding(cards, 1, pairs[0][0].Rank, pairs[1][0].Rank)
	best := append(append(append([]models.Card{}, pairs[0]...), pairs[1]...), kickers...)
	ties := []int{pairs[0][0].Value(), pairs[1][0].Value()}
	for _, k := range kickers {
		ties = append(ties, k.Value())
	}
	return Hand{Category: TwoPair, Cards: best, Tiebreaks: ties}, true
}

func checkOnePair(cards []models.Card) (Hand, bool) {
	for rank, group := range rankGroups(cards) {
		if len(group) < 2 {
			continue
		}
		kickers := topExcluding(cards, 3, rank)
		best := append(append([]models.Card{}, group[:2]...), kickers...)
		ties := []int{group[0].Value()}
		for _, k := range kickers {
			ties = append(ties, k.Value())
		}
		return Hand{Category: OnePair, Cards: best, Tiebreaks: ties}, true
	}
	return Hand{}, false
}

func checkHighCard(cards []models.Card) Hand {
	best := cards
	if len(best) > 5 {
		best = best[:5]
	}
	ties := make([]int, len(best))
	for i, c := range best {
		ties[i] = c.Value()
	}
	return Hand{Category: HighCard, Cards: best, Tiebreaks: ties}
}

// topExcluding picks the n highest cards whose rank is not excluded.
// Input must be sorted descending.
func topExcluding(cards []models.Card, n int, exclude ...models.Rank) []models.Card {
	out := make([]models.Card, 0, n)
	for _, c := range cards {
		skip := false
		for _, r := range exclude {
			if c.Rank == r {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, c)
			if len(out) == n {
				break
			}
		}
	}
	return out
}
