package engine

import (
	"fmt"
	"sort"

	"poker-service/models"
)

// DefaultRakePercent is the house cut applied to every settled pot.
const DefaultRakePercent = 10

// Rake returns the house cut of a pot, rounded down. The winners share
// what remains, so rounding always favors the table.
func Rake(pot, percent int) int {
	if pot <= 0 || percent <= 0 {
		return 0
	}
	return pot * percent / 100
}

// Result is the outcome of settling one hand. Payouts is keyed by
// player ID and sums to pot minus rake exactly.
type Result struct {
	WinnerIDs   []string
	WinningHand string
	Rake        int
	Payouts     map[string]int
}

// LastStanding settles a pot that ended by everyone else folding. No
// cards are revealed and no hands are evaluated.
func LastStanding(winner *models.Player, pot, rakePercent int) Result {
	rake := Rake(pot, rakePercent)
	return Result{
		WinnerIDs:   []string{winner.ID},
		WinningHand: models.WinningHandLastStanding,
		Rake:        rake,
		Payouts:     map[string]int{winner.ID: pot - rake},
	}
}

// Showdown evaluates every non-folded player's best five-card hand from
// their hole cards plus the community cards and splits the raked pot
// among the top-ranked hands. On a split, remainder chips that do not
// divide evenly go to the winner in the lowest seat.
func Showdown(players []*models.Player, community []models.Card, pot, rakePercent int) (Result, error) {
	type contender struct {
		player *models.Player
		hand   Hand
	}

	contenders := make([]contender, 0, len(players))
	for _, p := range players {
		if p.IsFolded {
			continue
		}
		hole, err := p.HoleCardList()
		if err != nil {
			return Result{}, fmt.Errorf("decode hole cards for player %s: %w", p.ID, err)
		}
		hand, err := EvaluateHand(append(append([]models.Card{}, hole...), community...))
		if err != nil {
			return Result{}, fmt.Errorf("evaluate player %s: %w", p.ID, err)
		}
		contenders = append(contenders, contender{player: p, hand: hand})
	}
	if len(contenders) == 0 {
		return Result{}, fmt.Errorf("showdown with no contenders")
	}

	best := contenders[0]
	winners := []contender{best}
	for _, c := range contenders[1:] {
		switch CompareHands(c.hand, best.hand) {
		case 1:
			best = c
			winners = winners[:0]
			winners = append(winners, c)
		case 0:
			winners = append(winners, c)
		}
	}

	sort.Slice(winners, func(i, j int) bool {
		return winners[i].player.Position < winners[j].player.Position
	})

	rake := Rake(pot, rakePercent)
	net := pot - rake
	share := net / len(winners)
	remainder := net % len(winners)

	res := Result{
		WinningHand: best.hand.Name(),
		Rake:        rake,
		Payouts:     make(map[string]int, len(winners)),
	}
	for i, w := range winners {
		amount := share
		if i == 0 {
			amount += remainder
		}
		res.WinnerIDs = append(res.WinnerIDs, w.player.ID)
		res.Payouts[w.player.ID] = amount
	}
	return res, nil
}
