package ai

import (
	"context"
	"math/rand"

	"poker-service/engine"
	"poker-service/models"
)

// BasicAdapter is the built-in rule-based opponent. It rates the seat's
// holding on a 0-1 scale, adds difficulty-scaled noise and picks among
// fold, call and raise from thresholds. Expert plays tighter and raises
// bigger; novice calls too much. No card counting, no opponent
// modeling.
type BasicAdapter struct {
	difficulty models.AIDifficulty
	rng        *rand.Rand
}

func NewBasicAdapter(difficulty models.AIDifficulty, seed int64) *BasicAdapter {
	return &BasicAdapter{
		difficulty: difficulty,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (b *BasicAdapter) Decide(_ context.Context, view View) (Decision, error) {
	strength := b.strength(view)

	// Noise keeps the play from being fully predictable. Novice swings
	// the widest.
	switch b.difficulty {
	case models.DifficultyNovice:
		strength += (b.rng.Float64() - 0.5) * 0.4
	case models.DifficultyIntermediate:
		strength += (b.rng.Float64() - 0.5) * 0.2
	default:
		strength += (b.rng.Float64() - 0.5) * 0.1
	}

	foldBelow, raiseAbove := 0.25, 0.70
	if b.difficulty == models.DifficultyExpert {
		foldBelow, raiseAbove = 0.35, 0.65
	}
	if b.difficulty == models.DifficultyNovice {
		foldBelow, raiseAbove = 0.15, 0.80
	}

	if view.ToCall == 0 {
		if strength > raiseAbove && view.Chips > view.ToCall {
			return b.raise(view, strength), nil
		}
		return Check(), nil
	}

	// Facing a bet: weigh the price against the pot.
	price := float64(view.ToCall) / float64(view.PotAmount+view.ToCall)
	if strength < foldBelow && price > 0.1 {
		return Fold(), nil
	}
	if strength > raiseAbove {
		return b.raise(view, strength), nil
	}
	if view.ToCall >= view.Chips {
		// Calling commits the whole stack; only continue with a real
		// hand.
		if strength > 0.5 {
			return AllIn(), nil
		}
		return Fold(), nil
	}
	return Call(), nil
}

func (b *BasicAdapter) raise(view View, strength float64) Decision {
	target := view.MinRaiseTo
	if strength > 0.85 {
		target += view.BigBlind * 2
	}
	if target-view.CurrentBet >= view.Chips {
		return AllIn()
	}
	return Raise(target)
}

// strength rates the holding: hole cards alone pre-flop, the evaluated
// best hand once the flop is out.
func (b *BasicAdapter) strength(view View) float64 {
	if len(view.CommunityCards) == 0 {
		return preFlopStrength(view.HoleCards)
	}
	all := append(append([]models.Card{}, view.HoleCards...), view.CommunityCards...)
	hand, err := engine.EvaluateHand(all)
	if err != nil {
		return 0.3
	}
	switch hand.Category {
	case engine.HighCard:
		return 0.15 + float64(hand.Tiebreaks[0])/100
	case engine.OnePair:
		return 0.35 + float64(hand.Tiebreaks[0])/100
	case engine.TwoPair:
		return 0.55
	case engine.ThreeOfAKind:
		return 0.70
	case engine.Straight:
		return 0.80
	case engine.Flush:
		return 0.85
	case engine.FullHouse:
		return 0.90
	case engine.FourOfAKind:
		return 0.97
	default:
		return 1.0
	}
}

func preFlopStrength(hole []models.Card) float64 {
	if len(hole) != 2 {
		return 0.3
	}
	a, c := hole[0], hole[1]
	hi, lo := a.Value(), c.Value()
	if lo > hi {
		hi, lo = lo, hi
	}

	s := float64(hi) / 40
	if a.Rank == c.Rank {
		s += 0.35
	}
	if a.Suit == c.Suit {
		s += 0.05
	}
	if hi-lo == 1 {
		s += 0.05
	}
	if lo >= 10 {
		s += 0.15
	}
	return s
}
