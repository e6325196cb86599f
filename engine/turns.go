package engine

import "poker-service/models"

// seatTable indexes players by seat so position arithmetic can wrap
// around empty seats.
func seatTable(players []*models.Player, maxSeats int) []*models.Player {
	seats := make([]*models.Player, maxSeats)
	for _, p := range players {
		if p.Position >= 0 && p.Position < maxSeats {
			seats[p.Position] = p
		}
	}
	return seats
}

// dealtIn reports whether a seat takes part in the current hand. Busted
// players keep their seat but are skipped until they rebuy.
func dealtIn(p *models.Player) bool {
	return p != nil && len(p.HoleCards) > 0
}

// canAct reports whether a seat still owes a decision this round.
func canAct(p *models.Player) bool {
	return dealtIn(p) && !p.IsFolded && !p.IsAllIn
}

// NextActorAfter walks clockwise from the given seat and returns the
// first player who can still act. ok is false when nobody can.
func NextActorAfter(players []*models.Player, fromPosition, maxSeats int) (*models.Player, bool) {
	seats := seatTable(players, maxSeats)
	for i := 1; i <= maxSeats; i++ {
		p := seats[(fromPosition+i)%maxSeats]
		if canAct(p) {
			return p, true
		}
	}
	return nil, false
}

// NextDealtInAfter is NextActorAfter without the fold/all-in filter,
// used for dealing order and blind placement.
func NextDealtInAfter(players []*models.Player, fromPosition, maxSeats int) (*models.Player, bool) {
	seats := seatTable(players, maxSeats)
	for i := 1; i <= maxSeats; i++ {
		p := seats[(fromPosition+i)%maxSeats]
		if dealtIn(p) {
			return p, true
		}
	}
	return nil, false
}

// NextDealerPosition advances the button to the next seat with a funded
// player. Funded rather than dealt-in: this runs before hole cards go
// out for the new hand.
func NextDealerPosition(players []*models.Player, currentDealer, maxSeats int) int {
	seats := seatTable(players, maxSeats)
	for i := 1; i <= maxSeats; i++ {
		pos := (currentDealer + i) % maxSeats
		if p := seats[pos]; p != nil && p.Chips > 0 {
			return pos
		}
	}
	return currentDealer
}

// BlindPositions returns the small and big blind seats for a hand.
// Heads-up the dealer posts the small blind and acts first pre-flop;
// with three or more the blinds are the next two funded seats after
// the button.
func BlindPositions(players []*models.Player, dealerPosition, maxSeats int) (sb, bb int) {
	funded := make([]*models.Player, 0, len(players))
	for _, p := range players {
		if p.Chips > 0 {
			funded = append(funded, p)
		}
	}

	nextFunded := func(from int) int {
		seats := seatTable(funded, maxSeats)
		for i := 1; i <= maxSeats; i++ {
			pos := (from + i) % maxSeats
			if seats[pos] != nil {
				return pos
			}
		}
		return from
	}

	if len(funded) == 2 {
		return dealerPosition, nextFunded(dealerPosition)
	}
	sb = nextFunded(dealerPosition)
	bb = nextFunded(sb)
	return sb, bb
}

// HighestBet is the amount every non-folded player must match to stay
// in the round.
func HighestBet(players []*models.Player) int {
	highest := 0
	for _, p := range players {
		if p.CurrentBet > highest {
			highest = p.CurrentBet
		}
	}
	return highest
}

// InHandCount counts dealt-in players who have not folded.
func InHandCount(players []*models.Player) int {
	n := 0
	for _, p := range players {
		if dealtIn(p) && !p.IsFolded {
			n++
		}
	}
	return n
}

// IsRoundComplete reports whether the betting round can close. It can
// when at most one player remains unfolded, or when every player who
// can still act has matched the highest bet and has acted at least once
// this round. Posted blinds do not count as acting, so the big blind
// always gets an option pre-flop.
func IsRoundComplete(players []*models.Player, acted map[string]bool) bool {
	if InHandCount(players) <= 1 {
		return true
	}
	highest := HighestBet(players)
	for _, p := range players {
		if !canAct(p) {
			continue
		}
		if p.CurrentBet != highest {
			return false
		}
		if !acted[p.ID] {
			return false
		}
	}
	return true
}

// EveryoneAllInOrFolded reports whether no further betting decisions
// are possible this hand, which lets the remaining streets run out
// without waiting on anyone. A single live actor against all-in
// opponents blocks it: they keep their option to bet each street.
func EveryoneAllInOrFolded(players []*models.Player) bool {
	if InHandCount(players) <= 1 {
		return false
	}
	for _, p := range players {
		if canAct(p) {
			return false
		}
	}
	return true
}

// NextRound is the street that follows the given one.
func NextRound(r models.BettingRound) models.BettingRound {
	switch r {
	case models.RoundPreFlop:
		return models.RoundFlop
	case models.RoundFlop:
		return models.RoundTurn
	case models.RoundTurn:
		return models.RoundRiver
	default:
		return models.RoundShowdown
	}
}

// CommunityCardsToDeal is how many cards the given street adds to the
// board.
func CommunityCardsToDeal(r models.BettingRound) int {
	switch r {
	case models.RoundFlop:
		return 3
	case models.RoundTurn, models.RoundRiver:
		return 1
	default:
		return 0
	}
}
