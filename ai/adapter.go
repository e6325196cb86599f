package ai

import (
	"context"
	"time"

	"go.uber.org/zap"

	"poker-service/models"
)

// Decision is a closed action choice. Constructing one through the
// helpers below is the only way to get a valid value, so an adapter can
// never return an action type the table does not understand.
type Decision struct {
	kind   models.ActionType
	amount int
}

func Fold() Decision            { return Decision{kind: models.ActionFold} }
func Check() Decision           { return Decision{kind: models.ActionCheck} }
func Call() Decision            { return Decision{kind: models.ActionCall} }
func Raise(amount int) Decision { return Decision{kind: models.ActionRaise, amount: amount} }
func AllIn() Decision           { return Decision{kind: models.ActionAllIn} }

func (d Decision) Kind() models.ActionType { return d.kind }

// Amount is the target total bet for a raise; zero for everything else.
func (d Decision) Amount() int { return d.amount }

// View is the table as one seat sees it: all public state plus that
// seat's own hole cards. Nothing else about opponents is exposed.
type View struct {
	GameID         string
	PlayerID       string
	Round          models.BettingRound
	HoleCards      []models.Card
	CommunityCards []models.Card
	PotAmount      int
	Chips          int
	CurrentBet     int
	HighestBet     int
	ToCall         int
	MinRaiseTo     int
	BigBlind       int
	Opponents      int
}

// Adapter produces a decision for the seat it is asked about. Decide
// must respect ctx and return promptly once it is cancelled.
type Adapter interface {
	Decide(ctx context.Context, view View) (Decision, error)
}

// Normalize repairs decisions that are legal intents but illegal at the
// table right now: a check facing a bet becomes a call, a raise the
// stack cannot cover becomes all-in, a call with nothing owed becomes a
// check. Human submissions are rejected instead; this leniency exists
// so a slightly confused adapter never wedges a game.
func Normalize(view View, d Decision) Decision {
	switch d.kind {
	case models.ActionCheck:
		if view.ToCall > 0 {
			return Call()
		}
	case models.ActionCall:
		if view.ToCall == 0 {
			return Check()
		}
	case models.ActionRaise:
		if d.amount-view.CurrentBet >= view.Chips {
			return AllIn()
		}
		if d.amount < view.MinRaiseTo {
			if view.ToCall > 0 {
				return Call()
			}
			return Check()
		}
	}
	return d
}

// DecideWithFallback runs the adapter under a deadline and falls back
// to the safe default on timeout or error: check when nothing is owed,
// fold otherwise. The game never waits on a stuck adapter.
func DecideWithFallback(ctx context.Context, a Adapter, view View, timeout time.Duration, log *zap.Logger) Decision {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		d   Decision
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		d, err := a.Decide(ctx, view)
		ch <- outcome{d, err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			log.Warn("adapter error, using fallback",
				zap.String("game_id", view.GameID),
				zap.String("player_id", view.PlayerID),
				zap.Error(out.err))
			return fallback(view)
		}
		return Normalize(view, out.d)
	case <-ctx.Done():
		log.Warn("adapter timed out, using fallback",
			zap.String("game_id", view.GameID),
			zap.String("player_id", view.PlayerID))
		return fallback(view)
	}
}

func fallback(view View) Decision {
	if view.ToCall > 0 {
		return Fold()
	}
	return Check()
}
