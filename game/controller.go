package game

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"poker-service/ai"
	"poker-service/engine"
	"poker-service/feed"
	"poker-service/locks"
	"poker-service/ledger"
	"poker-service/models"
	apperr "poker-service/pkg/errors"
	"poker-service/store"
)

// Controller owns every mutation of game state. All writes run under
// the per-game lock and commit through the game row's version check,
// so a stale writer gets ErrVersionConflict instead of clobbering a
// concurrent hand.
type Controller struct {
	store       *store.Store
	ledger      *ledger.Ledger
	locks       *locks.Manager
	pub         feed.Publisher
	log         *zap.Logger
	rakePercent int
}

func NewController(st *store.Store, lg *ledger.Ledger, lk *locks.Manager, pub feed.Publisher, log *zap.Logger, rakePercent int) *Controller {
	if rakePercent < 0 {
		rakePercent = engine.DefaultRakePercent
	}
	return &Controller{
		store:       st,
		ledger:      lg,
		locks:       lk,
		pub:         pub,
		log:         log,
		rakePercent: rakePercent,
	}
}

func (c *Controller) publish(ctx context.Context, events []feed.Event) {
	for _, ev := range events {
		_ = c.pub.Publish(ctx, ev)
	}
}

// SubmitAction applies one player decision to the hand. Replaying a
// request ID that already went through is a no-op success, so callers
// can retry on transport errors without double-acting. Validation
// failures mutate nothing.
func (c *Controller) SubmitAction(ctx context.Context, gameID, playerID, requestID string, d ai.Decision) error {
	release, err := c.locks.Acquire(ctx, gameID)
	if err != nil {
		return err
	}
	defer release()

	var events []feed.Event
	var credits []payoutCredit
	err = c.store.Transact(ctx, func(tx *store.Store) error {
		events = events[:0]
		credits = credits[:0]

		// Replay check comes before validation: a request that already
		// went through must succeed even though the turn has moved on.
		replayed, err := tx.ActionExists(ctx, requestID)
		if err != nil {
			return err
		}
		if replayed {
			return errReplayed
		}

		game, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if game.Status != models.StatusInProgress || game.CurrentRound == models.RoundShowdown {
			return apperr.ErrGameNotActive
		}
		if game.CurrentTurnPlayerID == nil || *game.CurrentTurnPlayerID != playerID {
			return apperr.ErrNotYourTurn
		}

		players, err := tx.GetPlayers(ctx, gameID)
		if err != nil {
			return err
		}
		actor := playerByID(players, playerID)
		if actor == nil {
			return apperr.ErrPlayerNotFound
		}

		logged, err := c.applyAction(game, players, actor, d)
		if err != nil {
			return err
		}

		recorded, err := tx.RecordAction(ctx, &models.Action{
			ID:         uuid.NewString(),
			GameID:     gameID,
			PlayerID:   playerID,
			ActionType: logged.kind,
			Amount:     logged.amount,
			Round:      game.CurrentRound,
			RequestID:  requestID,
		})
		if err != nil {
			return err
		}
		if !recorded {
			// Replay of an already-applied request. Roll back the
			// in-memory mutation by aborting the transaction with no
			// error surface.
			return errReplayed
		}

		acted, err := actedThisRound(ctx, tx, game)
		if err != nil {
			return err
		}
		acted[actor.ID] = true

		if err := c.advance(game, players, actor.Position, acted, &events, &credits); err != nil {
			return err
		}

		if err := tx.SavePlayers(ctx, players); err != nil {
			return err
		}
		return tx.SaveGame(ctx, game)
	})
	if err == errReplayed {
		return nil
	}
	if err != nil {
		return err
	}

	c.creditPayouts(ctx, gameID, credits)
	c.publish(ctx, events)
	return nil
}

// payoutCredit is a winner's net payout owed to their external balance
// once the settlement transaction has committed.
type payoutCredit struct {
	userID string
	amount int
}

// creditPayouts mirrors each settlement payout onto the winner's
// external balance. Failures are logged and non-fatal: the chips on the
// table are already correct and an operator reconciles from the log.
func (c *Controller) creditPayouts(ctx context.Context, gameID string, credits []payoutCredit) {
	for _, cr := range credits {
		if err := c.ledger.Credit(ctx, cr.userID, cr.amount); err != nil {
			c.log.Error("settlement credit failed",
				zap.String("game_id", gameID),
				zap.String("user_id", cr.userID),
				zap.Int("amount", cr.amount),
				zap.Error(err))
		}
	}
}

// errReplayed aborts the transaction for an idempotent replay without
// surfacing an error to the caller.
var errReplayed = &replayError{}

type replayError struct{}

func (*replayError) Error() string { return "request already applied" }

type loggedAction struct {
	kind   models.ActionType
	amount int
}

// applyAction mutates the actor and the pot for one decision, or
// returns a validation error with nothing changed. The returned record
// is what goes into the action log: calls log the chips actually paid,
// raises log the target total bet.
func (c *Controller) applyAction(game *models.Game, players []*models.Player, actor *models.Player, d ai.Decision) (loggedAction, error) {
	if actor.IsFolded || actor.IsAllIn {
		return loggedAction{}, apperr.ErrNotYourTurn
	}
	highest := engine.HighestBet(players)

	switch d.Kind() {
	case models.ActionFold:
		actor.IsFolded = true
		return loggedAction{kind: models.ActionFold}, nil

	case models.ActionCheck:
		if actor.CurrentBet < highest {
			return loggedAction{}, apperr.ErrInvalidAmount
		}
		return loggedAction{kind: models.ActionCheck}, nil

	case models.ActionCall:
		deficit := highest - actor.CurrentBet
		pay := deficit
		if pay > actor.Chips {
			// Short call commits the stack.
			pay = actor.Chips
		}
		actor.Chips -= pay
		actor.CurrentBet += pay
		game.PotAmount += pay
		if actor.Chips == 0 {
			actor.IsAllIn = true
			return loggedAction{kind: models.ActionAllIn, amount: pay}, nil
		}
		return loggedAction{kind: models.ActionCall, amount: pay}, nil

	case models.ActionRaise:
		target := d.Amount()
		if target < highest+game.BigBlind {
			return loggedAction{}, apperr.ErrInvalidAmount
		}
		pay := target - actor.CurrentBet
		if pay <= 0 {
			return loggedAction{}, apperr.ErrInvalidAmount
		}
		if pay > actor.Chips {
			return loggedAction{}, apperr.ErrInsufficientFunds
		}
		actor.Chips -= pay
		actor.CurrentBet = target
		game.PotAmount += pay
		if actor.Chips == 0 {
			actor.IsAllIn = true
			return loggedAction{kind: models.ActionAllIn, amount: pay}, nil
		}
		return loggedAction{kind: models.ActionRaise, amount: target}, nil

	case models.ActionAllIn:
		pay := actor.Chips
		if pay == 0 {
			return loggedAction{}, apperr.ErrInvalidAmount
		}
		actor.Chips = 0
		actor.CurrentBet += pay
		actor.IsAllIn = true
		game.PotAmount += pay
		return loggedAction{kind: models.ActionAllIn, amount: pay}, nil
	}

	return loggedAction{}, apperr.ErrInvalidAmount
}

// advance moves the hand forward after an applied action: pass the
// turn, close the street, run out the board when betting is over, or
// settle.
func (c *Controller) advance(game *models.Game, players []*models.Player, fromPosition int, acted map[string]bool, events *[]feed.Event, credits *[]payoutCredit) error {
	if engine.InHandCount(players) <= 1 {
		return c.settleLastStanding(game, players, events, credits)
	}

	if !engine.IsRoundComplete(players, acted) {
		next, ok := engine.NextActorAfter(players, fromPosition, game.MaxPlayers)
		if ok {
			game.CurrentTurnPlayerID = &next.ID
			*events = append(*events, feed.Event{
				Kind: feed.EventTurnChanged, GameID: game.ID, PlayerID: next.ID,
			})
			return nil
		}
	}

	for {
		next := engine.NextRound(game.CurrentRound)
		if next == models.RoundShowdown {
			return c.settleShowdown(game, players, events, credits)
		}

		deck, err := game.DeckRemainder()
		if err != nil {
			return err
		}
		dealt, rest, err := deck.Deal(engine.CommunityCardsToDeal(next))
		if err != nil {
			return err
		}
		game.SetDeckRemainder(rest)

		community, err := game.CommunityCardList()
		if err != nil {
			return err
		}
		game.SetCommunityCards(append(community, dealt...))
		game.CurrentRound = next

		for _, p := range players {
			p.CurrentBet = 0
		}

		if engine.EveryoneAllInOrFolded(players) {
			continue
		}
		first, ok := engine.NextActorAfter(players, game.DealerPosition, game.MaxPlayers)
		if !ok {
			continue
		}
		game.CurrentTurnPlayerID = &first.ID
		*events = append(*events,
			feed.Event{Kind: feed.EventGameUpdated, GameID: game.ID},
			feed.Event{Kind: feed.EventTurnChanged, GameID: game.ID, PlayerID: first.ID},
		)
		return nil
	}
}

func (c *Controller) settleLastStanding(game *models.Game, players []*models.Player, events *[]feed.Event, credits *[]payoutCredit) error {
	var winner *models.Player
	for _, p := range players {
		if len(p.HoleCards) > 0 && !p.IsFolded {
			winner = p
			break
		}
	}
	if winner == nil {
		return apperr.ErrPlayerNotFound
	}
	res := engine.LastStanding(winner, game.PotAmount, c.rakePercent)
	return c.applySettlement(game, players, res, events, credits)
}

func (c *Controller) settleShowdown(game *models.Game, players []*models.Player, events *[]feed.Event, credits *[]payoutCredit) error {
	community, err := game.CommunityCardList()
	if err != nil {
		return err
	}
	contenders := make([]*models.Player, 0, len(players))
	for _, p := range players {
		if len(p.HoleCards) > 0 {
			contenders = append(contenders, p)
		}
	}
	res, err := engine.Showdown(contenders, community, game.PotAmount, c.rakePercent)
	if err != nil {
		return err
	}
	return c.applySettlement(game, players, res, events, credits)
}

func (c *Controller) applySettlement(game *models.Game, players []*models.Player, res engine.Result, events *[]feed.Event, credits *[]payoutCredit) error {
	for _, p := range players {
		if amount, ok := res.Payouts[p.ID]; ok {
			p.Chips += amount
			p.Winnings = amount
			// Winnings mirror onto the external balance once the
			// transaction commits. AI seats carry no balance.
			if p.UserID != nil {
				*credits = append(*credits, payoutCredit{userID: *p.UserID, amount: amount})
			}
		}
	}

	pot := game.PotAmount
	game.FinalPotAmount = &pot
	game.PotAmount = 0
	game.CurrentRound = models.RoundShowdown
	game.CurrentTurnPlayerID = nil
	game.WinnerPlayerID = &res.WinnerIDs[0]
	game.WinningHand = res.WinningHand

	*events = append(*events, feed.Event{Kind: feed.EventHandSettled, GameID: game.ID, PlayerID: res.WinnerIDs[0]})

	if fundedCount(players) < 2 {
		now := time.Now()
		game.Status = models.StatusCompleted
		game.EndedAt = &now
		*events = append(*events, feed.Event{Kind: feed.EventGameEnded, GameID: game.ID})
	}

	c.log.Info("hand settled",
		zap.String("game_id", game.ID),
		zap.Strings("winners", res.WinnerIDs),
		zap.String("winning_hand", res.WinningHand),
		zap.Int("pot", pot),
		zap.Int("rake", res.Rake))
	return nil
}

func playerByID(players []*models.Player, id string) *models.Player {
	for _, p := range players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func playerAt(players []*models.Player, position int) *models.Player {
	for _, p := range players {
		if p.Position == position {
			return p
		}
	}
	return nil
}

func fundedCount(players []*models.Player) int {
	n := 0
	for _, p := range players {
		if p.Chips > 0 {
			n++
		}
	}
	return n
}

// actedThisRound rebuilds the acted set from the hand's action log.
// Posted blinds are not logged, so they never count as having acted.
func actedThisRound(ctx context.Context, tx *store.Store, game *models.Game) (map[string]bool, error) {
	actions, err := tx.ActionsForRound(ctx, game.ID, game.CurrentRound)
	if err != nil {
		return nil, err
	}
	acted := make(map[string]bool, len(actions))
	for _, a := range actions {
		acted[a.PlayerID] = true
	}
	return acted, nil
}
