package game

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"poker-service/engine"
	"poker-service/feed"
	"poker-service/models"
	apperr "poker-service/pkg/errors"
	"poker-service/store"
)

var aiSeatNames = []string{"Ava", "Felix", "Mona", "Dexter", "Iris", "Hugo", "Nadia", "Oscar"}

// CreateParams describes a new table. For practice games AIOpponents
// seats are filled immediately with house-funded bots; multiplayer
// games wait for humans to join.
type CreateParams struct {
	HostUserID   string
	GameType     models.GameType
	AIDifficulty models.AIDifficulty
	AIOpponents  int
	BuyIn        int
	SmallBlind   int
	BigBlind     int
	MaxPlayers   int
}

func (p CreateParams) validate() error {
	if p.BuyIn <= 0 || p.SmallBlind <= 0 || p.BigBlind <= p.SmallBlind {
		return apperr.ErrInvalidAmount
	}
	if p.BuyIn < p.BigBlind*2 {
		return apperr.ErrInvalidAmount
	}
	if p.MaxPlayers < 2 || p.MaxPlayers > 8 {
		return fmt.Errorf("max players must be 2-8, got %d", p.MaxPlayers)
	}
	if p.GameType == models.GameTypePractice {
		if p.AIOpponents < 1 || p.AIOpponents >= p.MaxPlayers {
			return fmt.Errorf("practice game needs 1-%d ai opponents", p.MaxPlayers-1)
		}
	}
	return nil
}

// CreateGame opens a table with the host in seat 0. The host's buy-in
// is debited from their balance before any row is written; AI seats are
// not backed by the ledger.
func (c *Controller) CreateGame(ctx context.Context, params CreateParams) (*models.Game, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	if err := c.ledger.Debit(ctx, params.HostUserID, params.BuyIn); err != nil {
		return nil, err
	}

	difficulty := params.AIDifficulty
	if difficulty == "" {
		difficulty = models.DifficultyIntermediate
	}

	game := &models.Game{
		ID:           uuid.NewString(),
		HostUserID:   &params.HostUserID,
		GameType:     params.GameType,
		AIDifficulty: difficulty,
		Status:       models.StatusWaiting,
		BuyIn:        params.BuyIn,
		SmallBlind:   params.SmallBlind,
		BigBlind:     params.BigBlind,
		MaxPlayers:   params.MaxPlayers,
	}

	err := c.store.Transact(ctx, func(tx *store.Store) error {
		if err := tx.CreateGame(ctx, game); err != nil {
			return err
		}
		hostID := params.HostUserID
		host := &models.Player{
			ID:       uuid.NewString(),
			GameID:   game.ID,
			Position: 0,
			UserID:   &hostID,
			Chips:    params.BuyIn,
		}
		if err := tx.CreatePlayer(ctx, host); err != nil {
			return err
		}
		game.CurrentPlayers = 1

		if params.GameType == models.GameTypePractice {
			for i := 0; i < params.AIOpponents; i++ {
				bot := &models.Player{
					ID:       uuid.NewString(),
					GameID:   game.ID,
					Position: i + 1,
					IsAI:     true,
					AIName:   aiSeatNames[i%len(aiSeatNames)],
					Chips:    params.BuyIn,
				}
				if err := tx.CreatePlayer(ctx, bot); err != nil {
					return err
				}
				game.CurrentPlayers++
			}
		}
		return tx.SaveGame(ctx, game)
	})
	if err != nil {
		// The debit went through but the table did not; hand the buy-in
		// back.
		if refundErr := c.ledger.Credit(ctx, params.HostUserID, params.BuyIn); refundErr != nil {
			c.log.Error("refund after failed game create",
				zap.String("user_id", params.HostUserID),
				zap.Int("amount", params.BuyIn),
				zap.Error(refundErr))
		}
		return nil, err
	}

	c.log.Info("game created",
		zap.String("game_id", game.ID),
		zap.String("game_type", string(game.GameType)),
		zap.Int("buy_in", game.BuyIn))
	return game, nil
}

// ListJoinableGames is the lobby view: waiting multiplayer tables with
// an open seat.
func (c *Controller) ListJoinableGames(ctx context.Context, limit int) ([]models.Game, error) {
	if limit <= 0 {
		limit = 50
	}
	return c.store.ListJoinableGames(ctx, limit)
}

// JoinGame seats a user at a waiting multiplayer table, debiting the
// buy-in. The seat taken is the lowest free position.
func (c *Controller) JoinGame(ctx context.Context, gameID, userID string) (*models.Player, error) {
	release, err := c.locks.Acquire(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer release()

	// The ledger moves money in its own transaction, so the debit
	// happens before the seating transaction and is refunded if seating
	// fails.
	pre, err := c.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if pre.Status != models.StatusWaiting || pre.GameType != models.GameTypeMultiplayer {
		return nil, apperr.ErrGameNotActive
	}
	if err := c.ledger.Debit(ctx, userID, pre.BuyIn); err != nil {
		return nil, err
	}
	debited := pre.BuyIn

	var player *models.Player
	err = c.store.Transact(ctx, func(tx *store.Store) error {
		game, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if game.Status != models.StatusWaiting || game.GameType != models.GameTypeMultiplayer {
			return apperr.ErrGameNotActive
		}
		players, err := tx.GetPlayers(ctx, gameID)
		if err != nil {
			return err
		}
		if len(players) >= game.MaxPlayers {
			return apperr.ErrGameFull
		}
		for _, p := range players {
			if p.UserID != nil && *p.UserID == userID {
				return apperr.ErrAlreadySeated
			}
		}

		seat := 0
		for playerAt(players, seat) != nil {
			seat++
		}
		uid := userID
		player = &models.Player{
			ID:       uuid.NewString(),
			GameID:   gameID,
			Position: seat,
			UserID:   &uid,
			Chips:    game.BuyIn,
		}
		if err := tx.CreatePlayer(ctx, player); err != nil {
			return err
		}
		game.CurrentPlayers = len(players) + 1
		return tx.SaveGame(ctx, game)
	})
	if err != nil {
		if refundErr := c.ledger.Credit(ctx, userID, debited); refundErr != nil {
			c.log.Error("refund after failed join", zap.String("user_id", userID), zap.Error(refundErr))
		}
		return nil, err
	}

	c.publish(ctx, []feed.Event{{Kind: feed.EventPlayerJoined, GameID: gameID, PlayerID: player.ID}})
	return player, nil
}

// StartGame moves a waiting table into play and deals the first hand.
// Only the host may start, and at least two funded seats must exist.
func (c *Controller) StartGame(ctx context.Context, gameID, userID string) error {
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
		game, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if game.Status != models.StatusWaiting {
			return apperr.ErrHandInProgress
		}
		if game.HostUserID == nil || *game.HostUserID != userID {
			return apperr.ErrNotYourTurn
		}
		players, err := tx.GetPlayers(ctx, gameID)
		if err != nil {
			return err
		}
		if fundedCount(players) < 2 {
			return apperr.ErrNotEnoughPlayers
		}

		now := time.Now()
		game.Status = models.StatusInProgress
		game.StartedAt = &now
		return c.startHand(ctx, tx, game, players, true, &events, &credits)
	})
	if err != nil {
		return err
	}
	c.creditPayouts(ctx, gameID, credits)
	c.publish(ctx, events)
	return nil
}

// StartNextHand deals the following hand once the previous one has
// settled. The button moves to the next funded seat and busted seats
// are dealt out until they rebuy. With fewer than two funded seats the
// game is marked completed instead.
func (c *Controller) StartNextHand(ctx context.Context, gameID string) error {
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
		game, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if game.Status != models.StatusInProgress || game.CurrentRound != models.RoundShowdown {
			return apperr.ErrHandInProgress
		}
		players, err := tx.GetPlayers(ctx, gameID)
		if err != nil {
			return err
		}
		if fundedCount(players) < 2 {
			now := time.Now()
			game.Status = models.StatusCompleted
			game.EndedAt = &now
			events = append(events, feed.Event{Kind: feed.EventGameEnded, GameID: gameID})
			return tx.SaveGame(ctx, game)
		}
		return c.startHand(ctx, tx, game, players, false, &events, &credits)
	})
	if err != nil {
		return err
	}
	c.creditPayouts(ctx, gameID, credits)
	c.publish(ctx, events)
	return nil
}

// startHand resets the table and deals: shuffle, hole cards to every
// funded seat, blinds posted, first turn assigned. The action log is
// cleared so round-completion checks only see the new hand.
func (c *Controller) startHand(ctx context.Context, tx *store.Store, game *models.Game, players []*models.Player, firstHand bool, events *[]feed.Event, credits *[]payoutCredit) error {
	if err := tx.ClearActions(ctx, game.ID); err != nil {
		return err
	}

	if !firstHand {
		game.DealerPosition = engine.NextDealerPosition(players, game.DealerPosition, game.MaxPlayers)
	} else if playerAt(players, game.DealerPosition) == nil || playerAt(players, game.DealerPosition).Chips == 0 {
		game.DealerPosition = engine.NextDealerPosition(players, game.MaxPlayers-1, game.MaxPlayers)
	}

	for _, p := range players {
		p.IsFolded = false
		p.IsAllIn = false
		p.CurrentBet = 0
		p.Winnings = 0
		p.HoleCards = nil
	}

	deck := models.NewShuffledDeck()
	funded := make([]*models.Player, 0, len(players))
	for _, p := range players {
		if p.Chips > 0 {
			funded = append(funded, p)
		}
	}
	// Deal in seat order starting left of the button.
	pos := game.DealerPosition
	for range funded {
		next, ok := nextFundedAfter(players, pos, game.MaxPlayers)
		if !ok {
			return apperr.ErrNotEnoughPlayers
		}
		var hole []models.Card
		var err error
		hole, deck, err = deck.Deal(2)
		if err != nil {
			return err
		}
		next.SetHoleCards(hole)
		pos = next.Position
	}

	sbPos, bbPos := engine.BlindPositions(players, game.DealerPosition, game.MaxPlayers)
	game.PotAmount = 0
	postBlind(game, playerAt(players, sbPos), game.SmallBlind)
	postBlind(game, playerAt(players, bbPos), game.BigBlind)

	game.SetCommunityCards(nil)
	game.SetDeckRemainder(deck)
	game.CurrentRound = models.RoundPreFlop
	game.WinnerPlayerID = nil
	game.WinningHand = ""
	game.FinalPotAmount = nil

	*events = append(*events, feed.Event{Kind: feed.EventHandStarted, GameID: game.ID})

	first, ok := engine.NextActorAfter(players, bbPos, game.MaxPlayers)
	if ok {
		game.CurrentTurnPlayerID = &first.ID
		*events = append(*events, feed.Event{Kind: feed.EventTurnChanged, GameID: game.ID, PlayerID: first.ID})
	} else {
		// Blinds put everyone all-in; run the board out immediately.
		if err := c.advance(game, players, bbPos, map[string]bool{}, events, credits); err != nil {
			return err
		}
	}

	if err := tx.SavePlayers(ctx, players); err != nil {
		return err
	}
	if err := tx.SaveGame(ctx, game); err != nil {
		return err
	}
	c.log.Info("hand started",
		zap.String("game_id", game.ID),
		zap.Int("dealer", game.DealerPosition),
		zap.Int("pot", game.PotAmount),
		zap.Int("players", len(funded)))
	return nil
}

func nextFundedAfter(players []*models.Player, fromPosition, maxSeats int) (*models.Player, bool) {
	for i := 1; i <= maxSeats; i++ {
		p := playerAt(players, (fromPosition+i)%maxSeats)
		if p != nil && p.Chips > 0 && len(p.HoleCards) == 0 {
			return p, true
		}
	}
	return nil, false
}

// postBlind takes up to amount from the seat. A short stack posts what
// it has and is all-in.
func postBlind(game *models.Game, p *models.Player, amount int) {
	if p == nil {
		return
	}
	if amount > p.Chips {
		amount = p.Chips
	}
	p.Chips -= amount
	p.CurrentBet += amount
	game.PotAmount += amount
	if p.Chips == 0 {
		p.IsAllIn = true
	}
}

// Rebuy tops up a seat between hands, debiting the user's balance.
func (c *Controller) Rebuy(ctx context.Context, gameID, playerID string, amount int) error {
	if amount <= 0 {
		return apperr.ErrInvalidAmount
	}
	release, err := c.locks.Acquire(ctx, gameID)
	if err != nil {
		return err
	}
	defer release()

	pre, err := c.store.GetPlayer(ctx, gameID, playerID)
	if err != nil {
		return err
	}
	if pre.UserID == nil {
		return apperr.ErrPlayerNotFound
	}
	if err := c.ledger.Debit(ctx, *pre.UserID, amount); err != nil {
		return err
	}

	err = c.store.Transact(ctx, func(tx *store.Store) error {
		game, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if game.Status == models.StatusInProgress && game.CurrentRound != models.RoundShowdown {
			return apperr.ErrHandInProgress
		}
		player, err := tx.GetPlayer(ctx, gameID, playerID)
		if err != nil {
			return err
		}
		player.Chips += amount
		if err := tx.SavePlayer(ctx, player); err != nil {
			return err
		}

		// A rebuy can revive a table that ran out of funded seats.
		if game.Status == models.StatusCompleted {
			players, err := tx.GetPlayers(ctx, gameID)
			if err != nil {
				return err
			}
			if fundedCount(players) >= 2 {
				game.Status = models.StatusWaiting
				game.EndedAt = nil
				game.CurrentTurnPlayerID = nil
				return tx.SaveGame(ctx, game)
			}
		}
		return nil
	})
	if err != nil {
		if refundErr := c.ledger.Credit(ctx, *pre.UserID, amount); refundErr != nil {
			c.log.Error("refund after failed rebuy", zap.String("user_id", *pre.UserID), zap.Error(refundErr))
		}
		return err
	}
	c.publish(ctx, []feed.Event{{Kind: feed.EventGameUpdated, GameID: gameID}})
	return nil
}

// CashOut removes a seat between hands and credits its chips back to
// the user's balance. AI seats just leave. If fewer than two seats
// remain at an in-progress table the game completes.
func (c *Controller) CashOut(ctx context.Context, gameID, playerID string) error {
	release, err := c.locks.Acquire(ctx, gameID)
	if err != nil {
		return err
	}
	defer release()

	var events []feed.Event
	var creditUser string
	var creditAmount int
	err = c.store.Transact(ctx, func(tx *store.Store) error {
		events = events[:0]
		creditUser, creditAmount = "", 0
		game, err := tx.GetGame(ctx, gameID)
		if err != nil {
			return err
		}
		if game.Status == models.StatusInProgress && game.CurrentRound != models.RoundShowdown {
			return apperr.ErrHandInProgress
		}
		player, err := tx.GetPlayer(ctx, gameID, playerID)
		if err != nil {
			return err
		}
		if player.UserID != nil && player.Chips > 0 {
			creditUser, creditAmount = *player.UserID, player.Chips
		}
		if err := tx.DeletePlayer(ctx, gameID, playerID); err != nil {
			return err
		}
		game.CurrentPlayers--

		events = append(events, feed.Event{Kind: feed.EventPlayerLeft, GameID: gameID, PlayerID: playerID})
		if game.Status == models.StatusInProgress && game.CurrentPlayers < 2 {
			now := time.Now()
			game.Status = models.StatusCompleted
			game.EndedAt = &now
			events = append(events, feed.Event{Kind: feed.EventGameEnded, GameID: gameID})
		}
		return tx.SaveGame(ctx, game)
	})
	if err != nil {
		return err
	}
	if creditAmount > 0 {
		// The seat is gone either way; a failed credit here needs
		// operator attention, not a rollback of the departure.
		if creditErr := c.ledger.Credit(ctx, creditUser, creditAmount); creditErr != nil {
			c.log.Error("cash-out credit failed",
				zap.String("user_id", creditUser),
				zap.Int("amount", creditAmount),
				zap.Error(creditErr))
		}
	}
	c.publish(ctx, events)
	return nil
}
