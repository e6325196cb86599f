package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"poker-service/ai"
	"poker-service/engine"
	"poker-service/models"
	apperr "poker-service/pkg/errors"
	"poker-service/store"
)

// DriverConfig tunes the pacing of AI play. ThinkDelay keeps bots from
// acting instantly; SettleDelay leaves the settled board on display
// before the next hand is dealt.
type DriverConfig struct {
	ThinkDelay   time.Duration
	SettleDelay  time.Duration
	PollInterval time.Duration
	MaxGames     int
}

func (c *DriverConfig) fillDefaults() {
	if c.ThinkDelay <= 0 {
		c.ThinkDelay = 1500 * time.Millisecond
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = 8 * time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.MaxGames <= 0 {
		c.MaxGames = 100
	}
}

// AdapterFactory returns the decision adapter for one AI seat.
type AdapterFactory func(difficulty models.AIDifficulty, playerID string) ai.Adapter

// Driver is the single process that moves AI seats and deals follow-up
// hands. Exactly one driver should run against a database; it acts
// through the same validated path as human players, so even a buggy
// adapter cannot corrupt a game.
type Driver struct {
	ctrl    *Controller
	store   *store.Store
	log     *zap.Logger
	cfg     DriverConfig
	factory AdapterFactory

	mu       sync.Mutex
	adapters map[string]ai.Adapter
	settled  map[string]time.Time
	thinking map[string]pendingTurn
}

// pendingTurn is an AI turn the driver has seen but not yet acted on.
// The deadline replaces an inline sleep, which would stall every other
// game in the poll sweep.
type pendingTurn struct {
	playerID string
	due      time.Time
}

func NewDriver(ctrl *Controller, st *store.Store, factory AdapterFactory, cfg DriverConfig, log *zap.Logger) *Driver {
	cfg.fillDefaults()
	return &Driver{
		ctrl:     ctrl,
		store:    st,
		log:      log,
		cfg:      cfg,
		factory:  factory,
		adapters: make(map[string]ai.Adapter),
		settled:  make(map[string]time.Time),
		thinking: make(map[string]pendingTurn),
	}
}

// Run polls active games until the context ends.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			games, err := d.store.ListActiveGames(ctx, d.cfg.MaxGames)
			if err != nil {
				d.log.Error("list active games", zap.Error(err))
				continue
			}
			for i := range games {
				if err := d.Step(ctx, games[i].ID); err != nil {
					d.log.Warn("drive game", zap.String("game_id", games[i].ID), zap.Error(err))
				}
			}
		}
	}
}

// Step advances one game a single notch: deal the next hand if the
// settle delay has passed, or act for the AI seat whose turn it is.
// Doing nothing is a valid outcome when it is a human's turn.
func (d *Driver) Step(ctx context.Context, gameID string) error {
	game, err := d.store.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Status != models.StatusInProgress {
		d.forget(gameID)
		return nil
	}

	if game.CurrentRound == models.RoundShowdown {
		d.mu.Lock()
		delete(d.thinking, gameID)
		d.mu.Unlock()
		return d.maybeDealNext(ctx, gameID)
	}
	d.mu.Lock()
	delete(d.settled, gameID)
	d.mu.Unlock()

	if game.CurrentTurnPlayerID == nil {
		return nil
	}
	players, err := d.store.GetPlayers(ctx, gameID)
	if err != nil {
		return err
	}
	actor := playerByID(players, *game.CurrentTurnPlayerID)
	if actor == nil || !actor.IsAI {
		d.mu.Lock()
		delete(d.thinking, gameID)
		d.mu.Unlock()
		return nil
	}

	if !d.doneThinking(gameID, actor.ID) {
		return nil
	}

	view, err := buildView(game, players, actor)
	if err != nil {
		return err
	}
	decision := ai.DecideWithFallback(ctx, d.adapterFor(game, actor), view, 5*time.Second, d.log)

	err = d.ctrl.SubmitAction(ctx, gameID, actor.ID, uuid.NewString(), decision)
	if errors.Is(err, apperr.ErrNotYourTurn) || errors.Is(err, apperr.ErrVersionConflict) || errors.Is(err, apperr.ErrGameNotActive) {
		// Someone else moved the game while we were thinking; the next
		// poll will catch up.
		return nil
	}
	return err
}

// maybeDealNext starts the following hand once the settled board has
// been on display long enough.
func (d *Driver) maybeDealNext(ctx context.Context, gameID string) error {
	d.mu.Lock()
	since, seen := d.settled[gameID]
	if !seen {
		d.settled[gameID] = time.Now()
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	if time.Since(since) < d.cfg.SettleDelay {
		return nil
	}
	d.forget(gameID)

	err := d.ctrl.StartNextHand(ctx, gameID)
	if errors.Is(err, apperr.ErrHandInProgress) {
		return nil
	}
	return err
}

// doneThinking stamps a think deadline the first time an AI turn is
// seen and reports whether it has passed. The turn moving to a
// different player restarts the clock.
func (d *Driver) doneThinking(gameID, playerID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	p, ok := d.thinking[gameID]
	if !ok || p.playerID != playerID {
		d.thinking[gameID] = pendingTurn{playerID: playerID, due: time.Now().Add(d.cfg.ThinkDelay)}
		return false
	}
	if time.Now().Before(p.due) {
		return false
	}
	delete(d.thinking, gameID)
	return true
}

func (d *Driver) forget(gameID string) {
	d.mu.Lock()
	delete(d.settled, gameID)
	delete(d.thinking, gameID)
	d.mu.Unlock()
}

func (d *Driver) adapterFor(game *models.Game, actor *models.Player) ai.Adapter {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.adapters[actor.ID]
	if !ok {
		a = d.factory(game.AIDifficulty, actor.ID)
		d.adapters[actor.ID] = a
	}
	return a
}

// buildView projects the table for one seat: public state plus that
// seat's own cards, nothing more.
func buildView(game *models.Game, players []*models.Player, actor *models.Player) (ai.View, error) {
	hole, err := actor.HoleCardList()
	if err != nil {
		return ai.View{}, err
	}
	community, err := game.CommunityCardList()
	if err != nil {
		return ai.View{}, err
	}
	highest := engine.HighestBet(players)
	return ai.View{
		GameID:         game.ID,
		PlayerID:       actor.ID,
		Round:          game.CurrentRound,
		HoleCards:      hole,
		CommunityCards: community,
		PotAmount:      game.PotAmount,
		Chips:          actor.Chips,
		CurrentBet:     actor.CurrentBet,
		HighestBet:     highest,
		ToCall:         highest - actor.CurrentBet,
		MinRaiseTo:     highest + game.BigBlind,
		BigBlind:       game.BigBlind,
		Opponents:      engine.InHandCount(players) - 1,
	}, nil
}
