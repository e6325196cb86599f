package game

import (
	"context"
	"sync"
	"time"

	"poker-service/models"
)

// PlayerView is one seat as a given viewer may see it. Hole cards are
// present only for the viewer's own seat, or for every unfolded seat
// once the hand reaches showdown.
type PlayerView struct {
	ID         string   `json:"id"`
	Position   int      `json:"seat_position"`
	UserID     *string  `json:"user_id,omitempty"`
	IsAI       bool     `json:"is_ai"`
	AIName     string   `json:"ai_name,omitempty"`
	Chips      int      `json:"chips"`
	CurrentBet int      `json:"current_bet"`
	IsFolded   bool     `json:"is_folded"`
	IsAllIn    bool     `json:"is_all_in"`
	HoleCards  []string `json:"hole_cards,omitempty"`
	Winnings   int      `json:"winnings"`
}

// Snapshot is a consistent view of one game at one version. Version is
// the game row's concurrency counter, so consumers can order snapshots
// and discard stale ones.
type Snapshot struct {
	Game      models.Game  `json:"game"`
	Players   []PlayerView `json:"players"`
	Version   int64        `json:"version"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// GetSnapshot reads the authoritative state and redacts it for the
// viewer. An empty viewerID sees no hole cards until showdown.
func (c *Controller) GetSnapshot(ctx context.Context, gameID, viewerID string) (*Snapshot, error) {
	game, err := c.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	players, err := c.store.GetPlayers(ctx, gameID)
	if err != nil {
		return nil, err
	}

	showdown := game.CurrentRound == models.RoundShowdown
	snap := &Snapshot{
		Game:      *game,
		Version:   game.Version,
		FetchedAt: time.Now(),
	}
	snap.Game.Deck = nil

	for _, p := range players {
		view := PlayerView{
			ID:         p.ID,
			Position:   p.Position,
			UserID:     p.UserID,
			IsAI:       p.IsAI,
			AIName:     p.AIName,
			Chips:      p.Chips,
			CurrentBet: p.CurrentBet,
			IsFolded:   p.IsFolded,
			IsAllIn:    p.IsAllIn,
			Winnings:   p.Winnings,
		}
		ownSeat := p.ID == viewerID || (p.UserID != nil && *p.UserID == viewerID)
		revealed := showdown && !p.IsFolded
		if ownSeat || revealed {
			if hole, err := p.HoleCardList(); err == nil {
				view.HoleCards = models.CardStrings(hole)
			}
		}
		snap.Players = append(snap.Players, view)
	}
	return snap, nil
}

// Cache holds the last known snapshot per game on the consumer side.
// Consumers may speculate on top of it for responsiveness, but every
// authoritative snapshot overwrites whatever was speculated; the cache
// never merges.
type Cache struct {
	mu    sync.RWMutex
	snaps map[string]*Snapshot
}

func NewCache() *Cache {
	return &Cache{snaps: make(map[string]*Snapshot)}
}

func (c *Cache) Get(gameID string) (*Snapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.snaps[gameID]
	return s, ok
}

// Apply installs an authoritative snapshot. Out-of-order arrivals are
// dropped by version so a slow fetch cannot roll the cache backwards.
func (c *Cache) Apply(snap *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.snaps[snap.Game.ID]
	if ok && cur.Version > snap.Version {
		return
	}
	c.snaps[snap.Game.ID] = snap
}

// Speculate edits the cached snapshot in place for immediate local
// display, e.g. showing your own bet before the server confirms it.
// The edit is provisional and survives only until the next Apply.
func (c *Cache) Speculate(gameID string, fn func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.snaps[gameID]; ok {
		fn(s)
	}
}

func (c *Cache) Forget(gameID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snaps, gameID)
}
