package feed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Event kinds carried on the change feed. Consumers re-fetch the
// authoritative game state on every event rather than trusting any
// payload beyond the identifiers, so a missed event only delays
// convergence until the next one.
const (
	EventGameUpdated  = "game_updated"
	EventHandStarted  = "hand_started"
	EventHandSettled  = "hand_settled"
	EventTurnChanged  = "turn_changed"
	EventPlayerJoined = "player_joined"
	EventPlayerLeft   = "player_left"
	EventGameEnded    = "game_ended"
)

// Event is one change-feed message for a game.
type Event struct {
	Kind     string `json:"kind"`
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id,omitempty"`
	Version  int64  `json:"version"`
}

// Publisher pushes change events after every committed write. Delivery
// is best effort: persistence is the source of truth and publish
// failures must never fail the write they follow.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Subscriber receives the events for one game.
type Subscriber interface {
	Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error)
}

func channelFor(gameID string) string {
	return fmt.Sprintf("game:%s:events", gameID)
}

// RedisFeed carries events over Redis pub/sub, one channel per game.
type RedisFeed struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisFeed(client *redis.Client, log *zap.Logger) *RedisFeed {
	return &RedisFeed{client: client, log: log}
}

func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, channelFor(ev.GameID), payload).Err(); err != nil {
		f.log.Warn("publish event failed",
			zap.String("game_id", ev.GameID),
			zap.String("kind", ev.Kind),
			zap.Error(err))
		return err
	}
	return nil
}

// Subscribe streams events for one game until the returned cancel func
// is called or the context ends. Undecodable messages are dropped with
// a log line.
func (f *RedisFeed) Subscribe(ctx context.Context, gameID string) (<-chan Event, func(), error) {
	sub := f.client.Subscribe(ctx, channelFor(gameID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				f.log.Warn("bad event payload", zap.String("game_id", gameID), zap.Error(err))
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { _ = sub.Close() }
	return out, cancel, nil
}

// NopPublisher discards events. Used by tests and single-process setups
// that poll instead of subscribing.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
