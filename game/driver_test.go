package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"poker-service/ai"
	"poker-service/models"
)

type callingAdapter struct{}

func (callingAdapter) Decide(_ context.Context, view ai.View) (ai.Decision, error) {
	if view.ToCall > 0 {
		return ai.Call(), nil
	}
	return ai.Check(), nil
}

func newTestDriver(f *fixture) *Driver {
	factory := func(models.AIDifficulty, string) ai.Adapter { return callingAdapter{} }
	return NewDriver(f.ctrl, f.store, factory, DriverConfig{
		ThinkDelay:   time.Millisecond,
		SettleDelay:  time.Millisecond,
		PollInterval: time.Millisecond,
	}, zap.NewNop())
}

// practiceHeadsUp seats the host against one bot and starts play. Seat
// 0 (host) holds the button and acts first pre-flop.
func practiceHeadsUp(t *testing.T, f *fixture) (gameID string, host, bot *models.Player) {
	t.Helper()
	ctx := context.Background()
	f.fund(t, "host", 1000)

	g, err := f.ctrl.CreateGame(ctx, CreateParams{
		HostUserID:  "host",
		GameType:    models.GameTypePractice,
		AIOpponents: 1,
		BuyIn:       100,
		SmallBlind:  5,
		BigBlind:    10,
		MaxPlayers:  2,
	})
	require.NoError(t, err)
	require.NoError(t, f.ctrl.StartGame(ctx, g.ID, "host"))

	players, err := f.store.GetPlayers(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, players, 2)
	require.True(t, players[1].IsAI)
	return g.ID, players[0], players[1]
}

func TestDriverStepIgnoresHumanTurn(t *testing.T) {
	f := newFixture(t)
	gameID, host, _ := practiceHeadsUp(t, f)
	d := newTestDriver(f)

	require.NoError(t, d.Step(context.Background(), gameID))

	g := f.game(t, gameID)
	require.NotNil(t, g.CurrentTurnPlayerID)
	assert.Equal(t, host.ID, *g.CurrentTurnPlayerID, "driver never acts for humans")
	assert.Equal(t, 15, g.PotAmount)
}

func TestDriverStepActsForBot(t *testing.T) {
	f := newFixture(t)
	gameID, host, bot := practiceHeadsUp(t, f)
	ctx := context.Background()

	// Host calls; now the big blind bot has the option.
	require.NoError(t, f.ctrl.SubmitAction(ctx, gameID, host.ID, "r1", ai.Call()))
	g := f.game(t, gameID)
	require.Equal(t, bot.ID, *g.CurrentTurnPlayerID)

	d := newTestDriver(f)
	// First step stamps the think deadline, second one acts.
	require.NoError(t, d.Step(ctx, gameID))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, d.Step(ctx, gameID))

	// Bot checked its option and the flop came down.
	g = f.game(t, gameID)
	assert.Equal(t, models.RoundFlop, g.CurrentRound)
	assert.Equal(t, 20, g.PotAmount)
}

func TestDriverStepDoesNotBlockOnThinkDelay(t *testing.T) {
	f := newFixture(t)
	gameID, host, bot := practiceHeadsUp(t, f)
	ctx := context.Background()

	require.NoError(t, f.ctrl.SubmitAction(ctx, gameID, host.ID, "r1", ai.Call()))
	require.Equal(t, bot.ID, *f.game(t, gameID).CurrentTurnPlayerID)

	factory := func(models.AIDifficulty, string) ai.Adapter { return callingAdapter{} }
	d := NewDriver(f.ctrl, f.store, factory, DriverConfig{
		ThinkDelay: time.Hour,
	}, zap.NewNop())

	// A sweep over a bot still thinking must return immediately so other
	// games keep moving.
	start := time.Now()
	require.NoError(t, d.Step(ctx, gameID))
	require.NoError(t, d.Step(ctx, gameID))
	assert.Less(t, time.Since(start), time.Second)

	g := f.game(t, gameID)
	assert.Equal(t, models.RoundPreFlop, g.CurrentRound, "bot must not act before its deadline")
	assert.Equal(t, bot.ID, *g.CurrentTurnPlayerID)
}

func TestDriverDealsNextHandAfterSettleDelay(t *testing.T) {
	f := newFixture(t)
	gameID, host, _ := practiceHeadsUp(t, f)
	ctx := context.Background()

	require.NoError(t, f.ctrl.SubmitAction(ctx, gameID, host.ID, "r1", ai.Fold()))
	require.Equal(t, models.RoundShowdown, f.game(t, gameID).CurrentRound)

	d := newTestDriver(f)
	// First step stamps the settle time, second one deals.
	require.NoError(t, d.Step(ctx, gameID))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, d.Step(ctx, gameID))

	g := f.game(t, gameID)
	assert.Equal(t, models.RoundPreFlop, g.CurrentRound)
	assert.Equal(t, 15, g.PotAmount)
	assert.Nil(t, g.WinnerPlayerID)
}
