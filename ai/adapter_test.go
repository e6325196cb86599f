package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"poker-service/models"
)

type stubAdapter struct {
	d     Decision
	err   error
	delay time.Duration
}

func (s stubAdapter) Decide(ctx context.Context, _ View) (Decision, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Decision{}, ctx.Err()
		}
	}
	return s.d, s.err
}

func TestNormalize(t *testing.T) {
	facingBet := View{ToCall: 50, Chips: 200, CurrentBet: 0, MinRaiseTo: 100}
	unopened := View{ToCall: 0, Chips: 200, MinRaiseTo: 20}

	assert.Equal(t, Call(), Normalize(facingBet, Check()))
	assert.Equal(t, Check(), Normalize(unopened, Call()))
	assert.Equal(t, Fold(), Normalize(facingBet, Fold()))
	assert.Equal(t, Raise(100), Normalize(facingBet, Raise(100)))

	// Under-sized raise downgrades to a call.
	assert.Equal(t, Call(), Normalize(facingBet, Raise(60)))
	// Raise beyond the stack becomes all-in.
	assert.Equal(t, AllIn(), Normalize(facingBet, Raise(500)))
}

func TestDecideWithFallbackTimeout(t *testing.T) {
	log := zap.NewNop()
	slow := stubAdapter{d: Raise(100), delay: time.Second}

	d := DecideWithFallback(context.Background(), slow, View{ToCall: 50}, 10*time.Millisecond, log)
	assert.Equal(t, Fold(), d)

	d = DecideWithFallback(context.Background(), slow, View{ToCall: 0}, 10*time.Millisecond, log)
	assert.Equal(t, Check(), d)
}

func TestDecideWithFallbackError(t *testing.T) {
	broken := stubAdapter{err: errors.New("model unavailable")}
	d := DecideWithFallback(context.Background(), broken, View{ToCall: 20}, time.Second, zap.NewNop())
	assert.Equal(t, Fold(), d)
}

func TestDecideWithFallbackNormalizesResult(t *testing.T) {
	confused := stubAdapter{d: Check()}
	d := DecideWithFallback(context.Background(), confused, View{ToCall: 30, Chips: 100, MinRaiseTo: 60}, time.Second, zap.NewNop())
	assert.Equal(t, Call(), d)
}

func TestBasicAdapterFoldsTrashFacingBigBet(t *testing.T) {
	b := NewBasicAdapter(models.DifficultyExpert, 1)
	hole, err := models.ParseCards([]string{"2h", "7d"})
	require.NoError(t, err)
	board, err := models.ParseCards([]string{"Kh", "Qs", "Jc"})
	require.NoError(t, err)

	folds := 0
	for i := 0; i < 20; i++ {
		d, err := b.Decide(context.Background(), View{
			HoleCards:      hole,
			CommunityCards: board,
			PotAmount:      100,
			ToCall:         200,
			Chips:          500,
			MinRaiseTo:     410,
			BigBlind:       10,
		})
		require.NoError(t, err)
		if d.Kind() == models.ActionFold {
			folds++
		}
	}
	assert.Greater(t, folds, 15, "bottom pairless hand should mostly fold into a pot-sized overbet")
}

func TestBasicAdapterNeverChecksFacingBet(t *testing.T) {
	hole, err := models.ParseCards([]string{"Ah", "Ad"})
	require.NoError(t, err)

	for _, diff := range []models.AIDifficulty{models.DifficultyNovice, models.DifficultyIntermediate, models.DifficultyExpert} {
		b := NewBasicAdapter(diff, 42)
		for i := 0; i < 50; i++ {
			d, err := b.Decide(context.Background(), View{
				HoleCards:  hole,
				PotAmount:  30,
				ToCall:     20,
				Chips:      1000,
				MinRaiseTo: 40,
				BigBlind:   10,
			})
			require.NoError(t, err)
			assert.NotEqual(t, models.ActionCheck, d.Kind())
		}
	}
}

func TestBasicAdapterChecksUnopenedWeakHand(t *testing.T) {
	b := NewBasicAdapter(models.DifficultyIntermediate, 7)
	hole, err := models.ParseCards([]string{"2h", "7d"})
	require.NoError(t, err)
	board, err := models.ParseCards([]string{"Kh", "Qs", "Jc"})
	require.NoError(t, err)

	d, err := b.Decide(context.Background(), View{
		HoleCards:      hole,
		CommunityCards: board,
		PotAmount:      30,
		ToCall:         0,
		Chips:          1000,
		MinRaiseTo:     10,
		BigBlind:       10,
	})
	require.NoError(t, err)
	assert.Contains(t, []models.ActionType{models.ActionCheck}, d.Kind())
}
