package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poker-service/models"
)

func seatedPlayer(t *testing.T, id string, position int, hole ...string) *models.Player {
	t.Helper()
	p := &models.Player{ID: id, Position: position, Chips: 1000}
	p.SetHoleCards(cards(t, hole...))
	return p
}

func TestRakeFloors(t *testing.T) {
	assert.Equal(t, 10, Rake(105, 10))
	assert.Equal(t, 0, Rake(9, 10))
	assert.Equal(t, 0, Rake(0, 10))
	assert.Equal(t, 0, Rake(100, 0))
}

func TestLastStanding(t *testing.T) {
	winner := &models.Player{ID: "p1", Position: 0}
	res := LastStanding(winner, 150, DefaultRakePercent)

	assert.Equal(t, []string{"p1"}, res.WinnerIDs)
	assert.Equal(t, models.WinningHandLastStanding, res.WinningHand)
	assert.Equal(t, 15, res.Rake)
	assert.Equal(t, 135, res.Payouts["p1"])
}

func TestShowdownSingleWinner(t *testing.T) {
	community := cards(t, "Kh", "Qd", "7c", "7s", "2h")
	players := []*models.Player{
		seatedPlayer(t, "p1", 0, "Ah", "Ad"), // aces up
		seatedPlayer(t, "p2", 1, "Kc", "Jd"), // kings up, worse
	}

	res, err := Showdown(players, community, 200, DefaultRakePercent)
	require.NoError(t, err)

	assert.Equal(t, []string{"p1"}, res.WinnerIDs)
	assert.Equal(t, "Two Pair", res.WinningHand)
	assert.Equal(t, 20, res.Rake)
	assert.Equal(t, 180, res.Payouts["p1"])
}

func TestShowdownSkipsFoldedPlayers(t *testing.T) {
	community := cards(t, "Kh", "Qd", "7c", "7s", "2h")
	folded := seatedPlayer(t, "p1", 0, "Ah", "Ad")
	folded.IsFolded = true
	players := []*models.Player{
		folded,
		seatedPlayer(t, "p2", 1, "Kc", "Jd"),
	}

	res, err := Showdown(players, community, 100, DefaultRakePercent)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, res.WinnerIDs)
}

func TestShowdownSplitPotRemainder(t *testing.T) {
	// Board plays for both: identical straights.
	community := cards(t, "9h", "8d", "7c", "6s", "5h")
	players := []*models.Player{
		seatedPlayer(t, "p1", 2, "2h", "3d"),
		seatedPlayer(t, "p2", 0, "2c", "3s"),
	}

	res, err := Showdown(players, community, 105, DefaultRakePercent)
	require.NoError(t, err)

	require.Len(t, res.WinnerIDs, 2)
	assert.Equal(t, 10, res.Rake)
	// 95 split two ways, odd chip to the lowest seat (p2).
	assert.Equal(t, 48, res.Payouts["p2"])
	assert.Equal(t, 47, res.Payouts["p1"])
	assert.Equal(t, "p2", res.WinnerIDs[0])
}

func TestShowdownConservesChips(t *testing.T) {
	community := cards(t, "Ah", "Kd", "Qc", "Js", "9h")
	players := []*models.Player{
		seatedPlayer(t, "p1", 0, "Th", "2d"),
		seatedPlayer(t, "p2", 1, "Tc", "3s"),
		seatedPlayer(t, "p3", 2, "4h", "5d"),
	}

	pot := 333
	res, err := Showdown(players, community, pot, DefaultRakePercent)
	require.NoError(t, err)

	paid := 0
	for _, amount := range res.Payouts {
		paid += amount
	}
	assert.Equal(t, pot, paid+res.Rake)
}
