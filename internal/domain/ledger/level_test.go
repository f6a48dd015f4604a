package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
)

func TestLevelFor_Thresholds(t *testing.T) {
	ladder := DefaultLadder()

	cases := []struct {
		total account.Points
		level int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{249, 2},
		{250, 3},
		{499, 3},
		{500, 4},
		{999, 4},
		{1000, 5},
		{1999, 5},
		{2000, 6},
		{4999, 6},
		{5000, 7},
		{1000000, 7},
	}

	for _, tc := range cases {
		lvl, err := LevelFor(ladder, tc.total)
		require.NoError(t, err)
		assert.Equal(t, tc.level, lvl.Number, "total=%d", tc.total)
	}
}

func TestLevelFor_NegativeTotal(t *testing.T) {
	_, err := LevelFor(DefaultLadder(), -1)
	assert.ErrorIs(t, err, ErrNegativeTotal)
}

func TestLevelFor_EmptyLadder(t *testing.T) {
	_, err := LevelFor([]Level{}, 50)
	assert.ErrorIs(t, err, ErrEmptyLadder)

	_, err = LevelFor(nil, 0)
	assert.ErrorIs(t, err, ErrEmptyLadder)
}

func TestLevelFor_IsPure(t *testing.T) {
	ladder := DefaultLadder()

	first, err := LevelFor(ladder, 300)
	require.NoError(t, err)
	second, err := LevelFor(ladder, 300)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNextLevel(t *testing.T) {
	ladder := DefaultLadder()

	next, ok := NextLevel(ladder, 0)
	require.True(t, ok)
	assert.Equal(t, 2, next.Number)
	assert.Equal(t, account.Points(100), next.Threshold)

	next, ok = NextLevel(ladder, 250)
	require.True(t, ok)
	assert.Equal(t, 4, next.Number)

	_, ok = NextLevel(ladder, 5000)
	assert.False(t, ok, "top level has no next step")
}

func TestLevelByNumber(t *testing.T) {
	ladder := DefaultLadder()

	lvl, ok := LevelByNumber(ladder, 5)
	require.True(t, ok)
	assert.Equal(t, "Guardian", lvl.Name)

	_, ok = LevelByNumber(ladder, 8)
	assert.False(t, ok)
}
