package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRank_DenseRanking(t *testing.T) {
	entries := Rank([]Scored{
		{UserID: "carol", Points: 300},
		{UserID: "alice", Points: 500},
		{UserID: "bob", Points: 300},
		{UserID: "dave", Points: 100},
	})

	require.Len(t, entries, 4)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "alice", string(entries[0].UserID))

	// Equal scores share a rank; the next distinct score gets rank+1.
	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, 2, entries[2].Rank)
	assert.Equal(t, 3, entries[3].Rank)

	// Ties are ordered deterministically by user id.
	assert.Equal(t, "bob", string(entries[1].UserID))
	assert.Equal(t, "carol", string(entries[2].UserID))
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
	assert.Empty(t, Rank([]Scored{}))
}

func TestRank_DoesNotMutateInput(t *testing.T) {
	scored := []Scored{
		{UserID: "bob", Points: 10},
		{UserID: "alice", Points: 20},
	}

	Rank(scored)

	assert.Equal(t, "bob", string(scored[0].UserID), "input order is preserved")
}

func TestPositionOf(t *testing.T) {
	entries := Rank([]Scored{
		{UserID: "alice", Points: 500},
		{UserID: "bob", Points: 300},
	})

	entry, ok := PositionOf(entries, "bob")
	require.True(t, ok)
	assert.Equal(t, 2, entry.Rank)

	_, ok = PositionOf(entries, "ghost")
	assert.False(t, ok)
}

func TestWindow_Range(t *testing.T) {
	// A Wednesday mid-month.
	now := time.Date(2026, 3, 11, 15, 30, 0, 0, time.UTC)

	from, to := WindowDaily.Range(now)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), to)

	from, to = WindowWeekly.Range(now)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), from, "ISO week starts Monday")
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), to)

	from, to = WindowMonthly.Range(now)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), to)

	from, _ = WindowAllTime.Range(now)
	assert.True(t, from.IsZero(), "all-time is unbounded below")
}

func TestWindow_IsValid(t *testing.T) {
	for _, w := range []Window{WindowAllTime, WindowDaily, WindowWeekly, WindowMonthly} {
		assert.True(t, w.IsValid())
	}
	assert.False(t, Window("hourly").IsValid())
}
