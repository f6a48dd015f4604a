package query_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellness-hub/rewards-engine/internal/application/query"
	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/leaderboard"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/infrastructure/persistence/memory"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
)

func seedParticipant(t *testing.T, mem *memory.Store, userID account.UserID, total account.Points, optedOut bool) {
	t.Helper()

	acc, err := account.NewAccount(account.NewAccountParams{UserID: userID, DisplayName: "User " + string(userID)})
	require.NoError(t, err)
	acc.TotalPoints = total
	acc.LifetimePoints = total
	acc.AvailablePoints = total
	if optedOut {
		acc.Preferences.Leaderboard = false
	}
	require.NoError(t, mem.Accounts().Create(context.Background(), acc))
}

func TestGetLeaderboard_AllTime(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()

	seedParticipant(t, mem, "alice", 500, false)
	seedParticipant(t, mem, "bob", 300, false)
	seedParticipant(t, mem, "carol", 300, false)
	seedParticipant(t, mem, "recluse", 900, true)

	handler := query.NewGetLeaderboardHandler(mem.Accounts(), mem.Ledger(), nil)
	result, err := handler.Handle(ctx, query.GetLeaderboardQuery{})
	require.NoError(t, err)

	assert.Equal(t, string(leaderboard.WindowAllTime), result.Window, "the window defaults to all_time")
	require.Len(t, result.Entries, 3, "opted-out users never appear")

	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, account.UserID("alice"), result.Entries[0].UserID)
	assert.Equal(t, 2, result.Entries[1].Rank)
	assert.Equal(t, 2, result.Entries[2].Rank, "equal totals share a dense rank")
}

func TestGetLeaderboard_DailyWindow(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()

	seedParticipant(t, mem, "today", 0, false)
	seedParticipant(t, mem, "lapsed", 0, false)

	locks := keylock.New()
	current := ledger.NewStore(mem.Accounts(), mem.Ledger(), locks, ledger.StoreConfig{})
	backdated := ledger.NewStore(mem.Accounts(), mem.Ledger(), locks, ledger.StoreConfig{
		Now: func() time.Time { return time.Now().UTC().AddDate(0, 0, -3) },
	})

	_, err := current.PostTransaction(ctx, ledger.PostParams{
		UserID:    "today",
		Direction: ledger.DirectionEarn,
		Category:  ledger.CategoryEducation,
		Amount:    40,
		Source:    ledger.SourceActivity,
	})
	require.NoError(t, err)

	_, err = backdated.PostTransaction(ctx, ledger.PostParams{
		UserID:    "lapsed",
		Direction: ledger.DirectionEarn,
		Category:  ledger.CategoryEducation,
		Amount:    30,
		Source:    ledger.SourceActivity,
	})
	require.NoError(t, err)

	handler := query.NewGetLeaderboardHandler(mem.Accounts(), mem.Ledger(), nil)
	result, err := handler.Handle(ctx, query.GetLeaderboardQuery{Window: string(leaderboard.WindowDaily)})
	require.NoError(t, err)

	require.Len(t, result.Entries, 1, "only users who earned inside the window are ranked")
	assert.Equal(t, account.UserID("today"), result.Entries[0].UserID)
	assert.Equal(t, account.Points(40), result.Entries[0].Points, "periodic scores count window earnings, not totals")
}

func TestGetLeaderboard_LimitTruncation(t *testing.T) {
	mem := memory.NewStore()

	seedParticipant(t, mem, "alice", 500, false)
	seedParticipant(t, mem, "bob", 400, false)
	seedParticipant(t, mem, "carol", 300, false)

	handler := query.NewGetLeaderboardHandler(mem.Accounts(), mem.Ledger(), nil)
	result, err := handler.Handle(context.Background(), query.GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)

	assert.Len(t, result.Entries, 2)
	assert.Equal(t, 3, result.TotalParticipants)
}

// stubCache is a fixed-content LeaderboardCache for the hot path test.
type stubCache struct {
	entries []leaderboard.Entry
}

func (c *stubCache) GetTop(_ context.Context, _ leaderboard.Window, limit int) ([]leaderboard.Entry, error) {
	if len(c.entries) > limit {
		return c.entries[:limit], nil
	}
	return c.entries, nil
}

func (c *stubCache) Rebuild(_ context.Context, _ leaderboard.Window, entries []leaderboard.Entry) error {
	c.entries = entries
	return nil
}

func (c *stubCache) Count(_ context.Context, _ leaderboard.Window) (int, error) {
	return len(c.entries), nil
}

func TestGetLeaderboard_CacheHit(t *testing.T) {
	mem := memory.NewStore()

	cache := &stubCache{entries: []leaderboard.Entry{
		{Rank: 1, UserID: "cached", DisplayName: "Cached User", Points: 999},
	}}

	handler := query.NewGetLeaderboardHandler(mem.Accounts(), mem.Ledger(), cache)
	result, err := handler.Handle(context.Background(), query.GetLeaderboardQuery{})
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, account.UserID("cached"), result.Entries[0].UserID, "a warm cache short-circuits the store")
}

func TestGetLeaderboard_CacheHitReportsFullParticipantCount(t *testing.T) {
	mem := memory.NewStore()

	cache := &stubCache{entries: []leaderboard.Entry{
		{Rank: 1, UserID: "alice", DisplayName: "Alice", Points: 500},
		{Rank: 2, UserID: "bob", DisplayName: "Bob", Points: 400},
		{Rank: 3, UserID: "carol", DisplayName: "Carol", Points: 300},
	}}

	handler := query.NewGetLeaderboardHandler(mem.Accounts(), mem.Ledger(), cache)
	result, err := handler.Handle(context.Background(), query.GetLeaderboardQuery{Limit: 2})
	require.NoError(t, err)

	assert.Len(t, result.Entries, 2)
	assert.Equal(t, 3, result.TotalParticipants,
		"the participant count covers the whole window, not the requested top")
}

func TestGetLeaderboard_Validation(t *testing.T) {
	q := query.GetLeaderboardQuery{}
	require.NoError(t, q.Validate())
	assert.Equal(t, string(leaderboard.WindowAllTime), q.Window)
	assert.Equal(t, 20, q.Limit)

	q = query.GetLeaderboardQuery{Limit: 250}
	require.NoError(t, q.Validate())
	assert.Equal(t, 100, q.Limit)

	q = query.GetLeaderboardQuery{Limit: -1}
	assert.Error(t, q.Validate())

	q = query.GetLeaderboardQuery{Window: "hourly"}
	assert.Error(t, q.Validate())
}
