package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellness-hub/rewards-engine/internal/application/query"
	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/internal/infrastructure/persistence/memory"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
)

func newStatsHandler(mem *memory.Store) *query.GetStatsHandler {
	store := ledger.NewStore(mem.Accounts(), mem.Ledger(), keylock.New(), ledger.StoreConfig{})
	lb := query.NewGetLeaderboardHandler(mem.Accounts(), mem.Ledger(), nil)
	return query.NewGetStatsHandler(mem.Accounts(), mem.Ledger(), mem.Streaks(), store, lb)
}

func TestGetStats_IncludesLevelProgress(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()

	seedParticipant(t, mem, "alice", 120, false)

	handler := newStatsHandler(mem)
	result, err := handler.Handle(ctx, query.GetStatsQuery{UserID: "alice"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Progress.Level.Number)
	require.NotNil(t, result.Progress.NextLevel)
	assert.Equal(t, 3, result.Progress.NextLevel.Number)
	assert.Equal(t, account.Points(130), result.Progress.PointsToNext,
		"the distance to the next threshold is part of the statistics")
}

func TestGetStats_TopLevelHasNoNextStep(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()

	seedParticipant(t, mem, "veteran", 5000, false)

	handler := newStatsHandler(mem)
	result, err := handler.Handle(ctx, query.GetStatsQuery{UserID: "veteran"})
	require.NoError(t, err)

	assert.Equal(t, 7, result.Progress.Level.Number)
	assert.Nil(t, result.Progress.NextLevel)
	assert.Equal(t, account.Points(0), result.Progress.PointsToNext)
}

func TestGetStats_RankAndParticipants(t *testing.T) {
	mem := memory.NewStore()
	ctx := context.Background()

	seedParticipant(t, mem, "alice", 500, false)
	seedParticipant(t, mem, "bob", 300, false)
	seedParticipant(t, mem, "recluse", 900, true)

	handler := newStatsHandler(mem)
	result, err := handler.Handle(ctx, query.GetStatsQuery{UserID: "bob"})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Rank)
	assert.Equal(t, 2, result.TotalParticipants, "opted-out users are not counted")
}

func TestGetStats_UnknownUser(t *testing.T) {
	mem := memory.NewStore()

	handler := newStatsHandler(mem)
	_, err := handler.Handle(context.Background(), query.GetStatsQuery{UserID: "ghost"})
	assert.ErrorIs(t, err, shared.ErrAccountNotFound)
}
