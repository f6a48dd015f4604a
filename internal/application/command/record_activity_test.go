package command_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellness-hub/rewards-engine/internal/application/command"
	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/achievement"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/internal/domain/streak"
	"github.com/wellness-hub/rewards-engine/internal/infrastructure/persistence/memory"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
)

// commandFixture wires the full write side against the in-memory store.
// The clock is mutable so multi-day scenarios advance without sleeping.
type commandFixture struct {
	mem     *memory.Store
	store   *ledger.Store
	tracker *streak.Tracker
	engine  *achievement.Engine
	now     time.Time
}

func newCommandFixture(t *testing.T) *commandFixture {
	t.Helper()

	f := &commandFixture{
		mem: memory.NewStore(),
		now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	clock := func() time.Time { return f.now }
	f.store = ledger.NewStore(f.mem.Accounts(), f.mem.Ledger(), keylock.New(), ledger.StoreConfig{Now: clock})
	f.tracker = streak.NewTracker(f.mem.Streaks(), f.mem.Accounts(), f.store, streak.TrackerConfig{Now: clock})
	f.engine = achievement.NewEngine(f.mem.Accounts(), f.mem.Ledger(), f.mem.Streaks(), f.store, achievement.EngineConfig{Now: clock})
	return f
}

func (f *commandFixture) seedAccount(t *testing.T, userID account.UserID) {
	t.Helper()

	acc, err := account.NewAccount(account.NewAccountParams{UserID: userID, DisplayName: "Test User"})
	require.NoError(t, err)
	require.NoError(t, f.mem.Accounts().Create(context.Background(), acc))
}

func TestRecordActivity_FullFlow(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()
	f.seedAccount(t, "user-1")

	handler := command.NewRecordActivityHandler(f.store, f.tracker, f.engine)
	result, err := handler.Handle(ctx, command.RecordActivityCommand{
		UserID:   "user-1",
		Category: string(ledger.CategoryDailyCheckin),
		Mood:     8,
	})
	require.NoError(t, err)

	assert.Equal(t, account.Points(20), result.Transaction.Amount, "good mood doubles the base award")
	assert.Equal(t, "Daily check-in (mood 8)", result.Transaction.Description)
	assert.Equal(t, 8, result.Transaction.Metadata["mood"])
	assert.Equal(t, ledger.SourceActivity, result.Transaction.Source)

	require.NotNil(t, result.Streak)
	assert.Equal(t, 1, result.Streak.Current)

	ids := make([]string, 0, len(result.Unlocked))
	for _, u := range result.Unlocked {
		ids = append(ids, u.Definition.ID)
	}
	assert.Contains(t, ids, "checkin_1")

	// Award plus the first check-in unlock bonus, no streak bonus on day one.
	acc, err := f.mem.Accounts().Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, account.Points(25), acc.AvailablePoints)
	assert.Equal(t, 1, acc.CurrentStreak)
}

func TestRecordActivity_IdempotencyKeyReplay(t *testing.T) {
	f := newCommandFixture(t)
	ctx := context.Background()
	f.seedAccount(t, "user-1")

	handler := command.NewRecordActivityHandler(f.store, f.tracker, f.engine)
	cmd := command.RecordActivityCommand{
		UserID:         "user-1",
		Category:       string(ledger.CategoryEducation),
		IdempotencyKey: "activity-42",
	}

	first, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)

	balanceAfterFirst := func() account.Points {
		acc, err := f.mem.Accounts().Get(ctx, "user-1")
		require.NoError(t, err)
		return acc.AvailablePoints
	}()

	second, err := handler.Handle(ctx, cmd)
	require.NoError(t, err)
	assert.Equal(t, first.Transaction.ID, second.Transaction.ID, "the replay returns the original transaction")

	acc, err := f.mem.Accounts().Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, balanceAfterFirst, acc.AvailablePoints, "no double credit")
}

func TestRecordActivity_Validation(t *testing.T) {
	f := newCommandFixture(t)
	handler := command.NewRecordActivityHandler(f.store, f.tracker, f.engine)

	_, err := handler.Handle(context.Background(), command.RecordActivityCommand{
		UserID:   "user-1",
		Category: "welcome",
	})
	assert.ErrorIs(t, err, shared.ErrUnknownActivity, "non-activity categories cannot be recorded directly")

	_, err = handler.Handle(context.Background(), command.RecordActivityCommand{
		UserID:   "user-1",
		Category: string(ledger.CategoryDailyCheckin),
		Mood:     11,
	})
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = handler.Handle(context.Background(), command.RecordActivityCommand{
		UserID:   "has space",
		Category: string(ledger.CategoryDailyCheckin),
	})
	assert.ErrorIs(t, err, shared.ErrInvalidUserID)
}

func TestRecordActivity_MissingAccount(t *testing.T) {
	f := newCommandFixture(t)
	handler := command.NewRecordActivityHandler(f.store, f.tracker, f.engine)

	_, err := handler.Handle(context.Background(), command.RecordActivityCommand{
		UserID:   "ghost",
		Category: string(ledger.CategoryEducation),
	})
	assert.ErrorIs(t, err, shared.ErrAccountNotFound)
}
