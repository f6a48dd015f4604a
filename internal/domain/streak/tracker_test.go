package streak_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/internal/domain/streak"
	"github.com/wellness-hub/rewards-engine/internal/infrastructure/persistence/memory"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
)

type trackerFixture struct {
	mem     *memory.Store
	tracker *streak.Tracker
	now     time.Time
}

func newTrackerFixture(t *testing.T) *trackerFixture {
	t.Helper()

	f := &trackerFixture{
		mem: memory.NewStore(),
		now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	clock := func() time.Time { return f.now }
	store := ledger.NewStore(f.mem.Accounts(), f.mem.Ledger(), keylock.New(), ledger.StoreConfig{Now: clock})
	f.tracker = streak.NewTracker(f.mem.Streaks(), f.mem.Accounts(), store, streak.TrackerConfig{Now: clock})

	acc, err := account.NewAccount(account.NewAccountParams{UserID: "user-1", DisplayName: "Test User"})
	require.NoError(t, err)
	require.NoError(t, f.mem.Accounts().Create(context.Background(), acc))

	return f
}

func (f *trackerFixture) advanceToDay(n int) {
	f.now = time.Date(2026, 3, n, 9, 0, 0, 0, time.UTC)
}

func (f *trackerFixture) streakBonusTotal(t *testing.T) account.Points {
	t.Helper()

	txs, err := f.mem.Ledger().ListByUser(context.Background(), "user-1", 0)
	require.NoError(t, err)

	var total account.Points
	for _, tx := range txs {
		if tx.Category == ledger.CategoryStreakBonus {
			total += tx.Amount
		}
	}
	return total
}

func TestTouch_SevenDayRun(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	for d := 1; d <= 7; d++ {
		f.advanceToDay(d)
		s, err := f.tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
		require.NoError(t, err)
		assert.Equal(t, d, s.Current)
	}

	// 5+10+5+5+5+15: base bonus each day after the first, doubled on day 3,
	// tripled on day 7.
	assert.Equal(t, account.Points(45), f.streakBonusTotal(t))

	acc, err := f.mem.Accounts().Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 7, acc.CurrentStreak, "daily check-in streak is mirrored to the account")
	assert.Equal(t, 7, acc.LongestStreak)
}

func TestTouch_SameDayRepeatDoesNothing(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	f.advanceToDay(1)
	_, err := f.tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.NoError(t, err)

	f.now = f.now.Add(6 * time.Hour)
	s, err := f.tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Current)

	assert.Equal(t, account.Points(0), f.streakBonusTotal(t), "repeat within the day posts no bonus")
}

func TestTouch_GapResetsToOne(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	for d := 1; d <= 3; d++ {
		f.advanceToDay(d)
		_, err := f.tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
		require.NoError(t, err)
	}

	f.advanceToDay(6)
	s, err := f.tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 3, s.Longest)

	// Restart grants no bonus: only extensions do.
	assert.Equal(t, account.Points(15), f.streakBonusTotal(t), "bonuses from days 2 and 3 only")
}

func TestTouch_IndependentPerActivityType(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	f.advanceToDay(1)
	_, err := f.tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.NoError(t, err)
	_, err = f.tracker.Touch(ctx, "user-1", ledger.CategoryEducation)
	require.NoError(t, err)

	f.advanceToDay(2)
	s, err := f.tracker.Touch(ctx, "user-1", ledger.CategoryEducation)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Current)

	checkin, err := f.mem.Streaks().Get(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.NoError(t, err)
	assert.Equal(t, 1, checkin.Current, "check-in streak is untouched by education activity")

	acc, err := f.mem.Accounts().Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, acc.CurrentStreak, "only the daily check-in streak is mirrored")
}

func TestTouch_RejectsNonActivityCategory(t *testing.T) {
	f := newTrackerFixture(t)

	_, err := f.tracker.Touch(context.Background(), "user-1", ledger.CategoryWelcome)
	assert.ErrorIs(t, err, shared.ErrUnknownActivity)
}

// streakBonusFailLedger fails the first commit carrying a streak bonus,
// then delegates.
type streakBonusFailLedger struct {
	ledger.Repository
	failed bool
}

func (l *streakBonusFailLedger) Commit(ctx context.Context, acc *account.Account, txs ...*ledger.Transaction) error {
	if !l.failed {
		for _, tx := range txs {
			if tx.Category == ledger.CategoryStreakBonus {
				l.failed = true
				return errors.New("connection reset")
			}
		}
	}
	return l.Repository.Commit(ctx, acc, txs...)
}

// upsertFailStreaks fails the next `failures` upserts, then delegates.
type upsertFailStreaks struct {
	streak.Repository
	failures int
}

func (r *upsertFailStreaks) Upsert(ctx context.Context, s *streak.Streak) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("connection reset")
	}
	return r.Repository.Upsert(ctx, s)
}

func streakBonuses(t *testing.T, mem *memory.Store) []*ledger.Transaction {
	t.Helper()

	txs, err := mem.Ledger().ListByUser(context.Background(), "user-1", 0)
	require.NoError(t, err)

	var bonuses []*ledger.Transaction
	for _, tx := range txs {
		if tx.Category == ledger.CategoryStreakBonus {
			bonuses = append(bonuses, tx)
		}
	}
	return bonuses
}

func TestTouch_FailedBonusLeavesStreakUnadvanced(t *testing.T) {
	mem := memory.NewStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	flaky := &streakBonusFailLedger{Repository: mem.Ledger()}
	store := ledger.NewStore(mem.Accounts(), flaky, keylock.New(), ledger.StoreConfig{Now: clock})
	tracker := streak.NewTracker(mem.Streaks(), mem.Accounts(), store, streak.TrackerConfig{Now: clock})

	acc, err := account.NewAccount(account.NewAccountParams{UserID: "user-1", DisplayName: "Test User"})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, mem.Accounts().Create(ctx, acc))

	_, err = tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.NoError(t, err)

	now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, err = tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.Error(t, err)

	s, err := mem.Streaks().Get(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Current, "a failed bonus must not leave the streak advanced without it")
	assert.Empty(t, streakBonuses(t, mem))

	retried, err := tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.NoError(t, err)
	assert.Equal(t, 2, retried.Current)

	bonuses := streakBonuses(t, mem)
	require.Len(t, bonuses, 1, "the retry posts the bonus exactly once")
	assert.Equal(t, account.Points(5), bonuses[0].Amount)
}

func TestTouch_RetryAfterFailedSavePostsBonusOnce(t *testing.T) {
	mem := memory.NewStore()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	flaky := &upsertFailStreaks{Repository: mem.Streaks()}
	store := ledger.NewStore(mem.Accounts(), mem.Ledger(), keylock.New(), ledger.StoreConfig{Now: clock})
	tracker := streak.NewTracker(flaky, mem.Accounts(), store, streak.TrackerConfig{Now: clock})

	acc, err := account.NewAccount(account.NewAccountParams{UserID: "user-1", DisplayName: "Test User"})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, mem.Accounts().Create(ctx, acc))

	_, err = tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.NoError(t, err)

	// The bonus lands, the streak save fails.
	flaky.failures = 1
	now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, err = tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.Error(t, err)

	s, err := mem.Streaks().Get(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Current)
	require.Len(t, streakBonuses(t, mem), 1)

	retried, err := tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.NoError(t, err)
	assert.Equal(t, 2, retried.Current)

	bonuses := streakBonuses(t, mem)
	require.Len(t, bonuses, 1, "the replayed bonus is deduplicated, not double-credited")
	assert.Equal(t, account.Points(5), bonuses[0].Amount)
}

func TestDeactivateStale(t *testing.T) {
	f := newTrackerFixture(t)
	ctx := context.Background()

	for d := 1; d <= 3; d++ {
		f.advanceToDay(d)
		_, err := f.tracker.Touch(ctx, "user-1", ledger.CategoryDailyCheckin)
		require.NoError(t, err)
	}

	// One missed day is still within grace.
	f.advanceToDay(4)
	count, err := f.tracker.DeactivateStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	f.advanceToDay(6)
	count, err = f.tracker.DeactivateStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	s, err := f.mem.Streaks().Get(ctx, "user-1", ledger.CategoryDailyCheckin)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Current)
	assert.False(t, s.Active)
	assert.Equal(t, 3, s.Longest)

	acc, err := f.mem.Accounts().Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, acc.CurrentStreak)
	assert.Equal(t, 3, acc.LongestStreak)

	// The sweep converges: a second run finds nothing.
	count, err = f.tracker.DeactivateStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
