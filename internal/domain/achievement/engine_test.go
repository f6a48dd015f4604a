package achievement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/achievement"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/streak"
	"github.com/wellness-hub/rewards-engine/internal/infrastructure/persistence/memory"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
)

type engineFixture struct {
	mem    *memory.Store
	store  *ledger.Store
	engine *achievement.Engine
	now    time.Time
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	f := &engineFixture{
		mem: memory.NewStore(),
		now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	clock := func() time.Time { return f.now }
	f.store = ledger.NewStore(f.mem.Accounts(), f.mem.Ledger(), keylock.New(), ledger.StoreConfig{Now: clock})
	f.engine = achievement.NewEngine(f.mem.Accounts(), f.mem.Ledger(), f.mem.Streaks(), f.store, achievement.EngineConfig{Now: clock})

	acc, err := account.NewAccount(account.NewAccountParams{UserID: "user-1", DisplayName: "Test User"})
	require.NoError(t, err)
	require.NoError(t, f.mem.Accounts().Create(context.Background(), acc))

	return f
}

func (f *engineFixture) postActivity(t *testing.T, category ledger.Category, amount account.Points) *ledger.Transaction {
	t.Helper()

	tx, err := f.store.PostTransaction(context.Background(), ledger.PostParams{
		UserID:    "user-1",
		Direction: ledger.DirectionEarn,
		Category:  category,
		Amount:    amount,
		Source:    ledger.SourceActivity,
	})
	require.NoError(t, err)
	return tx
}

func unlockedIDs(unlocked []achievement.Unlocked) []string {
	ids := make([]string, 0, len(unlocked))
	for _, u := range unlocked {
		ids = append(ids, u.Definition.ID)
	}
	return ids
}

func TestEvaluate_FirstCheckin(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	tx := f.postActivity(t, ledger.CategoryDailyCheckin, 10)
	unlocked, err := f.engine.Evaluate(ctx, tx)
	require.NoError(t, err)

	assert.Contains(t, unlockedIDs(unlocked), "checkin_1")

	acc, err := f.mem.Accounts().Get(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, acc.HasAchievement("checkin_1"))

	// The 5 point unlock bonus is journaled with the achievement source.
	txs, err := f.mem.Ledger().ListByUser(ctx, "user-1", 0)
	require.NoError(t, err)
	var bonus *ledger.Transaction
	for _, candidate := range txs {
		if candidate.Category == ledger.CategoryAchievementBonus {
			bonus = candidate
		}
	}
	require.NotNil(t, bonus)
	assert.Equal(t, account.Points(5), bonus.Amount)
	assert.Equal(t, ledger.SourceAchievement, bonus.Source)
}

func TestEvaluate_IsIdempotent(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	first := f.postActivity(t, ledger.CategoryDailyCheckin, 10)
	unlocked, err := f.engine.Evaluate(ctx, first)
	require.NoError(t, err)
	require.Contains(t, unlockedIDs(unlocked), "checkin_1")

	second := f.postActivity(t, ledger.CategoryDailyCheckin, 10)
	unlocked, err = f.engine.Evaluate(ctx, second)
	require.NoError(t, err)
	assert.NotContains(t, unlockedIDs(unlocked), "checkin_1", "an unlocked achievement stays unlocked")

	acc, err := f.mem.Accounts().Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, acc.AchievementCount())
}

func TestEvaluate_IgnoresBonusSources(t *testing.T) {
	f := newEngineFixture(t)

	for _, source := range []ledger.Source{ledger.SourceAchievement, ledger.SourceLevel} {
		trigger := &ledger.Transaction{
			UserID:    "user-1",
			Direction: ledger.DirectionEarn,
			Category:  ledger.CategoryAchievementBonus,
			Amount:    100,
			Source:    source,
		}

		unlocked, err := f.engine.Evaluate(context.Background(), trigger)
		require.NoError(t, err)
		assert.Nil(t, unlocked, "source=%s must not trigger evaluation", source)
	}
}

func TestEvaluate_NilTrigger(t *testing.T) {
	f := newEngineFixture(t)

	unlocked, err := f.engine.Evaluate(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, unlocked)
}

func TestEvaluate_LifetimePointsMilestone(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	tx := f.postActivity(t, ledger.CategoryEducation, 100)
	unlocked, err := f.engine.Evaluate(ctx, tx)
	require.NoError(t, err)

	assert.Contains(t, unlockedIDs(unlocked), "points_100")
	assert.NotContains(t, unlockedIDs(unlocked), "points_500")
}

func TestEvaluate_StreakLengthMilestone(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	s := streak.NewStreak("user-1", ledger.CategoryDailyCheckin)
	s.Current = 3
	s.Longest = 3
	s.Active = true
	s.LastActivityAt = f.now
	require.NoError(t, f.mem.Streaks().Upsert(ctx, s))

	tx := f.postActivity(t, ledger.CategoryEducation, 1)
	unlocked, err := f.engine.Evaluate(ctx, tx)
	require.NoError(t, err)

	assert.Contains(t, unlockedIDs(unlocked), "streak_3")
	assert.NotContains(t, unlockedIDs(unlocked), "streak_7")
}

func TestEvaluate_SocialAggregate(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	var last *ledger.Transaction
	for i := 0; i < 5; i++ {
		f.postActivity(t, ledger.CategoryPeerSupport, 20)
		last = f.postActivity(t, ledger.CategoryResource, 5)
	}

	unlocked, err := f.engine.Evaluate(ctx, last)
	require.NoError(t, err)

	assert.Contains(t, unlockedIDs(unlocked), "social_10",
		"peer support and resource actions count together")
}

func TestEvaluate_RollingWindow(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	// Activity on each of the last 7 calendar days, including today.
	var last *ledger.Transaction
	for d := 6; d >= 0; d-- {
		f.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -d)
		last = f.postActivity(t, ledger.CategoryDailyCheckin, 10)
	}

	unlocked, err := f.engine.Evaluate(ctx, last)
	require.NoError(t, err)
	assert.Contains(t, unlockedIDs(unlocked), "consistency_7")
}

// bonusFailLedger fails the first commit carrying an achievement bonus,
// then delegates.
type bonusFailLedger struct {
	ledger.Repository
	failed bool
}

func (b *bonusFailLedger) Commit(ctx context.Context, acc *account.Account, txs ...*ledger.Transaction) error {
	if !b.failed {
		for _, tx := range txs {
			if tx.Category == ledger.CategoryAchievementBonus {
				b.failed = true
				return errors.New("connection reset")
			}
		}
	}
	return b.Repository.Commit(ctx, acc, txs...)
}

// updateFailAccounts fails the next `failures` account updates, then delegates.
type updateFailAccounts struct {
	account.Repository
	failures int
}

func (u *updateFailAccounts) Update(ctx context.Context, acc *account.Account) error {
	if u.failures > 0 {
		u.failures--
		return errors.New("connection reset")
	}
	return u.Repository.Update(ctx, acc)
}

func achievementBonuses(t *testing.T, mem *memory.Store) []*ledger.Transaction {
	t.Helper()

	txs, err := mem.Ledger().ListByUser(context.Background(), "user-1", 0)
	require.NoError(t, err)

	var bonuses []*ledger.Transaction
	for _, tx := range txs {
		if tx.Category == ledger.CategoryAchievementBonus {
			bonuses = append(bonuses, tx)
		}
	}
	return bonuses
}

func TestEvaluate_FailedBonusLeavesNoUnlock(t *testing.T) {
	mem := memory.NewStore()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	flaky := &bonusFailLedger{Repository: mem.Ledger()}
	store := ledger.NewStore(mem.Accounts(), flaky, keylock.New(), ledger.StoreConfig{Now: clock})
	engine := achievement.NewEngine(mem.Accounts(), mem.Ledger(), mem.Streaks(), store, achievement.EngineConfig{Now: clock})

	acc, err := account.NewAccount(account.NewAccountParams{UserID: "user-1", DisplayName: "Test User"})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, mem.Accounts().Create(ctx, acc))

	tx, err := store.PostTransaction(ctx, ledger.PostParams{
		UserID:    "user-1",
		Direction: ledger.DirectionEarn,
		Category:  ledger.CategoryDailyCheckin,
		Amount:    10,
		Source:    ledger.SourceActivity,
	})
	require.NoError(t, err)

	_, err = engine.Evaluate(ctx, tx)
	require.Error(t, err)

	loaded, err := mem.Accounts().Get(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, loaded.HasAchievement("checkin_1"),
		"a failed bonus must not leave the achievement unlocked without it")
	assert.Empty(t, achievementBonuses(t, mem))

	unlocked, err := engine.Evaluate(ctx, tx)
	require.NoError(t, err)
	assert.Contains(t, unlockedIDs(unlocked), "checkin_1")
	assert.Len(t, achievementBonuses(t, mem), 1, "the retry posts the bonus exactly once")
}

func TestEvaluate_RetryAfterFailedUnlockPostsBonusOnce(t *testing.T) {
	mem := memory.NewStore()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	flaky := &updateFailAccounts{Repository: mem.Accounts(), failures: 1}
	store := ledger.NewStore(mem.Accounts(), mem.Ledger(), keylock.New(), ledger.StoreConfig{Now: clock})
	engine := achievement.NewEngine(flaky, mem.Ledger(), mem.Streaks(), store, achievement.EngineConfig{Now: clock})

	acc, err := account.NewAccount(account.NewAccountParams{UserID: "user-1", DisplayName: "Test User"})
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, mem.Accounts().Create(ctx, acc))

	tx, err := store.PostTransaction(ctx, ledger.PostParams{
		UserID:    "user-1",
		Direction: ledger.DirectionEarn,
		Category:  ledger.CategoryDailyCheckin,
		Amount:    10,
		Source:    ledger.SourceActivity,
	})
	require.NoError(t, err)

	// The bonus lands, the unlock write fails.
	_, err = engine.Evaluate(ctx, tx)
	require.Error(t, err)
	require.Len(t, achievementBonuses(t, mem), 1)

	unlocked, err := engine.Evaluate(ctx, tx)
	require.NoError(t, err)
	assert.Contains(t, unlockedIDs(unlocked), "checkin_1")

	bonuses := achievementBonuses(t, mem)
	require.Len(t, bonuses, 1, "the replayed bonus is deduplicated, not double-credited")
	assert.Equal(t, account.Points(5), bonuses[0].Amount)
}

func TestEvaluate_RollingWindowIgnoresBonusDays(t *testing.T) {
	f := newEngineFixture(t)
	ctx := context.Background()

	// Six days of activity plus a bonus-only day must not satisfy the window.
	var last *ledger.Transaction
	for d := 6; d >= 1; d-- {
		f.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC).AddDate(0, 0, -d)
		last = f.postActivity(t, ledger.CategoryDailyCheckin, 10)
	}

	f.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	_, err := f.store.PostTransaction(ctx, ledger.PostParams{
		UserID:    "user-1",
		Direction: ledger.DirectionEarn,
		Category:  ledger.CategoryStreakBonus,
		Amount:    5,
		Source:    ledger.SourceStreak,
	})
	require.NoError(t, err)

	unlocked, err := f.engine.Evaluate(ctx, last)
	require.NoError(t, err)
	assert.NotContains(t, unlockedIDs(unlocked), "consistency_7",
		"only activity-sourced transactions mark a day active")
}
