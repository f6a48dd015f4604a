package account

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestNewAccount(t *testing.T) {
	acc, err := NewAccount(NewAccountParams{UserID: "user-1", DisplayName: "  Alex  ", Now: testNow})
	require.NoError(t, err)

	assert.Equal(t, "Alex", acc.DisplayName, "display name is trimmed")
	assert.Equal(t, 1, acc.Level)
	assert.Equal(t, Points(0), acc.TotalPoints)
	assert.True(t, acc.Preferences.Leaderboard)
	assert.True(t, acc.Preferences.Notifications)
}

func TestNewAccount_Validation(t *testing.T) {
	_, err := NewAccount(NewAccountParams{UserID: "", DisplayName: "X"})
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = NewAccount(NewAccountParams{UserID: "has space", DisplayName: "X"})
	assert.ErrorIs(t, err, ErrInvalidUserID)

	_, err = NewAccount(NewAccountParams{UserID: "user-1", DisplayName: "   "})
	assert.ErrorIs(t, err, ErrInvalidDisplayName)

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err = NewAccount(NewAccountParams{UserID: "user-1", DisplayName: string(long)})
	assert.ErrorIs(t, err, ErrInvalidDisplayName)
}

func TestApplyEarnAndSpend(t *testing.T) {
	acc, err := NewAccount(NewAccountParams{UserID: "user-1", DisplayName: "Alex", Now: testNow})
	require.NoError(t, err)

	require.NoError(t, acc.ApplyEarn(100, testNow))
	require.NoError(t, acc.ApplySpend(30, testNow))

	assert.Equal(t, Points(70), acc.AvailablePoints)
	assert.Equal(t, Points(100), acc.TotalPoints, "spending leaves the earned counters alone")
	assert.Equal(t, Points(100), acc.LifetimePoints)

	assert.ErrorIs(t, acc.ApplySpend(71, testNow), ErrInsufficientPoints)
	assert.Equal(t, Points(70), acc.AvailablePoints, "a rejected spend changes nothing")

	assert.ErrorIs(t, acc.ApplyEarn(0, testNow), ErrInvalidPoints)
	assert.ErrorIs(t, acc.ApplySpend(-5, testNow), ErrInvalidPoints)
}

func TestUnlockAchievement(t *testing.T) {
	acc, err := NewAccount(NewAccountParams{UserID: "user-1", DisplayName: "Alex", Now: testNow})
	require.NoError(t, err)

	assert.True(t, acc.UnlockAchievement("checkin_1", testNow))
	assert.False(t, acc.UnlockAchievement("checkin_1", testNow), "re-unlocking is a no-op")
	assert.True(t, acc.HasAchievement("checkin_1"))
	assert.Equal(t, 1, acc.AchievementCount())
}

func TestSetLevel_Monotonic(t *testing.T) {
	acc, err := NewAccount(NewAccountParams{UserID: "user-1", DisplayName: "Alex", Now: testNow})
	require.NoError(t, err)

	acc.SetLevel(3, testNow)
	assert.Equal(t, 3, acc.Level)

	acc.SetLevel(2, testNow)
	assert.Equal(t, 3, acc.Level, "the stored level never goes down")
}

func TestRecordStreak(t *testing.T) {
	acc, err := NewAccount(NewAccountParams{UserID: "user-1", DisplayName: "Alex", Now: testNow})
	require.NoError(t, err)

	acc.RecordStreak(5, 5, testNow)
	acc.RecordStreak(1, 3, testNow)

	assert.Equal(t, 1, acc.CurrentStreak)
	assert.Equal(t, 5, acc.LongestStreak, "the best streak is kept across resets")
}

func TestClone(t *testing.T) {
	acc, err := NewAccount(NewAccountParams{UserID: "user-1", DisplayName: "Alex", Now: testNow})
	require.NoError(t, err)
	acc.UnlockAchievement("checkin_1", testNow)

	clone := acc.Clone()
	clone.UnlockAchievement("streak_3", testNow)

	assert.Equal(t, 1, acc.AchievementCount(), "mutating the clone leaves the original intact")
	assert.Equal(t, 2, clone.AchievementCount())
}
