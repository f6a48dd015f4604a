package streak

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
)

func day(n int) time.Time {
	return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC).AddDate(0, 0, n-1)
}

func TestAdvance_StartExtendRepeat(t *testing.T) {
	s := NewStreak("user-1", ledger.CategoryDailyCheckin)

	assert.Equal(t, AdvanceStarted, s.Advance(day(1)))
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, s.Longest)
	assert.True(t, s.Active)

	// A second activity on the same calendar day changes nothing.
	assert.Equal(t, AdvanceUnchanged, s.Advance(day(1).Add(5*time.Hour)))
	assert.Equal(t, 1, s.Current)

	assert.Equal(t, AdvanceExtended, s.Advance(day(2)))
	assert.Equal(t, 2, s.Current)
	assert.Equal(t, 2, s.Longest)

	assert.Equal(t, AdvanceExtended, s.Advance(day(3)))
	assert.Equal(t, 3, s.Current)
}

func TestAdvance_GapResetsKeepsLongest(t *testing.T) {
	s := NewStreak("user-1", ledger.CategoryDailyCheckin)

	s.Advance(day(1))
	s.Advance(day(2))
	s.Advance(day(3))

	// Two missed days break the streak.
	assert.Equal(t, AdvanceStarted, s.Advance(day(6)))
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 3, s.Longest, "the record survives the break")
}

func TestAdvance_MidnightBoundary(t *testing.T) {
	s := NewStreak("user-1", ledger.CategoryDailyCheckin)

	// 23:59 and 00:01 on adjacent days are one calendar day apart.
	s.Advance(time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC))
	result := s.Advance(time.Date(2026, 3, 2, 0, 1, 0, 0, time.UTC))

	assert.Equal(t, AdvanceExtended, result)
	assert.Equal(t, 2, s.Current)
}

func TestIsStale(t *testing.T) {
	s := NewStreak("user-1", ledger.CategoryDailyCheckin)
	s.Advance(day(1))

	assert.False(t, s.IsStale(day(1)))
	assert.False(t, s.IsStale(day(2)), "one missed day is still within grace")
	assert.True(t, s.IsStale(day(3)))
}

func TestDeactivate(t *testing.T) {
	s := NewStreak("user-1", ledger.CategoryDailyCheckin)
	s.Advance(day(1))
	s.Advance(day(2))

	s.Deactivate(day(5))

	assert.Equal(t, 0, s.Current)
	assert.False(t, s.Active)
	assert.Equal(t, 2, s.Longest)
}

func TestBonusFor(t *testing.T) {
	cases := []struct {
		category ledger.Category
		daynum   int
		bonus    account.Points
	}{
		{ledger.CategoryDailyCheckin, 1, 0},
		{ledger.CategoryDailyCheckin, 2, 5},
		{ledger.CategoryDailyCheckin, 3, 10},
		{ledger.CategoryDailyCheckin, 4, 5},
		{ledger.CategoryDailyCheckin, 7, 15},
		{ledger.CategoryDailyCheckin, 14, 20},
		{ledger.CategoryDailyCheckin, 30, 25},
		{ledger.CategoryDailyCheckin, 100, 50},
		{ledger.CategoryDailyCheckin, 365, 100},
		{ledger.CategoryEducation, 2, 3},
		{ledger.CategoryEducation, 3, 6},
		{ledger.CategoryEducation, 7, 9},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.bonus, BonusFor(tc.category, tc.daynum),
			"category=%s day=%d", tc.category, tc.daynum)
	}
}

func TestIsMilestone(t *testing.T) {
	for _, milestone := range []int{3, 7, 14, 30, 100, 365} {
		assert.True(t, IsMilestone(milestone), "day=%d", milestone)
	}
	for _, plain := range []int{1, 2, 4, 15, 31, 99, 366} {
		assert.False(t, IsMilestone(plain), "day=%d", plain)
	}
}
