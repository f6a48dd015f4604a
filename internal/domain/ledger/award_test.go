package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
)

func TestActivityAward_Formulas(t *testing.T) {
	cases := []struct {
		category Category
		mood     int
		amount   account.Points
	}{
		{CategoryDailyCheckin, 0, 10},
		{CategoryDailyCheckin, 4, 10},
		{CategoryDailyCheckin, 5, 15},
		{CategoryDailyCheckin, 7, 15},
		{CategoryDailyCheckin, 8, 20},
		{CategoryDailyCheckin, 10, 20},
		{CategoryAssessment, 0, 25},
		{CategoryEducation, 0, 15},
		{CategoryPeerSupport, 0, 20},
		{CategoryResource, 0, 5},
	}

	for _, tc := range cases {
		amount, desc, err := ActivityAward(tc.category, ActivityPayload{Mood: tc.mood})
		require.NoError(t, err, "category=%s mood=%d", tc.category, tc.mood)
		assert.Equal(t, tc.amount, amount, "category=%s mood=%d", tc.category, tc.mood)
		assert.NotEmpty(t, desc)
	}
}

func TestActivityAward_MoodInDescription(t *testing.T) {
	_, desc, err := ActivityAward(CategoryDailyCheckin, ActivityPayload{Mood: 8})
	require.NoError(t, err)
	assert.Contains(t, desc, "mood 8")

	_, desc, err = ActivityAward(CategoryDailyCheckin, ActivityPayload{})
	require.NoError(t, err)
	assert.Equal(t, "Daily check-in", desc)
}

func TestActivityAward_UnknownCategory(t *testing.T) {
	_, _, err := ActivityAward(CategoryWelcome, ActivityPayload{})
	assert.Error(t, err, "bonus categories have no activity formula")
}
