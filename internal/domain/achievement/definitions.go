// Package achievement содержит каталог достижений и движок их оценки.
// Определения неизменяемы и загружаются один раз при старте; правила
// проверяются после каждой начисляющей транзакции.
package achievement

import (
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEFINITIONS
// ══════════════════════════════════════════════════════════════════════════════

// Rarity определяет редкость достижения.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// RuleKind определяет семейство правила разблокировки.
type RuleKind string

const (
	// RuleLifetimePoints - рубеж по накопленным за всё время баллам.
	RuleLifetimePoints RuleKind = "lifetime_points"
	// RuleStreakLength - рубеж по лучшей наблюдавшейся серии.
	RuleStreakLength RuleKind = "streak_length"
	// RuleCategoryCount - N-я транзакция в категории.
	RuleCategoryCount RuleKind = "category_count"
	// RuleRollingWindow - активность в каждый из последних N календарных дней.
	RuleRollingWindow RuleKind = "rolling_window"
	// RuleSocialAggregate - суммарный счёт социальных активностей по категориям.
	RuleSocialAggregate RuleKind = "social_aggregate"
)

// Criteria описывает условие разблокировки.
type Criteria struct {
	// Kind - семейство правила.
	Kind RuleKind

	// Threshold - числовой порог (баллы, длина серии или количество).
	Threshold int

	// Category - категория для RuleCategoryCount.
	Category ledger.Category

	// Categories - категории для RuleSocialAggregate.
	Categories []ledger.Category

	// WindowDays - ширина окна для RuleRollingWindow.
	WindowDays int
}

// Definition описывает достижение.
type Definition struct {
	// ID - стабильный идентификатор определения.
	ID string

	// Name - отображаемое название.
	Name string

	// Description - отображаемое описание.
	Description string

	// Emoji - значок.
	Emoji string

	// Rarity - редкость.
	Rarity Rarity

	// Bonus - бонусные баллы, начисляемые при разблокировке.
	Bonus account.Points

	// Criteria - условие разблокировки.
	Criteria Criteria
}

// Unlocked - факт разблокировки достижения.
type Unlocked struct {
	// Definition - определение достижения.
	Definition Definition

	// UnlockedAt - когда получено.
	UnlockedAt time.Time
}

// Catalog возвращает все определения достижений.
func Catalog() []Definition {
	return []Definition{
		// Рубежи накопленных баллов
		{ID: "points_100", Name: "First Hundred", Description: "Earn 100 lifetime points", Emoji: "💯", Rarity: RarityCommon, Bonus: 10,
			Criteria: Criteria{Kind: RuleLifetimePoints, Threshold: 100}},
		{ID: "points_500", Name: "Point Collector", Description: "Earn 500 lifetime points", Emoji: "💰", Rarity: RarityUncommon, Bonus: 25,
			Criteria: Criteria{Kind: RuleLifetimePoints, Threshold: 500}},
		{ID: "points_1000", Name: "Point Hoarder", Description: "Earn 1000 lifetime points", Emoji: "🏦", Rarity: RarityRare, Bonus: 50,
			Criteria: Criteria{Kind: RuleLifetimePoints, Threshold: 1000}},
		{ID: "points_5000", Name: "Point Legend", Description: "Earn 5000 lifetime points", Emoji: "👑", Rarity: RarityEpic, Bonus: 100,
			Criteria: Criteria{Kind: RuleLifetimePoints, Threshold: 5000}},

		// Рубежи серий
		{ID: "streak_3", Name: "Getting Started", Description: "3-day activity streak", Emoji: "✨", Rarity: RarityCommon, Bonus: 10,
			Criteria: Criteria{Kind: RuleStreakLength, Threshold: 3}},
		{ID: "streak_7", Name: "Week Warrior", Description: "7-day activity streak", Emoji: "🔥", Rarity: RarityUncommon, Bonus: 25,
			Criteria: Criteria{Kind: RuleStreakLength, Threshold: 7}},
		{ID: "streak_30", Name: "Monthly Master", Description: "30-day activity streak", Emoji: "💪", Rarity: RarityRare, Bonus: 100,
			Criteria: Criteria{Kind: RuleStreakLength, Threshold: 30}},
		{ID: "streak_100", Name: "Centurion", Description: "100-day activity streak", Emoji: "🏛️", Rarity: RarityLegendary, Bonus: 250,
			Criteria: Criteria{Kind: RuleStreakLength, Threshold: 100}},

		// N-е транзакции в категории
		{ID: "checkin_1", Name: "First Step", Description: "First daily check-in", Emoji: "🎯", Rarity: RarityCommon, Bonus: 5,
			Criteria: Criteria{Kind: RuleCategoryCount, Category: ledger.CategoryDailyCheckin, Threshold: 1}},
		{ID: "checkin_30", Name: "Regular", Description: "30 daily check-ins", Emoji: "📅", Rarity: RarityUncommon, Bonus: 50,
			Criteria: Criteria{Kind: RuleCategoryCount, Category: ledger.CategoryDailyCheckin, Threshold: 30}},
		{ID: "assessment_10", Name: "Self Aware", Description: "Complete 10 assessments", Emoji: "🧠", Rarity: RarityUncommon, Bonus: 40,
			Criteria: Criteria{Kind: RuleCategoryCount, Category: ledger.CategoryAssessment, Threshold: 10}},
		{ID: "education_20", Name: "Keen Learner", Description: "20 educational engagements", Emoji: "📚", Rarity: RarityUncommon, Bonus: 40,
			Criteria: Criteria{Kind: RuleCategoryCount, Category: ledger.CategoryEducation, Threshold: 20}},

		// Окно последовательности
		{ID: "consistency_7", Name: "Consistency Counts", Description: "Active on each of the last 7 days", Emoji: "📈", Rarity: RarityUncommon, Bonus: 30,
			Criteria: Criteria{Kind: RuleRollingWindow, WindowDays: 7}},

		// Социальная активность
		{ID: "social_10", Name: "Community Builder", Description: "10 peer support or resource actions", Emoji: "🤝", Rarity: RarityUncommon, Bonus: 35,
			Criteria: Criteria{Kind: RuleSocialAggregate, Threshold: 10,
				Categories: []ledger.Category{ledger.CategoryPeerSupport, ledger.CategoryResource}}},
		{ID: "social_50", Name: "Community Pillar", Description: "50 peer support or resource actions", Emoji: "🏗️", Rarity: RarityRare, Bonus: 120,
			Criteria: Criteria{Kind: RuleSocialAggregate, Threshold: 50,
				Categories: []ledger.Category{ledger.CategoryPeerSupport, ledger.CategoryResource}}},
	}
}

// DefinitionByID возвращает определение по идентификатору.
func DefinitionByID(id string) (Definition, bool) {
	for _, def := range Catalog() {
		if def.ID == id {
			return def, true
		}
	}
	return Definition{}, false
}
