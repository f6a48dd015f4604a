// Package reward содержит каталог наград и сервис обмена баллов:
// проверка права на награду, списание, выпуск и валидация токенов погашения.
package reward

import (
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS / ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Availability определяет модель доступности награды.
type Availability string

const (
	// AvailabilityUnlimited - награда без ограничения запаса.
	AvailabilityUnlimited Availability = "unlimited"
	// AvailabilityLimited - награда с конечным запасом.
	AvailabilityLimited Availability = "limited"
	// AvailabilitySeasonal - награда доступна в интервале дат.
	AvailabilitySeasonal Availability = "seasonal"
)

// IsValid проверяет корректность модели доступности.
func (a Availability) IsValid() bool {
	switch a {
	case AvailabilityUnlimited, AvailabilityLimited, AvailabilitySeasonal:
		return true
	}
	return false
}

// RewardCategory группирует награды в каталоге.
type RewardCategory string

const (
	RewardCategoryDigital    RewardCategory = "digital"
	RewardCategoryPhysical   RewardCategory = "physical"
	RewardCategoryExperience RewardCategory = "experience"
	RewardCategoryDonation   RewardCategory = "donation"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: REWARD
// ══════════════════════════════════════════════════════════════════════════════

// Reward - позиция каталога наград.
type Reward struct {
	// ID - идентификатор награды.
	ID string

	// Name - отображаемое название.
	Name string

	// Description - отображаемое описание.
	Description string

	// Cost - стоимость в баллах.
	Cost account.Points

	// Category - группа каталога.
	Category RewardCategory

	// Availability - модель доступности.
	Availability Availability

	// Stock - остаток для limited-наград. Для unlimited игнорируется.
	Stock int

	// Active - награда видна и доступна для обмена.
	Active bool

	// MinLevel - минимальный уровень пользователя (0 = без требования).
	MinLevel int

	// RequiredAchievements - достижения, необходимые для обмена.
	RequiredAchievements []string

	// SeasonStart, SeasonEnd - интервал доступности seasonal-наград.
	SeasonStart time.Time
	SeasonEnd   time.Time

	// CreatedAt - время добавления в каталог.
	CreatedAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// InSeason проверяет попадание now в сезон награды.
// Для несезонных наград всегда true.
func (r *Reward) InSeason(now time.Time) bool {
	if r.Availability != AvailabilitySeasonal {
		return true
	}
	return !now.Before(r.SeasonStart) && now.Before(r.SeasonEnd)
}

// InStock проверяет наличие запаса.
// Для unlimited и seasonal-наград всегда true.
func (r *Reward) InStock() bool {
	if r.Availability != AvailabilityLimited {
		return true
	}
	return r.Stock > 0
}

// IneligibilityReason описывает, почему награда недоступна пользователю.
type IneligibilityReason string

const (
	ReasonInactive           IneligibilityReason = "inactive"
	ReasonOutOfSeason        IneligibilityReason = "out_of_season"
	ReasonOutOfStock         IneligibilityReason = "out_of_stock"
	ReasonLevelTooLow        IneligibilityReason = "level_too_low"
	ReasonMissingAchievement IneligibilityReason = "missing_achievement"
	ReasonInsufficientPoints IneligibilityReason = "insufficient_points"
)

// CheckEligibility проверяет все условия обмена для аккаунта.
// Возвращает пустую строку, если награда доступна.
func (r *Reward) CheckEligibility(acc *account.Account, now time.Time) IneligibilityReason {
	if !r.Active {
		return ReasonInactive
	}
	if !r.InSeason(now) {
		return ReasonOutOfSeason
	}
	if !r.InStock() {
		return ReasonOutOfStock
	}
	if r.MinLevel > 0 && acc.Level < r.MinLevel {
		return ReasonLevelTooLow
	}
	for _, id := range r.RequiredAchievements {
		if !acc.HasAchievement(id) {
			return ReasonMissingAchievement
		}
	}
	if acc.AvailablePoints < r.Cost {
		return ReasonInsufficientPoints
	}
	return ""
}

// Clone создаёт копию награды.
func (r *Reward) Clone() *Reward {
	if r == nil {
		return nil
	}

	clone := *r
	if r.RequiredAchievements != nil {
		clone.RequiredAchievements = make([]string, len(r.RequiredAchievements))
		copy(clone.RequiredAchievements, r.RequiredAchievements)
	}
	return &clone
}
