// Package ledger содержит журнал баллов: неизменяемые транзакции,
// лестницу уровней и сервис проведения транзакций (Store).
// Журнал append-only: записи никогда не изменяются и не удаляются,
// все балансы выводятся из него.
package ledger

import (
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Direction определяет направление транзакции.
type Direction string

const (
	// DirectionEarn - начисление баллов.
	DirectionEarn Direction = "earn"
	// DirectionSpend - списание баллов.
	DirectionSpend Direction = "spend"
)

// IsValid проверяет корректность направления.
func (d Direction) IsValid() bool {
	return d == DirectionEarn || d == DirectionSpend
}

// Category определяет тип активности, породившей транзакцию.
type Category string

const (
	// CategoryDailyCheckin - ежедневная отметка самочувствия.
	CategoryDailyCheckin Category = "daily_checkin"
	// CategoryAssessment - завершённая анкета самооценки.
	CategoryAssessment Category = "assessment"
	// CategoryEducation - просмотр обучающего материала.
	CategoryEducation Category = "education"
	// CategoryPeerSupport - действие взаимопомощи.
	CategoryPeerSupport Category = "peer_support"
	// CategoryResource - обращение к справочному ресурсу.
	CategoryResource Category = "resource"
	// CategoryWelcome - приветственный бонус при создании аккаунта.
	CategoryWelcome Category = "welcome"
	// CategoryStreakBonus - бонус за серию активных дней.
	CategoryStreakBonus Category = "streak_bonus"
	// CategoryLevelBonus - бонус за повышение уровня.
	CategoryLevelBonus Category = "level_bonus"
	// CategoryAchievementBonus - бонус за полученное достижение.
	CategoryAchievementBonus Category = "achievement_bonus"
	// CategoryRedemption - списание за обмен на вознаграждение.
	CategoryRedemption Category = "redemption"
	// CategoryAdjustment - ручная корректировка (списание).
	CategoryAdjustment Category = "adjustment"
)

// IsValid проверяет, что категория известна.
func (c Category) IsValid() bool {
	switch c {
	case CategoryDailyCheckin, CategoryAssessment, CategoryEducation,
		CategoryPeerSupport, CategoryResource, CategoryWelcome,
		CategoryStreakBonus, CategoryLevelBonus, CategoryAchievementBonus,
		CategoryRedemption, CategoryAdjustment:
		return true
	default:
		return false
	}
}

// IsActivity возвращает true для категорий, которые засчитываются как
// пользовательская активность (не бонусы и не списания).
func (c Category) IsActivity() bool {
	switch c {
	case CategoryDailyCheckin, CategoryAssessment, CategoryEducation,
		CategoryPeerSupport, CategoryResource:
		return true
	default:
		return false
	}
}

// IsSocial возвращает true для категорий социальной активности.
func (c Category) IsSocial() bool {
	return c == CategoryPeerSupport || c == CategoryResource
}

// Source определяет подсистему, породившую транзакцию.
// Движок достижений игнорирует транзакции с источниками SourceAchievement
// и SourceLevel - это защита от рекурсивных цепочек бонусов.
type Source string

const (
	// SourceActivity - прямое действие пользователя.
	SourceActivity Source = "activity"
	// SourceStreak - бонус трекера серий.
	SourceStreak Source = "streak"
	// SourceAchievement - бонус движка достижений.
	SourceAchievement Source = "achievement"
	// SourceLevel - бонус за повышение уровня.
	SourceLevel Source = "level"
	// SourceSystem - системные начисления (приветственный бонус).
	SourceSystem Source = "system"
	// SourceRedemption - сервис обмена вознаграждений.
	SourceRedemption Source = "redemption"
)

// IsBonus возвращает true для источников, которые не должны повторно
// запускать оценку достижений.
func (s Source) IsBonus() bool {
	return s == SourceAchievement || s == SourceLevel
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: TRANSACTION
// ══════════════════════════════════════════════════════════════════════════════

// Transaction - неизменяемая запись журнала баллов.
type Transaction struct {
	// ID - уникальный идентификатор (UUID).
	ID string

	// Sequence - монотонный порядковый номер, присваивается хранилищем.
	Sequence int64

	// UserID - владелец транзакции.
	UserID account.UserID

	// Direction - начисление или списание.
	Direction Direction

	// Category - тип активности.
	Category Category

	// Amount - сумма, всегда положительная; знак кодируется направлением.
	Amount account.Points

	// Description - человекочитаемое описание.
	Description string

	// Source - подсистема-источник.
	Source Source

	// Metadata - произвольные дополнительные данные.
	Metadata map[string]interface{}

	// IdempotencyKey - необязательный ключ идемпотентности от вызывающего.
	// Повторная отправка того же ключа возвращает исходную транзакцию.
	IdempotencyKey string

	// CreatedAt - время проведения.
	CreatedAt time.Time
}

// SignedAmount возвращает сумму со знаком: положительную для начислений,
// отрицательную для списаний.
func (t *Transaction) SignedAmount() account.Points {
	if t.Direction == DirectionSpend {
		return -t.Amount
	}
	return t.Amount
}

// Clone создаёт глубокую копию транзакции.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}

	clone := *t
	if t.Metadata != nil {
		clone.Metadata = make(map[string]interface{}, len(t.Metadata))
		for k, v := range t.Metadata {
			clone.Metadata[k] = v
		}
	}
	return &clone
}
