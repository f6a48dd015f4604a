// Package streak содержит трекер серий: счётчики последовательных
// календарных дней активности по каждой паре (пользователь, тип активности).
// Граница дня - полночь UTC, арифметика ведётся по календарным дням,
// а не по прошедшим часам.
package streak

import (
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: STREAK
// ══════════════════════════════════════════════════════════════════════════════

// Streak представляет серию активных дней по одному типу активности.
type Streak struct {
	// UserID - владелец серии.
	UserID account.UserID

	// ActivityType - тип активности, по которому ведётся серия.
	ActivityType ledger.Category

	// Current - текущая серия дней.
	Current int

	// Longest - лучшая серия дней (бегущий максимум Current).
	Longest int

	// LastActivityAt - время последней засчитанной активности.
	LastActivityAt time.Time

	// StartedAt - дата начала текущей серии (полночь UTC).
	StartedAt time.Time

	// Active - серия жива (не деактивирована фоновой проверкой).
	Active bool

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// NewStreak создаёт пустую серию. Счётчики выставит первый Advance.
func NewStreak(userID account.UserID, activityType ledger.Category) *Streak {
	return &Streak{
		UserID:       userID,
		ActivityType: activityType,
	}
}

// AdvanceResult описывает исход продвижения серии.
type AdvanceResult int

const (
	// AdvanceUnchanged - повтор в тот же день, серия не меняется.
	AdvanceUnchanged AdvanceResult = iota
	// AdvanceStarted - первая активность или рестарт после пропуска, Current = 1.
	AdvanceStarted
	// AdvanceExtended - разрыв ровно в один день, Current вырос на 1.
	AdvanceExtended
)

// Advance продвигает серию по активности в момент now.
// Разница дней 0 - без изменений; 1 - серия растёт; больше 1 - сброс к 1.
func (s *Streak) Advance(now time.Time) AdvanceResult {
	today := timeutil.StartOfDay(now)

	if s.LastActivityAt.IsZero() {
		s.Current = 1
		s.Longest = 1
		s.LastActivityAt = now
		s.StartedAt = today
		s.Active = true
		s.UpdatedAt = now
		return AdvanceStarted
	}

	switch diff := timeutil.DayDiff(s.LastActivityAt, now); {
	case diff == 0:
		return AdvanceUnchanged

	case diff == 1:
		s.Current++
		if s.Current > s.Longest {
			s.Longest = s.Current
		}
		s.LastActivityAt = now
		s.Active = true
		s.UpdatedAt = now
		return AdvanceExtended

	default:
		s.Current = 1
		if s.Longest < 1 {
			s.Longest = 1
		}
		s.LastActivityAt = now
		s.StartedAt = today
		s.Active = true
		s.UpdatedAt = now
		return AdvanceStarted
	}
}

// IsRecord возвращает true, если текущая серия равна лучшей.
func (s *Streak) IsRecord() bool {
	return s.Current > 0 && s.Current == s.Longest
}

// IsStale проверяет, просрочена ли серия относительно now
// (последняя активность более одного календарного дня назад).
func (s *Streak) IsStale(now time.Time) bool {
	if s.LastActivityAt.IsZero() {
		return false
	}
	return timeutil.DayDiff(s.LastActivityAt, now) > 1
}

// Deactivate сбрасывает текущую серию фоновой проверкой.
// Longest не стирается - рекорд остаётся за пользователем.
func (s *Streak) Deactivate(now time.Time) {
	s.Current = 0
	s.Active = false
	s.UpdatedAt = now
}

// Clone создаёт копию серии.
func (s *Streak) Clone() *Streak {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// MILESTONE BONUSES
// ══════════════════════════════════════════════════════════════════════════════

// milestoneMultipliers - множители бонуса на рубежах серии.
var milestoneMultipliers = map[int]int{
	3:   2,
	7:   3,
	14:  4,
	30:  5,
	100: 10,
	365: 20,
}

// baseBonus возвращает базовый бонус серии для типа активности.
func baseBonus(activityType ledger.Category) account.Points {
	if activityType == ledger.CategoryDailyCheckin {
		return 5
	}
	return 3
}

// BonusFor вычисляет бонус за день day серии по типу активности.
// Начисляется на каждом приросте после первого дня; на рубежах
// 3, 7, 14, 30, 100 и 365 дней базовый бонус умножается.
func BonusFor(activityType ledger.Category, day int) account.Points {
	if day < 2 {
		return 0
	}

	base := baseBonus(activityType)
	if mult, ok := milestoneMultipliers[day]; ok {
		return base * account.Points(mult)
	}
	return base
}

// IsMilestone возвращает true, если day является рубежом серии.
func IsMilestone(day int) bool {
	_, ok := milestoneMultipliers[day]
	return ok
}
