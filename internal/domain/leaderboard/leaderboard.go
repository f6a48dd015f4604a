// Package leaderboard содержит чистую логику рейтинга: окна периодов
// и плотное ранжирование участников. Источники очков и кэширование
// живут в слоях приложения и инфраструктуры.
package leaderboard

import (
	"sort"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// WINDOWS
// ══════════════════════════════════════════════════════════════════════════════

// Window определяет период рейтинга.
type Window string

const (
	WindowAllTime Window = "all_time"
	WindowDaily   Window = "daily"
	WindowWeekly  Window = "weekly"
	WindowMonthly Window = "monthly"
)

// IsValid проверяет корректность окна.
func (w Window) IsValid() bool {
	switch w {
	case WindowAllTime, WindowDaily, WindowWeekly, WindowMonthly:
		return true
	}
	return false
}

// Range возвращает интервал [from, to) окна относительно now.
// Для WindowAllTime возвращает нулевое from: интервал не ограничен снизу.
func (w Window) Range(now time.Time) (time.Time, time.Time) {
	switch w {
	case WindowDaily:
		return timeutil.StartOfDay(now), timeutil.StartOfDay(now).AddDate(0, 0, 1)
	case WindowWeekly:
		return timeutil.StartOfWeek(now), timeutil.StartOfWeek(now).AddDate(0, 0, 7)
	case WindowMonthly:
		return timeutil.StartOfMonth(now), timeutil.StartOfMonth(now).AddDate(0, 1, 0)
	default:
		return time.Time{}, timeutil.EndOfDay(now)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Scored - участник с набранными в окне очками.
type Scored struct {
	UserID      account.UserID
	DisplayName string
	Level       int
	Points      account.Points
}

// Entry - строка рейтинга с присвоенным рангом.
type Entry struct {
	// Rank - плотный ранг, начиная с 1: равные очки дают равный ранг,
	// следующий отличный счёт получает ранг на единицу больше.
	Rank int

	UserID      account.UserID
	DisplayName string
	Level       int
	Points      account.Points
}

// Rank сортирует участников по убыванию очков и присваивает плотные ранги.
// При равных очках порядок детерминирован: сравниваются идентификаторы.
func Rank(scored []Scored) []Entry {
	sorted := make([]Scored, len(scored))
	copy(sorted, scored)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Points != sorted[j].Points {
			return sorted[i].Points > sorted[j].Points
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	entries := make([]Entry, 0, len(sorted))
	rank := 0
	var prev account.Points = -1

	for i, s := range sorted {
		if i == 0 || s.Points != prev {
			rank++
			prev = s.Points
		}
		entries = append(entries, Entry{
			Rank:        rank,
			UserID:      s.UserID,
			DisplayName: s.DisplayName,
			Level:       s.Level,
			Points:      s.Points,
		})
	}
	return entries
}

// PositionOf возвращает строку рейтинга для пользователя.
// Второе значение false, если пользователь в рейтинг не входит.
func PositionOf(entries []Entry, userID account.UserID) (Entry, bool) {
	for _, e := range entries {
		if e.UserID == userID {
			return e, true
		}
	}
	return Entry{}, false
}
