package ledger

import (
	"errors"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEVELS
// Статичная лестница уровней. Определения загружаются один раз при старте
// и никогда не меняются во время работы.
// ══════════════════════════════════════════════════════════════════════════════

// Level описывает одну ступень лестницы уровней.
type Level struct {
	// Number - номер уровня (1-based).
	Number int

	// Name - название уровня.
	Name string

	// Threshold - порог по TotalPoints, начиная с которого уровень достигнут.
	Threshold account.Points

	// Badge - значок уровня.
	Badge string

	// Perks - привилегии, открываемые уровнем.
	Perks []string
}

// ErrNegativeTotal - уровень нельзя вычислить для отрицательных баллов.
var ErrNegativeTotal = errors.New("level: total points cannot be negative")

// ErrEmptyLadder - лестница уровней не содержит ни одной ступени.
var ErrEmptyLadder = errors.New("level: ladder has no levels")

// DefaultLadder возвращает лестницу уровней по умолчанию (по возрастанию порогов).
func DefaultLadder() []Level {
	return []Level{
		{Number: 1, Name: "Newcomer", Threshold: 0, Badge: "🌱", Perks: []string{"basic catalog"}},
		{Number: 2, Name: "Explorer", Threshold: 100, Badge: "🧭", Perks: []string{"basic catalog"}},
		{Number: 3, Name: "Achiever", Threshold: 250, Badge: "⭐", Perks: []string{"limited rewards"}},
		{Number: 4, Name: "Champion", Threshold: 500, Badge: "🏅", Perks: []string{"limited rewards", "seasonal rewards"}},
		{Number: 5, Name: "Guardian", Threshold: 1000, Badge: "🛡️", Perks: []string{"limited rewards", "seasonal rewards"}},
		{Number: 6, Name: "Mentor", Threshold: 2000, Badge: "🎓", Perks: []string{"full catalog"}},
		{Number: 7, Name: "Luminary", Threshold: 5000, Badge: "🌟", Perks: []string{"full catalog", "early access"}},
	}
}

// LevelFor возвращает самый высокий уровень, порог которого не превышает total.
// Чистая функция: сканирует лестницу с конца и не имеет побочных эффектов.
// Для любого неотрицательного total возвращает как минимум первый уровень.
func LevelFor(ladder []Level, total account.Points) (Level, error) {
	if len(ladder) == 0 {
		return Level{}, ErrEmptyLadder
	}
	if total < 0 {
		return Level{}, ErrNegativeTotal
	}

	for i := len(ladder) - 1; i >= 0; i-- {
		if ladder[i].Threshold <= total {
			return ladder[i], nil
		}
	}

	return ladder[0], nil
}

// NextLevel возвращает следующую ступень после текущего total.
// Второе значение false, если достигнут максимальный уровень.
func NextLevel(ladder []Level, total account.Points) (Level, bool) {
	for _, lvl := range ladder {
		if lvl.Threshold > total {
			return lvl, true
		}
	}
	return Level{}, false
}

// LevelByNumber возвращает уровень по номеру.
func LevelByNumber(ladder []Level, number int) (Level, bool) {
	for _, lvl := range ladder {
		if lvl.Number == number {
			return lvl, true
		}
	}
	return Level{}, false
}
