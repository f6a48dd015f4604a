// Package account содержит доменную модель аккаунта участника программы вознаграждений.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package account

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// UserID представляет стабильный внешний идентификатор пользователя.
type UserID string

// IsValid проверяет корректность идентификатора.
func (u UserID) IsValid() bool {
	s := string(u)
	return len(s) >= 1 && len(s) <= 64 && !strings.ContainsAny(s, " \t\n\r")
}

// String возвращает строковое представление идентификатора.
func (u UserID) String() string {
	return string(u)
}

// Points представляет количество баллов.
type Points int64

// IsValid проверяет, что значение баллов неотрицательное.
func (p Points) IsValid() bool {
	return p >= 0
}

// Add складывает баллы.
func (p Points) Add(delta Points) Points {
	return p + delta
}

// Sub вычитает баллы.
func (p Points) Sub(delta Points) Points {
	return p - delta
}

// Int64 возвращает значение как int64.
func (p Points) Int64() int64 {
	return int64(p)
}

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: ACCOUNT
// ══════════════════════════════════════════════════════════════════════════════

// Account - центральная сущность системы: счёт участника с балансами,
// уровнем, сериями и полученными достижениями.
type Account struct {
	// UserID - внешний идентификатор пользователя (первичный ключ).
	UserID UserID

	// DisplayName - отображаемое имя.
	DisplayName string

	// Level - текущий уровень (номер ступени лестницы уровней).
	Level int

	// TotalPoints - суммарные заработанные баллы (монотонно не убывают).
	TotalPoints Points

	// AvailablePoints - доступный для трат баланс (всегда >= 0).
	AvailablePoints Points

	// LifetimePoints - сумма всех начислений за всё время (монотонно не убывают).
	LifetimePoints Points

	// CurrentStreak - текущая серия для канонической ежедневной активности.
	CurrentStreak int

	// LongestStreak - лучшая серия для канонической ежедневной активности.
	LongestStreak int

	// Unlocked - полученные достижения (id может встречаться не более одного раза).
	Unlocked []UnlockedAchievement

	// Preferences - пользовательские настройки участия.
	Preferences Preferences

	// CreatedAt - время создания аккаунта.
	CreatedAt time.Time

	// LastActivityAt - время последней активности.
	LastActivityAt time.Time

	// UpdatedAt - время последнего обновления.
	UpdatedAt time.Time
}

// UnlockedAchievement - факт получения достижения с отметкой времени.
type UnlockedAchievement struct {
	// AchievementID - идентификатор определения достижения.
	AchievementID string `json:"achievement_id"`

	// UnlockedAt - когда получено.
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Preferences содержит настройки участия пользователя.
type Preferences struct {
	// Leaderboard - участвовать в публичном рейтинге.
	Leaderboard bool `json:"leaderboard"`

	// Notifications - получать уведомления о событиях счёта.
	Notifications bool `json:"notifications"`
}

// DefaultPreferences возвращает настройки по умолчанию.
func DefaultPreferences() Preferences {
	return Preferences{
		Leaderboard:   true,
		Notifications: true,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidUserID - невалидный идентификатор пользователя.
	ErrInvalidUserID = errors.New("invalid user id: must be 1-64 chars without whitespace")

	// ErrInvalidDisplayName - невалидное отображаемое имя.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrInsufficientPoints - недостаточно доступных баллов для списания.
	ErrInsufficientPoints = errors.New("insufficient available points")

	// ErrInvalidPoints - невалидное количество баллов.
	ErrInvalidPoints = errors.New("invalid points: must be positive")

	// ErrAccountNotFound - аккаунт не найден.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountAlreadyExists - аккаунт уже существует.
	ErrAccountAlreadyExists = errors.New("account already exists")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewAccountParams содержит параметры для создания нового аккаунта.
type NewAccountParams struct {
	UserID      UserID
	DisplayName string
	Now         time.Time
}

// NewAccount создаёт новый аккаунт с валидацией всех полей.
// Баланс нулевой: приветственный бонус начисляется отдельной транзакцией.
func NewAccount(params NewAccountParams) (*Account, error) {
	if !params.UserID.IsValid() {
		return nil, ErrInvalidUserID
	}

	displayName := strings.TrimSpace(params.DisplayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return &Account{
		UserID:          params.UserID,
		DisplayName:     displayName,
		Level:           1,
		TotalPoints:     0,
		AvailablePoints: 0,
		LifetimePoints:  0,
		CurrentStreak:   0,
		LongestStreak:   0,
		Unlocked:        nil,
		Preferences:     DefaultPreferences(),
		CreatedAt:       now,
		LastActivityAt:  now,
		UpdatedAt:       now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN METHODS (Business Logic)
// ══════════════════════════════════════════════════════════════════════════════

// ApplyEarn начисляет баллы: растёт доступный баланс и оба накопительных счётчика.
// Возвращает ошибку при неположительной сумме.
func (a *Account) ApplyEarn(amount Points, at time.Time) error {
	if amount <= 0 {
		return ErrInvalidPoints
	}

	a.AvailablePoints = a.AvailablePoints.Add(amount)
	a.TotalPoints = a.TotalPoints.Add(amount)
	a.LifetimePoints = a.LifetimePoints.Add(amount)
	a.LastActivityAt = at
	a.UpdatedAt = at

	return nil
}

// ApplySpend списывает баллы с доступного баланса.
// TotalPoints и LifetimePoints не меняются: они монотонны.
func (a *Account) ApplySpend(amount Points, at time.Time) error {
	if amount <= 0 {
		return ErrInvalidPoints
	}
	if a.AvailablePoints < amount {
		return ErrInsufficientPoints
	}

	a.AvailablePoints = a.AvailablePoints.Sub(amount)
	a.LastActivityAt = at
	a.UpdatedAt = at

	return nil
}

// HasAchievement проверяет, получено ли достижение с данным id.
func (a *Account) HasAchievement(achievementID string) bool {
	for _, u := range a.Unlocked {
		if u.AchievementID == achievementID {
			return true
		}
	}
	return false
}

// UnlockAchievement добавляет достижение в набор. Идемпотентно:
// повторная разблокировка того же id возвращает false и ничего не меняет.
func (a *Account) UnlockAchievement(achievementID string, at time.Time) bool {
	if a.HasAchievement(achievementID) {
		return false
	}

	a.Unlocked = append(a.Unlocked, UnlockedAchievement{
		AchievementID: achievementID,
		UnlockedAt:    at,
	})
	a.UpdatedAt = at

	return true
}

// AchievementCount возвращает количество полученных достижений.
func (a *Account) AchievementCount() int {
	return len(a.Unlocked)
}

// SetLevel повышает сохранённый уровень. Уровень монотонно не убывает.
func (a *Account) SetLevel(level int, at time.Time) {
	if level <= a.Level {
		return
	}
	a.Level = level
	a.UpdatedAt = at
}

// RecordStreak обновляет зеркалируемые поля серии канонической активности.
func (a *Account) RecordStreak(current, longest int, at time.Time) {
	a.CurrentStreak = current
	if longest > a.LongestStreak {
		a.LongestStreak = longest
	}
	a.UpdatedAt = at
}

// UpdatePreferences обновляет настройки участия.
func (a *Account) UpdatePreferences(prefs Preferences, at time.Time) {
	a.Preferences = prefs
	a.UpdatedAt = at
}

// ParticipatesInLeaderboard возвращает true, если пользователь виден в рейтинге.
func (a *Account) ParticipatesInLeaderboard() bool {
	return a.Preferences.Leaderboard
}

// String возвращает строковое представление аккаунта для логирования.
func (a *Account) String() string {
	return fmt.Sprintf(
		"Account{UserID: %s, Level: %d, Total: %d, Available: %d, Streak: %d}",
		a.UserID, a.Level, a.TotalPoints, a.AvailablePoints, a.CurrentStreak,
	)
}

// Clone создаёт глубокую копию аккаунта.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}

	clone := *a
	if a.Unlocked != nil {
		clone.Unlocked = make([]UnlockedAchievement, len(a.Unlocked))
		copy(clone.Unlocked, a.Unlocked)
	}
	return &clone
}
