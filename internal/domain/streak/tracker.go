package streak

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
	"github.com/wellness-hub/rewards-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// TRACKER
// Сервис серий: продвигает счётчики при активности и начисляет бонусы
// через Ledger Store. Серия канонической ежедневной активности
// зеркалируется в аккаунт.
// ══════════════════════════════════════════════════════════════════════════════

// Tracker ведёт серии активных дней.
type Tracker struct {
	streaks   Repository
	accounts  account.Repository
	store     *ledger.Store
	locks     *keylock.KeyLock
	publisher shared.EventPublisher
	now       func() time.Time
}

// TrackerConfig содержит конфигурацию Tracker.
type TrackerConfig struct {
	// Publisher - шина доменных событий (может быть nil).
	Publisher shared.EventPublisher

	// Now - источник времени (для тестов).
	Now func() time.Time
}

// NewTracker создаёт Tracker. Store передаёт общий KeyLock, чтобы мутации
// серий и балансов одного пользователя не пересекались.
func NewTracker(streaks Repository, accounts account.Repository, store *ledger.Store, cfg TrackerConfig) *Tracker {
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Tracker{
		streaks:   streaks,
		accounts:  accounts,
		store:     store,
		locks:     store.Locks(),
		publisher: cfg.Publisher,
		now:       cfg.Now,
	}
}

// Touch засчитывает активность пользователя и возвращает обновлённую серию.
// При приросте после первого дня начисляется детерминированный бонус
// (earn-транзакция с источником streak) и публикуется событие продления.
//
// Бонус проводится до сохранения серии с ключом идемпотентности по
// календарному дню. Повтор всей операции после сбоя переигрывает бонус без
// двойного начисления и сходится на сохранении: серия не может продвинуться
// без своей бонусной транзакции.
func (t *Tracker) Touch(ctx context.Context, userID account.UserID, activityType ledger.Category) (*Streak, error) {
	if !activityType.IsActivity() {
		return nil, shared.ErrUnknownActivity
	}

	now := t.now()

	var (
		s      *Streak
		result AdvanceResult
	)

	err := t.locks.Do(userID.String(), func() error {
		var err error
		s, err = t.streaks.Get(ctx, userID, activityType)
		if err != nil {
			if !errors.Is(err, ErrStreakNotFound) {
				return shared.WrapError("streak", "Touch", shared.ErrTransient, "streak load failed", err)
			}
			s = NewStreak(userID, activityType)
		}

		result = s.Advance(now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == AdvanceUnchanged {
		return s.Clone(), nil
	}

	var bonus account.Points
	if result == AdvanceExtended {
		bonus = BonusFor(activityType, s.Current)
		if bonus > 0 {
			if err := t.postBonus(ctx, s, bonus); err != nil {
				return nil, err
			}
		}
	}

	err = t.locks.Do(userID.String(), func() error {
		if err := t.streaks.Upsert(ctx, s); err != nil {
			return shared.WrapError("streak", "Touch", shared.ErrTransient, "streak save failed", err)
		}

		if activityType == ledger.CategoryDailyCheckin {
			return t.mirrorToAccount(ctx, s, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result == AdvanceExtended && t.publisher != nil {
		_ = t.publisher.Publish(shared.NewStreakExtendedEvent(
			userID.String(), string(activityType),
			s.Current, s.Longest, s.IsRecord(), bonus.Int64(),
		))
	}

	return s.Clone(), nil
}

// mirrorToAccount обновляет поля серии канонической активности на аккаунте.
// Вызывается под пользовательской блокировкой.
func (t *Tracker) mirrorToAccount(ctx context.Context, s *Streak, now time.Time) error {
	acc, err := t.accounts.Get(ctx, s.UserID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return shared.ErrAccountNotFound
		}
		return shared.WrapError("streak", "Touch", shared.ErrTransient, "account load failed", err)
	}

	acc.RecordStreak(s.Current, s.Longest, now)

	if err := t.accounts.Update(ctx, acc); err != nil {
		return shared.WrapError("streak", "Touch", shared.ErrTransient, "account update failed", err)
	}
	return nil
}

// postBonus начисляет бонус серии. Вызывается без пользовательской
// блокировки: PostTransaction берёт её сам. Ключ идемпотентности строится
// по календарному дню активности: за один день серия одного типа получает
// не более одного бонуса, сколько бы раз операция ни повторялась.
func (t *Tracker) postBonus(ctx context.Context, s *Streak, bonus account.Points) error {
	desc := "Streak bonus: day " + strconv.Itoa(s.Current)
	if IsMilestone(s.Current) {
		desc = "Streak milestone: day " + strconv.Itoa(s.Current)
	}

	_, err := t.store.PostTransaction(ctx, ledger.PostParams{
		UserID:      s.UserID,
		Direction:   ledger.DirectionEarn,
		Category:    ledger.CategoryStreakBonus,
		Amount:      bonus,
		Description: desc,
		Source:      ledger.SourceStreak,
		Metadata: map[string]interface{}{
			"activity_type": string(s.ActivityType),
			"streak_day":    s.Current,
		},
		IdempotencyKey: "streak:" + s.UserID.String() + ":" + string(s.ActivityType) + ":" + timeutil.FormatDay(s.LastActivityAt),
	})
	return err
}

// DeactivateStale деактивирует серии, чья последняя активность была более
// одного календарного дня назад: Current сбрасывается в 0, флаг Active
// снимается, Longest сохраняется. Обрабатывает записи по одному
// пользователю за раз под той же блокировкой, что и активные запросы.
func (t *Tracker) DeactivateStale(ctx context.Context) (int, error) {
	now := t.now()

	// Все серии с активностью раньше начала вчерашнего дня просрочены.
	stale, err := t.streaks.FindStale(ctx, timeutil.DaysAgo(now, 1))
	if err != nil {
		return 0, shared.WrapError("streak", "DeactivateStale", shared.ErrTransient, "stale lookup failed", err)
	}

	deactivated := 0
	for _, candidate := range stale {
		candidate := candidate

		err := t.locks.Do(candidate.UserID.String(), func() error {
			s, err := t.streaks.Get(ctx, candidate.UserID, candidate.ActivityType)
			if err != nil {
				if errors.Is(err, ErrStreakNotFound) {
					return nil
				}
				return err
			}

			// Пользователь мог успеть отметиться между выборкой и блокировкой.
			if !s.Active || !s.IsStale(now) {
				return nil
			}

			broken := s.Current
			lastActive := s.LastActivityAt
			s.Deactivate(now)

			if err := t.streaks.Upsert(ctx, s); err != nil {
				return err
			}

			if s.ActivityType == ledger.CategoryDailyCheckin {
				if err := t.mirrorToAccount(ctx, s, now); err != nil && !errors.Is(err, shared.ErrNotFound) {
					return err
				}
			}

			deactivated++

			if t.publisher != nil {
				_ = t.publisher.Publish(shared.NewStreakBrokenEvent(
					s.UserID.String(), string(s.ActivityType),
					broken, lastActive, timeutil.DayDiff(lastActive, now)-1,
				))
			}
			return nil
		})
		if err != nil {
			return deactivated, shared.WrapError("streak", "DeactivateStale", shared.ErrTransient, "deactivation failed", err)
		}
	}

	return deactivated, nil
}
