package achievement

import (
	"context"
	"errors"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/internal/domain/streak"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
	"github.com/wellness-hub/rewards-engine/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENGINE
// Оценивает правила после каждой проведённой транзакции. Разблокировка
// идемпотентна: полученное достижение повторно не выдаётся. Бонусные
// транзакции (streak, achievement, level) оценку не запускают, что
// исключает рекурсивные цепочки начислений.
// ══════════════════════════════════════════════════════════════════════════════

// Engine проверяет условия достижений и фиксирует разблокировки.
type Engine struct {
	accounts     account.Repository
	transactions ledger.Repository
	streaks      streak.Repository
	store        *ledger.Store
	catalog      []Definition
	locks        *keylock.KeyLock
	publisher    shared.EventPublisher
	now          func() time.Time
}

// EngineConfig содержит конфигурацию Engine.
type EngineConfig struct {
	// Catalog - определения достижений (по умолчанию Catalog()).
	Catalog []Definition

	// Publisher - шина доменных событий (может быть nil).
	Publisher shared.EventPublisher

	// Now - источник времени (для тестов).
	Now func() time.Time
}

// NewEngine создаёт Engine. Store передаёт общий KeyLock.
func NewEngine(accounts account.Repository, transactions ledger.Repository, streaks streak.Repository, store *ledger.Store, cfg EngineConfig) *Engine {
	if cfg.Catalog == nil {
		cfg.Catalog = Catalog()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	return &Engine{
		accounts:     accounts,
		transactions: transactions,
		streaks:      streaks,
		store:        store,
		catalog:      cfg.Catalog,
		locks:        store.Locks(),
		publisher:    cfg.Publisher,
		now:          cfg.Now,
	}
}

// Evaluate проверяет все правила для пользователя после транзакции trigger.
// Возвращает список новых разблокировок. Транзакции с бонусным источником
// игнорируются: это защита от рекурсии, бонус за достижение не порождает
// следующую оценку.
//
// Бонусы проводятся до фиксации разблокировок с детерминированными ключами
// идемпотентности. Повтор всей операции после сбоя переигрывает бонус без
// двойного начисления и сходится на записи разблокировки: достижение не
// может остаться в аккаунте без своей бонусной транзакции.
func (e *Engine) Evaluate(ctx context.Context, trigger *ledger.Transaction) ([]Unlocked, error) {
	if trigger == nil || trigger.Source.IsBonus() {
		return nil, nil
	}

	now := e.now()
	userID := trigger.UserID

	var pending []Definition

	err := e.locks.Do(userID.String(), func() error {
		acc, err := e.accounts.Get(ctx, userID)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound) {
				return shared.ErrAccountNotFound
			}
			return shared.WrapError("achievement", "Evaluate", shared.ErrTransient, "account load failed", err)
		}

		for _, def := range e.catalog {
			if acc.HasAchievement(def.ID) {
				continue
			}

			met, err := e.satisfied(ctx, acc, def.Criteria, now)
			if err != nil {
				return err
			}
			if met {
				pending = append(pending, def)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	// Бонусы идут вне пользовательской блокировки: PostTransaction берёт
	// её сам. Источник achievement не запускает повторную оценку.
	for _, def := range pending {
		if def.Bonus <= 0 {
			continue
		}
		_, err := e.store.PostTransaction(ctx, ledger.PostParams{
			UserID:      userID,
			Direction:   ledger.DirectionEarn,
			Category:    ledger.CategoryAchievementBonus,
			Amount:      def.Bonus,
			Description: "Achievement unlocked: " + def.Name,
			Source:      ledger.SourceAchievement,
			Metadata: map[string]interface{}{
				"achievement_id": def.ID,
			},
			IdempotencyKey: "achievement:" + userID.String() + ":" + def.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	var newly []Unlocked

	err = e.locks.Do(userID.String(), func() error {
		acc, err := e.accounts.Get(ctx, userID)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound) {
				return shared.ErrAccountNotFound
			}
			return shared.WrapError("achievement", "Evaluate", shared.ErrTransient, "account load failed", err)
		}

		for _, def := range pending {
			if acc.UnlockAchievement(def.ID, now) {
				newly = append(newly, Unlocked{Definition: def, UnlockedAt: now})
			}
		}

		if len(newly) == 0 {
			return nil
		}

		if err := e.accounts.Update(ctx, acc); err != nil {
			return shared.WrapError("achievement", "Evaluate", shared.ErrTransient, "account update failed", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if e.publisher != nil {
		for _, u := range newly {
			_ = e.publisher.Publish(shared.NewAchievementUnlockedEvent(
				userID.String(), u.Definition.ID, u.Definition.Name,
				string(u.Definition.Rarity), u.Definition.Bonus.Int64(),
			))
		}
	}

	return newly, nil
}

// ListUnlocked возвращает полученные достижения пользователя с определениями.
func (e *Engine) ListUnlocked(ctx context.Context, userID account.UserID) ([]Unlocked, error) {
	acc, err := e.accounts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, shared.ErrAccountNotFound
		}
		return nil, shared.WrapError("achievement", "ListUnlocked", shared.ErrTransient, "account load failed", err)
	}

	unlocked := make([]Unlocked, 0, len(acc.Unlocked))
	for _, u := range acc.Unlocked {
		def, ok := DefinitionByID(u.AchievementID)
		if !ok {
			continue
		}
		unlocked = append(unlocked, Unlocked{Definition: def, UnlockedAt: u.UnlockedAt})
	}
	return unlocked, nil
}

// satisfied проверяет условие одного определения.
func (e *Engine) satisfied(ctx context.Context, acc *account.Account, c Criteria, now time.Time) (bool, error) {
	switch c.Kind {
	case RuleLifetimePoints:
		return acc.LifetimePoints >= account.Points(c.Threshold), nil

	case RuleStreakLength:
		longest, err := e.longestStreak(ctx, acc.UserID)
		if err != nil {
			return false, err
		}
		return longest >= c.Threshold, nil

	case RuleCategoryCount:
		count, err := e.transactions.CountByUserCategory(ctx, acc.UserID, c.Category)
		if err != nil {
			return false, shared.WrapError("achievement", "Evaluate", shared.ErrTransient, "category count failed", err)
		}
		return count >= c.Threshold, nil

	case RuleRollingWindow:
		return e.activeEveryDay(ctx, acc.UserID, c.WindowDays, now)

	case RuleSocialAggregate:
		count, err := e.transactions.CountByUserCategory(ctx, acc.UserID, c.Categories...)
		if err != nil {
			return false, shared.WrapError("achievement", "Evaluate", shared.ErrTransient, "social count failed", err)
		}
		return count >= c.Threshold, nil

	default:
		return false, nil
	}
}

// longestStreak возвращает лучшую серию пользователя среди всех типов активности.
func (e *Engine) longestStreak(ctx context.Context, userID account.UserID) (int, error) {
	streaks, err := e.streaks.ListByUser(ctx, userID)
	if err != nil {
		return 0, shared.WrapError("achievement", "Evaluate", shared.ErrTransient, "streak list failed", err)
	}

	longest := 0
	for _, s := range streaks {
		if s.Longest > longest {
			longest = s.Longest
		}
	}
	return longest, nil
}

// activeEveryDay проверяет, была ли активность в каждый из последних windowDays
// календарных дней, включая сегодняшний. Учитываются только транзакции
// с источником activity.
func (e *Engine) activeEveryDay(ctx context.Context, userID account.UserID, windowDays int, now time.Time) (bool, error) {
	if windowDays <= 0 {
		return false, nil
	}

	since := timeutil.DaysAgo(now, windowDays-1)
	txs, err := e.transactions.ListByUserSince(ctx, userID, since)
	if err != nil {
		return false, shared.WrapError("achievement", "Evaluate", shared.ErrTransient, "window lookup failed", err)
	}

	days := make(map[string]struct{}, windowDays)
	for _, tx := range txs {
		if tx.Source != ledger.SourceActivity {
			continue
		}
		days[timeutil.FormatDay(tx.CreatedAt)] = struct{}{}
	}
	return len(days) >= windowDays, nil
}
