package query

import (
	"context"
	"errors"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/achievement"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACCOUNT QUERY
// Профиль участника: балансы, уровень с прогрессом до следующего
// и полученные достижения с определениями.
// ══════════════════════════════════════════════════════════════════════════════

// GetAccountQuery содержит параметры запроса профиля.
type GetAccountQuery struct {
	// UserID - внешний идентификатор пользователя.
	UserID string
}

// Validate проверяет корректность запроса.
func (q GetAccountQuery) Validate() error {
	if !account.UserID(q.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	return nil
}

// LevelProgress описывает положение пользователя на лестнице уровней.
type LevelProgress struct {
	// Level - текущий уровень.
	Level ledger.Level

	// NextLevel - следующий уровень (nil на вершине лестницы).
	NextLevel *ledger.Level

	// PointsToNext - сколько баллов осталось до следующего уровня
	// (0 на вершине лестницы).
	PointsToNext account.Points
}

// GetAccountResult содержит профиль участника.
type GetAccountResult struct {
	// Account - аккаунт участника.
	Account *account.Account

	// Progress - положение на лестнице уровней.
	Progress LevelProgress

	// Achievements - полученные достижения с определениями.
	Achievements []achievement.Unlocked
}

// GetAccountHandler обрабатывает GetAccountQuery.
type GetAccountHandler struct {
	accounts account.Repository
	store    *ledger.Store
	engine   *achievement.Engine
}

// NewGetAccountHandler создаёт GetAccountHandler.
func NewGetAccountHandler(accounts account.Repository, store *ledger.Store, engine *achievement.Engine) *GetAccountHandler {
	return &GetAccountHandler{
		accounts: accounts,
		store:    store,
		engine:   engine,
	}
}

// Handle выполняет запрос профиля.
func (h *GetAccountHandler) Handle(ctx context.Context, query GetAccountQuery) (*GetAccountResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	userID := account.UserID(query.UserID)

	acc, err := h.accounts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, shared.ErrAccountNotFound
		}
		return nil, shared.WrapError("query", "GetAccount", shared.ErrTransient, "account load failed", err)
	}

	progress, err := h.levelProgress(acc)
	if err != nil {
		return nil, err
	}

	unlocked, err := h.engine.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &GetAccountResult{
		Account:      acc,
		Progress:     progress,
		Achievements: unlocked,
	}, nil
}

// levelProgress вычисляет положение аккаунта на лестнице уровней.
func (h *GetAccountHandler) levelProgress(acc *account.Account) (LevelProgress, error) {
	return levelProgressFor(h.store.Ladder(), acc.TotalPoints)
}

// levelProgressFor вычисляет положение на лестнице уровней по сумме баллов.
func levelProgressFor(ladder []ledger.Level, total account.Points) (LevelProgress, error) {
	current, err := ledger.LevelFor(ladder, total)
	if err != nil {
		return LevelProgress{}, shared.ErrNegativePoints
	}

	progress := LevelProgress{Level: current}
	if next, ok := ledger.NextLevel(ladder, total); ok {
		progress.NextLevel = &next
		progress.PointsToNext = next.Threshold - total
	}
	return progress, nil
}
