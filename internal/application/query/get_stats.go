package query

import (
	"context"
	"errors"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/leaderboard"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET STATS QUERY
// Сводная статистика участника: балансы, разбивка начислений по
// категориям, серии и позиция в рейтинге за всё время.
// ══════════════════════════════════════════════════════════════════════════════

// GetStatsQuery содержит параметры запроса статистики.
type GetStatsQuery struct {
	// UserID - внешний идентификатор пользователя.
	UserID string
}

// Validate проверяет корректность запроса.
func (q GetStatsQuery) Validate() error {
	if !account.UserID(q.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	return nil
}

// GetStatsResult содержит сводную статистику участника.
type GetStatsResult struct {
	// Account - аккаунт участника.
	Account *account.Account

	// Breakdown - суммы начислений по категориям.
	Breakdown map[ledger.Category]account.Points

	// Streaks - все серии пользователя.
	Streaks []*streak.Streak

	// Progress - положение на лестнице уровней с дистанцией до следующего.
	Progress LevelProgress

	// Rank - позиция в рейтинге за всё время (0, если не участвует).
	Rank int

	// TotalParticipants - количество участников рейтинга.
	TotalParticipants int

	// GeneratedAt - время формирования результата.
	GeneratedAt time.Time
}

// GetStatsHandler обрабатывает GetStatsQuery.
type GetStatsHandler struct {
	accounts     account.Repository
	transactions ledger.Repository
	streaks      streak.Repository
	store        *ledger.Store
	lb           *GetLeaderboardHandler
	now          func() time.Time
}

// NewGetStatsHandler создаёт GetStatsHandler.
func NewGetStatsHandler(accounts account.Repository, transactions ledger.Repository, streaks streak.Repository, store *ledger.Store, lb *GetLeaderboardHandler) *GetStatsHandler {
	return &GetStatsHandler{
		accounts:     accounts,
		transactions: transactions,
		streaks:      streaks,
		store:        store,
		lb:           lb,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Handle выполняет запрос статистики.
func (h *GetStatsHandler) Handle(ctx context.Context, query GetStatsQuery) (*GetStatsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	userID := account.UserID(query.UserID)
	now := h.now()

	acc, err := h.accounts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			return nil, shared.ErrAccountNotFound
		}
		return nil, shared.WrapError("query", "GetStats", shared.ErrTransient, "account load failed", err)
	}

	breakdown, err := h.transactions.CategoryBreakdown(ctx, userID)
	if err != nil {
		return nil, shared.WrapError("query", "GetStats", shared.ErrTransient, "breakdown failed", err)
	}

	streaks, err := h.streaks.ListByUser(ctx, userID)
	if err != nil {
		return nil, shared.WrapError("query", "GetStats", shared.ErrTransient, "streak list failed", err)
	}

	progress, err := levelProgressFor(h.store.Ladder(), acc.TotalPoints)
	if err != nil {
		return nil, err
	}

	result := &GetStatsResult{
		Account:     acc,
		Breakdown:   breakdown,
		Streaks:     streaks,
		Progress:    progress,
		GeneratedAt: now,
	}

	// Позиция в рейтинге считается из полного рейтинга за всё время.
	// Пользователь с отключённым участием позиции не имеет.
	entries, err := h.lb.Compute(ctx, leaderboard.WindowAllTime, now)
	if err != nil {
		return nil, err
	}
	result.TotalParticipants = len(entries)
	if entry, ok := leaderboard.PositionOf(entries, userID); ok {
		result.Rank = entry.Rank
	}

	return result, nil
}
