// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
package query

import (
	"context"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/leaderboard"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Рейтинг участников по окну периода. Пользователи, отключившие
// участие, не попадают в выдачу. Горячий путь обслуживает кэш;
// при промахе или отсутствии кэша ранги считаются из хранилища.
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache отдаёт заранее посчитанный топ рейтинга.
// Реализация живёт в infrastructure/persistence/redis.
type LeaderboardCache interface {
	// GetTop возвращает верхние limit строк окна. Пустой срез без ошибки
	// означает промах кэша.
	GetTop(ctx context.Context, window leaderboard.Window, limit int) ([]leaderboard.Entry, error)

	// Rebuild атомарно замещает содержимое окна.
	Rebuild(ctx context.Context, window leaderboard.Window, entries []leaderboard.Entry) error

	// Count возвращает общее число участников окна, а не длину запрошенного
	// топа: перестроение сохраняет рейтинг целиком.
	Count(ctx context.Context, window leaderboard.Window) (int, error)
}

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// Window - окно периода (по умолчанию all_time).
	Window string

	// Limit - количество строк (по умолчанию 20, максимум 100).
	Limit int
}

// Validate проверяет и нормализует параметры запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.Window == "" {
		q.Window = string(leaderboard.WindowAllTime)
	}
	if !leaderboard.Window(q.Window).IsValid() {
		return shared.NewDomainError("query", "GetLeaderboard", shared.ErrInvalidInput, "unknown leaderboard window")
	}
	if q.Limit < 0 {
		return shared.NewDomainError("query", "GetLeaderboard", shared.ErrNegativeValue, "limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// GetLeaderboardResult содержит строки рейтинга.
type GetLeaderboardResult struct {
	// Window - окно периода.
	Window string

	// Entries - строки рейтинга с плотными рангами.
	Entries []leaderboard.Entry

	// TotalParticipants - общее количество участников окна.
	TotalParticipants int

	// GeneratedAt - время формирования результата.
	GeneratedAt time.Time
}

// GetLeaderboardHandler обрабатывает GetLeaderboardQuery.
type GetLeaderboardHandler struct {
	accounts     account.Repository
	transactions ledger.Repository
	cache        LeaderboardCache
	now          func() time.Time
}

// NewGetLeaderboardHandler создаёт GetLeaderboardHandler.
// Кэш может быть nil: тогда каждый запрос считается из хранилища.
func NewGetLeaderboardHandler(accounts account.Repository, transactions ledger.Repository, cache LeaderboardCache) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		accounts:     accounts,
		transactions: transactions,
		cache:        cache,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Handle выполняет запрос рейтинга.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	window := leaderboard.Window(query.Window)
	now := h.now()

	if h.cache != nil {
		cached, err := h.cache.GetTop(ctx, window, query.Limit)
		if err == nil && len(cached) > 0 {
			// Топ может быть обрезан лимитом, поэтому общее число участников
			// берётся из кэша отдельно.
			total := len(cached)
			if n, cerr := h.cache.Count(ctx, window); cerr == nil && n >= len(cached) {
				total = n
			}
			return &GetLeaderboardResult{
				Window:            query.Window,
				Entries:           cached,
				TotalParticipants: total,
				GeneratedAt:       now,
			}, nil
		}
	}

	entries, err := h.Compute(ctx, window, now)
	if err != nil {
		return nil, err
	}

	total := len(entries)
	if len(entries) > query.Limit {
		entries = entries[:query.Limit]
	}

	return &GetLeaderboardResult{
		Window:            query.Window,
		Entries:           entries,
		TotalParticipants: total,
		GeneratedAt:       now,
	}, nil
}

// Compute считает полный рейтинг окна из хранилища.
// Используется и запросом при промахе кэша, и фоновым перестроением.
func (h *GetLeaderboardHandler) Compute(ctx context.Context, window leaderboard.Window, now time.Time) ([]leaderboard.Entry, error) {
	participants, err := h.accounts.ListParticipants(ctx)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrTransient, "participant list failed", err)
	}

	scored := make([]leaderboard.Scored, 0, len(participants))

	if window == leaderboard.WindowAllTime {
		for _, acc := range participants {
			scored = append(scored, leaderboard.Scored{
				UserID:      acc.UserID,
				DisplayName: acc.DisplayName,
				Level:       acc.Level,
				Points:      acc.TotalPoints,
			})
		}
		return leaderboard.Rank(scored), nil
	}

	from, to := window.Range(now)
	sums, err := h.transactions.SumEarnedByUser(ctx, from, to)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrTransient, "period sums failed", err)
	}

	// Периодный рейтинг включает только участников с начислениями в окне.
	for _, acc := range participants {
		points, ok := sums[acc.UserID]
		if !ok || points <= 0 {
			continue
		}
		scored = append(scored, leaderboard.Scored{
			UserID:      acc.UserID,
			DisplayName: acc.DisplayName,
			Level:       acc.Level,
			Points:      points,
		})
	}
	return leaderboard.Rank(scored), nil
}
