package query

import (
	"context"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/reward"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LIST REWARDS QUERY
// Каталог наград с пометкой доступности для пользователя.
// ══════════════════════════════════════════════════════════════════════════════

// ListRewardsQuery содержит параметры запроса каталога.
type ListRewardsQuery struct {
	// UserID - внешний идентификатор пользователя.
	UserID string

	// OnlyEligible - вернуть только доступные для обмена награды.
	OnlyEligible bool
}

// Validate проверяет корректность запроса.
func (q ListRewardsQuery) Validate() error {
	if !account.UserID(q.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	return nil
}

// ListRewardsResult содержит награды каталога.
type ListRewardsResult struct {
	// Rewards - награды с результатом проверки доступности.
	Rewards []reward.EligibleReward
}

// ListRewardsHandler обрабатывает ListRewardsQuery.
type ListRewardsHandler struct {
	service *reward.Service
}

// NewListRewardsHandler создаёт ListRewardsHandler.
func NewListRewardsHandler(service *reward.Service) *ListRewardsHandler {
	return &ListRewardsHandler{service: service}
}

// Handle выполняет запрос каталога.
func (h *ListRewardsHandler) Handle(ctx context.Context, query ListRewardsQuery) (*ListRewardsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rewards, err := h.service.ListEligible(ctx, account.UserID(query.UserID))
	if err != nil {
		return nil, err
	}

	if query.OnlyEligible {
		eligible := make([]reward.EligibleReward, 0, len(rewards))
		for _, r := range rewards {
			if r.Eligible {
				eligible = append(eligible, r)
			}
		}
		rewards = eligible
	}

	return &ListRewardsResult{Rewards: rewards}, nil
}
