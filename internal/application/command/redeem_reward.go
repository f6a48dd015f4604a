package command

import (
	"context"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/reward"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REDEEM REWARD COMMAND
// Обмен баллов на награду каталога с выпуском токена погашения.
// ══════════════════════════════════════════════════════════════════════════════

// RedeemRewardCommand содержит данные обмена.
type RedeemRewardCommand struct {
	// UserID - внешний идентификатор пользователя.
	UserID string

	// RewardID - идентификатор награды каталога.
	RewardID string
}

// Validate проверяет корректность команды.
func (c RedeemRewardCommand) Validate() error {
	if !account.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if c.RewardID == "" {
		return shared.NewDomainError("command", "RedeemReward", shared.ErrEmptyValue, "reward id is required")
	}
	return nil
}

// RedeemRewardResult содержит результат обмена.
type RedeemRewardResult struct {
	// Token - выпущенный токен погашения с предъявляемым кодом.
	Token *reward.Token
}

// RedeemRewardHandler обрабатывает RedeemRewardCommand.
type RedeemRewardHandler struct {
	service *reward.Service
}

// NewRedeemRewardHandler создаёт RedeemRewardHandler.
func NewRedeemRewardHandler(service *reward.Service) *RedeemRewardHandler {
	return &RedeemRewardHandler{service: service}
}

// Handle выполняет команду обмена.
func (h *RedeemRewardHandler) Handle(ctx context.Context, cmd RedeemRewardCommand) (*RedeemRewardResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	token, err := h.service.Redeem(ctx, account.UserID(cmd.UserID), cmd.RewardID)
	if err != nil {
		return nil, err
	}

	return &RedeemRewardResult{Token: token}, nil
}
