package command

import (
	"context"

	"github.com/wellness-hub/rewards-engine/internal/domain/reward"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// COMPLETE REDEMPTION COMMAND
// Погашение предъявленного кода токена. Повторное предъявление того же
// кода отклоняется.
// ══════════════════════════════════════════════════════════════════════════════

// CompleteRedemptionCommand содержит данные погашения.
type CompleteRedemptionCommand struct {
	// Code - предъявленный код токена.
	Code string

	// Location - место погашения (необязательно).
	Location string
}

// Validate проверяет корректность команды.
func (c CompleteRedemptionCommand) Validate() error {
	if c.Code == "" {
		return shared.NewDomainError("command", "CompleteRedemption", shared.ErrEmptyValue, "token code is required")
	}
	return nil
}

// CompleteRedemptionResult содержит результат погашения.
type CompleteRedemptionResult struct {
	// Token - погашенный токен.
	Token *reward.Token
}

// CompleteRedemptionHandler обрабатывает CompleteRedemptionCommand.
type CompleteRedemptionHandler struct {
	service *reward.Service
}

// NewCompleteRedemptionHandler создаёт CompleteRedemptionHandler.
func NewCompleteRedemptionHandler(service *reward.Service) *CompleteRedemptionHandler {
	return &CompleteRedemptionHandler{service: service}
}

// Handle выполняет команду погашения.
func (h *CompleteRedemptionHandler) Handle(ctx context.Context, cmd CompleteRedemptionCommand) (*CompleteRedemptionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	token, err := h.service.Complete(ctx, cmd.Code, cmd.Location)
	if err != nil {
		return nil, err
	}

	return &CompleteRedemptionResult{Token: token}, nil
}
