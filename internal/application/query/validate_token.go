package query

import (
	"context"

	"github.com/wellness-hub/rewards-engine/internal/domain/reward"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATE TOKEN QUERY
// Проверка предъявленного кода без изменения состояния. Погашение
// выполняет команда CompleteRedemption.
// ══════════════════════════════════════════════════════════════════════════════

// ValidateTokenQuery содержит предъявленный код.
type ValidateTokenQuery struct {
	// Code - предъявленный код токена.
	Code string
}

// Validate проверяет корректность запроса.
func (q ValidateTokenQuery) Validate() error {
	if q.Code == "" {
		return shared.NewDomainError("query", "ValidateToken", shared.ErrEmptyValue, "token code is required")
	}
	return nil
}

// ValidateTokenResult содержит результат проверки.
type ValidateTokenResult struct {
	// Valid - код пригоден для погашения.
	Valid bool

	// Reason - причина непригодности (nil для валидного кода).
	Reason error

	// Token - найденный токен (nil, если код не вскрылся).
	Token *reward.Token
}

// ValidateTokenHandler обрабатывает ValidateTokenQuery.
type ValidateTokenHandler struct {
	service *reward.Service
}

// NewValidateTokenHandler создаёт ValidateTokenHandler.
func NewValidateTokenHandler(service *reward.Service) *ValidateTokenHandler {
	return &ValidateTokenHandler{service: service}
}

// Handle выполняет проверку кода.
func (h *ValidateTokenHandler) Handle(ctx context.Context, query ValidateTokenQuery) (*ValidateTokenResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	result, err := h.service.Validate(ctx, query.Code)
	if err != nil {
		return nil, err
	}

	return &ValidateTokenResult{
		Valid:  result.Valid,
		Reason: result.Reason,
		Token:  result.Token,
	}, nil
}
