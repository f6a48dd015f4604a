package command

import (
	"context"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SPEND POINTS COMMAND
// Прямое списание доступных баллов (корректировки, внешние траты).
// Списание сверх доступного баланса отклоняется без изменений состояния.
// ══════════════════════════════════════════════════════════════════════════════

// SpendPointsCommand содержит данные списания.
type SpendPointsCommand struct {
	// UserID - внешний идентификатор пользователя.
	UserID string

	// Amount - сумма списания, должна быть положительной.
	Amount int64

	// Description - причина списания.
	Description string

	// IdempotencyKey - необязательный ключ идемпотентности.
	IdempotencyKey string
}

// Validate проверяет корректность команды.
func (c SpendPointsCommand) Validate() error {
	if !account.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if c.Amount <= 0 {
		return shared.ErrInvalidAmount
	}
	return nil
}

// SpendPointsResult содержит результат списания.
type SpendPointsResult struct {
	// Transaction - проведённая транзакция списания.
	Transaction *ledger.Transaction
}

// SpendPointsHandler обрабатывает SpendPointsCommand.
type SpendPointsHandler struct {
	store *ledger.Store
}

// NewSpendPointsHandler создаёт SpendPointsHandler.
func NewSpendPointsHandler(store *ledger.Store) *SpendPointsHandler {
	return &SpendPointsHandler{store: store}
}

// Handle выполняет команду списания баллов.
func (h *SpendPointsHandler) Handle(ctx context.Context, cmd SpendPointsCommand) (*SpendPointsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	description := cmd.Description
	if description == "" {
		description = "Points adjustment"
	}

	tx, err := h.store.PostTransaction(ctx, ledger.PostParams{
		UserID:         account.UserID(cmd.UserID),
		Direction:      ledger.DirectionSpend,
		Category:       ledger.CategoryAdjustment,
		Amount:         account.Points(cmd.Amount),
		Description:    description,
		Source:         ledger.SourceSystem,
		IdempotencyKey: cmd.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	return &SpendPointsResult{Transaction: tx}, nil
}
