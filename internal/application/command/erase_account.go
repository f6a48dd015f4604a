package command

import (
	"context"
	"errors"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/internal/domain/streak"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERASE ACCOUNT COMMAND
// Стирание по запросу пользователя: аккаунт и серии удаляются, записи
// журнала остаются, но описания и метаданные затираются. Сам журнал
// неизменяем, поэтому суммы транзакций сохраняются.
// ══════════════════════════════════════════════════════════════════════════════

// EraseAccountCommand содержит данные запроса стирания.
type EraseAccountCommand struct {
	// UserID - внешний идентификатор пользователя.
	UserID string
}

// Validate проверяет корректность команды.
func (c EraseAccountCommand) Validate() error {
	if !account.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	return nil
}

// EraseAccountResult содержит результат стирания.
type EraseAccountResult struct {
	// RedactedTransactions - количество отредактированных записей журнала.
	RedactedTransactions int
}

// EraseAccountHandler обрабатывает EraseAccountCommand.
type EraseAccountHandler struct {
	accounts     account.Repository
	transactions ledger.Repository
	streaks      streak.Repository
	locks        *keylock.KeyLock
	publisher    shared.EventPublisher
}

// NewEraseAccountHandler создаёт EraseAccountHandler.
func NewEraseAccountHandler(
	accounts account.Repository,
	transactions ledger.Repository,
	streaks streak.Repository,
	locks *keylock.KeyLock,
	publisher shared.EventPublisher,
) *EraseAccountHandler {
	return &EraseAccountHandler{
		accounts:     accounts,
		transactions: transactions,
		streaks:      streaks,
		locks:        locks,
		publisher:    publisher,
	}
}

// Handle выполняет команду стирания аккаунта.
func (h *EraseAccountHandler) Handle(ctx context.Context, cmd EraseAccountCommand) (*EraseAccountResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID := account.UserID(cmd.UserID)
	redacted := 0

	err := h.locks.Do(cmd.UserID, func() error {
		if _, err := h.accounts.Get(ctx, userID); err != nil {
			if errors.Is(err, account.ErrAccountNotFound) {
				return shared.ErrAccountNotFound
			}
			return shared.WrapError("command", "EraseAccount", shared.ErrTransient, "account load failed", err)
		}

		n, err := h.transactions.RedactUser(ctx, userID)
		if err != nil {
			return shared.WrapError("command", "EraseAccount", shared.ErrTransient, "ledger redaction failed", err)
		}
		redacted = n

		if err := h.streaks.DeleteByUser(ctx, userID); err != nil {
			return shared.WrapError("command", "EraseAccount", shared.ErrTransient, "streak deletion failed", err)
		}

		if err := h.accounts.Delete(ctx, userID); err != nil {
			return shared.WrapError("command", "EraseAccount", shared.ErrTransient, "account deletion failed", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewAccountErasedEvent(cmd.UserID, redacted))
	}

	return &EraseAccountResult{RedactedTransactions: redacted}, nil
}
