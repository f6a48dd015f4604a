package command

import (
	"context"
	"errors"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
	"github.com/wellness-hub/rewards-engine/pkg/keylock"
)

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE PREFERENCES COMMAND
// Настройки участия: видимость в рейтинге и уведомления.
// ══════════════════════════════════════════════════════════════════════════════

// UpdatePreferencesCommand содержит новые настройки участия.
type UpdatePreferencesCommand struct {
	// UserID - внешний идентификатор пользователя.
	UserID string

	// Leaderboard - участвовать в публичном рейтинге.
	Leaderboard bool

	// Notifications - получать уведомления о событиях счёта.
	Notifications bool
}

// Validate проверяет корректность команды.
func (c UpdatePreferencesCommand) Validate() error {
	if !account.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	return nil
}

// UpdatePreferencesResult содержит обновлённый аккаунт.
type UpdatePreferencesResult struct {
	Account *account.Account
}

// UpdatePreferencesHandler обрабатывает UpdatePreferencesCommand.
type UpdatePreferencesHandler struct {
	accounts account.Repository
	locks    *keylock.KeyLock
}

// NewUpdatePreferencesHandler создаёт UpdatePreferencesHandler.
func NewUpdatePreferencesHandler(accounts account.Repository, locks *keylock.KeyLock) *UpdatePreferencesHandler {
	return &UpdatePreferencesHandler{
		accounts: accounts,
		locks:    locks,
	}
}

// Handle выполняет команду обновления настроек.
func (h *UpdatePreferencesHandler) Handle(ctx context.Context, cmd UpdatePreferencesCommand) (*UpdatePreferencesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID := account.UserID(cmd.UserID)
	var updated *account.Account

	err := h.locks.Do(cmd.UserID, func() error {
		acc, err := h.accounts.Get(ctx, userID)
		if err != nil {
			if errors.Is(err, account.ErrAccountNotFound) {
				return shared.ErrAccountNotFound
			}
			return shared.WrapError("command", "UpdatePreferences", shared.ErrTransient, "account load failed", err)
		}

		acc.UpdatePreferences(account.Preferences{
			Leaderboard:   cmd.Leaderboard,
			Notifications: cmd.Notifications,
		}, time.Now().UTC())

		if err := h.accounts.Update(ctx, acc); err != nil {
			return shared.WrapError("command", "UpdatePreferences", shared.ErrTransient, "account update failed", err)
		}

		updated = acc.Clone()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &UpdatePreferencesResult{Account: updated}, nil
}
