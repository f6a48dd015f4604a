// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE ACCOUNT COMMAND
// Регистрирует участника программы и начисляет приветственный бонус.
// Повторный вызов для существующего пользователя безвреден: аккаунт
// возвращается как есть, бонус второй раз не начисляется.
// ══════════════════════════════════════════════════════════════════════════════

// WelcomeBonus - приветственный бонус нового участника.
const WelcomeBonus account.Points = 50

// CreateAccountCommand содержит данные для создания аккаунта.
type CreateAccountCommand struct {
	// UserID - внешний идентификатор пользователя.
	UserID string

	// DisplayName - отображаемое имя.
	DisplayName string
}

// Validate проверяет корректность команды.
func (c CreateAccountCommand) Validate() error {
	if !account.UserID(c.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if c.DisplayName == "" {
		return shared.ErrInvalidDisplayName
	}
	return nil
}

// CreateAccountResult содержит результат создания аккаунта.
type CreateAccountResult struct {
	// Account - созданный или существующий аккаунт.
	Account *account.Account

	// Created - true, если аккаунт создан этим вызовом.
	Created bool

	// WelcomeBonus - начисленный приветственный бонус (0 для существующего).
	WelcomeBonus account.Points
}

// CreateAccountHandler обрабатывает CreateAccountCommand.
type CreateAccountHandler struct {
	accounts  account.Repository
	store     *ledger.Store
	bonus     account.Points
	publisher shared.EventPublisher
}

// NewCreateAccountHandler создаёт CreateAccountHandler.
func NewCreateAccountHandler(accounts account.Repository, store *ledger.Store, publisher shared.EventPublisher) *CreateAccountHandler {
	return &CreateAccountHandler{
		accounts:  accounts,
		store:     store,
		bonus:     WelcomeBonus,
		publisher: publisher,
	}
}

// Handle выполняет команду создания аккаунта.
func (h *CreateAccountHandler) Handle(ctx context.Context, cmd CreateAccountCommand) (*CreateAccountResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	userID := account.UserID(cmd.UserID)

	existing, err := h.accounts.Get(ctx, userID)
	if err == nil {
		return &CreateAccountResult{Account: existing, Created: false}, nil
	}
	if !errors.Is(err, account.ErrAccountNotFound) {
		return nil, shared.WrapError("command", "CreateAccount", shared.ErrTransient, "account lookup failed", err)
	}

	acc, err := account.NewAccount(account.NewAccountParams{
		UserID:      userID,
		DisplayName: cmd.DisplayName,
	})
	if err != nil {
		return nil, shared.WrapError("command", "CreateAccount", shared.ErrInvalidInput, "account validation failed", err)
	}

	if err := h.accounts.Create(ctx, acc); err != nil {
		// Гонка двух регистраций: выигравший уже начислил бонус.
		if errors.Is(err, account.ErrAccountAlreadyExists) {
			existing, gerr := h.accounts.Get(ctx, userID)
			if gerr == nil {
				return &CreateAccountResult{Account: existing, Created: false}, nil
			}
		}
		return nil, shared.WrapError("command", "CreateAccount", shared.ErrTransient, "account create failed", err)
	}

	if _, err := h.store.PostTransaction(ctx, ledger.PostParams{
		UserID:      userID,
		Direction:   ledger.DirectionEarn,
		Category:    ledger.CategoryWelcome,
		Amount:      h.bonus,
		Description: "Welcome to the program",
		Source:      ledger.SourceSystem,
	}); err != nil {
		return nil, err
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewAccountCreatedEvent(
			cmd.UserID, acc.DisplayName, h.bonus.Int64(),
		))
	}

	updated, err := h.accounts.Get(ctx, userID)
	if err != nil {
		return nil, shared.WrapError("command", "CreateAccount", shared.ErrTransient, "account reload failed", err)
	}

	return &CreateAccountResult{
		Account:      updated,
		Created:      true,
		WelcomeBonus: h.bonus,
	}, nil
}
