package query

import (
	"context"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TRANSACTIONS QUERY
// История транзакций пользователя от новых к старым.
// ══════════════════════════════════════════════════════════════════════════════

// GetTransactionsQuery содержит параметры запроса истории.
type GetTransactionsQuery struct {
	// UserID - внешний идентификатор пользователя.
	UserID string

	// Limit - количество записей (по умолчанию 50, 0 < limit <= 500).
	Limit int
}

// Validate проверяет и нормализует параметры запроса.
func (q *GetTransactionsQuery) Validate() error {
	if !account.UserID(q.UserID).IsValid() {
		return shared.ErrInvalidUserID
	}
	if q.Limit < 0 {
		return shared.NewDomainError("query", "GetTransactions", shared.ErrNegativeValue, "limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = 50
	}
	if q.Limit > 500 {
		q.Limit = 500
	}
	return nil
}

// GetTransactionsResult содержит историю транзакций.
type GetTransactionsResult struct {
	// Transactions - транзакции от новых к старым.
	Transactions []*ledger.Transaction
}

// GetTransactionsHandler обрабатывает GetTransactionsQuery.
type GetTransactionsHandler struct {
	transactions ledger.Repository
}

// NewGetTransactionsHandler создаёт GetTransactionsHandler.
func NewGetTransactionsHandler(transactions ledger.Repository) *GetTransactionsHandler {
	return &GetTransactionsHandler{transactions: transactions}
}

// Handle выполняет запрос истории.
func (h *GetTransactionsHandler) Handle(ctx context.Context, query GetTransactionsQuery) (*GetTransactionsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	txs, err := h.transactions.ListByUser(ctx, account.UserID(query.UserID), query.Limit)
	if err != nil {
		return nil, shared.WrapError("query", "GetTransactions", shared.ErrTransient, "history load failed", err)
	}

	return &GetTransactionsResult{Transactions: txs}, nil
}
