package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER REPOSITORY IMPLEMENTATION
// The transactions table is append-only: rows are never updated or
// deleted, with the single exception of erasure-request redaction.
// ══════════════════════════════════════════════════════════════════════════════

// LedgerRepository implements ledger.Repository for PostgreSQL.
type LedgerRepository struct {
	conn *Connection
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(conn *Connection) *LedgerRepository {
	return &LedgerRepository{conn: conn}
}

const transactionColumns = `sequence, id, user_id, direction, category, amount,
	   description, source, metadata, COALESCE(idempotency_key, ''), created_at`

// Append inserts a transaction and assigns its sequence number.
func (r *LedgerRepository) Append(ctx context.Context, tx *ledger.Transaction) error {
	return appendTransaction(ctx, r.conn, tx)
}

// Commit inserts the transactions and updates the account inside one
// database transaction: either everything lands or nothing does.
func (r *LedgerRepository) Commit(ctx context.Context, acc *account.Account, txs ...*ledger.Transaction) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(dbTx pgx.Tx) error {
		for _, tx := range txs {
			if err := appendTransaction(ctx, dbTx, tx); err != nil {
				return err
			}
		}
		return updateAccount(ctx, dbTx, acc)
	})
}

func appendTransaction(ctx context.Context, q Querier, tx *ledger.Transaction) error {
	query := `
		INSERT INTO transactions (
			id, user_id, direction, category, amount, description,
			source, metadata, idempotency_key, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING sequence
	`

	var metadataJSON []byte
	if tx.Metadata != nil {
		var err error
		metadataJSON, err = json.Marshal(tx.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
	}

	var idempotencyKey *string
	if tx.IdempotencyKey != "" {
		idempotencyKey = &tx.IdempotencyKey
	}

	err := q.QueryRow(ctx, query,
		tx.ID,
		tx.UserID.String(),
		string(tx.Direction),
		string(tx.Category),
		tx.Amount.Int64(),
		tx.Description,
		string(tx.Source),
		metadataJSON,
		idempotencyKey,
		tx.CreatedAt,
	).Scan(&tx.Sequence)
	if err != nil {
		if IsUniqueViolation(err) {
			return ledger.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}

	return nil
}

// FindByIdempotencyKey returns the transaction recorded under the key.
func (r *LedgerRepository) FindByIdempotencyKey(ctx context.Context, userID account.UserID, key string) (*ledger.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND idempotency_key = $2
	`

	return r.scanTransaction(r.conn.QueryRow(ctx, query, userID.String(), key))
}

// ListByUser returns the user's transactions, newest first.
func (r *LedgerRepository) ListByUser(ctx context.Context, userID account.UserID, limit int) ([]*ledger.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY sequence DESC
	`
	args := []interface{}{userID.String()}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// ListByUserSince returns the user's transactions at or after the given time.
func (r *LedgerRepository) ListByUserSince(ctx context.Context, userID account.UserID, since time.Time) ([]*ledger.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY sequence ASC
	`

	rows, err := r.conn.Query(ctx, query, userID.String(), since)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions since: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// CountByUserCategory counts the user's activity transactions in the categories.
func (r *LedgerRepository) CountByUserCategory(ctx context.Context, userID account.UserID, categories ...ledger.Category) (int, error) {
	if len(categories) == 0 {
		return 0, nil
	}

	cats := make([]string, len(categories))
	for i, c := range categories {
		cats[i] = string(c)
	}

	var count int
	err := r.conn.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM transactions
		WHERE user_id = $1 AND source = $2 AND category = ANY($3)
	`, userID.String(), string(ledger.SourceActivity), cats).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	return count, nil
}

// SumEarnedByUser returns earned sums per user in [from, to).
// A zero from means the interval is unbounded below.
func (r *LedgerRepository) SumEarnedByUser(ctx context.Context, from, to time.Time) (map[account.UserID]account.Points, error) {
	query := `
		SELECT user_id, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE direction = 'earn' AND created_at >= $1 AND created_at < $2
		GROUP BY user_id
	`

	rows, err := r.conn.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to sum earned points: %w", err)
	}
	defer rows.Close()

	sums := make(map[account.UserID]account.Points)
	for rows.Next() {
		var userID string
		var sum int64

		if err := rows.Scan(&userID, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan earned sum: %w", err)
		}
		sums[account.UserID(userID)] = account.Points(sum)
	}

	return sums, rows.Err()
}

// CategoryBreakdown returns the user's earned sums per category.
func (r *LedgerRepository) CategoryBreakdown(ctx context.Context, userID account.UserID) (map[ledger.Category]account.Points, error) {
	query := `
		SELECT category, COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND direction = 'earn'
		GROUP BY category
	`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to compute breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := make(map[ledger.Category]account.Points)
	for rows.Next() {
		var category string
		var sum int64

		if err := rows.Scan(&category, &sum); err != nil {
			return nil, fmt.Errorf("failed to scan breakdown row: %w", err)
		}
		breakdown[ledger.Category(category)] = account.Points(sum)
	}

	return breakdown, rows.Err()
}

// RedactUser blanks descriptions and metadata of the user's transactions.
func (r *LedgerRepository) RedactUser(ctx context.Context, userID account.UserID) (int, error) {
	result, err := r.conn.Exec(ctx, `
		UPDATE transactions
		SET description = '', metadata = NULL
		WHERE user_id = $1
	`, userID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to redact transactions: %w", err)
	}

	return int(result.RowsAffected()), nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

func (r *LedgerRepository) scanTransaction(row pgx.Row) (*ledger.Transaction, error) {
	var tx ledger.Transaction
	var userID, direction, category, source string
	var amount int64
	var metadataJSON []byte

	err := row.Scan(
		&tx.Sequence,
		&tx.ID,
		&userID,
		&direction,
		&category,
		&amount,
		&tx.Description,
		&source,
		&metadataJSON,
		&tx.IdempotencyKey,
		&tx.CreatedAt,
	)

	if IsNoRows(err) {
		return nil, ledger.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.UserID = account.UserID(userID)
	tx.Direction = ledger.Direction(direction)
	tx.Category = ledger.Category(category)
	tx.Source = ledger.Source(source)
	tx.Amount = account.Points(amount)

	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &tx.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return &tx, nil
}

func (r *LedgerRepository) scanTransactions(rows pgx.Rows) ([]*ledger.Transaction, error) {
	var txs []*ledger.Transaction

	for rows.Next() {
		tx, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return txs, nil
}
