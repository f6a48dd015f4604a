package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACCOUNT REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AccountRepository implements account.Repository for PostgreSQL.
type AccountRepository struct {
	conn *Connection
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(conn *Connection) *AccountRepository {
	return &AccountRepository{conn: conn}
}

const accountColumns = `user_id, display_name, level, total_points, available_points,
	   lifetime_points, current_streak, longest_streak, achievements, preferences,
	   created_at, last_activity_at, updated_at`

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (
			user_id, display_name, level, total_points, available_points,
			lifetime_points, current_streak, longest_streak, achievements, preferences,
			created_at, last_activity_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	achJSON, prefsJSON, err := marshalAccountJSON(acc)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, query,
		acc.UserID.String(),
		acc.DisplayName,
		acc.Level,
		acc.TotalPoints.Int64(),
		acc.AvailablePoints.Int64(),
		acc.LifetimePoints.Int64(),
		acc.CurrentStreak,
		acc.LongestStreak,
		achJSON,
		prefsJSON,
		acc.CreatedAt,
		acc.LastActivityAt,
		acc.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return account.ErrAccountAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// Get returns an account by user ID.
func (r *AccountRepository) Get(ctx context.Context, userID account.UserID) (*account.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	return r.scanAccount(r.conn.QueryRow(ctx, query, userID.String()))
}

// Update persists a modified account.
func (r *AccountRepository) Update(ctx context.Context, acc *account.Account) error {
	return updateAccount(ctx, r.conn, acc)
}

// updateAccount writes the account row via the given querier, so the same
// statement serves both standalone updates and ledger commit transactions.
func updateAccount(ctx context.Context, q Querier, acc *account.Account) error {
	query := `
		UPDATE accounts SET
			display_name = $1,
			level = $2,
			total_points = $3,
			available_points = $4,
			lifetime_points = $5,
			current_streak = $6,
			longest_streak = $7,
			achievements = $8,
			preferences = $9,
			last_activity_at = $10,
			updated_at = $11
		WHERE user_id = $12
	`

	achJSON, prefsJSON, err := marshalAccountJSON(acc)
	if err != nil {
		return err
	}

	result, err := q.Exec(ctx, query,
		acc.DisplayName,
		acc.Level,
		acc.TotalPoints.Int64(),
		acc.AvailablePoints.Int64(),
		acc.LifetimePoints.Int64(),
		acc.CurrentStreak,
		acc.LongestStreak,
		achJSON,
		prefsJSON,
		acc.LastActivityAt,
		time.Now().UTC(),
		acc.UserID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}

// Delete removes an account (explicit erasure requests only).
func (r *AccountRepository) Delete(ctx context.Context, userID account.UserID) error {
	result, err := r.conn.Exec(ctx, "DELETE FROM accounts WHERE user_id = $1", userID.String())
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	if result.RowsAffected() == 0 {
		return account.ErrAccountNotFound
	}

	return nil
}

// Exists checks if an account exists.
func (r *AccountRepository) Exists(ctx context.Context, userID account.UserID) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = $1)",
		userID.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return exists, nil
}

// ListParticipants returns accounts that opted into the leaderboard.
func (r *AccountRepository) ListParticipants(ctx context.Context) ([]*account.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE (preferences->>'leaderboard')::boolean
		ORDER BY total_points DESC
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	return r.scanAccounts(rows)
}

// Count returns the total number of accounts.
func (r *AccountRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx, "SELECT COUNT(*) FROM accounts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count accounts: %w", err)
	}
	return count, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

func (r *AccountRepository) scanAccount(row pgx.Row) (*account.Account, error) {
	var acc account.Account
	var userID string
	var total, available, lifetime int64
	var achJSON, prefsJSON []byte

	err := row.Scan(
		&userID,
		&acc.DisplayName,
		&acc.Level,
		&total,
		&available,
		&lifetime,
		&acc.CurrentStreak,
		&acc.LongestStreak,
		&achJSON,
		&prefsJSON,
		&acc.CreatedAt,
		&acc.LastActivityAt,
		&acc.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, account.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}

	acc.UserID = account.UserID(userID)
	acc.TotalPoints = account.Points(total)
	acc.AvailablePoints = account.Points(available)
	acc.LifetimePoints = account.Points(lifetime)

	if len(achJSON) > 0 {
		if err := json.Unmarshal(achJSON, &acc.Unlocked); err != nil {
			return nil, fmt.Errorf("failed to unmarshal achievements: %w", err)
		}
	}

	acc.Preferences = account.DefaultPreferences()
	if len(prefsJSON) > 0 {
		if err := json.Unmarshal(prefsJSON, &acc.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}

	return &acc, nil
}

func (r *AccountRepository) scanAccounts(rows pgx.Rows) ([]*account.Account, error) {
	var accounts []*account.Account

	for rows.Next() {
		acc, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return accounts, nil
}

func marshalAccountJSON(acc *account.Account) ([]byte, []byte, error) {
	unlocked := acc.Unlocked
	if unlocked == nil {
		unlocked = []account.UnlockedAchievement{}
	}

	achJSON, err := json.Marshal(unlocked)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal achievements: %w", err)
	}

	prefsJSON, err := json.Marshal(acc.Preferences)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}

	return achJSON, prefsJSON, nil
}
