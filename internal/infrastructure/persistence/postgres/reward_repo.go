package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/reward"
)

// ══════════════════════════════════════════════════════════════════════════════
// REWARD CATALOG REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RewardRepository implements reward.CatalogRepository for PostgreSQL.
type RewardRepository struct {
	conn *Connection
}

// NewRewardRepository creates a new RewardRepository.
func NewRewardRepository(conn *Connection) *RewardRepository {
	return &RewardRepository{conn: conn}
}

const rewardColumns = `id, name, description, cost, category, availability, stock,
	   active, min_level, required_achievements, season_start, season_end,
	   created_at, updated_at`

// Save creates or updates a reward.
func (r *RewardRepository) Save(ctx context.Context, rw *reward.Reward) error {
	query := `
		INSERT INTO rewards (
			id, name, description, cost, category, availability, stock,
			active, min_level, required_achievements, season_start, season_end,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			cost = EXCLUDED.cost,
			category = EXCLUDED.category,
			availability = EXCLUDED.availability,
			stock = EXCLUDED.stock,
			active = EXCLUDED.active,
			min_level = EXCLUDED.min_level,
			required_achievements = EXCLUDED.required_achievements,
			season_start = EXCLUDED.season_start,
			season_end = EXCLUDED.season_end,
			updated_at = EXCLUDED.updated_at
	`

	required := rw.RequiredAchievements
	if required == nil {
		required = []string{}
	}
	requiredJSON, err := json.Marshal(required)
	if err != nil {
		return fmt.Errorf("failed to marshal required achievements: %w", err)
	}

	var seasonStart, seasonEnd *time.Time
	if !rw.SeasonStart.IsZero() {
		seasonStart = &rw.SeasonStart
	}
	if !rw.SeasonEnd.IsZero() {
		seasonEnd = &rw.SeasonEnd
	}

	_, err = r.conn.Exec(ctx, query,
		rw.ID,
		rw.Name,
		rw.Description,
		rw.Cost.Int64(),
		string(rw.Category),
		string(rw.Availability),
		rw.Stock,
		rw.Active,
		rw.MinLevel,
		requiredJSON,
		seasonStart,
		seasonEnd,
		rw.CreatedAt,
		rw.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save reward: %w", err)
	}

	return nil
}

// Get returns a reward by ID.
func (r *RewardRepository) Get(ctx context.Context, id string) (*reward.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE id = $1`
	return r.scanReward(r.conn.QueryRow(ctx, query, id))
}

// ListActive returns all active rewards.
func (r *RewardRepository) ListActive(ctx context.Context) ([]*reward.Reward, error) {
	query := `SELECT ` + rewardColumns + ` FROM rewards WHERE active ORDER BY cost ASC`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []*reward.Reward
	for rows.Next() {
		rw, err := r.scanReward(rows)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, rw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return rewards, nil
}

// DecrementStock атомарно резервирует единицу запаса. Условие stock > 0
// в самом UPDATE гарантирует, что гонку за последнюю единицу выигрывает
// ровно одна транзакция.
func (r *RewardRepository) DecrementStock(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `
		UPDATE rewards
		SET stock = stock - 1, updated_at = NOW()
		WHERE id = $1 AND stock > 0
	`, id)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}

	if result.RowsAffected() == 0 {
		exists, eerr := r.exists(ctx, id)
		if eerr != nil {
			return eerr
		}
		if !exists {
			return reward.ErrRewardNotFound
		}
		return reward.ErrOutOfStock
	}

	return nil
}

// IncrementStock returns a reserved unit (compensation of a rejected redemption).
func (r *RewardRepository) IncrementStock(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `
		UPDATE rewards
		SET stock = stock + 1, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment stock: %w", err)
	}

	if result.RowsAffected() == 0 {
		return reward.ErrRewardNotFound
	}

	return nil
}

func (r *RewardRepository) exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.conn.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM rewards WHERE id = $1)", id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check reward existence: %w", err)
	}
	return exists, nil
}

func (r *RewardRepository) scanReward(row pgx.Row) (*reward.Reward, error) {
	var rw reward.Reward
	var cost int64
	var category, availability string
	var requiredJSON []byte
	var seasonStart, seasonEnd *time.Time

	err := row.Scan(
		&rw.ID,
		&rw.Name,
		&rw.Description,
		&cost,
		&category,
		&availability,
		&rw.Stock,
		&rw.Active,
		&rw.MinLevel,
		&requiredJSON,
		&seasonStart,
		&seasonEnd,
		&rw.CreatedAt,
		&rw.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, reward.ErrRewardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan reward: %w", err)
	}

	rw.Cost = account.Points(cost)
	rw.Category = reward.RewardCategory(category)
	rw.Availability = reward.Availability(availability)
	if seasonStart != nil {
		rw.SeasonStart = *seasonStart
	}
	if seasonEnd != nil {
		rw.SeasonEnd = *seasonEnd
	}

	if len(requiredJSON) > 0 {
		if err := json.Unmarshal(requiredJSON, &rw.RequiredAchievements); err != nil {
			return nil, fmt.Errorf("failed to unmarshal required achievements: %w", err)
		}
	}

	return &rw, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// TOKEN REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// TokenRepository implements reward.TokenRepository for PostgreSQL.
type TokenRepository struct {
	conn *Connection
}

// NewTokenRepository creates a new TokenRepository.
func NewTokenRepository(conn *Connection) *TokenRepository {
	return &TokenRepository{conn: conn}
}

const tokenColumns = `id, user_id, reward_id, transaction_id, code, status,
	   issued_at, expires_at, redeemed_at, location`

// Save creates or updates a token.
func (r *TokenRepository) Save(ctx context.Context, t *reward.Token) error {
	query := `
		INSERT INTO redemption_tokens (
			id, user_id, reward_id, transaction_id, code, status,
			issued_at, expires_at, redeemed_at, location
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			redeemed_at = EXCLUDED.redeemed_at,
			location = EXCLUDED.location
	`

	var redeemedAt *time.Time
	if !t.RedeemedAt.IsZero() {
		redeemedAt = &t.RedeemedAt
	}

	_, err := r.conn.Exec(ctx, query,
		t.ID,
		t.UserID.String(),
		t.RewardID,
		t.TransactionID,
		t.Code,
		string(t.Status),
		t.IssuedAt,
		t.ExpiresAt,
		redeemedAt,
		t.Location,
	)
	if err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	return nil
}

// Get returns a token by ID.
func (r *TokenRepository) Get(ctx context.Context, id string) (*reward.Token, error) {
	query := `SELECT ` + tokenColumns + ` FROM redemption_tokens WHERE id = $1`
	return r.scanToken(r.conn.QueryRow(ctx, query, id))
}

// ListByUser returns the user's tokens, newest first.
func (r *TokenRepository) ListByUser(ctx context.Context, userID account.UserID) ([]*reward.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM redemption_tokens
		WHERE user_id = $1
		ORDER BY issued_at DESC
	`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	return r.scanTokens(rows)
}

// FindIssuedExpiredBefore returns issued tokens that expired before the given time.
func (r *TokenRepository) FindIssuedExpiredBefore(ctx context.Context, before time.Time) ([]*reward.Token, error) {
	query := `
		SELECT ` + tokenColumns + `
		FROM redemption_tokens
		WHERE status = 'issued' AND expires_at < $1
		ORDER BY expires_at ASC
	`

	rows, err := r.conn.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired tokens: %w", err)
	}
	defer rows.Close()

	return r.scanTokens(rows)
}

func (r *TokenRepository) scanToken(row pgx.Row) (*reward.Token, error) {
	var t reward.Token
	var userID, status string
	var redeemedAt *time.Time

	err := row.Scan(
		&t.ID,
		&userID,
		&t.RewardID,
		&t.TransactionID,
		&t.Code,
		&status,
		&t.IssuedAt,
		&t.ExpiresAt,
		&redeemedAt,
		&t.Location,
	)

	if IsNoRows(err) {
		return nil, reward.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan token: %w", err)
	}

	t.UserID = account.UserID(userID)
	t.Status = reward.TokenStatus(status)
	if redeemedAt != nil {
		t.RedeemedAt = *redeemedAt
	}

	return &t, nil
}

func (r *TokenRepository) scanTokens(rows pgx.Rows) ([]*reward.Token, error) {
	var tokens []*reward.Token

	for rows.Next() {
		t, err := r.scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return tokens, nil
}
