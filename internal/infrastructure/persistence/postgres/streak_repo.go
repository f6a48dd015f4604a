package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wellness-hub/rewards-engine/internal/domain/account"
	"github.com/wellness-hub/rewards-engine/internal/domain/ledger"
	"github.com/wellness-hub/rewards-engine/internal/domain/streak"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StreakRepository implements streak.Repository for PostgreSQL.
type StreakRepository struct {
	conn *Connection
}

// NewStreakRepository creates a new StreakRepository.
func NewStreakRepository(conn *Connection) *StreakRepository {
	return &StreakRepository{conn: conn}
}

const streakColumns = `user_id, activity_type, current_streak, longest_streak,
	   last_activity_at, started_at, active, updated_at`

// Get returns the streak for the (user, activity type) pair.
func (r *StreakRepository) Get(ctx context.Context, userID account.UserID, activityType ledger.Category) (*streak.Streak, error) {
	query := `SELECT ` + streakColumns + ` FROM streaks WHERE user_id = $1 AND activity_type = $2`
	return r.scanStreak(r.conn.QueryRow(ctx, query, userID.String(), string(activityType)))
}

// Upsert saves a streak, creating the row on first write.
func (r *StreakRepository) Upsert(ctx context.Context, s *streak.Streak) error {
	query := `
		INSERT INTO streaks (
			user_id, activity_type, current_streak, longest_streak,
			last_activity_at, started_at, active, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, activity_type) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = GREATEST(streaks.longest_streak, EXCLUDED.longest_streak),
			last_activity_at = EXCLUDED.last_activity_at,
			started_at = EXCLUDED.started_at,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	var lastActivity, started *time.Time
	if !s.LastActivityAt.IsZero() {
		lastActivity = &s.LastActivityAt
	}
	if !s.StartedAt.IsZero() {
		started = &s.StartedAt
	}

	_, err := r.conn.Exec(ctx, query,
		s.UserID.String(),
		string(s.ActivityType),
		s.Current,
		s.Longest,
		lastActivity,
		started,
		s.Active,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert streak: %w", err)
	}

	return nil
}

// ListByUser returns all streaks of the user.
func (r *StreakRepository) ListByUser(ctx context.Context, userID account.UserID) ([]*streak.Streak, error) {
	query := `
		SELECT ` + streakColumns + `
		FROM streaks
		WHERE user_id = $1
		ORDER BY activity_type
	`

	rows, err := r.conn.Query(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list streaks: %w", err)
	}
	defer rows.Close()

	return r.scanStreaks(rows)
}

// FindStale returns active streaks last touched before the given time.
func (r *StreakRepository) FindStale(ctx context.Context, before time.Time) ([]*streak.Streak, error) {
	query := `
		SELECT ` + streakColumns + `
		FROM streaks
		WHERE active AND last_activity_at < $1
		ORDER BY last_activity_at ASC
	`

	rows, err := r.conn.Query(ctx, query, before)
	if err != nil {
		return nil, fmt.Errorf("failed to find stale streaks: %w", err)
	}
	defer rows.Close()

	return r.scanStreaks(rows)
}

// DeleteByUser removes all streaks of the user (erasure requests).
func (r *StreakRepository) DeleteByUser(ctx context.Context, userID account.UserID) error {
	if _, err := r.conn.Exec(ctx, "DELETE FROM streaks WHERE user_id = $1", userID.String()); err != nil {
		return fmt.Errorf("failed to delete streaks: %w", err)
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER METHODS
// ══════════════════════════════════════════════════════════════════════════════

func (r *StreakRepository) scanStreak(row pgx.Row) (*streak.Streak, error) {
	var s streak.Streak
	var userID, activityType string
	var lastActivity, started *time.Time

	err := row.Scan(
		&userID,
		&activityType,
		&s.Current,
		&s.Longest,
		&lastActivity,
		&started,
		&s.Active,
		&s.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, streak.ErrStreakNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan streak: %w", err)
	}

	s.UserID = account.UserID(userID)
	s.ActivityType = ledger.Category(activityType)
	if lastActivity != nil {
		s.LastActivityAt = *lastActivity
	}
	if started != nil {
		s.StartedAt = *started
	}

	return &s, nil
}

func (r *StreakRepository) scanStreaks(rows pgx.Rows) ([]*streak.Streak, error) {
	var streaks []*streak.Streak

	for rows.Next() {
		s, err := r.scanStreak(rows)
		if err != nil {
			return nil, err
		}
		streaks = append(streaks, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return streaks, nil
}
