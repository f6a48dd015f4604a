// Package jobs contains the scheduled background jobs of the rewards engine.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/streak"
	"github.com/wellness-hub/rewards-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEACTIVATE STREAKS JOB
// ══════════════════════════════════════════════════════════════════════════════

// DeactivateStreaksJob breaks streaks whose last counted activity is more
// than one calendar day in the past. The sweep is idempotent: a streak
// already deactivated by a previous run is not stale anymore, so retries
// and overlapping runs converge on the same state.
type DeactivateStreaksJob struct {
	tracker *streak.Tracker
	retrier *retry.Retrier
	logger  *slog.Logger
	timeout time.Duration
}

// NewDeactivateStreaksJob creates a new DeactivateStreaksJob.
func NewDeactivateStreaksJob(tracker *streak.Tracker, logger *slog.Logger) *DeactivateStreaksJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &DeactivateStreaksJob{
		tracker: tracker,
		retrier: retry.New(retry.Config{MaxAttempts: 3}),
		logger:  logger,
		timeout: 2 * time.Minute,
	}
}

// Name returns the job name.
func (j *DeactivateStreaksJob) Name() string {
	return "deactivate_streaks"
}

// Description returns a human-readable description.
func (j *DeactivateStreaksJob) Description() string {
	return "Deactivates streaks with no activity since the previous calendar day"
}

// Run executes the sweep.
func (j *DeactivateStreaksJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	var deactivated int
	err := j.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		deactivated, err = j.tracker.DeactivateStale(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("streak deactivation sweep: %w", err)
	}

	if deactivated > 0 {
		j.logger.Info("stale streaks deactivated", "count", deactivated)
	}

	return nil
}
