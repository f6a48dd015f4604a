package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/application/query"
	"github.com/wellness-hub/rewards-engine/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// RebuildLeaderboardJob recomputes every leaderboard window from the ledger
// and replaces the cached top. Reads keep working from the previous cache
// contents while the rebuild runs; the swap per window is atomic.
type RebuildLeaderboardJob struct {
	handler *query.GetLeaderboardHandler
	cache   query.LeaderboardCache
	windows []leaderboard.Window
	logger  *slog.Logger
	timeout time.Duration
}

// NewRebuildLeaderboardJob creates a new RebuildLeaderboardJob.
func NewRebuildLeaderboardJob(handler *query.GetLeaderboardHandler, cache query.LeaderboardCache, logger *slog.Logger) *RebuildLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &RebuildLeaderboardJob{
		handler: handler,
		cache:   cache,
		windows: []leaderboard.Window{
			leaderboard.WindowAllTime,
			leaderboard.WindowDaily,
			leaderboard.WindowWeekly,
			leaderboard.WindowMonthly,
		},
		logger:  logger,
		timeout: 5 * time.Minute,
	}
}

// Name returns the job name.
func (j *RebuildLeaderboardJob) Name() string {
	return "rebuild_leaderboard"
}

// Description returns a human-readable description.
func (j *RebuildLeaderboardJob) Description() string {
	return "Recomputes leaderboard windows from the ledger and refreshes the cache"
}

// Run executes the rebuild.
func (j *RebuildLeaderboardJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	now := time.Now().UTC()
	var failed int

	for _, window := range j.windows {
		entries, err := j.handler.Compute(ctx, window, now)
		if err != nil {
			failed++
			j.logger.Error("window compute failed", "window", window, "error", err)
			continue
		}

		if err := j.cache.Rebuild(ctx, window, entries); err != nil {
			failed++
			j.logger.Error("window cache rebuild failed", "window", window, "error", err)
			continue
		}

		j.logger.Debug("window rebuilt", "window", window, "entries", len(entries))
	}

	if failed > 0 {
		return fmt.Errorf("leaderboard rebuild completed with %d failed windows", failed)
	}

	return nil
}
