package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wellness-hub/rewards-engine/internal/domain/reward"
	"github.com/wellness-hub/rewards-engine/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// EXPIRE TOKENS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ExpireTokensJob moves issued redemption tokens past their validity window
// into the expired state. Expiry is lazy on the validation path as well;
// the sweep keeps listings and stock reporting honest for tokens nobody
// ever presents again.
type ExpireTokensJob struct {
	service *reward.Service
	retrier *retry.Retrier
	logger  *slog.Logger
	timeout time.Duration
}

// NewExpireTokensJob creates a new ExpireTokensJob.
func NewExpireTokensJob(service *reward.Service, logger *slog.Logger) *ExpireTokensJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &ExpireTokensJob{
		service: service,
		retrier: retry.New(retry.Config{MaxAttempts: 3}),
		logger:  logger,
		timeout: 2 * time.Minute,
	}
}

// Name returns the job name.
func (j *ExpireTokensJob) Name() string {
	return "expire_tokens"
}

// Description returns a human-readable description.
func (j *ExpireTokensJob) Description() string {
	return "Marks issued redemption tokens past their expiry as expired"
}

// Run executes the sweep.
func (j *ExpireTokensJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	var expired int
	err := j.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		expired, err = j.service.ExpireStale(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("token expiry sweep: %w", err)
	}

	if expired > 0 {
		j.logger.Info("stale tokens expired", "count", expired)
	}

	return nil
}
