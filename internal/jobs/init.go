package jobs

import (
	"context"
	"os"
	"strconv"
	"time"

	"social-link/gatekeeper/internal/db/repositories"
	"social-link/gatekeeper/internal/metrics"
	"social-link/gatekeeper/internal/services"
)

const defaultSweepIntervalMinutes = 20

// InitializeJobs initializes and starts all background jobs
func InitializeJobs(
	ctx context.Context,
	sweepRepo *repositories.SweepRepository,
	verificationSvc *services.VerificationService,
	reconciler *services.ReconcilerService,
	metricsReg *metrics.MetricsRegistry,
) *AuthSweepJob {
	sweepJob := NewAuthSweepJob(sweepRepo, verificationSvc, reconciler, metricsReg)

	interval := defaultSweepIntervalMinutes
	if raw := os.Getenv("SWEEP_INTERVAL_MINUTES"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			interval = n
		}
	}

	// Start scheduled sweep in background
	go sweepJob.RunScheduled(ctx, time.Duration(interval)*time.Minute)

	return sweepJob
}
