package jobs

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"social-link/gatekeeper/internal/constants"
	"social-link/gatekeeper/internal/db/repositories"
	"social-link/gatekeeper/internal/metrics"

	"golang.org/x/sync/errgroup"
)

const defaultSweepConcurrency = 4

// LinkSource lists the active links a sweep should re-check
type LinkSource interface {
	GetCheckableLinks(ctx context.Context, providers []constants.Provider) ([]repositories.CheckableLink, error)
}

// CredentialVerifier re-checks one stored credential
type CredentialVerifier interface {
	CheckableProviders() []constants.Provider
	VerifyCredential(ctx context.Context, provider constants.Provider, accessToken string, providerID string) bool
}

// UserReconciler recomputes a user's role state across guilds
type UserReconciler interface {
	ReconcileUser(ctx context.Context, discordID string)
}

// SweepResult is one link's outcome in a sweep report
type SweepResult struct {
	DiscordID string
	Verified  bool
}

// AuthSweepJob re-verifies every active credential for providers that
// support revocation checks. Runs on a timer and on demand via the
// /checkAuth trigger.
type AuthSweepJob struct {
	sweepRepo       LinkSource
	verificationSvc CredentialVerifier
	reconciler      UserReconciler
	metricsReg      *metrics.MetricsRegistry
	concurrency     int
	reconcileAfter  bool
}

// NewAuthSweepJob creates a new sweep job. Concurrency comes from
// SWEEP_CONCURRENCY so the fan-out respects third-party rate limits;
// SWEEP_RECONCILE=true additionally feeds each result into the reconciler
// (off by default: role recompute is normally driven by joins and commands).
func NewAuthSweepJob(
	sweepRepo LinkSource,
	verificationSvc CredentialVerifier,
	reconciler UserReconciler,
	metricsReg *metrics.MetricsRegistry,
) *AuthSweepJob {
	concurrency := defaultSweepConcurrency
	if raw := os.Getenv("SWEEP_CONCURRENCY"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			concurrency = n
		}
	}

	return &AuthSweepJob{
		sweepRepo:       sweepRepo,
		verificationSvc: verificationSvc,
		reconciler:      reconciler,
		metricsReg:      metricsReg,
		concurrency:     concurrency,
		reconcileAfter:  os.Getenv("SWEEP_RECONCILE") == "true",
	}
}

// Run executes one sweep. Only a failure of the query phase is an error;
// individual link checks fail independently and stay in the report.
func (j *AuthSweepJob) Run(ctx context.Context) error {
	start := time.Now()
	log.Printf("[AuthSweepJob] Starting sweep at %s", start.Format(time.RFC3339))

	checkable := j.verificationSvc.CheckableProviders()
	links, err := j.sweepRepo.GetCheckableLinks(ctx, checkable)
	if err != nil {
		log.Printf("[AuthSweepJob] Error fetching checkable links: %v", err)
		if j.metricsReg != nil {
			j.metricsReg.SweepFailures.Inc()
		}
		return fmt.Errorf("failed to fetch checkable links: %w", err)
	}

	if len(links) == 0 {
		log.Printf("[AuthSweepJob] No checkable links found")
		return nil
	}

	log.Printf("[AuthSweepJob] Checking %d links with concurrency %d", len(links), j.concurrency)

	var (
		mu      sync.Mutex
		results = make([]SweepResult, 0, len(links))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)

	for _, link := range links {
		link := link
		g.Go(func() error {
			// A link without an account row carries no credential; the
			// empty token fails the provider check and drives the normal
			// revoke path
			accessToken := ""
			if link.AccessToken != nil {
				accessToken = *link.AccessToken
			} else {
				log.Printf("[AuthSweepJob] No stored credential for %s link %s", link.Provider, link.ProviderID)
			}

			verified := j.verificationSvc.VerifyCredential(gctx, link.Provider, accessToken, link.ProviderID)

			mu.Lock()
			results = append(results, SweepResult{DiscordID: link.DiscordID, Verified: verified})
			mu.Unlock()

			// per-link failures never fail the sweep
			return nil
		})
	}

	_ = g.Wait()

	revoked := 0
	for _, r := range results {
		if !r.Verified {
			revoked++
		}
		log.Printf("[AuthSweepJob] %s verified=%t", r.DiscordID, r.Verified)
	}

	if j.reconcileAfter {
		for _, r := range results {
			if !r.Verified {
				j.reconciler.ReconcileUser(ctx, r.DiscordID)
			}
		}
	}

	if j.metricsReg != nil {
		j.metricsReg.SweepDuration.Observe(time.Since(start).Seconds())
	}

	log.Printf("[AuthSweepJob] Completed sweep in %s. Checked: %d, Revoked: %d",
		time.Since(start).Truncate(time.Millisecond), len(results), revoked)

	return nil
}

// RunScheduled runs the sweep on a fixed interval until the context ends
func (j *AuthSweepJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[AuthSweepJob] Scheduler stopped")
			return
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				log.Printf("[AuthSweepJob] Scheduled sweep failed: %v", err)
			}
		}
	}
}
