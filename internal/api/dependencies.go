package api

import (
	"os"

	"social-link/gatekeeper/internal/common"
	"social-link/gatekeeper/internal/db"
	"social-link/gatekeeper/internal/db/repositories"
	"social-link/gatekeeper/internal/logging"
	"social-link/gatekeeper/internal/metrics"
	"social-link/gatekeeper/internal/providers"
	"social-link/gatekeeper/internal/services"
)

type Repositories struct {
	Links    *repositories.LinkRepository
	Settings *repositories.SettingsRepository
	Accounts *repositories.AccountRepository
	Sweep    *repositories.SweepRepository
}

type Services struct {
	Cache        common.CacheInterface
	Settings     *common.ServerSettingsService
	Verification *services.VerificationService
	Reconciler   *services.ReconcilerService
	LinkSigner   *common.LinkURLSigner
}

type Dependencies struct {
	Repo     *Repositories
	Services *Services
	Metrics  *metrics.MetricsRegistry
}

// InitDependencies wires repositories and services onto the shared database
// handles. The role gateway comes from the caller because the Discord
// session outlives and precedes everything here.
func InitDependencies(metricsReg *metrics.MetricsRegistry, gateway services.RoleGateway) (*Dependencies, error) {

	repos := &Repositories{
		Links:    repositories.NewLinkRepository(db.PgDB),
		Settings: repositories.NewSettingsRepository(db.PgDB),
		Accounts: repositories.NewAccountRepository(db.PgDB),
		Sweep:    repositories.NewSweepRepository(db.DB),
	}

	cache := newCacheBackend()
	settingsSvc := common.NewServerSettingsService(repos.Settings, cache)

	registry := providers.NewRegistry(
		providers.NewTwitterStrategy(),
		providers.NewGithubStrategy(),
	)

	verificationSvc := services.NewVerificationService(db.PgDB, registry, repos.Links, repos.Accounts, metricsReg)
	reconciler := services.NewReconcilerService(repos.Links, settingsSvc, gateway, services.FailModeFromEnv(), metricsReg)

	siteURL := os.Getenv("LINK_SITE_URL")
	if siteURL == "" {
		siteURL = "https://www.social-link.xyz"
	}
	signer := common.NewLinkURLSigner([]byte(os.Getenv("LINK_SIGNING_KEY")), siteURL, cache)

	return &Dependencies{
		Repo: repos,
		Services: &Services{
			Cache:        cache,
			Settings:     settingsSvc,
			Verification: verificationSvc,
			Reconciler:   reconciler,
			LinkSigner:   signer,
		},
		Metrics: metricsReg,
	}, nil
}

// newCacheBackend picks the cache implementation: Redis when CACHE_BACKEND
// asks for it and the connection holds, in-memory otherwise
func newCacheBackend() common.CacheInterface {
	if os.Getenv("CACHE_BACKEND") == "redis" {
		redisCache, err := common.NewRedisCacheService(common.NewRedisClient())
		if err == nil {
			logging.Info("Using Redis cache backend")
			return redisCache
		}
		logging.Warn("Redis cache unavailable, falling back to in-memory", "error", err.Error())
	}
	return common.NewCacheService(300, 600)
}
