package services

import (
	"context"
	"log"
	"time"

	"social-link/gatekeeper/internal/constants"
	"social-link/gatekeeper/internal/db/repositories"
	"social-link/gatekeeper/internal/metrics"
	"social-link/gatekeeper/internal/providers"

	"gorm.io/gorm"
)

// VerificationService re-checks stored third-party credentials and purges
// the ones that no longer hold. It never touches Discord roles; role state
// is recomputed separately by the reconciler.
type VerificationService struct {
	db          *gorm.DB
	registry    *providers.Registry
	linkRepo    *repositories.LinkRepository
	accountRepo *repositories.AccountRepository
	metricsReg  *metrics.MetricsRegistry
}

// NewVerificationService creates a new verification service
func NewVerificationService(
	db *gorm.DB,
	registry *providers.Registry,
	linkRepo *repositories.LinkRepository,
	accountRepo *repositories.AccountRepository,
	metricsReg *metrics.MetricsRegistry,
) *VerificationService {
	return &VerificationService{
		db:          db,
		registry:    registry,
		linkRepo:    linkRepo,
		accountRepo: accountRepo,
		metricsReg:  metricsReg,
	}
}

// CheckableProviders lists the providers with a registered verification
// strategy, i.e. the ones a sweep can re-check
func (svc *VerificationService) CheckableProviders() []constants.Provider {
	return svc.registry.CheckableProviders()
}

// VerifyCredential confirms a stored credential is still authorized at its
// provider. Anything short of an explicit "authorized" answer (including
// network failure) revokes the link and deletes the dependent account/user
// pair in one transaction. Returns whether the credential held.
func (svc *VerificationService) VerifyCredential(ctx context.Context, provider constants.Provider, accessToken string, providerID string) bool {
	strategy := svc.registry.Get(provider)
	if strategy == nil {
		// Provider has no revocable-session semantics, nothing to check
		log.Printf("[VerificationService] No strategy for provider %s, skipping check", provider)
		return true
	}

	authorized, err := strategy.IsStillAuthorized(ctx, accessToken, providerID)
	if err != nil {
		log.Printf("[VerificationService] %s check failed for %s: %v", provider, providerID, err)
	}

	if authorized {
		if svc.metricsReg != nil {
			svc.metricsReg.LinksCheckedTotal.WithLabelValues(provider.String(), "authorized").Inc()
		}
		return true
	}

	// Revoke the link and remove dependent records, all or nothing
	err = svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := svc.linkRepo.RevokeTx(tx, provider, providerID, time.Now()); err != nil {
			return err
		}

		account, err := svc.accountRepo.GetByProviderAccountTx(tx, provider, providerID)
		if err != nil {
			return err
		}

		if account == nil {
			// No dependent records, commit the revocation alone
			return nil
		}

		return svc.accountRepo.DeleteWithUserTx(tx, account)
	})

	if err != nil {
		log.Printf("[VerificationService] Failed to revoke %s link %s: %v", provider, providerID, err)
		return false
	}

	if svc.metricsReg != nil {
		svc.metricsReg.LinksCheckedTotal.WithLabelValues(provider.String(), "revoked").Inc()
		svc.metricsReg.LinksRevokedTotal.WithLabelValues(provider.String()).Inc()
	}

	log.Printf("[VerificationService] Revoked %s link for provider id %s", provider, providerID)
	return false
}
