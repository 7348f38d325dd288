package repositories

import (
	"context"
	"fmt"
	"time"

	"social-link/gatekeeper/internal/constants"
	gormModels "social-link/gatekeeper/internal/models/gorm"

	"gorm.io/gorm"
)

// LinkRepository handles provider_links table operations using GORM
type LinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a new GORM-based link repository
func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// GetActiveLinksByDiscordID retrieves every active link for a Discord user,
// restricted to the given provider set
func (r *LinkRepository) GetActiveLinksByDiscordID(ctx context.Context, discordID string, providers []constants.Provider) ([]gormModels.ProviderLink, error) {
	var links []gormModels.ProviderLink

	err := r.db.WithContext(ctx).
		Where("discord_id = ? AND revoked_at IS NULL AND provider IN ?", discordID, providers).
		Find(&links).Error

	if err != nil {
		return nil, fmt.Errorf("failed to fetch links: %w", err)
	}

	return links, nil
}

// GetActiveLink retrieves the active link for one (provider, providerId) pair.
// At most one active link per pair is assumed; the first match wins.
func (r *LinkRepository) GetActiveLink(ctx context.Context, provider constants.Provider, providerID string) (*gormModels.ProviderLink, error) {
	var link gormModels.ProviderLink

	err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_id = ? AND revoked_at IS NULL", provider, providerID).
		First(&link).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch link: %w", err)
	}

	return &link, nil
}

// GetActiveLinkByProviderID looks a Discord user up from a provider-side id
// (used by the webhook's wallet-address fallback)
func (r *LinkRepository) GetActiveLinkByProviderID(ctx context.Context, provider constants.Provider, providerID string) (*gormModels.ProviderLink, error) {
	return r.GetActiveLink(ctx, provider, providerID)
}

// RevokeTx soft-deletes the active link for (provider, providerId) inside the
// caller's transaction by stamping revoked_at
func (r *LinkRepository) RevokeTx(tx *gorm.DB, provider constants.Provider, providerID string, revokedAt time.Time) error {
	err := tx.Model(&gormModels.ProviderLink{}).
		Where("provider = ? AND provider_id = ? AND revoked_at IS NULL", provider, providerID).
		Update("revoked_at", revokedAt).Error

	if err != nil {
		return fmt.Errorf("failed to revoke link: %w", err)
	}
	return nil
}
