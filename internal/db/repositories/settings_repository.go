package repositories

import (
	"context"
	"fmt"
	"time"

	"social-link/gatekeeper/internal/constants"
	gormModels "social-link/gatekeeper/internal/models/gorm"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository handles server_settings table operations using GORM
type SettingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new GORM-based settings repository
func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetByGuildID retrieves settings for a guild, nil when the guild never
// opted in
func (r *SettingsRepository) GetByGuildID(ctx context.Context, guildID string) (*gormModels.ServerSettings, error) {
	var settings gormModels.ServerSettings

	err := r.db.WithContext(ctx).
		Where("guild_id = ?", guildID).
		First(&settings).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch server settings: %w", err)
	}

	return &settings, nil
}

// UpsertRole sets the verified role for a guild, creating the settings row
// with defaults if it does not exist yet. Single statement so two concurrent
// admin commands cannot race the guild_id unique index.
func (r *SettingsRepository) UpsertRole(ctx context.Context, guildID string, roleID string) error {
	settings := gormModels.ServerSettings{
		GuildID: guildID,
		RoleID:  &roleID,
	}
	settings.SetRequiredProviders(constants.DefaultServerProviders)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "guild_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"role_id":    roleID,
				"updated_at": time.Now(),
			}),
		}).
		Create(&settings).Error

	if err != nil {
		return fmt.Errorf("failed to upsert verified role: %w", err)
	}
	return nil
}

// UpsertProviders replaces the guild's required-provider set. Callers
// validate the set first; this write is all-or-nothing by construction.
func (r *SettingsRepository) UpsertProviders(ctx context.Context, guildID string, providers []constants.Provider) error {
	settings := gormModels.ServerSettings{GuildID: guildID}
	settings.SetRequiredProviders(providers)

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "guild_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"providers":  settings.Providers,
				"updated_at": time.Now(),
			}),
		}).
		Create(&settings).Error

	if err != nil {
		return fmt.Errorf("failed to upsert providers: %w", err)
	}
	return nil
}
