package gorm

import (
	"social-link/gatekeeper/internal/constants"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProviderLink binds a Discord identity to an identity inside one provider.
// RevokedAt is a soft delete: the row stays for audit, every "active" query
// must filter on revoked_at IS NULL.
type ProviderLink struct {
	ID         string             `gorm:"column:id;primaryKey;type:uuid"`
	DiscordID  string             `gorm:"column:discord_id;index"`
	Provider   constants.Provider `gorm:"column:provider"`
	ProviderID string             `gorm:"column:provider_id"`
	UserID     *string            `gorm:"column:user_id;type:uuid"`
	LinkedAt   time.Time          `gorm:"column:linked_at;autoCreateTime"`
	RevokedAt  *time.Time         `gorm:"column:revoked_at"`
}

// TableName specifies the table name for GORM
func (ProviderLink) TableName() string {
	return "provider_links"
}

// BeforeCreate assigns the id if the caller left it empty
func (l *ProviderLink) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}
