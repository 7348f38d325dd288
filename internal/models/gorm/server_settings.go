package gorm

import (
	"strings"
	"time"

	"social-link/gatekeeper/internal/constants"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ServerSettings holds the verification policy for one guild. Rows are
// upserted by admin commands and never deleted; a guild the bot has left
// simply goes stale.
type ServerSettings struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid"`
	GuildID   string    `gorm:"column:guild_id;uniqueIndex"`
	RoleID    *string   `gorm:"column:role_id"`
	Providers string    `gorm:"column:providers"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (ServerSettings) TableName() string {
	return "server_settings"
}

// BeforeCreate assigns the id if the caller left it empty
func (s *ServerSettings) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// RequiredProviders returns the guild's required-provider set, falling back
// to the default set when the column was never written
func (s *ServerSettings) RequiredProviders() []constants.Provider {
	if s.Providers == "" {
		return constants.DefaultServerProviders
	}

	var out []constants.Provider
	for _, name := range strings.Split(s.Providers, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, constants.Provider(name))
		}
	}
	return out
}

// SetRequiredProviders encodes the provider set into the csv-backed column
func (s *ServerSettings) SetRequiredProviders(providers []constants.Provider) {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.String())
	}
	s.Providers = strings.Join(names, ",")
}
