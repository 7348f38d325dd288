package gorm

import (
	"social-link/gatekeeper/internal/constants"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is the OAuth account record written by the external linking site.
// It owns the stored credential the sweep re-checks, and is hard-deleted
// together with its User when the credential is revoked.
type Account struct {
	ID                string             `gorm:"column:id;primaryKey;type:uuid"`
	UserID            string             `gorm:"column:user_id;type:uuid"`
	Provider          constants.Provider `gorm:"column:provider"`
	ProviderAccountID string             `gorm:"column:provider_account_id;index"`
	AccessToken       string             `gorm:"column:access_token"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate assigns the id if the caller left it empty
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// User is the identity record the linking site keys accounts against
type User struct {
	ID        string    `gorm:"column:id;primaryKey;type:uuid"`
	Name      *string   `gorm:"column:name"`
	Email     *string   `gorm:"column:email"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns the id if the caller left it empty
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
