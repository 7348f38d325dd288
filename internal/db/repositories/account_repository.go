package repositories

import (
	"fmt"

	"social-link/gatekeeper/internal/constants"
	gormModels "social-link/gatekeeper/internal/models/gorm"

	"gorm.io/gorm"
)

// AccountRepository handles accounts/users table operations using GORM
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new GORM-based account repository
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByProviderAccountTx looks the dependent account up inside the caller's
// transaction, nil when the linking site never wrote one
func (r *AccountRepository) GetByProviderAccountTx(tx *gorm.DB, provider constants.Provider, providerAccountID string) (*gormModels.Account, error) {
	var account gormModels.Account

	err := tx.
		Where("provider = ? AND provider_account_id = ?", provider, providerAccountID).
		First(&account).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}

	return &account, nil
}

// DeleteWithUserTx hard-deletes the user record then the account record,
// in that order, inside the caller's transaction
func (r *AccountRepository) DeleteWithUserTx(tx *gorm.DB, account *gormModels.Account) error {
	if err := tx.Where("id = ?", account.UserID).Delete(&gormModels.User{}).Error; err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if err := tx.Where("id = ?", account.ID).Delete(&gormModels.Account{}).Error; err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	return nil
}
