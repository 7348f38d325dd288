package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"social-link/gatekeeper/internal/constants"
	"social-link/gatekeeper/internal/db/repositories"
	gormModels "social-link/gatekeeper/internal/models/gorm"
	"social-link/gatekeeper/internal/providers"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Mock VerificationStrategy
type mockStrategy struct {
	provider          constants.Provider
	isStillAuthorized func(ctx context.Context, accessToken string, providerID string) (bool, error)
}

func (m *mockStrategy) GetProviderType() constants.Provider {
	return m.provider
}

func (m *mockStrategy) IsStillAuthorized(ctx context.Context, accessToken string, providerID string) (bool, error) {
	return m.isStillAuthorized(ctx, accessToken, providerID)
}

// Setup test database
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Auto migrate
	if err := db.AutoMigrate(
		&gormModels.ProviderLink{},
		&gormModels.ServerSettings{},
		&gormModels.Account{},
		&gormModels.User{},
	); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	return db
}

func newVerificationServiceForTest(db *gorm.DB, strategies ...providers.VerificationStrategy) *VerificationService {
	return NewVerificationService(
		db,
		providers.NewRegistry(strategies...),
		repositories.NewLinkRepository(db),
		repositories.NewAccountRepository(db),
		nil,
	)
}

func seedLinkedUser(t *testing.T, db *gorm.DB, provider constants.Provider, providerID string) {
	user := gormModels.User{}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}

	account := gormModels.Account{
		UserID:            user.ID,
		Provider:          provider,
		ProviderAccountID: providerID,
		AccessToken:       "token-123",
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("Failed to seed account: %v", err)
	}

	link := gormModels.ProviderLink{
		DiscordID:  "discord-123",
		Provider:   provider,
		ProviderID: providerID,
		UserID:     &user.ID,
	}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("Failed to seed link: %v", err)
	}
}

func TestVerificationService_VerifyCredential_StillAuthorized(t *testing.T) {
	db := setupTestDB(t)
	seedLinkedUser(t, db, constants.ProviderTwitter, "tw-1")

	strategy := &mockStrategy{
		provider: constants.ProviderTwitter,
		isStillAuthorized: func(ctx context.Context, accessToken string, providerID string) (bool, error) {
			return true, nil
		},
	}

	svc := newVerificationServiceForTest(db, strategy)

	verified := svc.VerifyCredential(context.Background(), constants.ProviderTwitter, "token-123", "tw-1")
	if !verified {
		t.Fatal("Expected credential to verify")
	}

	// Nothing should have been mutated
	var link gormModels.ProviderLink
	if err := db.Where("provider_id = ?", "tw-1").First(&link).Error; err != nil {
		t.Fatalf("Link not found: %v", err)
	}
	if link.RevokedAt != nil {
		t.Error("Expected link to stay active")
	}

	var accountCount, userCount int64
	db.Model(&gormModels.Account{}).Count(&accountCount)
	db.Model(&gormModels.User{}).Count(&userCount)
	if accountCount != 1 || userCount != 1 {
		t.Errorf("Expected account and user to survive, got %d accounts, %d users", accountCount, userCount)
	}
}

func TestVerificationService_VerifyCredential_RevokedAtProvider(t *testing.T) {
	db := setupTestDB(t)
	seedLinkedUser(t, db, constants.ProviderTwitter, "tw-1")

	strategy := &mockStrategy{
		provider: constants.ProviderTwitter,
		isStillAuthorized: func(ctx context.Context, accessToken string, providerID string) (bool, error) {
			return false, errors.New("unexpected status 401")
		},
	}

	svc := newVerificationServiceForTest(db, strategy)

	verified := svc.VerifyCredential(context.Background(), constants.ProviderTwitter, "token-123", "tw-1")
	if verified {
		t.Fatal("Expected credential to fail verification")
	}

	// Link revoked, account and user gone
	var link gormModels.ProviderLink
	if err := db.Where("provider_id = ?", "tw-1").First(&link).Error; err != nil {
		t.Fatalf("Link not found: %v", err)
	}
	if link.RevokedAt == nil {
		t.Error("Expected link to be revoked")
	}

	var accountCount, userCount int64
	db.Model(&gormModels.Account{}).Count(&accountCount)
	db.Model(&gormModels.User{}).Count(&userCount)
	if accountCount != 0 {
		t.Errorf("Expected account to be deleted, got %d", accountCount)
	}
	if userCount != 0 {
		t.Errorf("Expected user to be deleted, got %d", userCount)
	}
}

func TestVerificationService_VerifyCredential_NoDependentAccount(t *testing.T) {
	db := setupTestDB(t)

	// Link without an account row behind it
	link := gormModels.ProviderLink{
		DiscordID:  "discord-123",
		Provider:   constants.ProviderTwitter,
		ProviderID: "tw-orphan",
	}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("Failed to seed link: %v", err)
	}

	strategy := &mockStrategy{
		provider: constants.ProviderTwitter,
		isStillAuthorized: func(ctx context.Context, accessToken string, providerID string) (bool, error) {
			return false, nil
		},
	}

	svc := newVerificationServiceForTest(db, strategy)

	verified := svc.VerifyCredential(context.Background(), constants.ProviderTwitter, "stale-token", "tw-orphan")
	if verified {
		t.Fatal("Expected credential to fail verification")
	}

	// Revocation alone must still commit
	var got gormModels.ProviderLink
	if err := db.Where("provider_id = ?", "tw-orphan").First(&got).Error; err != nil {
		t.Fatalf("Link not found: %v", err)
	}
	if got.RevokedAt == nil {
		t.Error("Expected link to be revoked")
	}
}

func TestVerificationService_VerifyCredential_NoStrategy(t *testing.T) {
	db := setupTestDB(t)
	seedLinkedUser(t, db, constants.ProviderEthereum, "0xabc")

	// Registry with no ethereum strategy
	svc := newVerificationServiceForTest(db)

	verified := svc.VerifyCredential(context.Background(), constants.ProviderEthereum, "", "0xabc")
	if !verified {
		t.Fatal("Expected provider without strategy to pass")
	}

	var link gormModels.ProviderLink
	if err := db.Where("provider_id = ?", "0xabc").First(&link).Error; err != nil {
		t.Fatalf("Link not found: %v", err)
	}
	if link.RevokedAt != nil {
		t.Error("Expected link to stay active")
	}
}

func TestVerificationService_VerifyCredential_RevokedLinkStaysRevoked(t *testing.T) {
	db := setupTestDB(t)

	revokedAt := time.Now().Add(-time.Hour)
	link := gormModels.ProviderLink{
		DiscordID:  "discord-123",
		Provider:   constants.ProviderTwitter,
		ProviderID: "tw-old",
		RevokedAt:  &revokedAt,
	}
	if err := db.Create(&link).Error; err != nil {
		t.Fatalf("Failed to seed link: %v", err)
	}

	strategy := &mockStrategy{
		provider: constants.ProviderTwitter,
		isStillAuthorized: func(ctx context.Context, accessToken string, providerID string) (bool, error) {
			return false, nil
		},
	}

	svc := newVerificationServiceForTest(db, strategy)
	svc.VerifyCredential(context.Background(), constants.ProviderTwitter, "stale-token", "tw-old")

	// Original revocation timestamp must not be overwritten
	var got gormModels.ProviderLink
	if err := db.Where("provider_id = ?", "tw-old").First(&got).Error; err != nil {
		t.Fatalf("Link not found: %v", err)
	}
	if got.RevokedAt == nil {
		t.Fatal("Expected link to stay revoked")
	}
	if got.RevokedAt.Sub(revokedAt) > time.Second {
		t.Errorf("Expected original revocation timestamp to survive, got %v", got.RevokedAt)
	}
}
