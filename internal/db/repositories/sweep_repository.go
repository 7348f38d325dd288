package repositories

import (
	"context"
	"fmt"

	"social-link/gatekeeper/internal/constants"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// CheckableLink is one row of the sweep's link/account join: an active link
// plus the stored credential to re-check it with
type CheckableLink struct {
	DiscordID   string             `db:"discord_id"`
	Provider    constants.Provider `db:"provider"`
	ProviderID  string             `db:"provider_id"`
	AccessToken *string            `db:"access_token"`
	AccountID   *string            `db:"account_id"`
	UserID      *string            `db:"user_id"`
}

// SweepRepository runs the sweep's aggregation query on sqlx
type SweepRepository struct {
	db *sqlx.DB
}

// NewSweepRepository creates a new sqlx-based sweep repository
func NewSweepRepository(db *sqlx.DB) *SweepRepository {
	return &SweepRepository{db: db}
}

// GetCheckableLinks returns every active link whose provider supports
// revocation checks, joined with its account's access token
func (r *SweepRepository) GetCheckableLinks(ctx context.Context, providers []constants.Provider) ([]CheckableLink, error) {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.String())
	}

	var links []CheckableLink
	err := r.db.SelectContext(ctx, &links, constants.GetCheckableLinks, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkable links: %w", err)
	}

	return links, nil
}
