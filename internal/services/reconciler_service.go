package services

import (
	"context"
	"os"

	"social-link/gatekeeper/internal/common"
	"social-link/gatekeeper/internal/constants"
	"social-link/gatekeeper/internal/db/repositories"
	"social-link/gatekeeper/internal/logging"
	"social-link/gatekeeper/internal/metrics"
)

// RoleGateway is the slice of the Discord session the reconciler needs.
// Implemented by the discordgo session adapter; mocked in tests.
type RoleGateway interface {
	// GuildIDs lists every guild the bot is currently a member of
	GuildIDs() []string

	// IsMember reports whether the user belongs to the guild. A missing
	// member is (false, nil), not an error.
	IsMember(guildID string, discordID string) (bool, error)

	// AddRole idempotently grants the role to the member
	AddRole(guildID string, discordID string, roleID string) error

	// RemoveRole idempotently revokes the role from the member
	RemoveRole(guildID string, discordID string, roleID string) error
}

// FailMode decides what an unreadable link store degrades to during
// reconciliation
type FailMode string

const (
	// FailClosed treats the user as fully unverified (deny on uncertainty)
	FailClosed FailMode = "closed"
	// FailOpen treats the user as fully verified
	FailOpen FailMode = "open"
)

// FailModeFromEnv reads VERIFY_FAIL_MODE, defaulting to fail-closed: a role
// grant is security sensitive, so uncertainty revokes
func FailModeFromEnv() FailMode {
	if os.Getenv("VERIFY_FAIL_MODE") == string(FailOpen) {
		return FailOpen
	}
	return FailClosed
}

// ReconcilerService recomputes one user's verified-role state in every guild
// the bot belongs to. Transitions are recomputed from scratch on each call;
// the role bit on Discord is the only persisted state.
type ReconcilerService struct {
	linkRepo    *repositories.LinkRepository
	settingsSvc *common.ServerSettingsService
	gateway     RoleGateway
	failMode    FailMode
	metricsReg  *metrics.MetricsRegistry
}

// NewReconcilerService creates a new reconciler
func NewReconcilerService(
	linkRepo *repositories.LinkRepository,
	settingsSvc *common.ServerSettingsService,
	gateway RoleGateway,
	failMode FailMode,
	metricsReg *metrics.MetricsRegistry,
) *ReconcilerService {
	return &ReconcilerService{
		linkRepo:    linkRepo,
		settingsSvc: settingsSvc,
		gateway:     gateway,
		failMode:    failMode,
		metricsReg:  metricsReg,
	}
}

// GetLinkedProviders returns the user's active links as a provider ->
// providerId map, restricted to the supported provider set. Query failures
// degrade per the configured fail mode instead of propagating.
func (svc *ReconcilerService) GetLinkedProviders(ctx context.Context, discordID string) map[constants.Provider]string {
	discordID = constants.NormalizeDiscordID(discordID)
	supported := constants.SupportedProviders()

	links, err := svc.linkRepo.GetActiveLinksByDiscordID(ctx, discordID, supported)
	if err != nil {
		logging.Warn("Link lookup failed, applying fail mode",
			"discord_id", discordID,
			"fail_mode", string(svc.failMode),
			"error", err.Error(),
		)

		if svc.failMode == FailOpen {
			open := make(map[constants.Provider]string, len(supported))
			for _, p := range supported {
				open[p] = "unknown"
			}
			return open
		}
		return map[constants.Provider]string{}
	}

	linked := make(map[constants.Provider]string, len(links))
	for _, link := range links {
		// first active match per (provider, providerId) wins
		if _, exists := linked[link.Provider]; !exists {
			linked[link.Provider] = link.ProviderID
		}
	}
	return linked
}

// ReconcileUser brings the user's role state in line with every guild's
// policy. Per-guild failures are logged and contained; one broken guild
// never blocks the rest.
func (svc *ReconcilerService) ReconcileUser(ctx context.Context, discordID string) {
	discordID = constants.NormalizeDiscordID(discordID)
	linked := svc.GetLinkedProviders(ctx, discordID)

	for _, guildID := range svc.gateway.GuildIDs() {
		svc.reconcileGuild(ctx, guildID, discordID, linked)
	}
}

func (svc *ReconcilerService) reconcileGuild(ctx context.Context, guildID string, discordID string, linked map[constants.Provider]string) {
	logger := logging.WithGuild(guildID, discordID)

	isMember, err := svc.gateway.IsMember(guildID, discordID)
	if err != nil {
		logger.Warnw("Member lookup failed", "error", err.Error())
		return
	}
	if !isMember {
		// Expected for users not in every guild
		return
	}

	policy, err := svc.settingsSvc.GetGuildPolicy(ctx, guildID)
	if err != nil {
		logger.Warnw("Policy lookup failed", "error", err.Error())
		return
	}
	if policy == nil || policy.RoleID == "" {
		// Guild has not opted into verification yet
		return
	}

	satisfying := true
	for _, required := range policy.RequiredProviders() {
		if _, ok := linked[required]; !ok {
			satisfying = false
			break
		}
	}

	if satisfying {
		if err := svc.gateway.AddRole(guildID, discordID, policy.RoleID); err != nil {
			logger.Warnw("Failed to grant verified role", "role_id", policy.RoleID, "error", err.Error())
			return
		}
		if svc.metricsReg != nil {
			svc.metricsReg.RoleMutationsTotal.WithLabelValues("grant").Inc()
		}
	} else {
		if err := svc.gateway.RemoveRole(guildID, discordID, policy.RoleID); err != nil {
			logger.Warnw("Failed to revoke verified role", "role_id", policy.RoleID, "error", err.Error())
			return
		}
		if svc.metricsReg != nil {
			svc.metricsReg.RoleMutationsTotal.WithLabelValues("revoke").Inc()
		}
	}
}
