package common

import (
	"context"
	"fmt"
	"strings"
	"time"

	"social-link/gatekeeper/internal/constants"
	"social-link/gatekeeper/internal/db/repositories"
)

const settingsCacheTTL = 5 * time.Minute

// ServerSettingsService fronts the settings repository with a cache. Guild
// settings sit on the hot path of every reconciliation, and a full-guild
// resync reads them once per member.
type ServerSettingsService struct {
	repo  *repositories.SettingsRepository
	cache CacheInterface
}

func NewServerSettingsService(repo *repositories.SettingsRepository, cache CacheInterface) *ServerSettingsService {
	return &ServerSettingsService{repo: repo, cache: cache}
}

func settingsCacheKey(guildID string) string {
	return "guild_settings:" + guildID
}

// GuildPolicy is the cached, JSON-safe projection of one guild's settings
type GuildPolicy struct {
	RoleID    string `json:"role_id"`
	Providers string `json:"providers"`
}

// RequiredProviders decodes the policy's provider set, falling back to the
// default set when the column was never written
func (p *GuildPolicy) RequiredProviders() []constants.Provider {
	if p.Providers == "" {
		return constants.DefaultServerProviders
	}

	var out []constants.Provider
	for _, name := range strings.Split(p.Providers, ",") {
		if name = strings.TrimSpace(name); name != "" {
			out = append(out, constants.Provider(name))
		}
	}
	return out
}

// GetGuildPolicy returns the guild's policy, nil when the guild never opted
// in. Results (including nil) come from cache when warm.
func (s *ServerSettingsService) GetGuildPolicy(ctx context.Context, guildID string) (*GuildPolicy, error) {
	cKey := settingsCacheKey(guildID)

	if raw, found := s.cache.Get(cKey); found {
		if policy := decodeCachedPolicy(raw); policy != nil {
			return policy, nil
		}
	}

	settings, err := s.repo.GetByGuildID(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild policy: %w", err)
	}
	if settings == nil {
		return nil, nil
	}

	policy := &GuildPolicy{Providers: settings.Providers}
	if settings.RoleID != nil {
		policy.RoleID = *settings.RoleID
	}

	s.cache.Set(cKey, map[string]string{
		"role_id":   policy.RoleID,
		"providers": policy.Providers,
	}, settingsCacheTTL)

	return policy, nil
}

// SetVerifiedRole upserts the guild's verified role and evicts the cache
func (s *ServerSettingsService) SetVerifiedRole(ctx context.Context, guildID string, roleID string) error {
	if err := s.repo.UpsertRole(ctx, guildID, roleID); err != nil {
		return err
	}
	s.cache.Delete(settingsCacheKey(guildID))
	return nil
}

// SetRequiredProviders upserts the guild's required-provider set and evicts
// the cache. The set must already be validated; rejection happens at the
// command surface so no partial update ever reaches here.
func (s *ServerSettingsService) SetRequiredProviders(ctx context.Context, guildID string, providers []constants.Provider) error {
	if err := s.repo.UpsertProviders(ctx, guildID, providers); err != nil {
		return err
	}
	s.cache.Delete(settingsCacheKey(guildID))
	return nil
}

// decodeCachedPolicy tolerates both the in-memory shape (map[string]string)
// and the shape Redis JSON round-trips produce (map[string]interface{})
func decodeCachedPolicy(raw interface{}) *GuildPolicy {
	switch m := raw.(type) {
	case map[string]string:
		return &GuildPolicy{RoleID: m["role_id"], Providers: m["providers"]}
	case map[string]interface{}:
		policy := &GuildPolicy{}
		if v, ok := m["role_id"].(string); ok {
			policy.RoleID = v
		}
		if v, ok := m["providers"].(string); ok {
			policy.Providers = v
		}
		return policy
	default:
		return nil
	}
}
