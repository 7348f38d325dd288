package constants

import (
	"database/sql/driver"
	"fmt"
	"os"
	"strings"
)

// Provider identifies an external identity system a Discord user can link
type Provider string

const (
	ProviderTwitter  Provider = "twitter"
	ProviderGoogle   Provider = "google"
	ProviderEthereum Provider = "ethereum"
	ProviderGithub   Provider = "github"
	ProviderDiscord  Provider = "discord"
)

// Stringer ­– convenient for fmt / logs
func (p Provider) String() string { return string(p) }

/* ---------- DB adapters so sqlx (or database/sql) scans/values cleanly ---------- */

// Scan implements the sql.Scanner interface
func (p *Provider) Scan(src interface{}) error {
	if src == nil {
		*p = ""
		return nil
	}
	switch v := src.(type) {
	case string:
		*p = Provider(v)
	case []byte:
		*p = Provider(v)
	default:
		return fmt.Errorf("Provider: cannot scan type %T", src)
	}
	return nil
}

// Value implements the driver.Valuer interface
func (p Provider) Value() (driver.Value, error) { return string(p), nil }

var knownProviders = map[Provider]bool{
	ProviderTwitter:  true,
	ProviderGoogle:   true,
	ProviderEthereum: true,
	ProviderGithub:   true,
	ProviderDiscord:  true,
}

// DefaultServerProviders is the required-provider set a guild starts with
// before an admin runs setproviders
var DefaultServerProviders = []Provider{ProviderTwitter, ProviderGoogle, ProviderEthereum}

// SupportedProviders returns the deployment's supported provider set.
// Configurable via SUPPORTED_PROVIDERS (comma separated); unknown names are
// ignored so a bad env value cannot widen the set.
func SupportedProviders() []Provider {
	raw := os.Getenv("SUPPORTED_PROVIDERS")
	if raw == "" {
		return []Provider{ProviderTwitter, ProviderGoogle, ProviderEthereum, ProviderGithub}
	}

	var out []Provider
	for _, name := range strings.Split(raw, ",") {
		p := Provider(strings.TrimSpace(name))
		if knownProviders[p] {
			out = append(out, p)
		}
	}
	return out
}

// IsSupported reports whether the provider is in the deployment's supported set
func IsSupported(p Provider) bool {
	for _, s := range SupportedProviders() {
		if s == p {
			return true
		}
	}
	return false
}

// ParseProviderList parses an admin-supplied comma separated provider list.
// The whole list is rejected if any entry is unsupported; a partial update is
// never produced.
func ParseProviderList(raw string) ([]Provider, error) {
	parts := strings.Split(raw, ",")

	var out []Provider
	for _, part := range parts {
		p := Provider(strings.TrimSpace(part))
		if p == "" {
			continue
		}
		if !IsSupported(p) {
			return nil, fmt.Errorf("unsupported provider: %s", p)
		}
		out = append(out, p)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no providers given")
	}
	return out, nil
}

// NormalizeDiscordID strips Discord mention markup (<@123> or <@!123>) so
// command inputs and raw ids query the same way
func NormalizeDiscordID(discordID string) string {
	id := strings.TrimSpace(discordID)
	if strings.HasPrefix(id, "<@") && strings.HasSuffix(id, ">") {
		id = strings.TrimSuffix(strings.TrimPrefix(id, "<@"), ">")
		id = strings.TrimPrefix(id, "!")
	}
	return id
}
