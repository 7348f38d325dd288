package providers

import (
	"context"

	"social-link/gatekeeper/internal/constants"
)

// VerificationStrategy defines the interface for per-provider credential
// checks. A strategy answers one question: is this stored token still
// authorized at the provider? Revocation and cleanup live elsewhere and are
// identical for every provider.
type VerificationStrategy interface {
	// IsStillAuthorized re-checks a stored credential against the
	// provider's identity API. A network failure counts as not authorized;
	// the error is returned for logging only.
	IsStillAuthorized(ctx context.Context, accessToken string, providerID string) (bool, error)

	// GetProviderType returns the provider this strategy checks
	GetProviderType() constants.Provider
}

// Registry maps provider names to their verification strategies. Adding a
// provider means registering a strategy, not branching existing code.
type Registry struct {
	strategies map[constants.Provider]VerificationStrategy
}

// NewRegistry creates a registry with the given strategies
func NewRegistry(strategies ...VerificationStrategy) *Registry {
	reg := &Registry{
		strategies: make(map[constants.Provider]VerificationStrategy),
	}
	for _, s := range strategies {
		reg.strategies[s.GetProviderType()] = s
	}
	return reg
}

// Get returns the strategy for a provider, nil when the provider has no
// revocable-session semantics (ethereum, google)
func (r *Registry) Get(provider constants.Provider) VerificationStrategy {
	return r.strategies[provider]
}

// CheckableProviders returns the providers the sweep can re-verify
func (r *Registry) CheckableProviders() []constants.Provider {
	out := make([]constants.Provider, 0, len(r.strategies))
	for p := range r.strategies {
		out = append(out, p)
	}
	return out
}
