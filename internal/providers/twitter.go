package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"social-link/gatekeeper/internal/constants"
)

// TwitterStrategy checks a stored bearer token against the Twitter v2
// identity endpoint
type TwitterStrategy struct {
	BaseURL string
	Client  *http.Client
}

// NewTwitterStrategy creates a new Twitter verification strategy
func NewTwitterStrategy() *TwitterStrategy {
	baseURL := os.Getenv("TWITTER_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.twitter.com/2" // Default
	}

	return &TwitterStrategy{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetProviderType returns the provider this strategy checks
func (s *TwitterStrategy) GetProviderType() constants.Provider {
	return constants.ProviderTwitter
}

// IsStillAuthorized calls GET /users/me with the stored bearer token.
// Only an explicit 200 counts as authorized.
func (s *TwitterStrategy) IsStillAuthorized(ctx context.Context, accessToken string, providerID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/users/me", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.Client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return true, nil
}
