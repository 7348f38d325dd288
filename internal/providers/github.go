package providers

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"social-link/gatekeeper/internal/constants"
)

// GithubStrategy checks a stored OAuth token against the GitHub user
// endpoint. A token with revoked scopes comes back non-200 the same way a
// deleted token does, so one status check covers both.
type GithubStrategy struct {
	BaseURL string
	Client  *http.Client
}

// NewGithubStrategy creates a new GitHub verification strategy
func NewGithubStrategy() *GithubStrategy {
	baseURL := os.Getenv("GITHUB_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.github.com" // Default
	}

	return &GithubStrategy{
		BaseURL: baseURL,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// GetProviderType returns the provider this strategy checks
func (s *GithubStrategy) GetProviderType() constants.Provider {
	return constants.ProviderGithub
}

// IsStillAuthorized calls GET /user with the stored token
func (s *GithubStrategy) IsStillAuthorized(ctx context.Context, accessToken string, providerID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"/user", nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

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
