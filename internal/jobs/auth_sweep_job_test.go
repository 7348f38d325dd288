package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"

	"social-link/gatekeeper/internal/constants"
	"social-link/gatekeeper/internal/db/repositories"
)

// Mock LinkSource
type mockLinkSource struct {
	getCheckableLinksFunc func(ctx context.Context, providers []constants.Provider) ([]repositories.CheckableLink, error)
}

func (m *mockLinkSource) GetCheckableLinks(ctx context.Context, providers []constants.Provider) ([]repositories.CheckableLink, error) {
	return m.getCheckableLinksFunc(ctx, providers)
}

// Mock CredentialVerifier
type mockVerifier struct {
	mu         sync.Mutex
	checked    []string
	verifyFunc func(ctx context.Context, provider constants.Provider, accessToken string, providerID string) bool
}

func (m *mockVerifier) CheckableProviders() []constants.Provider {
	return []constants.Provider{constants.ProviderTwitter, constants.ProviderGithub}
}

func (m *mockVerifier) VerifyCredential(ctx context.Context, provider constants.Provider, accessToken string, providerID string) bool {
	m.mu.Lock()
	m.checked = append(m.checked, providerID)
	m.mu.Unlock()
	return m.verifyFunc(ctx, provider, accessToken, providerID)
}

// Mock UserReconciler
type mockReconciler struct {
	mu         sync.Mutex
	reconciled []string
}

func (m *mockReconciler) ReconcileUser(ctx context.Context, discordID string) {
	m.mu.Lock()
	m.reconciled = append(m.reconciled, discordID)
	m.mu.Unlock()
}

func strPtr(s string) *string { return &s }

func TestAuthSweepJob_Run_ChecksLinksIndependently(t *testing.T) {
	t.Setenv("SWEEP_CONCURRENCY", "2")
	t.Setenv("SWEEP_RECONCILE", "")

	source := &mockLinkSource{
		getCheckableLinksFunc: func(ctx context.Context, providers []constants.Provider) ([]repositories.CheckableLink, error) {
			return []repositories.CheckableLink{
				{DiscordID: "discord-1", Provider: constants.ProviderTwitter, ProviderID: "tw-1", AccessToken: strPtr("t1")},
				{DiscordID: "discord-2", Provider: constants.ProviderTwitter, ProviderID: "tw-2", AccessToken: strPtr("t2")},
				{DiscordID: "discord-3", Provider: constants.ProviderGithub, ProviderID: "gh-3", AccessToken: strPtr("t3")},
			}, nil
		},
	}

	// tw-2 fails its check; the other two must still be swept
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, provider constants.Provider, accessToken string, providerID string) bool {
			return providerID != "tw-2"
		},
	}

	job := NewAuthSweepJob(source, verifier, &mockReconciler{}, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(verifier.checked) != 3 {
		t.Errorf("Expected 3 links checked, got %d", len(verifier.checked))
	}
}

func TestAuthSweepJob_Run_QueryFailure(t *testing.T) {
	t.Setenv("SWEEP_CONCURRENCY", "")
	t.Setenv("SWEEP_RECONCILE", "")

	source := &mockLinkSource{
		getCheckableLinksFunc: func(ctx context.Context, providers []constants.Provider) ([]repositories.CheckableLink, error) {
			return nil, errors.New("connection refused")
		},
	}

	job := NewAuthSweepJob(source, &mockVerifier{}, &mockReconciler{}, nil)

	if err := job.Run(context.Background()); err == nil {
		t.Error("Expected error when the query phase fails")
	}
}

func TestAuthSweepJob_Run_OrphanLinkStillChecked(t *testing.T) {
	t.Setenv("SWEEP_CONCURRENCY", "")
	t.Setenv("SWEEP_RECONCILE", "")

	// tw-orphan has no account row behind it; the sweep must still feed it
	// to the verifier so the empty credential fails and revokes it
	source := &mockLinkSource{
		getCheckableLinksFunc: func(ctx context.Context, providers []constants.Provider) ([]repositories.CheckableLink, error) {
			return []repositories.CheckableLink{
				{DiscordID: "discord-1", Provider: constants.ProviderTwitter, ProviderID: "tw-orphan", AccessToken: nil},
				{DiscordID: "discord-2", Provider: constants.ProviderTwitter, ProviderID: "tw-2", AccessToken: strPtr("t2")},
			}, nil
		},
	}

	var mu sync.Mutex
	tokens := make(map[string]string)
	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, provider constants.Provider, accessToken string, providerID string) bool {
			mu.Lock()
			tokens[providerID] = accessToken
			mu.Unlock()
			return accessToken != ""
		},
	}

	job := NewAuthSweepJob(source, verifier, &mockReconciler{}, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(verifier.checked) != 2 {
		t.Fatalf("Expected 2 links checked, got %d", len(verifier.checked))
	}
	if token, ok := tokens["tw-orphan"]; !ok {
		t.Error("Expected orphan link to reach the verifier")
	} else if token != "" {
		t.Errorf("Expected empty credential for orphan link, got %q", token)
	}
	if tokens["tw-2"] != "t2" {
		t.Errorf("Expected stored credential for tw-2, got %q", tokens["tw-2"])
	}
}

func TestAuthSweepJob_Run_OrphanLinkGetsRevoked(t *testing.T) {
	t.Setenv("SWEEP_CONCURRENCY", "")
	t.Setenv("SWEEP_RECONCILE", "true")

	source := &mockLinkSource{
		getCheckableLinksFunc: func(ctx context.Context, providers []constants.Provider) ([]repositories.CheckableLink, error) {
			return []repositories.CheckableLink{
				{DiscordID: "discord-orphan", Provider: constants.ProviderTwitter, ProviderID: "tw-orphan", AccessToken: nil},
			}, nil
		},
	}

	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, provider constants.Provider, accessToken string, providerID string) bool {
			return accessToken != ""
		},
	}

	reconciler := &mockReconciler{}
	job := NewAuthSweepJob(source, verifier, reconciler, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// The failed check must flow through as an unverified result
	if len(reconciler.reconciled) != 1 || reconciler.reconciled[0] != "discord-orphan" {
		t.Errorf("Expected discord-orphan to be reconciled as unverified, got %v", reconciler.reconciled)
	}
}

func TestAuthSweepJob_Run_ReconcilesUnverifiedWhenEnabled(t *testing.T) {
	t.Setenv("SWEEP_CONCURRENCY", "")
	t.Setenv("SWEEP_RECONCILE", "true")

	source := &mockLinkSource{
		getCheckableLinksFunc: func(ctx context.Context, providers []constants.Provider) ([]repositories.CheckableLink, error) {
			return []repositories.CheckableLink{
				{DiscordID: "discord-1", Provider: constants.ProviderTwitter, ProviderID: "tw-1", AccessToken: strPtr("t1")},
				{DiscordID: "discord-2", Provider: constants.ProviderTwitter, ProviderID: "tw-2", AccessToken: strPtr("t2")},
			}, nil
		},
	}

	verifier := &mockVerifier{
		verifyFunc: func(ctx context.Context, provider constants.Provider, accessToken string, providerID string) bool {
			return providerID == "tw-1"
		},
	}

	reconciler := &mockReconciler{}
	job := NewAuthSweepJob(source, verifier, reconciler, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(reconciler.reconciled) != 1 {
		t.Fatalf("Expected 1 reconciliation, got %d", len(reconciler.reconciled))
	}
	if reconciler.reconciled[0] != "discord-2" {
		t.Errorf("Expected discord-2 to be reconciled, got %s", reconciler.reconciled[0])
	}
}

func TestAuthSweepJob_Run_NoCheckableLinks(t *testing.T) {
	t.Setenv("SWEEP_CONCURRENCY", "")
	t.Setenv("SWEEP_RECONCILE", "")

	source := &mockLinkSource{
		getCheckableLinksFunc: func(ctx context.Context, providers []constants.Provider) ([]repositories.CheckableLink, error) {
			return nil, nil
		},
	}

	job := NewAuthSweepJob(source, &mockVerifier{}, &mockReconciler{}, nil)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Expected no error on empty sweep, got %v", err)
	}
}
