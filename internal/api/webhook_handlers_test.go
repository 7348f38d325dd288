package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"social-link/gatekeeper/internal/constants"
	gormModels "social-link/gatekeeper/internal/models/gorm"
)

// Mock UserReconciler
type mockReconciler struct {
	reconciled []string
}

func (m *mockReconciler) ReconcileUser(ctx context.Context, discordID string) {
	m.reconciled = append(m.reconciled, discordID)
}

// Mock SweepRunner
type mockSweep struct {
	runFunc func(ctx context.Context) error
}

func (m *mockSweep) Run(ctx context.Context) error {
	return m.runFunc(ctx)
}

// Mock LinkResolver
type mockLinks struct {
	getActiveLinkFunc func(ctx context.Context, provider constants.Provider, providerID string) (*gormModels.ProviderLink, error)
}

func (m *mockLinks) GetActiveLinkByProviderID(ctx context.Context, provider constants.Provider, providerID string) (*gormModels.ProviderLink, error) {
	return m.getActiveLinkFunc(ctx, provider, providerID)
}

func postJSON(handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestLinkEventHandler_WithDiscordID(t *testing.T) {
	reconciler := &mockReconciler{}
	handler := LinkEventHandler(reconciler, &mockLinks{})

	rec := postJSON(handler, `{"id":"discord-123"}`)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if len(reconciler.reconciled) != 1 || reconciler.reconciled[0] != "discord-123" {
		t.Errorf("Expected discord-123 reconciled, got %v", reconciler.reconciled)
	}
}

func TestLinkEventHandler_MissingIdentifier(t *testing.T) {
	reconciler := &mockReconciler{}
	handler := LinkEventHandler(reconciler, &mockLinks{})

	rec := postJSON(handler, `{}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if len(reconciler.reconciled) != 0 {
		t.Errorf("Expected no reconciliation, got %v", reconciler.reconciled)
	}
}

func TestLinkEventHandler_MalformedBody(t *testing.T) {
	handler := LinkEventHandler(&mockReconciler{}, &mockLinks{})

	rec := postJSON(handler, `not json`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestLinkEventHandler_AddressResolvesToLink(t *testing.T) {
	reconciler := &mockReconciler{}
	links := &mockLinks{
		getActiveLinkFunc: func(ctx context.Context, provider constants.Provider, providerID string) (*gormModels.ProviderLink, error) {
			if provider != constants.ProviderEthereum {
				t.Errorf("Expected ethereum lookup, got %s", provider)
			}
			if providerID != "0xabc" {
				t.Errorf("Expected 0xabc, got %s", providerID)
			}
			return &gormModels.ProviderLink{DiscordID: "discord-777"}, nil
		},
	}

	handler := LinkEventHandler(reconciler, links)
	rec := postJSON(handler, `{"address":"0xabc"}`)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if len(reconciler.reconciled) != 1 || reconciler.reconciled[0] != "discord-777" {
		t.Errorf("Expected discord-777 reconciled, got %v", reconciler.reconciled)
	}
}

func TestLinkEventHandler_AddressWithoutLink(t *testing.T) {
	reconciler := &mockReconciler{}
	links := &mockLinks{
		getActiveLinkFunc: func(ctx context.Context, provider constants.Provider, providerID string) (*gormModels.ProviderLink, error) {
			return nil, nil
		},
	}

	handler := LinkEventHandler(reconciler, links)
	rec := postJSON(handler, `{"address":"0xunknown"}`)

	// An unlinked wallet is a normal outcome, not a client error
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if len(reconciler.reconciled) != 0 {
		t.Errorf("Expected no reconciliation, got %v", reconciler.reconciled)
	}
}

func TestSweepTriggerHandler_Success(t *testing.T) {
	handler := SweepTriggerHandler(&mockSweep{
		runFunc: func(ctx context.Context) error { return nil },
	})

	rec := postJSON(handler, ``)

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestSweepTriggerHandler_Failure(t *testing.T) {
	handler := SweepTriggerHandler(&mockSweep{
		runFunc: func(ctx context.Context) error { return errors.New("db down") },
	})

	rec := postJSON(handler, ``)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}
