package api

import (
	"context"
	"encoding/json"
	"net/http"

	"social-link/gatekeeper/internal/constants"
	"social-link/gatekeeper/internal/logging"
	gormModels "social-link/gatekeeper/internal/models/gorm"
)

// UserReconciler triggers a role recompute for one Discord user
type UserReconciler interface {
	ReconcileUser(ctx context.Context, discordID string)
}

// SweepRunner runs one verification sweep
type SweepRunner interface {
	Run(ctx context.Context) error
}

// LinkResolver resolves a provider-side id back to its active link
type LinkResolver interface {
	GetActiveLinkByProviderID(ctx context.Context, provider constants.Provider, providerID string) (*gormModels.ProviderLink, error)
}

type linkEventBody struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// LinkEventHandler handles POST /discord: the linking site notifies the bot
// that a link changed for a user. The body carries the Discord id directly,
// or a wallet address the bot resolves through the link store.
func LinkEventHandler(reconciler UserReconciler, links LinkResolver) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body linkEventBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		discordID := body.ID
		if discordID == "" && body.Address != "" {
			link, err := links.GetActiveLinkByProviderID(r.Context(), constants.ProviderEthereum, body.Address)
			if err != nil {
				logging.Warn("Webhook address lookup failed", "address", body.Address, "error", err.Error())
			}
			if link != nil {
				discordID = link.DiscordID
			} else {
				// no link for the address is a normal outcome
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		if discordID == "" {
			logging.Warn("Webhook body missing identifier")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		reconciler.ReconcileUser(r.Context(), discordID)
		w.WriteHeader(http.StatusOK)
	}
}

// SweepTriggerHandler handles POST /checkAuth: the on-demand counterpart of
// the scheduled sweep. Only a query-phase failure maps to 500.
func SweepTriggerHandler(sweep SweepRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sweep.Run(r.Context()); err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
