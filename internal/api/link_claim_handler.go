package api

import (
	"encoding/json"
	"net/http"

	"social-link/gatekeeper/internal/common"
	"social-link/gatekeeper/internal/logging"
)

type linkClaimResponse struct {
	DiscordID string `json:"discordId"`
}

// LinkClaimHandler handles GET /link/claim: the linking site exchanges a
// handoff token minted by the verify command for the Discord id it belongs
// to. Tokens are single use; the claim burns them.
func LinkClaimHandler(signer *common.LinkURLSigner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.URL.Query().Get("token")
		if tokenString == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		// validation and the single-use burn happen in one step
		token, err := signer.ConsumeToken(tokenString)
		if err != nil {
			logging.Warn("Link claim rejected", "error", err.Error())
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(linkClaimResponse{DiscordID: token.DiscordID})
	}
}
