package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const healthCheckTimeout = 5 * time.Second

// Health reports configuration readiness. It always answers 200; the store
// field shows whether the record store answered a ping.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	storeStatus := "ok"
	if err := h.Store.Ping(ctx); err != nil {
		slog.Error("Health check failed", "error", err)
		storeStatus = "unreachable"
	}

	cfg := h.Config
	JSON(w, http.StatusOK, map[string]interface{}{
		"ok":                  true,
		"has_api_key":         cfg.Streaming.APIKey != "",
		"has_openai_key":      cfg.OpenAI.APIKey != "",
		"has_sms_credentials": cfg.SMS.AccountSID != "" && cfg.SMS.AuthToken != "",
		"profiles":            h.Profiles.IDs(),
		"store":               storeStatus,
	})
}

// ListProfiles returns the doctor personas.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.Profiles.List())
}
