package web

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/justestif/go-spotify-submission-bot/internal/auth"
)

// CodeStore persists the authorization code.
type CodeStore interface {
	Set(ctx context.Context, key, value string) error
}

// Releaser unblocks the startup sequence waiting for the code.
type Releaser interface {
	Release()
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	store  CodeStore
	gate   Releaser
	logger *log.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store CodeStore, gate Releaser, logger *log.Logger) *Handlers {
	return &Handlers{store: store, gate: gate, logger: logger}
}

// Callback receives the OAuth redirect (GET /spotify-redirect). The code is
// stored before the gate opens so the waiter always finds it.
func (h *Handlers) Callback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	code := r.URL.Query().Get("code")
	if code == "" {
		if reason := r.URL.Query().Get("error"); reason != "" {
			h.logger.Warn("authorization denied", "reason", reason)
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("No authorization code found in the request."))
		return
	}

	if err := h.store.Set(r.Context(), auth.KeyAuthCode, code); err != nil {
		h.logger.Error("storing authorization code", "err", err)
		http.Error(w, "Failed to store authorization code", http.StatusInternalServerError)
		return
	}
	h.gate.Release()

	h.logger.Info("authorization code received")
	_, _ = w.Write([]byte("Authorization successful!"))
}
