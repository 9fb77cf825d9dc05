// Package server exposes the HTTP and websocket API used by the chat
// frontend. It includes permissive CORS for development and injects
// correlation IDs into request contexts for consistent logging.
package server

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/quotechat/backend/autoreply"
	"github.com/quotechat/backend/autosend"
	"github.com/quotechat/backend/config"
	"github.com/quotechat/backend/realtime"
	"github.com/quotechat/backend/store"
)

const (
	// Maximum number of OAuth states to keep in memory.
	maxOAuthStates = 10000
)

// Deps bundles everything the handlers need.
type Deps struct {
	DB        *sql.DB
	Store     *store.ChatStore
	Hub       *realtime.Hub
	Responder *autoreply.Responder
	Scheduler *autosend.Scheduler
	Cfg       *config.Config
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	deps       Deps
	ctx        context.Context
	validate   *validator.Validate
	stateStore map[string]time.Time
	stateMu    sync.RWMutex
}

// NewHandlers creates a Handlers instance with the given dependencies.
func NewHandlers(ctx context.Context, deps Deps) *Handlers {
	return &Handlers{
		deps:       deps,
		ctx:        ctx,
		validate:   validator.New(),
		stateStore: make(map[string]time.Time),
	}
}

// cleanExpiredStates removes expired OAuth states from the store.
// Call with stateMu held.
func (h *Handlers) cleanExpiredStates() {
	now := time.Now()
	for state, expiry := range h.stateStore {
		if now.After(expiry) {
			delete(h.stateStore, state)
		}
	}
}

// addOAuthState adds a new OAuth state to the store with cleanup if needed.
func (h *Handlers) addOAuthState(state string, expiry time.Time) {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()

	if len(h.stateStore)%100 == 0 {
		h.cleanExpiredStates()
	}
	// Over the cap we refuse to add; failing the flow beats unbounded growth.
	if len(h.stateStore) >= maxOAuthStates {
		return
	}
	h.stateStore[state] = expiry
}

// consumeOAuthState validates and removes a state, reporting whether it was
// known and unexpired.
func (h *Handlers) consumeOAuthState(state string) bool {
	h.stateMu.Lock()
	defer h.stateMu.Unlock()
	exp, ok := h.stateStore[state]
	if !ok {
		return false
	}
	delete(h.stateStore, state)
	return time.Now().Before(exp)
}
