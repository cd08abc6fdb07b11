package api

import (
	"context"
	"net/http"

	"github.com/okian/rendezvous/internal/domain/types"
)

// NavigationHandler handles the panel toggles. Events that are illegal in
// the current panel are ignored by the controller and still answer 200
// with the unchanged state.
type NavigationHandler struct {
	deps NavigationDependencies
}

// NewNavigationHandler creates a new navigation handler.
func NewNavigationHandler(deps NavigationDependencies) *NavigationHandler {
	return &NavigationHandler{deps: deps}
}

// HandleToggleProfile handles POST /nav/profile requests.
func (h *NavigationHandler) HandleToggleProfile(w http.ResponseWriter, r *http.Request) {
	respondState(w, r, h.deps.ToggleProfile)
}

// HandleToggleHistory handles POST /nav/history requests.
func (h *NavigationHandler) HandleToggleHistory(w http.ResponseWriter, r *http.Request) {
	respondState(w, r, h.deps.ToggleHistory)
}

// HandleBack handles POST /nav/back requests.
func (h *NavigationHandler) HandleBack(w http.ResponseWriter, r *http.Request) {
	respondState(w, r, h.deps.Back)
}

func respondState(w http.ResponseWriter, r *http.Request, fn func(context.Context) (types.State, error)) {
	st, err := fn(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}
