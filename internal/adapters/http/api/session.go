package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/rendezvous/internal/adapters/repository"
)

const maxLoginBody = 4 << 10

// loginRequest is the body of POST /session/login. The id may be sent as
// a string or a number, like roster ids.
type loginRequest struct {
	UserID repository.ID `json:"user_id"`
}

func (l loginRequest) validate() error {
	if strings.TrimSpace(string(l.UserID)) == "" {
		return fmt.Errorf("%w: missing user_id", ErrBadRequest)
	}
	return nil
}

// SessionHandler handles login, logout and state requests.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

// HandleLogin handles POST /session/login requests.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	st, err := h.deps.Login(r.Context(), string(req.UserID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleLogout handles POST /session/logout requests.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Logout(r.Context()))
}

// HandleState handles GET /state requests.
func (h *SessionHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.State(r.Context()))
}
