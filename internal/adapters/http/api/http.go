// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/rendezvous/internal/adapters/repository"
	service "github.com/okian/rendezvous/internal/app"
	"github.com/okian/rendezvous/internal/domain/model"
	"github.com/okian/rendezvous/internal/domain/types"
)

// SessionDependencies covers login, logout and the navigation snapshot.
type SessionDependencies interface {
	Login(ctx context.Context, userID string) (types.State, error)
	Logout(ctx context.Context) types.State
	State(ctx context.Context) types.State
}

// PartnerDependencies covers the discovery read model and selection.
type PartnerDependencies interface {
	Partners(ctx context.Context, showAll bool) (types.PartnerList, error)
	SelectPartner(ctx context.Context, partnerID string) (types.State, error)
	Detail(ctx context.Context) (types.Detail, error)
	History(ctx context.Context) ([]types.HistoryItem, error)
	SelfProfile(ctx context.Context) (model.User, error)
}

// NavigationDependencies covers the panel toggles.
type NavigationDependencies interface {
	ToggleProfile(ctx context.Context) (types.State, error)
	ToggleHistory(ctx context.Context) (types.State, error)
	Back(ctx context.Context) (types.State, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	SessionDependencies
	PartnerDependencies
	NavigationDependencies
}

// Server wires HTTP routes for the discovery API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	sessionHandler    *SessionHandler
	partnersHandler   *PartnersHandler
	navigationHandler *NavigationHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		sessionHandler:    NewSessionHandler(deps),
		partnersHandler:   NewPartnersHandler(deps),
		navigationHandler: NewNavigationHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /session/login", MetricsMiddleware(s.sessionHandler.HandleLogin, "login"))
	mux.HandleFunc("POST /session/logout", MetricsMiddleware(s.sessionHandler.HandleLogout, "logout"))
	mux.HandleFunc("GET /state", MetricsMiddleware(s.sessionHandler.HandleState, "state"))

	mux.HandleFunc("GET /partners", MetricsMiddleware(s.partnersHandler.HandleList, "partners"))
	mux.HandleFunc("POST /partners/{id}/select", MetricsMiddleware(s.partnersHandler.HandleSelect, "select"))
	mux.HandleFunc("GET /detail", MetricsMiddleware(s.partnersHandler.HandleDetail, "detail"))
	mux.HandleFunc("GET /history", MetricsMiddleware(s.partnersHandler.HandleHistory, "history"))
	mux.HandleFunc("GET /me", MetricsMiddleware(s.partnersHandler.HandleSelfProfile, "me"))

	mux.HandleFunc("POST /nav/profile", MetricsMiddleware(s.navigationHandler.HandleToggleProfile, "nav_profile"))
	mux.HandleFunc("POST /nav/history", MetricsMiddleware(s.navigationHandler.HandleToggleHistory, "nav_history"))
	mux.HandleFunc("POST /nav/back", MetricsMiddleware(s.navigationHandler.HandleBack, "nav_back"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	tagErrorCode(w, code)
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates controller and repository errors into
// status codes. Anything unrecognised is a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrDataUnavailable):
		writeError(w, http.StatusServiceUnavailable, "data_unavailable", err)
	case errors.Is(err, repository.ErrUnknownUser):
		writeError(w, http.StatusNotFound, "unknown_user", err)
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, service.ErrNoSelection):
		writeError(w, http.StatusNotFound, "no_selection", err)
	case errors.Is(err, service.ErrNotLoggedIn):
		writeError(w, http.StatusUnauthorized, "not_logged_in", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
