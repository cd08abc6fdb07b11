package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// PartnersHandler handles the ranked list, selection and the panels that
// depend on it.
type PartnersHandler struct {
	deps PartnerDependencies
}

// NewPartnersHandler creates a new partners handler.
func NewPartnersHandler(deps PartnerDependencies) *PartnersHandler {
	return &PartnersHandler{deps: deps}
}

// HandleList handles GET /partners?all=bool requests.
func (h *PartnersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	showAll := false
	if v := strings.TrimSpace(r.URL.Query().Get("all")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: all must be a boolean", ErrBadRequest))
			return
		}
		showAll = b
	}

	list, err := h.deps.Partners(r.Context(), showAll)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// HandleSelect handles POST /partners/{id}/select requests.
func (h *PartnersHandler) HandleSelect(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: missing partner id", ErrBadRequest))
		return
	}

	st, err := h.deps.SelectPartner(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleDetail handles GET /detail requests.
func (h *PartnersHandler) HandleDetail(w http.ResponseWriter, r *http.Request) {
	d, err := h.deps.Detail(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// HandleHistory handles GET /history requests.
func (h *PartnersHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	items, err := h.deps.History(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// HandleSelfProfile handles GET /me requests.
func (h *PartnersHandler) HandleSelfProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.deps.SelfProfile(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
