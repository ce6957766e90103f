package handlers

import (
	"net/http"

	"github.com/lorekeep/canon/internal/api/middleware"
	"github.com/lorekeep/canon/internal/domain"
	"github.com/lorekeep/canon/internal/service"
)

type ContinuityHandler struct {
	svc *service.ContinuityService
}

func NewContinuityHandler(svc *service.ContinuityService) *ContinuityHandler {
	return &ContinuityHandler{svc: svc}
}

func (h *ContinuityHandler) GetState(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	state, err := h.svc.State(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute continuity state")
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *ContinuityHandler) GetConflicts(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	conflicts, err := h.svc.Conflicts(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to detect conflicts")
		return
	}
	if conflicts == nil {
		conflicts = []domain.ContinuityConflict{}
	}
	writeJSON(w, http.StatusOK, conflicts)
}

func (h *ContinuityHandler) GetMerges(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	merges, err := h.svc.Merges(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to suggest merges")
		return
	}
	if merges == nil {
		merges = []domain.MergeSuggestion{}
	}
	writeJSON(w, http.StatusOK, merges)
}

func (h *ContinuityHandler) GetReport(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	report, err := h.svc.Report(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report))
}
