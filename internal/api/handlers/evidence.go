package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/lorekeep/canon/internal/api/middleware"
	"github.com/lorekeep/canon/internal/domain"
	"github.com/lorekeep/canon/internal/service"
)

type EvidenceHandler struct {
	svc *service.ContinuityService
}

func NewEvidenceHandler(svc *service.ContinuityService) *EvidenceHandler {
	return &EvidenceHandler{svc: svc}
}

type createEvidenceRequest struct {
	Subject    string       `json:"subject"`
	Attribute  string       `json:"attribute"`
	Value      domain.Value `json:"value"`
	Confidence float64      `json:"confidence"`
	Scope      string       `json:"scope,omitempty"`
	Tags       []string     `json:"tags,omitempty"`
	Permanent  bool         `json:"permanent,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

type createEvidenceResponse struct {
	*domain.EvidenceRecord
	Stored bool `json:"stored"`
}

func (h *EvidenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec := &domain.EvidenceRecord{
		UserID:     user.ID,
		Subject:    req.Subject,
		Attribute:  req.Attribute,
		Value:      req.Value,
		Confidence: req.Confidence,
		Scope:      req.Scope,
		Tags:       req.Tags,
		Permanent:  req.Permanent,
		Timestamp:  req.Timestamp,
	}

	stored, err := h.svc.Ingest(r.Context(), rec)
	if err != nil {
		if service.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to store evidence")
		return
	}

	writeJSON(w, http.StatusCreated, createEvidenceResponse{EvidenceRecord: rec, Stored: stored})
}

func (h *EvidenceHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	records, err := h.svc.History(r.Context(), user.ID,
		r.URL.Query().Get("subject"), r.URL.Query().Get("attribute"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load evidence")
		return
	}
	if records == nil {
		records = []domain.EvidenceRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
