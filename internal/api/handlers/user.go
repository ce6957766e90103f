package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lorekeep/canon/internal/api/middleware"
	"github.com/lorekeep/canon/internal/domain"
)

type UserHandler struct {
	store domain.UserStore
}

func NewUserHandler(store domain.UserStore) *UserHandler {
	return &UserHandler{store: store}
}

type createUserRequest struct {
	Name string `json:"name"`
}

type createUserResponse struct {
	*domain.User
	APIKey string `json:"api_key"`
}

// Create registers a user and returns the raw API key once; only its hash
// is stored.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate API key")
		return
	}
	apiKey := hex.EncodeToString(raw)

	user := &domain.User{
		Name:       req.Name,
		APIKeyHash: middleware.HashAPIKey(apiKey),
	}
	if err := h.store.Create(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	writeJSON(w, http.StatusCreated, createUserResponse{User: user, APIKey: apiKey})
}
