package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type tokenRequest struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Token handles POST /auth/token.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Key == "" && !h.service.OpenAccess() {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "key is required"})
		return
	}

	result, err := h.service.IssueViewerToken(req.Key, req.Name)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		slog.Error("issue token failed", "error", err)
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// Me handles GET /api/me, behind AuthMiddleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	viewer := ViewerFromContext(r.Context())
	if viewer == nil {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	WriteJSON(w, http.StatusOK, viewer)
}

// WriteJSON writes data as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
