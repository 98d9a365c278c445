package handler

import (
	"net/http"

	"marketplace-bulk-api/internal/model"
	"marketplace-bulk-api/internal/service"
	"marketplace-bulk-api/pkg/response"
)

// AuthHandler handles marketplace login requests.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Status handles GET /api/v1/auth/status
func (h *AuthHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.auth.Status(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, st)
}

// Login handles GET /api/v1/auth/login. With ?redirect=true the client is
// sent straight to the login dialog.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, err := h.auth.BeginLogin(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	if r.URL.Query().Get("redirect") == "true" {
		http.Redirect(w, r, req.URL, http.StatusFound)
		return
	}
	response.OK(w, req)
}

// Callback handles POST /api/v1/auth/callback
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var cb model.AuthCallback
	if err := decodeJSON(w, r, &cb); err != nil {
		writeError(w, r, err)
		return
	}

	st, err := h.auth.HandleCallback(r.Context(), cb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, st)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Logout(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}
