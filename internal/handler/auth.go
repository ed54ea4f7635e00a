package handler

import (
	"encoding/json"
	"net/http"

	"loyalty-wallet/internal/middleware"
	"loyalty-wallet/internal/service"
	"loyalty-wallet/pkg/apierror"
	"loyalty-wallet/pkg/response"
)

// AuthHandler handles magic link sign-in.
type AuthHandler struct {
	sessions *service.SessionService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions *service.SessionService) *AuthHandler {
	return &AuthHandler{sessions: sessions}
}

// SignInRequest is the body of POST /auth/sign-in.
type SignInRequest struct {
	Email string `json:"email"`
}

// VerifyRequest is the body of POST /auth/verify.
type VerifyRequest struct {
	Code string `json:"code"`
}

// SessionResponse is returned after a successful verification.
type SessionResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// SignIn handles POST /auth/sign-in
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if err := h.sessions.RequestSignIn(r.Context(), req.Email); err != nil {
		response.Error(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, map[string]string{
		"status":  "link_sent",
		"message": "Check your email for the sign-in link.",
	})
}

// Verify handles POST /auth/verify
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	token, identity, err := h.sessions.CompleteSignIn(r.Context(), req.Code)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, SessionResponse{Token: token, UserID: identity.UserID, Email: identity.Email})
}

// SignOut handles POST /auth/sign-out
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	token := middleware.TokenFromRequest(r)
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.sessions.SignOut(r.Context(), token); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]string{"status": "signed_out"})
}
