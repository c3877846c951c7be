package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"seoulfest/api"
	"seoulfest/models"
	"seoulfest/services/accounts"
	"seoulfest/services/likes"
	"seoulfest/services/sessions"
)

// CredentialChecker verifies a username/password pair.
type CredentialChecker interface {
	Authenticate(username, password string) (models.User, error)
	Create(username, password string) (models.User, error)
}

var _ CredentialChecker = (*accounts.Service)(nil)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	credentials CredentialChecker
	sessions    *sessions.Service
	likes       *likes.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(credentials CredentialChecker, sessionsSvc *sessions.Service, likesSvc *likes.Service) *AuthHandler {
	return &AuthHandler{
		credentials: credentials,
		sessions:    sessionsSvc,
		likes:       likesSvc,
	}
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the login response.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
}

// Login authenticates a user and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.credentials.Authenticate(req.Username, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	session, err := h.sessions.Create(user.ID, user.Username, r.Header.Get("User-Agent"), api.ClientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC().Format(time.RFC3339),
		UserID:    user.ID,
		Username:  user.Username,
	})
}

// Register creates a new user account.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.credentials.Create(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrUsernameExists):
			writeError(w, http.StatusConflict, "username already exists")
		case errors.Is(err, accounts.ErrUsernameRequired), errors.Is(err, accounts.ErrPasswordRequired):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"userId":   user.ID,
		"username": user.Username,
	})
}

// Logout invalidates the current session and drops the user's cached
// like state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := api.ExtractToken(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "no session token")
		return
	}

	session, err := h.sessions.Validate(token)
	if err == nil {
		h.likes.Drop(session.UserID)
	}

	if err := h.sessions.Revoke(token); err != nil {
		// Already gone is fine, the session may have expired.
		if !errors.Is(err, sessions.ErrSessionNotFound) {
			writeError(w, http.StatusInternalServerError, "failed to revoke session")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := api.GetSession(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"userId":   session.UserID,
		"username": session.Username,
	})
}
