// internal/server/handlers_users.go
package server

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/graphchat/text2cypher/api/schemas"
	"github.com/graphchat/text2cypher/internal/accounts"
)

// requireAccounts gates every user endpoint on the relational store being
// configured.
func (h *handlers) requireAccounts(w http.ResponseWriter) bool {
	if h.app.Users == nil {
		h.respondWithError(w, http.StatusServiceUnavailable, "User accounts are not configured")
		return false
	}
	return true
}

func (h *handlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !h.requireAccounts(w) {
		return
	}

	var req schemas.UserCreate
	if !h.decodeBody(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if req.Email == "" || req.Username == "" || req.Password == "" {
		h.respondWithError(w, http.StatusBadRequest, "Email, username and password are required")
		return
	}

	user, err := h.app.Users.Create(r.Context(), req)
	if err != nil {
		if errors.Is(err, accounts.ErrDuplicate) {
			h.respondWithError(w, http.StatusConflict, "Email or username already exists")
			return
		}
		h.log.Error("User registration failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to register user")
		return
	}
	h.respondWithJSON(w, http.StatusCreated, user)
}

func (h *handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !h.requireAccounts(w) {
		return
	}

	var req schemas.LoginRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	ctx := r.Context()
	user, err := h.app.Users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrBadCredentials) {
			h.respondWithError(w, http.StatusUnauthorized, "Invalid email or password")
			return
		}
		h.log.Error("Login failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	token, err := h.app.Auth.CreateAccessToken(user.Email)
	if err != nil {
		h.log.Error("Token issuance failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	h.respondWithJSON(w, http.StatusOK, schemas.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

func (h *handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	if !h.requireAccounts(w) {
		return
	}

	ctx := r.Context()
	userID, err := h.requireUserID(ctx, r)
	if err != nil {
		h.respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	user, err := h.app.Users.GetByID(ctx, userID)
	if err != nil {
		h.log.Error("Failed to fetch current user", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to fetch user")
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

func (h *handlers) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	if !h.requireAccounts(w) {
		return
	}

	ctx := r.Context()
	userID, err := h.requireUserID(ctx, r)
	if err != nil {
		h.respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	var req schemas.UserUpdate
	if !h.decodeBody(w, r, &req) {
		return
	}

	user, err := h.app.Users.Update(ctx, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, accounts.ErrDuplicate):
			h.respondWithError(w, http.StatusConflict, "Email or username already exists")
		case errors.Is(err, accounts.ErrNotFound):
			h.respondWithError(w, http.StatusNotFound, "User not found")
		default:
			h.log.Error("User update failed", zap.Error(err))
			h.respondWithError(w, http.StatusInternalServerError, "Failed to update user")
		}
		return
	}
	h.respondWithJSON(w, http.StatusOK, user)
}

// handleDeleteMe deactivates the account rather than erasing it, keeping the
// owned conversation history intact.
func (h *handlers) handleDeleteMe(w http.ResponseWriter, r *http.Request) {
	if !h.requireAccounts(w) {
		return
	}

	ctx := r.Context()
	userID, err := h.requireUserID(ctx, r)
	if err != nil {
		h.respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	if err := h.app.Users.Deactivate(ctx, userID); err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			h.respondWithError(w, http.StatusNotFound, "User not found")
			return
		}
		h.log.Error("User deactivation failed", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to deactivate user")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if !h.requireAccounts(w) {
		return
	}

	ctx := r.Context()
	if _, err := h.requireUserID(ctx, r); err != nil {
		h.respondWithError(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	skip, limit := pageParams(r)
	users, err := h.app.Users.List(ctx, skip, limit)
	if err != nil {
		h.log.Error("Failed to list users", zap.Error(err))
		h.respondWithError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	if users == nil {
		users = []schemas.User{}
	}
	h.respondWithJSON(w, http.StatusOK, users)
}
