// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"net/mail"
	"time"

	"github.com/olegiv/teamkb-go/internal/middleware"
	"github.com/olegiv/teamkb-go/internal/model"
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// refreshCookieName is the http-only cookie carrying the refresh token,
// scoped to the refresh endpoint.
const refreshCookieName = "refresh_token"

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
}

func userToResponse(u model.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

// TokenResponse is the payload returned by login and refresh.
type TokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         UserResponse `json:"user"`
}

// RegisterRequest is the request body for registration.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// validateCredentials checks email syntax and password length.
func validateCredentials(email, password string) map[string]string {
	details := make(map[string]string)
	if email == "" {
		details["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		details["email"] = "Email is not a valid address"
	}
	if len(password) < MinPasswordLength {
		details["password"] = "Password must be at least 8 characters"
	}
	return details
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if details := validateCredentials(req.Email, req.Password); len(details) > 0 {
		WriteBadRequest(w, "Validation failed", details)
		return
	}

	user, err := h.credentials.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		writeServiceError(w, err, "failed to register user")
		return
	}

	WriteCreated(w, userToResponse(user))
}

// LoginRequest is the request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.credentials.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err, "failed to authenticate")
		return
	}

	h.issueTokens(w, r, user)
}

// issueTokens mints a token pair, sets the refresh cookie, and writes the
// token response.
func (h *Handler) issueTokens(w http.ResponseWriter, r *http.Request, user model.User) {
	pair, err := h.credentials.IssueTokenPair(r.Context(), user)
	if err != nil {
		logAndInternalError(w, "failed to issue token pair", "error", err, "user_id", user.ID)
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)

	WriteSuccess(w, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         userToResponse(user),
	})
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    token,
		Path:     "/auth/refresh",
		MaxAge:   int(h.tokens.RefreshTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/auth/refresh",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RefreshRequest is the request body for token rotation.
type RefreshRequest struct {
	UserID       int64  `json:"user_id"`
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh. The refresh token is taken from the
// body, falling back to the http-only cookie set at login.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.RefreshToken == "" {
		if cookie, err := r.Cookie(refreshCookieName); err == nil {
			req.RefreshToken = cookie.Value
		}
	}
	if req.RefreshToken == "" {
		WriteUnauthorized(w, "Refresh token required")
		return
	}

	pair, user, err := h.credentials.RotateTokens(r.Context(), req.UserID, req.RefreshToken)
	if err != nil {
		writeServiceError(w, err, "failed to rotate tokens")
		return
	}

	h.setRefreshCookie(w, pair.RefreshToken)

	WriteSuccess(w, TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         userToResponse(user),
	})
}

// LogoutRequest is the request body for logout.
type LogoutRequest struct {
	UserID int64 `json:"user_id"`
}

// Logout handles POST /auth/logout. Idempotent.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req LogoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.credentials.Logout(r.Context(), req.UserID); err != nil {
		logAndInternalError(w, "failed to log out", "error", err, "user_id", req.UserID)
		return
	}

	h.clearRefreshCookie(w)
	WriteSuccess(w, map[string]bool{"ok": true})
}

// ForgotPasswordRequest is the request body for the reset-token request.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword handles POST /auth/forgot-password. Responds 200 whether
// or not the email is registered, so the endpoint cannot be used to probe
// for accounts.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		WriteBadRequest(w, "Email is required", nil)
		return
	}

	if err := h.credentials.ForgotPassword(r.Context(), req.Email); err != nil {
		logAndInternalError(w, "failed to create reset token", "error", err)
		return
	}

	WriteSuccess(w, map[string]any{
		"ok":      true,
		"message": "If the address is registered, a reset link has been sent",
	})
}

// ResetPasswordRequest is the request body for redeeming a reset token.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	details := make(map[string]string)
	if req.Token == "" {
		details["token"] = "Token is required"
	}
	if len(req.Password) < MinPasswordLength {
		details["password"] = "Password must be at least 8 characters"
	}
	if len(details) > 0 {
		WriteBadRequest(w, "Validation failed", details)
		return
	}

	if err := h.credentials.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		writeServiceError(w, err, "failed to reset password")
		return
	}

	WriteSuccess(w, map[string]bool{"ok": true})
}

// CheckResetToken handles GET /auth/check-reset-token?token=...
// 200 when redeemable, 404 when unknown, 400 when used or expired.
func (h *Handler) CheckResetToken(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteBadRequest(w, "token query parameter required", nil)
		return
	}

	if err := h.credentials.CheckResetToken(r.Context(), token); err != nil {
		writeServiceError(w, err, "failed to check reset token")
		return
	}

	WriteSuccess(w, map[string]bool{"ok": true})
}

// VerifyEmail handles GET /auth/verify-email?token=... The token is a
// signed claim set naming the subject to mark verified.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		WriteBadRequest(w, "token query parameter required", nil)
		return
	}

	claims, err := h.tokens.VerifyToken(token)
	if err != nil {
		WriteBadRequest(w, "Invalid or expired token", nil)
		return
	}

	if err := h.queries.MarkEmailVerified(r.Context(), claims.UserID); err != nil {
		logAndInternalError(w, "failed to mark email verified", "error", err, "user_id", claims.UserID)
		return
	}

	WriteSuccess(w, map[string]bool{"ok": true})
}

// Me handles GET /auth/me. Returns the current account from the store so
// role or profile changes made after token issuance are visible.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)

	user, err := h.queries.GetUserByID(r.Context(), actor.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteUnauthorized(w, "Account no longer exists")
			return
		}
		logAndInternalError(w, "failed to load current user", "error", err, "user_id", actor.ID)
		return
	}

	WriteSuccess(w, userToResponse(user))
}
