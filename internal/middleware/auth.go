// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/olegiv/teamkb-go/internal/auth"
	"github.com/olegiv/teamkb-go/internal/model"
	"github.com/olegiv/teamkb-go/internal/policy"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser is the context key for the authenticated user.
const ContextKeyUser ContextKey = "user"

// APIError represents a JSON error response.
type APIError struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// WriteAPIError writes a JSON error response.
func WriteAPIError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	apiErr := APIError{}
	apiErr.Error.Code = code
	apiErr.Error.Message = message
	apiErr.Error.Details = details

	_ = json.NewEncoder(w).Encode(apiErr)
}

// bearerClaims extracts and verifies the bearer access token from the
// Authorization header. The second return value reports whether an error
// response was already written (only when required is true).
func bearerClaims(w http.ResponseWriter, r *http.Request, tokens *auth.TokenManager, required bool) (*auth.Claims, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Missing Authorization header", nil)
			return nil, true
		}
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format. Use: Bearer <token>", nil)
			return nil, true
		}
		return nil, false
	}

	claims, err := tokens.VerifyToken(parts[1])
	if err != nil {
		if required {
			WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", nil)
			return nil, true
		}
		return nil, false
	}

	return claims, false
}

// claimsToUser builds the acting user from verified token claims. Token
// verification already authenticated the claims, so no store lookup is
// needed on the hot path.
func claimsToUser(claims *auth.Claims) *model.User {
	return &model.User{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	}
}

// Auth creates middleware that requires a valid bearer access token and
// puts the acting user into the request context.
func Auth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, errorWritten := bearerClaims(w, r, tokens, true)
			if errorWritten {
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, claimsToUser(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth creates middleware that loads the acting user into context
// when a valid bearer token is present, but never rejects the request.
func OptionalAuth(tokens *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := bearerClaims(w, r, tokens, false)
			if claims == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, claimsToUser(claims))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin creates middleware that rejects non-admin actors. Must be
// used after Auth.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if !policy.CanModifyUser(user) {
				WriteAPIError(w, http.StatusForbidden, "forbidden", "Admin access required", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUser returns the authenticated user from the request context, or nil.
func GetUser(r *http.Request) *model.User {
	user, _ := r.Context().Value(ContextKeyUser).(*model.User)
	return user
}
