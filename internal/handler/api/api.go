// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API handlers for TeamKB.
package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/teamkb-go/internal/auth"
	"github.com/olegiv/teamkb-go/internal/service"
	"github.com/olegiv/teamkb-go/internal/store"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db          *sql.DB
	queries     *store.Queries
	tokens      *auth.TokenManager
	credentials *service.CredentialService
	content     *service.ContentService
	cascade     *service.CascadeService
	startTime   time.Time
}

// NewHandler creates a new API handler.
func NewHandler(db *sql.DB, tokens *auth.TokenManager, credentials *service.CredentialService) *Handler {
	return &Handler{
		db:          db,
		queries:     store.New(db),
		tokens:      tokens,
		credentials: credentials,
		content:     service.NewContentService(db),
		cascade:     service.NewCascadeService(db),
		startTime:   time.Now(),
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any `json:"data,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, Response{Data: data})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteUnauthorized writes a 401 Unauthorized response.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, "unauthorized", message, nil)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "forbidden", message, nil)
}

// WriteConflict writes a 409 Conflict response.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, "conflict", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// logAndInternalError logs the error with context and writes a 500.
func logAndInternalError(w http.ResponseWriter, msg string, args ...any) {
	slog.Error(msg, args...)
	WriteInternalError(w, msg)
}

// writeServiceError maps a service error to the matching HTTP response.
// Unrecognized errors are logged and surface as 500.
func writeServiceError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		WriteNotFound(w, "Not found")
	case errors.Is(err, service.ErrForbidden):
		WriteForbidden(w, "Not allowed")
	case errors.Is(err, service.ErrUnauthorized):
		WriteUnauthorized(w, "Invalid credentials")
	case errors.Is(err, service.ErrEmailTaken):
		WriteConflict(w, "Email already in use")
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteUnauthorized(w, "Invalid credentials")
	case errors.Is(err, service.ErrTokenUsed):
		WriteError(w, http.StatusBadRequest, "token_used", "Token already used", nil)
	case errors.Is(err, service.ErrTokenExpired):
		WriteError(w, http.StatusBadRequest, "token_expired", "Token expired", nil)
	default:
		logAndInternalError(w, logMsg, "error", err)
	}
}

// decodeJSON decodes a request body into dst, rejecting malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid JSON body", nil)
		return false
	}
	return true
}
