// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"net/mail"

	"github.com/olegiv/teamkb-go/internal/model"
)

// AdminUserResponse represents a user in admin listings, including the
// number of articles the user has authored.
type AdminUserResponse struct {
	UserResponse
	ArticleCount int64 `json:"article_count"`
}

// ListUsers handles GET /admin/users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.queries.ListUsersWithArticleCounts(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list users", "error", err)
		return
	}

	resp := make([]AdminUserResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, AdminUserResponse{
			UserResponse: userToResponse(row.User),
			ArticleCount: row.ArticleCount,
		})
	}

	WriteSuccess(w, resp)
}

// AdminCreateUserRequest is the request body for admin user creation.
type AdminCreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password,omitempty"`
}

// AdminCreateUserResponse carries the created account plus the generated
// password, returned exactly once so the admin can hand it over.
type AdminCreateUserResponse struct {
	User     UserResponse `json:"user"`
	Password string       `json:"password"`
}

// CreateUser handles POST /admin/users. When no password is supplied a
// random one is generated and included in the response.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req AdminCreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	details := make(map[string]string)
	if req.Email == "" {
		details["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		details["email"] = "Email is not a valid address"
	}
	if req.Password != "" && len(req.Password) < MinPasswordLength {
		details["password"] = "Password must be at least 8 characters"
	}
	if len(details) > 0 {
		WriteBadRequest(w, "Validation failed", details)
		return
	}

	user, password, err := h.credentials.AdminCreateUser(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeServiceError(w, err, "failed to create user")
		return
	}

	WriteCreated(w, AdminCreateUserResponse{
		User:     userToResponse(user),
		Password: password,
	})
}

// ChangeRoleRequest is the request body for a role change.
type ChangeRoleRequest struct {
	Role string `json:"role"`
}

// ChangeUserRole handles PATCH /admin/users/{id}/role.
func (h *Handler) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid user id", nil)
		return
	}

	var req ChangeRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if !model.IsValidRole(req.Role) {
		WriteBadRequest(w, "Invalid role", map[string]string{"role": "Role must be user or admin"})
		return
	}

	if _, err := h.queries.GetUserByID(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "User not found")
			return
		}
		logAndInternalError(w, "failed to load user", "error", err, "user_id", id)
		return
	}

	if err := h.queries.UpdateUserRole(r.Context(), id, req.Role); err != nil {
		logAndInternalError(w, "failed to change role", "error", err, "user_id", id)
		return
	}

	WriteSuccess(w, map[string]bool{"ok": true})
}

// DeleteUser handles DELETE /admin/users/{id}. Removes the user together
// with all dependent rows as one atomic unit.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid user id", nil)
		return
	}

	if err := h.cascade.DeleteUser(r.Context(), id); err != nil {
		writeServiceError(w, err, "failed to delete user")
		return
	}

	WriteSuccess(w, map[string]bool{"ok": true})
}
