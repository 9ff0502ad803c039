// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/teamkb-go/internal/middleware"
	"github.com/olegiv/teamkb-go/internal/model"
	"github.com/olegiv/teamkb-go/internal/service"
	"github.com/olegiv/teamkb-go/internal/store"
)

// CommentResponse represents a comment in API responses.
type CommentResponse struct {
	ID        int64           `json:"id"`
	Body      string          `json:"body"`
	ArticleID int64           `json:"article_id"`
	AuthorID  int64           `json:"author_id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	Author    *AuthorResponse `json:"author,omitempty"`
}

func commentToResponse(c model.Comment) CommentResponse {
	return CommentResponse{
		ID:        c.ID,
		Body:      c.Body,
		ArticleID: c.ArticleID,
		AuthorID:  c.AuthorID,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func commentRowsToResponses(rows []store.CommentListRow) []CommentResponse {
	resp := make([]CommentResponse, 0, len(rows))
	for _, row := range rows {
		c := commentToResponse(row.Comment)
		c.Author = &AuthorResponse{ID: row.AuthorID, Email: row.AuthorEmail, Name: row.AuthorName}
		resp = append(resp, c)
	}
	return resp
}

func serviceArticlePatch(req UpdateArticleRequest) service.ArticlePatch {
	return service.ArticlePatch{Title: req.Title, Body: req.Body}
}

// validateCommentBody checks comment body constraints.
func validateCommentBody(body string) map[string]string {
	details := make(map[string]string)
	if strings.TrimSpace(body) == "" {
		details["body"] = "Body is required"
	} else if len(body) > model.MaxCommentBodyLen {
		details["body"] = "Body must be at most 4000 characters"
	}
	return details
}

// ListComments handles GET /knowledge/articles/{id}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	articleID, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid article id", nil)
		return
	}

	if _, err := h.queries.GetArticleByID(r.Context(), articleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Article not found")
			return
		}
		logAndInternalError(w, "failed to load article", "error", err, "article_id", articleID)
		return
	}

	rows, err := h.queries.ListCommentsByArticle(r.Context(), articleID)
	if err != nil {
		logAndInternalError(w, "failed to list comments", "error", err, "article_id", articleID)
		return
	}

	WriteSuccess(w, commentRowsToResponses(rows))
}

// CreateCommentRequest is the request body for creating a comment.
type CreateCommentRequest struct {
	ArticleID int64  `json:"article_id"`
	Body      string `json:"body"`
}

// CreateComment handles POST /knowledge/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)

	var req CreateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	details := validateCommentBody(req.Body)
	if req.ArticleID <= 0 {
		details["article_id"] = "Article id is required"
	}
	if len(details) > 0 {
		WriteBadRequest(w, "Validation failed", details)
		return
	}

	comment, err := h.content.CreateComment(r.Context(), actor, req.ArticleID, req.Body)
	if err != nil {
		writeServiceError(w, err, "failed to create comment")
		return
	}

	WriteCreated(w, commentToResponse(comment))
}

// UpdateCommentRequest is the request body for updating a comment.
type UpdateCommentRequest struct {
	Body string `json:"body"`
}

// UpdateComment handles PATCH /knowledge/comments/{id}.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)

	id, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid comment id", nil)
		return
	}

	var req UpdateCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if details := validateCommentBody(req.Body); len(details) > 0 {
		WriteBadRequest(w, "Validation failed", details)
		return
	}

	comment, err := h.content.UpdateComment(r.Context(), actor, id, req.Body)
	if err != nil {
		writeServiceError(w, err, "failed to update comment")
		return
	}

	WriteSuccess(w, commentToResponse(comment))
}

// DeleteComment handles DELETE /knowledge/comments/{id}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)

	id, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid comment id", nil)
		return
	}

	if err := h.content.DeleteComment(r.Context(), actor, id); err != nil {
		writeServiceError(w, err, "failed to delete comment")
		return
	}

	WriteSuccess(w, map[string]bool{"ok": true})
}
