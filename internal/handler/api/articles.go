// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/teamkb-go/internal/middleware"
	"github.com/olegiv/teamkb-go/internal/model"
	"github.com/olegiv/teamkb-go/internal/render"
)

// AuthorResponse represents an author in API responses.
type AuthorResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// ArticleResponse represents an article in API responses. HTML is the
// sanitized rendering of the markdown body, present on single-article
// reads.
type ArticleResponse struct {
	ID           int64             `json:"id"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	HTML         string            `json:"html,omitempty"`
	AuthorID     int64             `json:"author_id"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	Author       *AuthorResponse   `json:"author,omitempty"`
	CommentCount int64             `json:"comment_count"`
	Comments     []CommentResponse `json:"comments,omitempty"`
}

func articleToResponse(a model.Article) ArticleResponse {
	return ArticleResponse{
		ID:        a.ID,
		Title:     a.Title,
		Body:      a.Body,
		AuthorID:  a.AuthorID,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// parseIDParam extracts a positive integer id from the URL.
func parseIDParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// validateArticleInput checks title and body constraints.
func validateArticleInput(title, body string) map[string]string {
	details := make(map[string]string)
	if strings.TrimSpace(title) == "" {
		details["title"] = "Title is required"
	} else if len(title) > model.MaxArticleTitleLen {
		details["title"] = "Title must be at most 200 characters"
	}
	if strings.TrimSpace(body) == "" {
		details["body"] = "Body is required"
	}
	return details
}

// ListArticles handles GET /knowledge/articles.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	rows, err := h.queries.ListArticles(r.Context())
	if err != nil {
		logAndInternalError(w, "failed to list articles", "error", err)
		return
	}

	resp := make([]ArticleResponse, 0, len(rows))
	for _, row := range rows {
		a := articleToResponse(row.Article)
		a.Author = &AuthorResponse{ID: row.AuthorID, Email: row.AuthorEmail, Name: row.AuthorName}
		a.CommentCount = row.CommentCount
		resp = append(resp, a)
	}

	WriteSuccess(w, resp)
}

// GetArticle handles GET /knowledge/articles/{id}. The response includes
// the sanitized HTML rendering of the body and the article's comments.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid article id", nil)
		return
	}

	article, err := h.queries.GetArticleByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Article not found")
			return
		}
		logAndInternalError(w, "failed to load article", "error", err, "article_id", id)
		return
	}

	resp := articleToResponse(article)

	html, err := render.Markdown(article.Body)
	if err != nil {
		logAndInternalError(w, "failed to render article", "error", err, "article_id", id)
		return
	}
	resp.HTML = html

	if author, err := h.queries.GetUserByID(r.Context(), article.AuthorID); err == nil {
		resp.Author = &AuthorResponse{ID: author.ID, Email: author.Email, Name: author.Name}
	}

	comments, err := h.queries.ListCommentsByArticle(r.Context(), id)
	if err != nil {
		logAndInternalError(w, "failed to list comments", "error", err, "article_id", id)
		return
	}
	resp.Comments = commentRowsToResponses(comments)
	resp.CommentCount = int64(len(comments))

	WriteSuccess(w, resp)
}

// CreateArticleRequest is the request body for creating an article.
type CreateArticleRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// CreateArticle handles POST /knowledge/articles.
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)

	var req CreateArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if details := validateArticleInput(req.Title, req.Body); len(details) > 0 {
		WriteBadRequest(w, "Validation failed", details)
		return
	}

	article, err := h.content.CreateArticle(r.Context(), actor.ID, req.Title, req.Body)
	if err != nil {
		writeServiceError(w, err, "failed to create article")
		return
	}

	WriteCreated(w, articleToResponse(article))
}

// UpdateArticleRequest is the request body for a partial article update.
type UpdateArticleRequest struct {
	Title *string `json:"title,omitempty"`
	Body  *string `json:"body,omitempty"`
}

// UpdateArticle handles PATCH /knowledge/articles/{id}.
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)

	id, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid article id", nil)
		return
	}

	var req UpdateArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	details := make(map[string]string)
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			details["title"] = "Title must not be empty"
		} else if len(*req.Title) > model.MaxArticleTitleLen {
			details["title"] = "Title must be at most 200 characters"
		}
	}
	if req.Body != nil && strings.TrimSpace(*req.Body) == "" {
		details["body"] = "Body must not be empty"
	}
	if len(details) > 0 {
		WriteBadRequest(w, "Validation failed", details)
		return
	}

	article, err := h.content.UpdateArticle(r.Context(), actor, id, serviceArticlePatch(req))
	if err != nil {
		writeServiceError(w, err, "failed to update article")
		return
	}

	WriteSuccess(w, articleToResponse(article))
}

// DeleteArticle handles DELETE /knowledge/articles/{id}. Comments on the
// article are removed in the same transaction.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r)

	id, ok := parseIDParam(r, "id")
	if !ok {
		WriteBadRequest(w, "Invalid article id", nil)
		return
	}

	if err := h.content.DeleteArticle(r.Context(), actor, id); err != nil {
		writeServiceError(w, err, "failed to delete article")
		return
	}

	WriteSuccess(w, map[string]bool{"ok": true})
}
