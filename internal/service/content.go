// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/olegiv/teamkb-go/internal/model"
	"github.com/olegiv/teamkb-go/internal/policy"
	"github.com/olegiv/teamkb-go/internal/store"
)

// ArticlePatch carries optional article field updates. Nil fields are
// left unchanged.
type ArticlePatch struct {
	Title *string
	Body  *string
}

// ContentService performs article and comment mutations, consulting the
// authorization policy before every modify or delete.
type ContentService struct {
	queries *store.Queries
	cascade *CascadeService
}

// NewContentService creates a ContentService.
func NewContentService(db *sql.DB) *ContentService {
	return &ContentService{
		queries: store.New(db),
		cascade: NewCascadeService(db),
	}
}

// CreateArticle inserts a new article owned by the author.
func (s *ContentService) CreateArticle(ctx context.Context, authorID int64, title, body string) (model.Article, error) {
	now := time.Now().UTC()
	article, err := s.queries.CreateArticle(ctx, store.CreateArticleParams{
		Title:     title,
		Body:      body,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return model.Article{}, fmt.Errorf("creating article: %w", err)
	}
	return article, nil
}

// UpdateArticle applies a partial patch to an article. The actor must be
// the article's author or an admin.
func (s *ContentService) UpdateArticle(ctx context.Context, actor *model.User, articleID int64, patch ArticlePatch) (model.Article, error) {
	article, err := s.queries.GetArticleByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Article{}, ErrNotFound
		}
		return model.Article{}, fmt.Errorf("looking up article: %w", err)
	}

	if !policy.CanModifyArticle(actor, &article) {
		return model.Article{}, ErrForbidden
	}

	title := article.Title
	if patch.Title != nil {
		title = *patch.Title
	}
	body := article.Body
	if patch.Body != nil {
		body = *patch.Body
	}

	updated, err := s.queries.UpdateArticle(ctx, store.UpdateArticleParams{
		ID:        articleID,
		Title:     title,
		Body:      body,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return model.Article{}, fmt.Errorf("updating article: %w", err)
	}
	return updated, nil
}

// DeleteArticle removes an article and its comments as one atomic unit.
// The actor must be the article's author or an admin.
func (s *ContentService) DeleteArticle(ctx context.Context, actor *model.User, articleID int64) error {
	article, err := s.queries.GetArticleByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("looking up article: %w", err)
	}

	if !policy.CanModifyArticle(actor, &article) {
		return ErrForbidden
	}

	return s.cascade.DeleteArticle(ctx, articleID)
}

// CreateComment attaches a comment to an article. Returns ErrNotFound
// when the parent article is absent.
func (s *ContentService) CreateComment(ctx context.Context, actor *model.User, articleID int64, body string) (model.Comment, error) {
	if _, err := s.queries.GetArticleByID(ctx, articleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Comment{}, ErrNotFound
		}
		return model.Comment{}, fmt.Errorf("looking up article: %w", err)
	}

	now := time.Now().UTC()
	comment, err := s.queries.CreateComment(ctx, store.CreateCommentParams{
		Body:      body,
		ArticleID: articleID,
		AuthorID:  actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return model.Comment{}, fmt.Errorf("creating comment: %w", err)
	}
	return comment, nil
}

// UpdateComment replaces a comment's body. The actor must be the comment's
// author, the parent article's author, or an admin.
func (s *ContentService) UpdateComment(ctx context.Context, actor *model.User, commentID int64, body string) (model.Comment, error) {
	comment, parent, err := s.commentWithParent(ctx, commentID)
	if err != nil {
		return model.Comment{}, err
	}

	if !policy.CanModifyComment(actor, comment, parent) {
		return model.Comment{}, ErrForbidden
	}

	updated, err := s.queries.UpdateComment(ctx, commentID, body, time.Now().UTC())
	if err != nil {
		return model.Comment{}, fmt.Errorf("updating comment: %w", err)
	}
	return updated, nil
}

// DeleteComment removes a single comment, with the same authorization rule
// as UpdateComment.
func (s *ContentService) DeleteComment(ctx context.Context, actor *model.User, commentID int64) error {
	comment, parent, err := s.commentWithParent(ctx, commentID)
	if err != nil {
		return err
	}

	if !policy.CanModifyComment(actor, comment, parent) {
		return ErrForbidden
	}

	affected, err := s.queries.DeleteComment(ctx, commentID)
	if err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// commentWithParent loads a comment and its parent article. The parent is
// needed to evaluate the article-author clause of the comment policy.
func (s *ContentService) commentWithParent(ctx context.Context, commentID int64) (*model.Comment, *model.Article, error) {
	comment, err := s.queries.GetCommentByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("looking up comment: %w", err)
	}

	parent, err := s.queries.GetArticleByID(ctx, comment.ArticleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Parent gone mid-flight; policy falls back to author/admin.
			return &comment, nil, nil
		}
		return nil, nil, fmt.Errorf("looking up parent article: %w", err)
	}
	return &comment, &parent, nil
}
