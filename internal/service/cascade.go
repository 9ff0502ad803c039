// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/teamkb-go/internal/store"
)

// CascadeService removes an entity together with everything that
// references it, in one transaction. Retrying after a rollback is safe
// because no partial state persists.
type CascadeService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewCascadeService creates a CascadeService.
func NewCascadeService(db *sql.DB) *CascadeService {
	return &CascadeService{
		db:      db,
		queries: store.New(db),
	}
}

// DeleteUser removes a user and every row that depends on the user:
// comments the user authored, comments by anyone on the user's articles,
// the user's articles, and the user's reset tokens. All deletes commit or
// roll back together. Returns ErrNotFound when the user does not exist,
// including when a concurrent delete wins the race.
func (s *CascadeService) DeleteUser(ctx context.Context, userID int64) error {
	if _, err := s.queries.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("looking up user: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	articleIDs, err := qtx.ListArticleIDsByAuthor(ctx, userID)
	if err != nil {
		return fmt.Errorf("collecting article ids: %w", err)
	}

	// Comments first: both the user's own comments and comments by other
	// users on the user's articles would otherwise be orphaned.
	if err := qtx.DeleteCommentsForUser(ctx, userID, articleIDs); err != nil {
		return fmt.Errorf("deleting comments: %w", err)
	}

	if err := qtx.DeleteArticlesByAuthor(ctx, userID); err != nil {
		return fmt.Errorf("deleting articles: %w", err)
	}

	if err := qtx.DeleteResetTokensByUser(ctx, userID); err != nil {
		return fmt.Errorf("deleting reset tokens: %w", err)
	}

	affected, err := qtx.DeleteUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if affected == 0 {
		// A concurrent delete removed the row; roll back our work.
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing user delete: %w", err)
	}
	return nil
}

// DeleteArticle removes an article and all its comments atomically.
// Returns ErrNotFound when the article row is already gone.
func (s *CascadeService) DeleteArticle(ctx context.Context, articleID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	if err := qtx.DeleteCommentsByArticle(ctx, articleID); err != nil {
		return fmt.Errorf("deleting comments: %w", err)
	}

	affected, err := qtx.DeleteArticle(ctx, articleID)
	if err != nil {
		return fmt.Errorf("deleting article: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing article delete: %w", err)
	}
	return nil
}
