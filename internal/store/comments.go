// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/teamkb-go/internal/model"
)

const commentColumns = `id, body, article_id, author_id, created_at, updated_at`

func scanComment(row interface{ Scan(dest ...any) error }) (model.Comment, error) {
	var c model.Comment
	err := row.Scan(
		&c.ID,
		&c.Body,
		&c.ArticleID,
		&c.AuthorID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}

// CreateCommentParams holds fields for CreateComment.
type CreateCommentParams struct {
	Body      string
	ArticleID int64
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

const createComment = `
INSERT INTO comments (body, article_id, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + commentColumns

// CreateComment inserts a new comment and returns the stored row.
func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (model.Comment, error) {
	row := q.db.QueryRowContext(ctx, createComment,
		arg.Body,
		arg.ArticleID,
		arg.AuthorID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanComment(row)
}

const getCommentByID = `SELECT ` + commentColumns + ` FROM comments WHERE id = ?`

// GetCommentByID fetches a comment by primary key.
func (q *Queries) GetCommentByID(ctx context.Context, id int64) (model.Comment, error) {
	return scanComment(q.db.QueryRowContext(ctx, getCommentByID, id))
}

// CommentListRow is a row of ListCommentsByArticle: the comment plus
// author basics.
type CommentListRow struct {
	model.Comment
	AuthorEmail string
	AuthorName  string
}

const listCommentsByArticle = `
SELECT c.id, c.body, c.article_id, c.author_id, c.created_at, c.updated_at,
       u.email, u.name
FROM comments c
JOIN users u ON u.id = c.author_id
WHERE c.article_id = ?
ORDER BY c.created_at ASC, c.id ASC`

// ListCommentsByArticle returns all comments on an article, oldest first,
// with author info.
func (q *Queries) ListCommentsByArticle(ctx context.Context, articleID int64) ([]CommentListRow, error) {
	rows, err := q.db.QueryContext(ctx, listCommentsByArticle, articleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []CommentListRow
	for rows.Next() {
		var r CommentListRow
		if err := rows.Scan(
			&r.ID,
			&r.Body,
			&r.ArticleID,
			&r.AuthorID,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.AuthorEmail,
			&r.AuthorName,
		); err != nil {
			return nil, err
		}
		comments = append(comments, r)
	}
	return comments, rows.Err()
}

const updateComment = `
UPDATE comments SET body = ?, updated_at = ?
WHERE id = ?
RETURNING ` + commentColumns

// UpdateComment replaces the comment's body.
func (q *Queries) UpdateComment(ctx context.Context, id int64, body string, updatedAt time.Time) (model.Comment, error) {
	row := q.db.QueryRowContext(ctx, updateComment, body, updatedAt, id)
	return scanComment(row)
}

const deleteComment = `DELETE FROM comments WHERE id = ?`

// DeleteComment removes a comment row.
func (q *Queries) DeleteComment(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteComment, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteCommentsByArticle = `DELETE FROM comments WHERE article_id = ?`

// DeleteCommentsByArticle removes every comment on an article.
func (q *Queries) DeleteCommentsByArticle(ctx context.Context, articleID int64) error {
	_, err := q.db.ExecContext(ctx, deleteCommentsByArticle, articleID)
	return err
}

// DeleteCommentsForUser removes comments authored by the user OR attached
// to any of the given articles. The double condition keeps comments by
// other users on the deleted user's articles from being orphaned.
func (q *Queries) DeleteCommentsForUser(ctx context.Context, userID int64, articleIDs []int64) error {
	query := `DELETE FROM comments WHERE author_id = ?`
	args := []any{userID}

	if len(articleIDs) > 0 {
		query += ` OR article_id IN (` + placeholders(len(articleIDs)) + `)`
		for _, id := range articleIDs {
			args = append(args, id)
		}
	}

	_, err := q.db.ExecContext(ctx, query, args...)
	return err
}

const countCommentsByArticle = `SELECT COUNT(*) FROM comments WHERE article_id = ?`

// CountCommentsByArticle returns the number of comments on an article.
func (q *Queries) CountCommentsByArticle(ctx context.Context, articleID int64) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countCommentsByArticle, articleID).Scan(&n)
	return n, err
}
