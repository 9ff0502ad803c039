// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"strings"
	"time"

	"github.com/olegiv/teamkb-go/internal/model"
)

const articleColumns = `id, title, body, author_id, created_at, updated_at`

func scanArticle(row interface{ Scan(dest ...any) error }) (model.Article, error) {
	var a model.Article
	err := row.Scan(
		&a.ID,
		&a.Title,
		&a.Body,
		&a.AuthorID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	return a, err
}

// CreateArticleParams holds fields for CreateArticle.
type CreateArticleParams struct {
	Title     string
	Body      string
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

const createArticle = `
INSERT INTO articles (title, body, author_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + articleColumns

// CreateArticle inserts a new article and returns the stored row.
func (q *Queries) CreateArticle(ctx context.Context, arg CreateArticleParams) (model.Article, error) {
	row := q.db.QueryRowContext(ctx, createArticle,
		arg.Title,
		arg.Body,
		arg.AuthorID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanArticle(row)
}

const getArticleByID = `SELECT ` + articleColumns + ` FROM articles WHERE id = ?`

// GetArticleByID fetches an article by primary key.
func (q *Queries) GetArticleByID(ctx context.Context, id int64) (model.Article, error) {
	return scanArticle(q.db.QueryRowContext(ctx, getArticleByID, id))
}

// ArticleListRow is a row of ListArticles: the article plus author basics
// and its comment count.
type ArticleListRow struct {
	model.Article
	AuthorEmail  string
	AuthorName   string
	CommentCount int64
}

const listArticles = `
SELECT a.id, a.title, a.body, a.author_id, a.created_at, a.updated_at,
       u.email, u.name,
       (SELECT COUNT(*) FROM comments c WHERE c.article_id = a.id) AS comment_count
FROM articles a
JOIN users u ON u.id = a.author_id
ORDER BY a.created_at DESC, a.id DESC`

// ListArticles returns all articles, newest first, with author info and
// comment counts.
func (q *Queries) ListArticles(ctx context.Context) ([]ArticleListRow, error) {
	rows, err := q.db.QueryContext(ctx, listArticles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []ArticleListRow
	for rows.Next() {
		var r ArticleListRow
		if err := rows.Scan(
			&r.ID,
			&r.Title,
			&r.Body,
			&r.AuthorID,
			&r.CreatedAt,
			&r.UpdatedAt,
			&r.AuthorEmail,
			&r.AuthorName,
			&r.CommentCount,
		); err != nil {
			return nil, err
		}
		articles = append(articles, r)
	}
	return articles, rows.Err()
}

// UpdateArticleParams holds fields for UpdateArticle.
type UpdateArticleParams struct {
	ID        int64
	Title     string
	Body      string
	UpdatedAt time.Time
}

const updateArticle = `
UPDATE articles SET title = ?, body = ?, updated_at = ?
WHERE id = ?
RETURNING ` + articleColumns

// UpdateArticle replaces the article's title and body.
func (q *Queries) UpdateArticle(ctx context.Context, arg UpdateArticleParams) (model.Article, error) {
	row := q.db.QueryRowContext(ctx, updateArticle,
		arg.Title,
		arg.Body,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanArticle(row)
}

const deleteArticle = `DELETE FROM articles WHERE id = ?`

// DeleteArticle removes an article row. Comments on the article must
// already be gone; the cascade orchestrator is the only caller.
func (q *Queries) DeleteArticle(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteArticle, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listArticleIDsByAuthor = `SELECT id FROM articles WHERE author_id = ?`

// ListArticleIDsByAuthor returns the ids of all articles by the given author.
func (q *Queries) ListArticleIDsByAuthor(ctx context.Context, authorID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listArticleIDsByAuthor, authorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const deleteArticlesByAuthor = `DELETE FROM articles WHERE author_id = ?`

// DeleteArticlesByAuthor removes every article by the given author.
func (q *Queries) DeleteArticlesByAuthor(ctx context.Context, authorID int64) error {
	_, err := q.db.ExecContext(ctx, deleteArticlesByAuthor, authorID)
	return err
}

// placeholders returns a "?, ?, ..." list for n parameters.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
