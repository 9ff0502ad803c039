// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/olegiv/teamkb-go/internal/model"
)

const userColumns = `id, email, password_hash, name, role, email_verified, refresh_token_hash, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.Name,
		&u.Role,
		&u.EmailVerified,
		&u.RefreshTokenHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

// CreateUserParams holds fields for CreateUser.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const createUser = `
INSERT INTO users (email, password_hash, name, role, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

// CreateUser inserts a new user and returns the stored row.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (model.User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Email,
		arg.PasswordHash,
		arg.Name,
		arg.Role,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanUser(row)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

// GetUserByID fetches a user by primary key.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

// GetUserByEmail fetches a user by email. Callers pass a case-folded
// address; the column also collates case-insensitively as a backstop.
func (q *Queries) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

// UserWithArticleCount is a row of ListUsersWithArticleCounts.
type UserWithArticleCount struct {
	model.User
	ArticleCount int64
}

const listUsersWithArticleCounts = `
SELECT u.id, u.email, u.password_hash, u.name, u.role, u.email_verified, u.refresh_token_hash, u.created_at, u.updated_at,
       COUNT(a.id) AS article_count
FROM users u
LEFT JOIN articles a ON a.author_id = u.id
GROUP BY u.id
ORDER BY u.created_at DESC, u.id DESC`

// ListUsersWithArticleCounts returns all users, newest first, with the
// number of articles each has authored.
func (q *Queries) ListUsersWithArticleCounts(ctx context.Context) ([]UserWithArticleCount, error) {
	rows, err := q.db.QueryContext(ctx, listUsersWithArticleCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []UserWithArticleCount
	for rows.Next() {
		var u UserWithArticleCount
		if err := rows.Scan(
			&u.ID,
			&u.Email,
			&u.PasswordHash,
			&u.Name,
			&u.Role,
			&u.EmailVerified,
			&u.RefreshTokenHash,
			&u.CreatedAt,
			&u.UpdatedAt,
			&u.ArticleCount,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const updateUserRole = `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`

// UpdateUserRole changes a user's role.
func (q *Queries) UpdateUserRole(ctx context.Context, id int64, role string) error {
	_, err := q.db.ExecContext(ctx, updateUserRole, role, time.Now().UTC(), id)
	return err
}

const updateUserPassword = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

// UpdateUserPassword replaces a user's password hash.
func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, passwordHash, time.Now().UTC(), id)
	return err
}

const setRefreshTokenHash = `UPDATE users SET refresh_token_hash = ?, updated_at = ? WHERE id = ?`

// SetRefreshTokenHash stores the hash of the user's single active refresh
// token, replacing any prior value. A null hash invalidates all refresh
// tokens for the user.
func (q *Queries) SetRefreshTokenHash(ctx context.Context, id int64, hash sql.NullString) error {
	_, err := q.db.ExecContext(ctx, setRefreshTokenHash, hash, time.Now().UTC(), id)
	return err
}

const markEmailVerified = `UPDATE users SET email_verified = 1, updated_at = ? WHERE id = ?`

// MarkEmailVerified flags the user's email address as verified.
func (q *Queries) MarkEmailVerified(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markEmailVerified, time.Now().UTC(), id)
	return err
}

const deleteUser = `DELETE FROM users WHERE id = ?`

// DeleteUser removes a user row. Dependent rows must already be gone;
// the cascade orchestrator is the only caller.
func (q *Queries) DeleteUser(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteUser, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
