// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"

	"github.com/olegiv/teamkb-go/internal/model"
)

const resetTokenColumns = `id, user_id, token_hash, expires_at, used, created_at`

func scanResetToken(row interface{ Scan(dest ...any) error }) (model.PasswordResetToken, error) {
	var t model.PasswordResetToken
	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.TokenHash,
		&t.ExpiresAt,
		&t.Used,
		&t.CreatedAt,
	)
	return t, err
}

// CreateResetTokenParams holds fields for CreateResetToken.
type CreateResetTokenParams struct {
	UserID    int64
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

const createResetToken = `
INSERT INTO password_reset_tokens (user_id, token_hash, expires_at, created_at)
VALUES (?, ?, ?, ?)
RETURNING ` + resetTokenColumns

// CreateResetToken records the hash of a freshly issued reset secret.
func (q *Queries) CreateResetToken(ctx context.Context, arg CreateResetTokenParams) (model.PasswordResetToken, error) {
	row := q.db.QueryRowContext(ctx, createResetToken,
		arg.UserID,
		arg.TokenHash,
		arg.ExpiresAt,
		arg.CreatedAt,
	)
	return scanResetToken(row)
}

const getResetTokenByHash = `SELECT ` + resetTokenColumns + ` FROM password_reset_tokens WHERE token_hash = ?`

// GetResetTokenByHash looks up a reset token by the hash of its secret.
func (q *Queries) GetResetTokenByHash(ctx context.Context, tokenHash string) (model.PasswordResetToken, error) {
	return scanResetToken(q.db.QueryRowContext(ctx, getResetTokenByHash, tokenHash))
}

const markResetTokenUsed = `UPDATE password_reset_tokens SET used = 1 WHERE id = ? AND used = 0`

// MarkResetTokenUsed flips the used flag. The WHERE used = 0 guard makes
// this a check-and-set: a second redemption attempt affects zero rows.
func (q *Queries) MarkResetTokenUsed(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markResetTokenUsed, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteResetTokensByUser = `DELETE FROM password_reset_tokens WHERE user_id = ?`

// DeleteResetTokensByUser removes all reset tokens belonging to a user.
func (q *Queries) DeleteResetTokensByUser(ctx context.Context, userID int64) error {
	_, err := q.db.ExecContext(ctx, deleteResetTokensByUser, userID)
	return err
}
