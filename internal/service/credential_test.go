// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/olegiv/teamkb-go/internal/auth"
	"github.com/olegiv/teamkb-go/internal/mail"
	"github.com/olegiv/teamkb-go/internal/model"
	"github.com/olegiv/teamkb-go/internal/store"
	"github.com/olegiv/teamkb-go/internal/testutil"
)

func newCredentialService(t *testing.T) (*sql.DB, *CredentialService) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	tokens := auth.NewTokenManager([]byte("test-secret-key-thats-long-enough"), 15*time.Minute, 7*24*time.Hour)
	svc := NewCredentialService(db, tokens, mail.New(mail.Config{}), "http://localhost:3001")
	return db, svc
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "user@example.com", NormalizeEmail("User@Example.COM"))
	require.Equal(t, "user@example.com", NormalizeEmail("  user@example.com  "))
}

func TestRegister(t *testing.T) {
	_, svc := newCredentialService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice@Example.com", "password123", "Alice")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", user.Email, "email should be stored case-folded")
	require.Equal(t, model.RoleUser, user.Role)
	require.NotEmpty(t, user.PasswordHash)
	require.NotEqual(t, "password123", user.PasswordHash)
}

func TestRegister_EmailTaken(t *testing.T) {
	_, svc := newCredentialService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice@example.com", "otherpassword", "Alice 2")
	require.ErrorIs(t, err, ErrEmailTaken)

	// Case variants collide as well
	_, err = svc.Register(ctx, "ALICE@example.com", "otherpassword", "Alice 3")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestAdminCreateUser_GeneratedPassword(t *testing.T) {
	_, svc := newCredentialService(t)
	ctx := context.Background()

	user, rawPassword, err := svc.AdminCreateUser(ctx, "bob@example.com", "Bob", "")
	require.NoError(t, err)
	require.NotEmpty(t, rawPassword, "generated password must be returned once")

	// The returned password actually works
	got, err := svc.Authenticate(ctx, "bob@example.com", rawPassword)
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)
}

func TestAuthenticate(t *testing.T) {
	_, svc := newCredentialService(t)
	ctx := context.Background()

	created, err := svc.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	got, err := svc.Authenticate(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	_, err = svc.Authenticate(ctx, "alice@example.com", "wrongpassword")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "nobody@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials, "unknown account is indistinguishable from wrong password")
}

func TestTokenRotation(t *testing.T) {
	_, svc := newCredentialService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	first, err := svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, first.AccessToken)
	require.NotEmpty(t, first.RefreshToken)

	second, user2, err := svc.RotateTokens(ctx, user.ID, first.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, user.ID, user2.ID)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The rotated-out token no longer matches the stored hash
	_, _, err = svc.RotateTokens(ctx, user.ID, first.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)

	// The fresh token still works
	_, _, err = svc.RotateTokens(ctx, user.ID, second.RefreshToken)
	require.NoError(t, err)
}

func TestRotateTokens_WrongUser(t *testing.T) {
	_, svc := newCredentialService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	pair, err := svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)

	_, _, err = svc.RotateTokens(ctx, user.ID+1, pair.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	_, svc := newCredentialService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	pair, err := svc.IssueTokenPair(ctx, user)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID))

	// The refresh token is dead after logout
	_, _, err = svc.RotateTokens(ctx, user.ID, pair.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)

	// Logging out again is a no-op
	require.NoError(t, svc.Logout(ctx, user.ID))
}

func TestForgotPassword(t *testing.T) {
	db, svc := newCredentialService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	require.NoError(t, svc.ForgotPassword(ctx, "alice@example.com"))

	var count int64
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM password_reset_tokens WHERE user_id = ?`, user.ID).Scan(&count))
	require.EqualValues(t, 1, count)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	db, svc := newCredentialService(t)
	ctx := context.Background()

	// Never discloses whether the account exists
	require.NoError(t, svc.ForgotPassword(ctx, "nobody@example.com"))

	var count int64
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM password_reset_tokens`).Scan(&count))
	require.EqualValues(t, 0, count)
}

// issueResetToken creates a reset token directly so the raw secret is
// available to the test.
func issueResetToken(t *testing.T, db *sql.DB, userID int64, ttl time.Duration) string {
	t.Helper()
	secret, err := auth.NewResetSecret()
	require.NoError(t, err)

	now := time.Now().UTC()
	_, err = store.New(db).CreateResetToken(context.Background(), store.CreateResetTokenParams{
		UserID:    userID,
		TokenHash: auth.HashSecret(secret),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	})
	require.NoError(t, err)
	return secret
}

func TestCheckResetToken(t *testing.T) {
	db, svc := newCredentialService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	valid := issueResetToken(t, db, user.ID, time.Hour)
	expired := issueResetToken(t, db, user.ID, -time.Minute)

	require.NoError(t, svc.CheckResetToken(ctx, valid))
	require.ErrorIs(t, svc.CheckResetToken(ctx, expired), ErrTokenExpired)
	require.ErrorIs(t, svc.CheckResetToken(ctx, "0000000000000000000000000000000000000000000000ff"), ErrNotFound)
}

func TestResetPassword(t *testing.T) {
	db, svc := newCredentialService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	secret := issueResetToken(t, db, user.ID, time.Hour)

	require.NoError(t, svc.ResetPassword(ctx, secret, "newpassword456"))

	// Old password dead, new password live
	_, err = svc.Authenticate(ctx, "alice@example.com", "password123")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "alice@example.com", "newpassword456")
	require.NoError(t, err)

	// A token redeems at most once
	err = svc.ResetPassword(ctx, secret, "thirdpassword789")
	require.ErrorIs(t, err, ErrTokenUsed)
	_, err = svc.Authenticate(ctx, "alice@example.com", "newpassword456")
	require.NoError(t, err, "failed redemption must not change the password")

	require.ErrorIs(t, svc.CheckResetToken(ctx, secret), ErrTokenUsed)
}

func TestResetPassword_Expired(t *testing.T) {
	db, svc := newCredentialService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "password123", "Alice")
	require.NoError(t, err)

	secret := issueResetToken(t, db, user.ID, -time.Minute)

	require.ErrorIs(t, svc.ResetPassword(ctx, secret, "newpassword456"), ErrTokenExpired)

	_, err = svc.Authenticate(ctx, "alice@example.com", "password123")
	require.NoError(t, err, "expired redemption must not change the password")
}
