// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/olegiv/teamkb-go/internal/auth"
	"github.com/olegiv/teamkb-go/internal/mail"
	"github.com/olegiv/teamkb-go/internal/model"
	"github.com/olegiv/teamkb-go/internal/store"
)

// ResetTokenTTL is how long a password reset token stays redeemable.
const ResetTokenTTL = time.Hour

var emailFolder = cases.Fold()

// NormalizeEmail case-folds an email address so lookups and the unique
// constraint treat addresses differing only in letter case as equal.
func NormalizeEmail(email string) string {
	return emailFolder.String(strings.TrimSpace(email))
}

// TokenPair bundles a short-lived access token and a long-lived refresh
// token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// CredentialService validates credentials, issues and rotates token pairs,
// and manages the password reset flow.
type CredentialService struct {
	db          *sql.DB
	queries     *store.Queries
	tokens      *auth.TokenManager
	mailer      *mail.Mailer
	frontendURL string
}

// NewCredentialService creates a CredentialService.
func NewCredentialService(db *sql.DB, tokens *auth.TokenManager, mailer *mail.Mailer, frontendURL string) *CredentialService {
	return &CredentialService{
		db:          db,
		queries:     store.New(db),
		tokens:      tokens,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// isUniqueViolation detects a SQLite unique-constraint failure. Both the
// modernc and mattn drivers surface the constraint name in the message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Register creates a new account with the given credentials and the
// default user role. Returns ErrEmailTaken if the case-folded email is
// already registered.
func (s *CredentialService) Register(ctx context.Context, email, password, name string) (model.User, error) {
	return s.createUser(ctx, email, password, name, model.RoleUser)
}

// AdminCreateUser creates an account on behalf of an admin. When password
// is empty a random one is generated; the raw password is returned exactly
// once so the admin can hand it to the user.
func (s *CredentialService) AdminCreateUser(ctx context.Context, email, name, password string) (model.User, string, error) {
	if password == "" {
		password = uuid.NewString()
	}
	user, err := s.createUser(ctx, email, password, name, model.RoleUser)
	if err != nil {
		return model.User{}, "", err
	}
	return user, password, nil
}

func (s *CredentialService) createUser(ctx context.Context, email, password, name, role string) (model.User, error) {
	folded := NormalizeEmail(email)

	if _, err := s.queries.GetUserByEmail(ctx, folded); err == nil {
		return model.User{}, ErrEmailTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("checking email: %w", err)
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return model.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        folded,
		PasswordHash: passwordHash,
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		// A concurrent registration can win the race between the existence
		// check and the insert; the unique constraint still holds.
		if isUniqueViolation(err) {
			return model.User{}, ErrEmailTaken
		}
		return model.User{}, fmt.Errorf("creating user: %w", err)
	}
	return user, nil
}

// Authenticate verifies an email/password pair. Unknown account and wrong
// password both return ErrInvalidCredentials.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (model.User, error) {
	user, err := s.queries.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, fmt.Errorf("looking up user: %w", err)
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil {
		return model.User{}, fmt.Errorf("checking password: %w", err)
	}
	if !ok {
		return model.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// IssueTokenPair mints a fresh access/refresh pair for the user and
// persists the refresh token's hash, invalidating any prior refresh token.
func (s *CredentialService) IssueTokenPair(ctx context.Context, user model.User) (TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issuing access token: %w", err)
	}

	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issuing refresh token: %w", err)
	}

	hash := sql.NullString{String: auth.HashSecret(refresh), Valid: true}
	if err := s.queries.SetRefreshTokenHash(ctx, user.ID, hash); err != nil {
		return TokenPair{}, fmt.Errorf("storing refresh token hash: %w", err)
	}

	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// RotateTokens validates a presented refresh token against the stored hash
// and re-issues a fresh pair, invalidating the old token. Any mismatch,
// expired signature, or missing user yields ErrUnauthorized.
func (s *CredentialService) RotateTokens(ctx context.Context, userID int64, refreshToken string) (TokenPair, model.User, error) {
	claims, err := s.tokens.VerifyToken(refreshToken)
	if err != nil || claims.UserID != userID {
		return TokenPair{}, model.User{}, ErrUnauthorized
	}

	user, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return TokenPair{}, model.User{}, ErrUnauthorized
		}
		return TokenPair{}, model.User{}, fmt.Errorf("looking up user: %w", err)
	}

	if !user.RefreshTokenHash.Valid || !auth.SecretHashEquals(refreshToken, user.RefreshTokenHash.String) {
		return TokenPair{}, model.User{}, ErrUnauthorized
	}

	pair, err := s.IssueTokenPair(ctx, user)
	if err != nil {
		return TokenPair{}, model.User{}, err
	}
	return pair, user, nil
}

// Logout clears the stored refresh token hash. Calling it for a user who
// is already logged out is a no-op.
func (s *CredentialService) Logout(ctx context.Context, userID int64) error {
	if err := s.queries.SetRefreshTokenHash(ctx, userID, sql.NullString{}); err != nil {
		return fmt.Errorf("clearing refresh token hash: %w", err)
	}
	return nil
}

// ForgotPassword issues a single-use reset token for the account and
// dispatches the raw secret out-of-band. An unknown email returns silently
// so this path never discloses account existence.
func (s *CredentialService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.queries.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			slog.Debug("password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("looking up user: %w", err)
	}

	secret, err := auth.NewResetSecret()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if _, err := s.queries.CreateResetToken(ctx, store.CreateResetTokenParams{
		UserID:    user.ID,
		TokenHash: auth.HashSecret(secret),
		ExpiresAt: now.Add(ResetTokenTTL),
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("storing reset token: %w", err)
	}

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, secret)
	if err := s.mailer.SendPasswordReset(user.Email, user.Name, resetURL); err != nil {
		return fmt.Errorf("dispatching reset email: %w", err)
	}
	return nil
}

// CheckResetToken reports whether a raw reset secret is redeemable.
// Returns ErrNotFound, ErrTokenUsed, or ErrTokenExpired otherwise.
func (s *CredentialService) CheckResetToken(ctx context.Context, rawSecret string) error {
	token, err := s.queries.GetResetTokenByHash(ctx, auth.HashSecret(rawSecret))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("looking up reset token: %w", err)
	}
	if token.Used {
		return ErrTokenUsed
	}
	if token.IsExpired(time.Now().UTC()) {
		return ErrTokenExpired
	}
	return nil
}

// ResetPassword redeems a reset token and sets the new password. The used
// flag and the password hash change in one transaction, so there is no
// window where one is observed without the other; concurrent redemptions
// of the same token produce at most one success.
func (s *CredentialService) ResetPassword(ctx context.Context, rawSecret, newPassword string) error {
	token, err := s.queries.GetResetTokenByHash(ctx, auth.HashSecret(rawSecret))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("looking up reset token: %w", err)
	}
	if token.Used {
		return ErrTokenUsed
	}
	if token.IsExpired(time.Now().UTC()) {
		return ErrTokenExpired
	}

	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := s.queries.WithTx(tx)

	// Check-and-set inside the transaction: the loser of a concurrent
	// redemption affects zero rows and observes "already used".
	affected, err := qtx.MarkResetTokenUsed(ctx, token.ID)
	if err != nil {
		return fmt.Errorf("marking token used: %w", err)
	}
	if affected == 0 {
		return ErrTokenUsed
	}

	if err := qtx.UpdateUserPassword(ctx, token.UserID, passwordHash); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing password reset: %w", err)
	}
	return nil
}
