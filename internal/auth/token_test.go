// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"testing"
	"time"

	"github.com/olegiv/teamkb-go/internal/model"
)

func testTokenManager() *TokenManager {
	return NewTokenManager([]byte("test-secret-key-thats-long-enough"), 15*time.Minute, 7*24*time.Hour)
}

func TestIssueAndVerifyAccessToken(t *testing.T) {
	tm := testTokenManager()

	token, err := tm.IssueAccessToken(42, "user@example.com", model.RoleUser)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	claims, err := tm.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken error: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("Email = %q, want %q", claims.Email, "user@example.com")
	}
	if claims.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", claims.Role, model.RoleUser)
	}
}

func TestIssueRefreshToken_Unique(t *testing.T) {
	tm := testTokenManager()

	t1, err := tm.IssueRefreshToken(42)
	if err != nil {
		t.Fatalf("IssueRefreshToken error: %v", err)
	}
	t2, err := tm.IssueRefreshToken(42)
	if err != nil {
		t.Fatalf("IssueRefreshToken error: %v", err)
	}
	if t1 == t2 {
		t.Fatal("two refresh tokens for the same user should differ")
	}

	claims, err := tm.VerifyToken(t1)
	if err != nil {
		t.Fatalf("VerifyToken error: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("UserID = %d, want 42", claims.UserID)
	}
	if claims.ID == "" {
		t.Error("refresh token should carry a jti")
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	tm := testTokenManager()
	other := NewTokenManager([]byte("a-completely-different-signing-key"), 15*time.Minute, time.Hour)

	token, err := tm.IssueAccessToken(1, "user@example.com", model.RoleUser)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	if _, err := other.VerifyToken(token); err != ErrInvalidToken {
		t.Errorf("VerifyToken with wrong secret = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	tm := NewTokenManager([]byte("test-secret-key-thats-long-enough"), -time.Minute, time.Hour)

	token, err := tm.IssueAccessToken(1, "user@example.com", model.RoleUser)
	if err != nil {
		t.Fatalf("IssueAccessToken error: %v", err)
	}

	if _, err := tm.VerifyToken(token); err != ErrInvalidToken {
		t.Errorf("VerifyToken on expired token = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	tm := testTokenManager()

	if _, err := tm.VerifyToken("not.a.token"); err != ErrInvalidToken {
		t.Errorf("VerifyToken on garbage = %v, want ErrInvalidToken", err)
	}
	if _, err := tm.VerifyToken(""); err != ErrInvalidToken {
		t.Errorf("VerifyToken on empty string = %v, want ErrInvalidToken", err)
	}
}
