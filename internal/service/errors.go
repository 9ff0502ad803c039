// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the application's business operations:
// credential handling, article and comment mutations, and the cascade
// delete orchestrator. Handlers translate the sentinel errors declared
// here into HTTP statuses.
package service

import "errors"

// Sentinel errors forming the failure taxonomy. Wrapped errors carry
// operation context; handlers match with errors.Is.
var (
	// ErrNotFound means a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the actor is authenticated but not authorized.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized means the credential is missing, invalid, or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrEmailTaken means the email uniquely identifies another account.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials covers both unknown account and wrong password,
	// deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTokenUsed means the reset token was already redeemed.
	ErrTokenUsed = errors.New("token already used")
	// ErrTokenExpired means the reset token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)
