// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// ResetSecretBytes is the entropy of a raw password-reset secret.
const ResetSecretBytes = 24

// NewResetSecret generates a high-entropy single-use reset secret,
// hex-encoded for safe embedding in a URL.
func NewResetSecret() (string, error) {
	buf := make([]byte, ResetSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating reset secret: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// HashSecret returns the hex-encoded SHA-256 digest of a high-entropy
// secret. Refresh tokens and reset secrets are random values, so a fast
// unsalted hash is sufficient; slow password hashes are reserved for
// low-entropy user passwords.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// SecretHashEquals compares a raw secret against a stored hash in
// constant time.
func SecretHashEquals(secret, storedHash string) bool {
	h := HashSecret(secret)
	return subtle.ConstantTimeCompare([]byte(h), []byte(storedHash)) == 1
}
