// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package mail sends transactional email. When SMTP is not configured the
// message content is logged instead, which keeps password reset usable in
// development.
package mail

import (
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"
)

// Config holds SMTP settings. An empty Host disables SMTP delivery.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer sends email over SMTP, falling back to logging when unconfigured.
type Mailer struct {
	cfg Config
}

// New creates a Mailer.
func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// Enabled reports whether SMTP delivery is configured.
func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// SendPasswordReset delivers the reset link to the user. The raw secret is
// embedded in the URL and never logged when SMTP is enabled.
func (m *Mailer) SendPasswordReset(to, name, resetURL string) error {
	if !m.Enabled() {
		slog.Info("smtp not configured, logging password reset link",
			"to", to,
			"url", resetURL,
		)
		return nil
	}

	if name == "" {
		name = "there"
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Password reset for TeamKB")
	msg.SetBody("text/html", fmt.Sprintf(
		`<p>Hi %s,</p>
<p>You requested a password reset for your TeamKB account. Click the link
below to reset your password. The link is valid for 1 hour and can only be
used once.</p>
<p><a href=%q>Reset password</a></p>
<p>If you did not request this, ignore this email.</p>`, name, resetURL))

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending reset email: %w", err)
	}
	return nil
}
