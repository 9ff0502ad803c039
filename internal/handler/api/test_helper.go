// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/teamkb-go/internal/auth"
	"github.com/olegiv/teamkb-go/internal/mail"
	"github.com/olegiv/teamkb-go/internal/middleware"
	"github.com/olegiv/teamkb-go/internal/model"
	"github.com/olegiv/teamkb-go/internal/service"
	"github.com/olegiv/teamkb-go/internal/testutil"
)

// testAPI bundles everything api tests need.
type testAPI struct {
	db          *sql.DB
	handler     *Handler
	router      http.Handler
	tokens      *auth.TokenManager
	credentials *service.CredentialService
}

// newTestAPI creates a migrated database, a handler, and a router wired
// the same way as the server entrypoint.
func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	tokens := auth.NewTokenManager([]byte("test-secret-key-thats-long-enough"), 15*time.Minute, 7*24*time.Hour)
	credentials := service.NewCredentialService(db, tokens, mail.New(mail.Config{}), "http://localhost:3001")
	handler := NewHandler(db, tokens, credentials)

	r := chi.NewRouter()

	r.Get("/health", handler.Health)
	r.Get("/health/live", handler.Liveness)
	r.Get("/health/ready", handler.Readiness)

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(10, 20))
		r.Post("/register", handler.Register)
		r.Post("/login", handler.Login)
		r.Post("/refresh", handler.Refresh)
		r.Post("/forgot-password", handler.ForgotPassword)
		r.Post("/reset-password", handler.ResetPassword)
		r.Get("/check-reset-token", handler.CheckResetToken)
		r.Get("/verify-email", handler.VerifyEmail)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))
			r.Post("/logout", handler.Logout)
			r.Get("/me", handler.Me)
		})
	})

	r.Route("/knowledge", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(tokens))
			r.Get("/articles", handler.ListArticles)
			r.Get("/articles/{id}", handler.GetArticle)
			r.Get("/articles/{id}/comments", handler.ListComments)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(tokens))
			r.Post("/articles", handler.CreateArticle)
			r.Patch("/articles/{id}", handler.UpdateArticle)
			r.Delete("/articles/{id}", handler.DeleteArticle)
			r.Post("/comments", handler.CreateComment)
			r.Patch("/comments/{id}", handler.UpdateComment)
			r.Delete("/comments/{id}", handler.DeleteComment)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(tokens))
		r.Use(middleware.RequireAdmin())
		r.Get("/users", handler.ListUsers)
		r.Post("/users", handler.CreateUser)
		r.Patch("/users/{id}/role", handler.ChangeUserRole)
		r.Delete("/users/{id}", handler.DeleteUser)
	})

	return &testAPI{
		db:          db,
		handler:     handler,
		router:      r,
		tokens:      tokens,
		credentials: credentials,
	}
}

// register creates an account directly through the credential service.
func (a *testAPI) register(t *testing.T, email, password, name string) model.User {
	t.Helper()
	user, err := a.credentials.Register(t.Context(), email, password, name)
	if err != nil {
		t.Fatalf("registering %s: %v", email, err)
	}
	return user
}

// registerAdmin creates an account and promotes it to admin.
func (a *testAPI) registerAdmin(t *testing.T, email, password string) model.User {
	t.Helper()
	user := a.register(t, email, password, "Admin")
	if _, err := a.db.Exec(`UPDATE users SET role = ? WHERE id = ?`, model.RoleAdmin, user.ID); err != nil {
		t.Fatalf("promoting %s: %v", email, err)
	}
	user.Role = model.RoleAdmin
	return user
}

// accessToken issues an access token for the user.
func (a *testAPI) accessToken(t *testing.T, user model.User) string {
	t.Helper()
	token, err := a.tokens.IssueAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		t.Fatalf("issuing access token: %v", err)
	}
	return token
}

// do sends a request through the router. An empty token omits the
// Authorization header.
func (a *testAPI) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// dataResponse is a generic wrapper for API responses with a "data" field.
type dataResponse[T any] struct {
	Data T `json:"data"`
}

// unmarshalData unmarshals a JSON response body into the specified type.
func unmarshalData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp dataResponse[T]
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", w.Body.String(), err)
	}
	return resp.Data
}

// unmarshalError unmarshals a JSON error response.
func unmarshalError(t *testing.T, w *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal error response %q: %v", w.Body.String(), err)
	}
	return resp.Error
}
