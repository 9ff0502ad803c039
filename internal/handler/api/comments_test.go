// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestCreateCommentEndpoint(t *testing.T) {
	a := newTestAPI(t)
	user := a.register(t, "alice@example.com", "password123", "Alice")
	token := a.accessToken(t, user)
	article := createArticle(t, a, token, "Hello", "body")

	comment := createComment(t, a, token, article.ID, "first!")
	if comment.ArticleID != article.ID || comment.AuthorID != user.ID {
		t.Errorf("comment = %+v", comment)
	}

	// Commenting requires authentication
	w := a.do(t, http.MethodPost, "/knowledge/comments", "",
		fmt.Sprintf(`{"article_id":%d,"body":"anon"}`, article.ID))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", w.Code)
	}

	// Unknown parent article
	w = a.do(t, http.MethodPost, "/knowledge/comments", token, `{"article_id":9999,"body":"void"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing article status = %d, want 404", w.Code)
	}
}

func TestCreateCommentEndpoint_Validation(t *testing.T) {
	a := newTestAPI(t)
	user := a.register(t, "alice@example.com", "password123", "Alice")
	token := a.accessToken(t, user)
	article := createArticle(t, a, token, "Hello", "body")

	longBody := strings.Repeat("x", 4001)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", fmt.Sprintf(`{"article_id":%d,"body":""}`, article.ID)},
		{"whitespace body", fmt.Sprintf(`{"article_id":%d,"body":"   "}`, article.ID)},
		{"body too long", fmt.Sprintf(`{"article_id":%d,"body":%q}`, article.ID, longBody)},
		{"missing article id", `{"body":"hello"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(t, http.MethodPost, "/knowledge/comments", token, tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestListCommentsEndpoint(t *testing.T) {
	a := newTestAPI(t)
	user := a.register(t, "alice@example.com", "password123", "Alice")
	token := a.accessToken(t, user)
	article := createArticle(t, a, token, "Hello", "body")

	createComment(t, a, token, article.ID, "one")
	createComment(t, a, token, article.ID, "two")

	w := a.do(t, http.MethodGet, fmt.Sprintf("/knowledge/articles/%d/comments", article.ID), "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	comments := unmarshalData[[]CommentResponse](t, w)
	if len(comments) != 2 {
		t.Fatalf("got %d comments, want 2", len(comments))
	}
	// Oldest first
	if comments[0].Body != "one" || comments[1].Body != "two" {
		t.Errorf("unexpected ordering: %q, %q", comments[0].Body, comments[1].Body)
	}
	if comments[0].Author == nil || comments[0].Author.Name != "Alice" {
		t.Error("comment author info missing")
	}

	w = a.do(t, http.MethodGet, "/knowledge/articles/9999/comments", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing article status = %d, want 404", w.Code)
	}
}

func TestUpdateCommentEndpoint(t *testing.T) {
	a := newTestAPI(t)
	articleAuthor := a.register(t, "author@example.com", "password123", "Author")
	commenter := a.register(t, "commenter@example.com", "password123", "Commenter")
	stranger := a.register(t, "stranger@example.com", "password123", "Stranger")

	authorToken := a.accessToken(t, articleAuthor)
	commenterToken := a.accessToken(t, commenter)
	strangerToken := a.accessToken(t, stranger)

	article := createArticle(t, a, authorToken, "Hello", "body")
	comment := createComment(t, a, commenterToken, article.ID, "original")
	path := fmt.Sprintf("/knowledge/comments/%d", comment.ID)

	// The comment's author edits it
	w := a.do(t, http.MethodPatch, path, commenterToken, `{"body":"edited"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("author edit status = %d: %s", w.Code, w.Body.String())
	}
	if got := unmarshalData[CommentResponse](t, w); got.Body != "edited" {
		t.Errorf("body = %q, want %q", got.Body, "edited")
	}

	// The article's author moderates comments on their own article
	w = a.do(t, http.MethodPatch, path, authorToken, `{"body":"moderated"}`)
	if w.Code != http.StatusOK {
		t.Errorf("article author edit status = %d, want 200", w.Code)
	}

	// An unrelated user may not
	w = a.do(t, http.MethodPatch, path, strangerToken, `{"body":"vandalized"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("stranger edit status = %d, want 403", w.Code)
	}

	w = a.do(t, http.MethodPatch, "/knowledge/comments/9999", commenterToken, `{"body":"ghost"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing comment status = %d, want 404", w.Code)
	}
}

func TestDeleteCommentEndpoint(t *testing.T) {
	a := newTestAPI(t)
	articleAuthor := a.register(t, "author@example.com", "password123", "Author")
	commenter := a.register(t, "commenter@example.com", "password123", "Commenter")
	stranger := a.register(t, "stranger@example.com", "password123", "Stranger")

	authorToken := a.accessToken(t, articleAuthor)
	commenterToken := a.accessToken(t, commenter)
	strangerToken := a.accessToken(t, stranger)

	article := createArticle(t, a, authorToken, "Hello", "body")
	c1 := createComment(t, a, commenterToken, article.ID, "one")
	c2 := createComment(t, a, commenterToken, article.ID, "two")

	w := a.do(t, http.MethodDelete, fmt.Sprintf("/knowledge/comments/%d", c1.ID), strangerToken, "")
	if w.Code != http.StatusForbidden {
		t.Errorf("stranger delete status = %d, want 403", w.Code)
	}

	w = a.do(t, http.MethodDelete, fmt.Sprintf("/knowledge/comments/%d", c1.ID), commenterToken, "")
	if w.Code != http.StatusOK {
		t.Errorf("author delete status = %d, want 200", w.Code)
	}
	w = a.do(t, http.MethodDelete, fmt.Sprintf("/knowledge/comments/%d", c2.ID), authorToken, "")
	if w.Code != http.StatusOK {
		t.Errorf("article author delete status = %d, want 200", w.Code)
	}

	w = a.do(t, http.MethodDelete, fmt.Sprintf("/knowledge/comments/%d", c1.ID), commenterToken, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d, want 404", w.Code)
	}
}
