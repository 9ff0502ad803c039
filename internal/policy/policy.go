// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package policy centralizes authorization decisions for mutating
// operations. Every function is a pure predicate over the acting user and
// the target entity; callers translate a false result into a 403.
package policy

import "github.com/olegiv/teamkb-go/internal/model"

// CanModifyArticle reports whether the actor may update or delete the
// article: the article's author or any admin.
func CanModifyArticle(actor *model.User, article *model.Article) bool {
	if actor == nil || article == nil {
		return false
	}
	return actor.ID == article.AuthorID || actor.IsAdmin()
}

// CanModifyComment reports whether the actor may update or delete the
// comment. Article authors may moderate comments on their own articles, so
// the parent article participates in the decision.
func CanModifyComment(actor *model.User, comment *model.Comment, parent *model.Article) bool {
	if actor == nil || comment == nil {
		return false
	}
	if actor.ID == comment.AuthorID || actor.IsAdmin() {
		return true
	}
	return parent != nil && actor.ID == parent.AuthorID
}

// CanModifyUser reports whether the actor may create, delete, or change the
// role of user accounts. Only admins manage users.
func CanModifyUser(actor *model.User) bool {
	return actor != nil && actor.IsAdmin()
}
