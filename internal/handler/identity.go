// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"strconv"
	"strings"
)

// Identity headers trusted by HeaderIdentity. They are expected to be set by
// an authenticating reverse proxy and stripped from client requests.
const (
	HeaderAuthorID        = "X-Author-ID"
	HeaderAuthorName      = "X-Author-Name"
	HeaderCommentApproved = "X-Comment-Approved"
	HeaderModerator       = "X-Moderator"
)

// Identity is the caller as seen by the API.
type Identity struct {
	// AuthorID is 0 for anonymous callers.
	AuthorID int64
	// Name is the display name; anonymous comments require one.
	Name string
	// SkipModeration publishes comments immediately when set.
	SkipModeration bool
	// Moderator may see comments awaiting moderation.
	Moderator bool
}

// IdentityProvider resolves the caller of a request.
type IdentityProvider interface {
	Identify(r *http.Request) Identity
}

// HeaderIdentity reads the caller from upstream headers. A missing or
// malformed author id is treated as anonymous and comments are approved
// unless X-Comment-Approved is false.
type HeaderIdentity struct{}

// Identify implements IdentityProvider.
func (HeaderIdentity) Identify(r *http.Request) Identity {
	id := Identity{SkipModeration: true}
	if v := strings.TrimSpace(r.Header.Get(HeaderAuthorID)); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			id.AuthorID = n
		}
	}
	id.Name = strings.TrimSpace(r.Header.Get(HeaderAuthorName))
	if v := r.Header.Get(HeaderCommentApproved); v != "" {
		if approved, err := strconv.ParseBool(v); err == nil {
			id.SkipModeration = approved
		}
	}
	if v := r.Header.Get(HeaderModerator); v != "" {
		id.Moderator, _ = strconv.ParseBool(v)
	}
	return id
}
