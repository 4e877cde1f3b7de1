// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Comment statuses. The status is decided once at creation by the moderation policy.
const (
	CommentStatusPublished          = "published"
	CommentStatusAwaitingModeration = "awaiting_moderation"
)

// AnonymousAuthorID is the author id of comments posted without an account.
const AnonymousAuthorID int64 = 0

// TopLevelParentID is the parent id of comments that are not replies.
const TopLevelParentID int64 = 0

// SubjectMaxChars is the maximum length in characters of a derived comment subject.
const SubjectMaxChars = 60

// IsValidCommentStatus reports whether status is a known comment status.
func IsValidCommentStatus(status string) bool {
	return status == CommentStatusPublished || status == CommentStatusAwaitingModeration
}
