// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain constants and value types shared by the
// storage and service layers.
package model

// Comment modes of a content item.
const (
	CommentModeDisabled  = "disabled"
	CommentModeReadOnly  = "read_only"
	CommentModeReadWrite = "read_write"
)

// TeaserMaxChars is the number of characters a teaser is cut from.
const TeaserMaxChars = 600

// IsValidCommentMode reports whether mode is one of the known comment modes.
func IsValidCommentMode(mode string) bool {
	switch mode {
	case CommentModeDisabled, CommentModeReadOnly, CommentModeReadWrite:
		return true
	default:
		return false
	}
}

// CommentsVisible reports whether comments of an item in this mode are shown at all.
func CommentsVisible(mode string) bool {
	return mode == CommentModeReadOnly || mode == CommentModeReadWrite
}
