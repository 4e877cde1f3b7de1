// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "testing"

func TestCommentModes(t *testing.T) {
	tests := []struct {
		mode    string
		valid   bool
		visible bool
	}{
		{CommentModeDisabled, true, false},
		{CommentModeReadOnly, true, true},
		{CommentModeReadWrite, true, true},
		{"", false, false},
		{"open", false, false},
		{"READ_WRITE", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			if got := IsValidCommentMode(tt.mode); got != tt.valid {
				t.Errorf("IsValidCommentMode(%q) = %v, want %v", tt.mode, got, tt.valid)
			}
			if got := CommentsVisible(tt.mode); got != tt.visible {
				t.Errorf("CommentsVisible(%q) = %v, want %v", tt.mode, got, tt.visible)
			}
		})
	}
}

func TestIsValidCommentStatus(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{CommentStatusPublished, true},
		{CommentStatusAwaitingModeration, true},
		{"", false},
		{"spam", false},
	}

	for _, tt := range tests {
		if got := IsValidCommentStatus(tt.status); got != tt.want {
			t.Errorf("IsValidCommentStatus(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}
