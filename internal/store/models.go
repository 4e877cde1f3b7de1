// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

type ContentType struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Help        string `json:"help"`
}

type Content struct {
	ID                int64         `json:"id"`
	CurrentRevisionID sql.NullInt64 `json:"current_revision_id"`
	Type              string        `json:"type"`
	OwnerID           int64         `json:"owner_id"`
	Published         bool          `json:"published"`
	CreatedAt         time.Time     `json:"created_at"`
	ChangedAt         time.Time     `json:"changed_at"`
	Promoted          bool          `json:"promoted"`
	Sticky            bool          `json:"sticky"`
	CommentMode       string        `json:"comment_mode"`
}

type ContentRevision struct {
	ID        int64     `json:"id"`
	ContentID int64     `json:"content_id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Teaser    string    `json:"teaser"`
	Log       string    `json:"log"`
	CreatedAt time.Time `json:"created_at"`
}

type FieldDefinition struct {
	FieldName   string `json:"field_name"`
	ValueKind   string `json:"value_kind"`
	Cardinality int64  `json:"cardinality"`
	Settings    string `json:"settings"`
}

type FieldInstance struct {
	FieldName     string `json:"field_name"`
	ContentType   string `json:"content_type"`
	Label         string `json:"label"`
	Description   string `json:"description"`
	Required      bool   `json:"required"`
	DisplayWeight int64  `json:"display_weight"`
	WidgetHint    string `json:"widget_hint"`
}

type FieldValue struct {
	ContentID  int64           `json:"content_id"`
	RevisionID int64           `json:"revision_id"`
	FieldName  string          `json:"field_name"`
	Delta      int64           `json:"delta"`
	ValueText  sql.NullString  `json:"value_text"`
	ValueInt   sql.NullInt64   `json:"value_int"`
	ValueFloat sql.NullFloat64 `json:"value_float"`
}

type Comment struct {
	ID          int64          `json:"id"`
	ContentID   int64          `json:"content_id"`
	ParentID    int64          `json:"parent_id"`
	AuthorID    int64          `json:"author_id"`
	Subject     string         `json:"subject"`
	Body        string         `json:"body"`
	OriginHost  string         `json:"origin_host"`
	CreatedAt   time.Time      `json:"created_at"`
	ChangedAt   time.Time      `json:"changed_at"`
	Status      string         `json:"status"`
	ThreadPath  string         `json:"thread_path"`
	DisplayName sql.NullString `json:"display_name"`
	Email       sql.NullString `json:"email"`
	Homepage    sql.NullString `json:"homepage"`
}

type ThreadStat struct {
	ContentID                int64        `json:"content_id"`
	LastCommentAt            sql.NullTime `json:"last_comment_at"`
	LastCommentAuthorDisplay string       `json:"last_comment_author_display"`
	LastCommentAuthorID      int64        `json:"last_comment_author_id"`
	CommentCount             int64        `json:"comment_count"`
}

type Event struct {
	ID        int64     `json:"id"`
	Level     string    `json:"level"`
	Category  string    `json:"category"`
	Message   string    `json:"message"`
	Metadata  string    `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}
