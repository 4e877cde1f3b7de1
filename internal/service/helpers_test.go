// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/olegiv/ocms-content/internal/cache"
	"github.com/olegiv/ocms-content/internal/testutil"
)

type testEnv struct {
	db       *sql.DB
	clock    *testutil.StepClock
	fields   *FieldService
	content  *ContentService
	comments *CommentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithSchema(t, nil)
}

func newTestEnvWithSchema(t *testing.T, schema *cache.SchemaCache) *testEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLoggerSilent()
	clock := testutil.NewStepClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	fields := NewFieldService(db, schema, logger)

	return &testEnv{
		db:       db,
		clock:    clock,
		fields:   fields,
		content:  NewContentService(db, fields, clock, logger),
		comments: NewCommentService(db, clock, logger, DefaultThreadPathRetries),
	}
}

// seedType creates the "article" content type with a single integer field
// "rating", a repeatable text field "tags" and a boolean "featured".
func (e *testEnv) seedType(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	if _, err := e.content.CreateContentType(ctx, ContentTypeInput{Type: "article", Name: "Article"}); err != nil {
		t.Fatalf("CreateContentType: %v", err)
	}

	defs := []DefinitionInput{
		{Name: "rating", Kind: "integer", Cardinality: 1},
		{Name: "tags", Kind: "text", Cardinality: 0},
		{Name: "featured", Kind: "boolean", Cardinality: 1},
		{Name: "price", Kind: "float", Cardinality: 1},
	}
	for _, d := range defs {
		if _, err := e.fields.DefineField(ctx, d); err != nil {
			t.Fatalf("DefineField(%s): %v", d.Name, err)
		}
	}

	instances := []InstanceInput{
		{FieldName: "rating", ContentType: "article", Label: "Rating", DisplayWeight: 1},
		{FieldName: "tags", ContentType: "article", Label: "Tags", DisplayWeight: 2},
		{FieldName: "featured", ContentType: "article", Label: "Featured", DisplayWeight: 0},
		{FieldName: "price", ContentType: "article", Label: "Price", DisplayWeight: 1},
	}
	for _, in := range instances {
		if _, err := e.fields.AttachField(ctx, in); err != nil {
			t.Fatalf("AttachField(%s): %v", in.FieldName, err)
		}
	}
}

func (e *testEnv) createArticle(t *testing.T, title string, fields map[string]string) (int64, int64) {
	t.Helper()
	contentID, revisionID, err := e.content.CreateContent(context.Background(), ContentInput{
		Type:      "article",
		Title:     title,
		Body:      "Body of " + title,
		AuthorID:  1,
		Published: true,
		Fields:    fields,
	})
	if err != nil {
		t.Fatalf("CreateContent(%s): %v", title, err)
	}
	return contentID, revisionID
}

func (e *testEnv) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	if err := e.db.QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func (e *testEnv) postComment(t *testing.T, contentID, parentID int64, body string) int64 {
	t.Helper()
	id, err := e.comments.CreateComment(context.Background(), CommentInput{
		ContentID: contentID,
		ParentID:  parentID,
		AuthorID:  7,
		Body:      body,
	})
	if err != nil {
		t.Fatalf("CreateComment(%q): %v", body, err)
	}
	return id
}
