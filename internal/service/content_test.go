// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/olegiv/ocms-content/internal/model"
)

func TestCreateContentType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ct, err := env.content.CreateContentType(ctx, ContentTypeInput{Type: "story", Name: "Story", Description: "Short posts"})
	if err != nil {
		t.Fatalf("CreateContentType: %v", err)
	}
	if ct.Type != "story" || ct.Name != "Story" {
		t.Errorf("unexpected type: %+v", ct)
	}

	if _, err := env.content.CreateContentType(ctx, ContentTypeInput{Type: "story", Name: "Again"}); !errors.Is(err, ErrValidation) {
		t.Errorf("duplicate type: got %v, want ErrValidation", err)
	}
	if _, err := env.content.CreateContentType(ctx, ContentTypeInput{Type: "Bad Type", Name: "X"}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad machine name: got %v, want ErrValidation", err)
	}
	if _, err := env.content.CreateContentType(ctx, ContentTypeInput{Type: "page", Name: ""}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty name: got %v, want ErrValidation", err)
	}

	types, err := env.content.ListContentTypes(ctx)
	if err != nil {
		t.Fatalf("ListContentTypes: %v", err)
	}
	if len(types) != 1 {
		t.Errorf("got %d types, want 1", len(types))
	}

	if _, err := env.content.GetContentType(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetContentType(missing): got %v, want ErrNotFound", err)
	}

	derived, err := env.content.CreateContentType(ctx, ContentTypeInput{Name: "Blog Post"})
	if err != nil {
		t.Fatalf("CreateContentType without machine name: %v", err)
	}
	if derived.Type != "blog_post" {
		t.Errorf("derived type = %q, want %q", derived.Type, "blog_post")
	}
	if _, err := env.content.CreateContentType(ctx, ContentTypeInput{Name: "日本語"}); !errors.Is(err, ErrValidation) {
		t.Errorf("underivable machine name: got %v, want ErrValidation", err)
	}
}

func TestCreateContent(t *testing.T) {
	env := newTestEnv(t)
	env.seedType(t)
	ctx := context.Background()

	contentID, revisionID := env.createArticle(t, "Hello", map[string]string{"field_rating": "4"})

	got, err := env.content.GetContent(ctx, contentID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if !got.Content.CurrentRevisionID.Valid || got.Content.CurrentRevisionID.Int64 != revisionID {
		t.Errorf("current revision = %v, want %d", got.Content.CurrentRevisionID, revisionID)
	}
	if got.Revision.ContentID != contentID {
		t.Errorf("revision content id = %d, want %d", got.Revision.ContentID, contentID)
	}
	if got.Revision.Title != "Hello" || got.Revision.Teaser != "Body of Hello" {
		t.Errorf("unexpected revision: %+v", got.Revision)
	}
	if got.Content.CommentMode != model.CommentModeReadWrite {
		t.Errorf("comment mode = %q, want default read_write", got.Content.CommentMode)
	}
	if len(got.Fields["rating"]) != 1 || got.Fields["rating"][0].Value.Int != 4 {
		t.Errorf("rating = %+v", got.Fields["rating"])
	}

	if n := env.count(t, "SELECT COUNT(*) FROM thread_stats WHERE content_id = ? AND comment_count = 0", contentID); n != 1 {
		t.Errorf("thread_stats rows = %d, want 1", n)
	}
}

func TestCreateContent_ExcerptSource(t *testing.T) {
	env := newTestEnv(t)
	env.seedType(t)
	ctx := context.Background()

	contentID, _, err := env.content.CreateContent(ctx, ContentInput{
		Type:          "article",
		Title:         "Teaser",
		Body:          "Full body.\n\nMore.",
		ExcerptSource: "Summary first.\n\nIgnored.",
	})
	if err != nil {
		t.Fatalf("CreateContent: %v", err)
	}
	got, err := env.content.GetContent(ctx, contentID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if got.Revision.Teaser != "Summary first." {
		t.Errorf("teaser = %q", got.Revision.Teaser)
	}
	if got.Revision.Body != "Full body.\n\nMore." {
		t.Errorf("body = %q", got.Revision.Body)
	}
}

func TestCreateContent_ValidationHasNoSideEffects(t *testing.T) {
	env := newTestEnv(t)
	env.seedType(t)
	ctx := context.Background()

	_, err := env.fields.AttachField(ctx, InstanceInput{FieldName: "rating", ContentType: "article", Label: "Rating", Required: true})
	if err != nil {
		t.Fatalf("AttachField: %v", err)
	}

	tests := []struct {
		name  string
		in    ContentInput
		field string
	}{
		{"unknown type", ContentInput{Type: "missing", Title: "x", Fields: map[string]string{"field_rating": "1"}}, "type"},
		{"empty title", ContentInput{Type: "article", Title: "  ", Fields: map[string]string{"field_rating": "1"}}, "title"},
		{"long title", ContentInput{Type: "article", Title: strings.Repeat("t", TitleMaxChars+1), Fields: map[string]string{"field_rating": "1"}}, "title"},
		{"bad comment mode", ContentInput{Type: "article", Title: "x", CommentMode: "open", Fields: map[string]string{"field_rating": "1"}}, "comment_mode"},
		{"required field missing", ContentInput{Type: "article", Title: "x"}, "rating"},
		{"required integer unparsable", ContentInput{Type: "article", Title: "x", Fields: map[string]string{"field_rating": "abc"}}, "rating"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := env.content.CreateContent(ctx, tt.in)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("got %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}

	for _, table := range []string{"content", "content_revision", "field_value", "thread_stats"} {
		if n := env.count(t, "SELECT COUNT(*) FROM "+table); n != 0 {
			t.Errorf("%s has %d rows after rejected creates", table, n)
		}
	}
}

func TestUpdateContent_RevisionHistory(t *testing.T) {
	env := newTestEnv(t)
	env.seedType(t)
	ctx := context.Background()

	contentID, rev1 := env.createArticle(t, "v1", map[string]string{"field_rating": "1", "field_tags_0": "first"})

	rev2, err := env.content.UpdateContent(ctx, contentID, ContentInput{
		Title: "v2", Body: "second", Fields: map[string]string{"field_rating": "2"},
	})
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	rev3, err := env.content.UpdateContent(ctx, contentID, ContentInput{
		Title: "v3", Body: "third", Sticky: true, Fields: map[string]string{"field_rating": "3", "field_tags_0": "third"},
	})
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}

	if rev1 == rev2 || rev2 == rev3 || rev1 == rev3 {
		t.Fatalf("revision ids not distinct: %d %d %d", rev1, rev2, rev3)
	}
	if !(rev1 < rev2 && rev2 < rev3) {
		t.Errorf("revision ids not increasing: %d %d %d", rev1, rev2, rev3)
	}

	head, err := env.content.GetContent(ctx, contentID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if head.Content.CurrentRevisionID.Int64 != rev3 || head.Revision.Title != "v3" {
		t.Errorf("head = %d %q, want %d v3", head.Content.CurrentRevisionID.Int64, head.Revision.Title, rev3)
	}
	if !head.Content.Sticky {
		t.Error("sticky not applied by update")
	}
	if !head.Content.ChangedAt.After(head.Content.CreatedAt) {
		t.Errorf("changed_at %v not after created_at %v", head.Content.ChangedAt, head.Content.CreatedAt)
	}

	first, err := env.fields.LoadValues(ctx, "article", rev1)
	if err != nil {
		t.Fatalf("LoadValues: %v", err)
	}
	if first["rating"][0].Value.Int != 1 || first["tags"][0].Value.Text != "first" {
		t.Errorf("first revision values changed: %+v", first)
	}

	old, err := env.content.GetRevision(ctx, contentID, rev1)
	if err != nil {
		t.Fatalf("GetRevision: %v", err)
	}
	if old.Revision.Title != "v1" || old.Fields["rating"][0].Value.Int != 1 {
		t.Errorf("GetRevision(rev1) = %+v", old)
	}

	revs, err := env.content.ListRevisions(ctx, contentID)
	if err != nil {
		t.Fatalf("ListRevisions: %v", err)
	}
	if len(revs) != 3 || revs[0].ID != rev3 || revs[2].ID != rev1 {
		t.Errorf("ListRevisions order wrong: %+v", revs)
	}
}

func TestUpdateContent_NilFieldsCarryForward(t *testing.T) {
	env := newTestEnv(t)
	env.seedType(t)
	ctx := context.Background()

	contentID, _ := env.createArticle(t, "carry", map[string]string{"field_tags_0": "a", "field_tags_1": "b"})

	rev2, err := env.content.UpdateContent(ctx, contentID, ContentInput{Title: "carry 2", Body: "b"})
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}

	values, err := env.fields.LoadValues(ctx, "article", rev2)
	if err != nil {
		t.Fatalf("LoadValues: %v", err)
	}
	if len(values["tags"]) != 2 || values["tags"][1].Value.Text != "b" {
		t.Errorf("tags not carried forward: %+v", values["tags"])
	}
}

func TestUpdateContent_Errors(t *testing.T) {
	env := newTestEnv(t)
	env.seedType(t)
	ctx := context.Background()

	if _, err := env.content.UpdateContent(ctx, 404, ContentInput{Title: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown content: got %v, want ErrNotFound", err)
	}

	contentID, _ := env.createArticle(t, "keep", nil)
	if _, err := env.content.UpdateContent(ctx, contentID, ContentInput{Title: ""}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty title: got %v, want ErrValidation", err)
	}
	if n := env.count(t, "SELECT COUNT(*) FROM content_revision WHERE content_id = ?", contentID); n != 1 {
		t.Errorf("revisions = %d, want 1", n)
	}
}

func TestUpdateContent_CancelledContext(t *testing.T) {
	env := newTestEnv(t)
	env.seedType(t)

	contentID, _ := env.createArticle(t, "cancel", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := env.content.UpdateContent(ctx, contentID, ContentInput{Title: "never"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if n := env.count(t, "SELECT COUNT(*) FROM content_revision WHERE content_id = ?", contentID); n != 1 {
		t.Errorf("revisions = %d, want 1", n)
	}
}

func TestRevertToRevision(t *testing.T) {
	env := newTestEnv(t)
	env.seedType(t)
	ctx := context.Background()

	contentID, rev1 := env.createArticle(t, "original", map[string]string{"field_rating": "1"})
	if _, err := env.content.UpdateContent(ctx, contentID, ContentInput{
		Title: "edited", Body: "edited", Fields: map[string]string{"field_rating": "2"},
	}); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}

	rev3, err := env.content.RevertToRevision(ctx, contentID, rev1, 9)
	if err != nil {
		t.Fatalf("RevertToRevision: %v", err)
	}

	head, err := env.content.GetContent(ctx, contentID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if head.Revision.ID != rev3 || head.Revision.Title != "original" || head.Revision.AuthorID != 9 {
		t.Errorf("head after revert = %+v", head.Revision)
	}
	if !strings.HasPrefix(head.Revision.Log, "Copy of the revision from") {
		t.Errorf("log = %q", head.Revision.Log)
	}
	if head.Fields["rating"][0].Value.Int != 1 {
		t.Errorf("rating after revert = %+v", head.Fields["rating"])
	}
	if n := env.count(t, "SELECT COUNT(*) FROM content_revision WHERE content_id = ?", contentID); n != 3 {
		t.Errorf("revisions = %d, want 3", n)
	}

	other, _ := env.createArticle(t, "other", nil)
	if _, err := env.content.RevertToRevision(ctx, other, rev1, 9); !errors.Is(err, ErrNotFound) {
		t.Errorf("foreign revision: got %v, want ErrNotFound", err)
	}
}

func TestDeleteContent_Cascades(t *testing.T) {
	env := newTestEnv(t)
	env.seedType(t)
	ctx := context.Background()

	contentID, _ := env.createArticle(t, "doomed", map[string]string{"field_tags_0": "x"})
	if _, err := env.content.UpdateContent(ctx, contentID, ContentInput{Title: "doomed 2"}); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	env.postComment(t, contentID, 0, "a comment")
	survivor, _ := env.createArticle(t, "survivor", map[string]string{"field_tags_0": "y"})

	if err := env.content.DeleteContent(ctx, contentID); err != nil {
		t.Fatalf("DeleteContent: %v", err)
	}

	checks := map[string]string{
		"content":          "SELECT COUNT(*) FROM content WHERE id = ?",
		"content_revision": "SELECT COUNT(*) FROM content_revision WHERE content_id = ?",
		"field_value":      "SELECT COUNT(*) FROM field_value WHERE content_id = ?",
		"comment":          "SELECT COUNT(*) FROM comment WHERE content_id = ?",
		"thread_stats":     "SELECT COUNT(*) FROM thread_stats WHERE content_id = ?",
	}
	for table, query := range checks {
		if n := env.count(t, query, contentID); n != 0 {
			t.Errorf("%s: %d rows left", table, n)
		}
	}
	if n := env.count(t, "SELECT COUNT(*) FROM field_value WHERE content_id = ?", survivor); n != 1 {
		t.Errorf("survivor field values = %d, want 1", n)
	}

	if err := env.content.DeleteContent(ctx, contentID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
	if _, err := env.content.GetContent(ctx, contentID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetContent after delete: got %v, want ErrNotFound", err)
	}
}

func TestListFrontPageAndListAll(t *testing.T) {
	env := newTestEnv(t)
	env.seedType(t)
	ctx := context.Background()

	create := func(title string, published, promoted, sticky bool) int64 {
		id, _, err := env.content.CreateContent(ctx, ContentInput{
			Type: "article", Title: title, Published: published, Promoted: promoted, Sticky: sticky,
		})
		if err != nil {
			t.Fatalf("CreateContent(%s): %v", title, err)
		}
		return id
	}

	older := create("older", true, true, false)
	sticky := create("sticky", true, true, true)
	newer := create("newer", true, true, false)
	create("draft", false, true, false)
	create("not promoted", true, false, false)

	front, err := env.content.ListFrontPage(ctx, 0)
	if err != nil {
		t.Fatalf("ListFrontPage: %v", err)
	}
	var got []int64
	for _, item := range front {
		got = append(got, item.Content.ID)
	}
	want := []int64{sticky, newer, older}
	if len(got) != len(want) {
		t.Fatalf("front page = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("front page = %v, want %v", got, want)
			break
		}
	}

	if _, err := env.content.UpdateContent(ctx, older, ContentInput{Title: "older edited"}); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	all, err := env.content.ListAll(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 || all[0].Content.ID != older || all[0].Revision.Title != "older edited" {
		t.Errorf("ListAll first page = %+v", all)
	}
}

func TestSetPublishedAndCommentMode(t *testing.T) {
	env := newTestEnv(t)
	env.seedType(t)
	ctx := context.Background()

	contentID, _ := env.createArticle(t, "flags", nil)

	if err := env.content.SetPublished(ctx, contentID, false); err != nil {
		t.Fatalf("SetPublished: %v", err)
	}
	if err := env.content.SetCommentMode(ctx, contentID, model.CommentModeDisabled); err != nil {
		t.Fatalf("SetCommentMode: %v", err)
	}

	got, err := env.content.GetContent(ctx, contentID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if got.Content.Published || got.Content.CommentMode != model.CommentModeDisabled {
		t.Errorf("flags not applied: %+v", got.Content)
	}
	if n := env.count(t, "SELECT COUNT(*) FROM content_revision WHERE content_id = ?", contentID); n != 1 {
		t.Errorf("flag changes created revisions: %d", n)
	}

	if err := env.content.SetCommentMode(ctx, contentID, "open"); !errors.Is(err, ErrValidation) {
		t.Errorf("bad mode: got %v, want ErrValidation", err)
	}
	if err := env.content.SetPublished(ctx, 404, true); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetPublished(404): got %v, want ErrNotFound", err)
	}
	if err := env.content.SetCommentMode(ctx, 404, model.CommentModeReadOnly); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetCommentMode(404): got %v, want ErrNotFound", err)
	}
}
