// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the content revision store, the dynamic field
// engine and the comment thread engine on top of the store package.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/ocms-content/internal/model"
	"github.com/olegiv/ocms-content/internal/store"
	"github.com/olegiv/ocms-content/internal/util"
)

// TitleMaxChars is the longest accepted revision title.
const TitleMaxChars = 255

// Default page sizes for listings.
const (
	DefaultFrontPageLimit = 10
	DefaultListLimit      = 50
)

// ContentService owns content heads and their immutable revisions.
type ContentService struct {
	db      *sql.DB
	queries *store.Queries
	fields  *FieldService
	clock   Clock
	logger  *slog.Logger
}

// NewContentService creates a new ContentService.
func NewContentService(db *sql.DB, fields *FieldService, clock Clock, logger *slog.Logger) *ContentService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ContentService{
		db:      db,
		queries: store.New(db),
		fields:  fields,
		clock:   clock,
		logger:  logger,
	}
}

// ContentInput carries the editable parts of a content item.
//
// Type, Published and CommentMode are read on create only. ExcerptSource,
// when set, replaces Body as the source of the teaser. A nil Fields map on
// update carries the previous revision's field values forward; on create
// it is treated as empty input.
type ContentInput struct {
	Type          string
	Title         string
	Body          string
	ExcerptSource string
	AuthorID      int64
	Promoted      bool
	Sticky        bool
	Published     bool
	CommentMode   string
	Log           string
	Fields        map[string]string
}

// ContentTypeInput describes a new content type.
type ContentTypeInput struct {
	Type        string
	Name        string
	Description string
	Help        string
}

// ContentDetail is a content head together with one of its revisions and
// that revision's field values.
type ContentDetail struct {
	Content  store.Content                 `json:"content"`
	Revision store.ContentRevision         `json:"revision"`
	Fields   map[string][]model.FieldValue `json:"fields"`
}

// CreateContentType registers a content type that content and field
// instances can reference.
func (s *ContentService) CreateContentType(ctx context.Context, in ContentTypeInput) (store.ContentType, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return store.ContentType{}, validationErr("name", "is required")
	}
	typ := strings.TrimSpace(in.Type)
	if typ == "" {
		typ = util.MachineName(name)
	}
	if !util.IsValidMachineName(typ) {
		return store.ContentType{}, validationErr("type", "must be lower-case letters, digits or underscores")
	}

	ct, err := s.queries.CreateContentType(ctx, store.CreateContentTypeParams{
		Type:        typ,
		Name:        name,
		Description: in.Description,
		Help:        in.Help,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return store.ContentType{}, validationErr("type", "content type %q already exists", typ)
		}
		return store.ContentType{}, storageErr("create content type", err)
	}

	s.logger.Info("content type created", "type", typ)
	return ct, nil
}

// GetContentType returns one content type.
func (s *ContentService) GetContentType(ctx context.Context, typ string) (store.ContentType, error) {
	ct, err := s.queries.GetContentType(ctx, typ)
	if err != nil {
		return store.ContentType{}, notFoundOr("get content type", "content type", typ, err)
	}
	return ct, nil
}

// ListContentTypes returns all content types ordered by name.
func (s *ContentService) ListContentTypes(ctx context.Context) ([]store.ContentType, error) {
	types, err := s.queries.ListContentTypes(ctx)
	if err != nil {
		return nil, storageErr("list content types", err)
	}
	return types, nil
}

// CreateContent inserts a content head and its first revision, repoints the
// head at it, creates the empty thread summary and stores the field values,
// all in one transaction.
func (s *ContentService) CreateContent(ctx context.Context, in ContentInput) (contentID, revisionID int64, err error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return 0, 0, err
	}
	mode := in.CommentMode
	if mode == "" {
		mode = model.CommentModeReadWrite
	}
	if !model.IsValidCommentMode(mode) {
		return 0, 0, validationErr("comment_mode", "unknown comment mode %q", mode)
	}

	err = inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		if _, err := q.GetContentType(ctx, in.Type); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return validationErr("type", "unknown content type %q", in.Type)
			}
			return storageErr("create content", err)
		}

		fields, err := s.fields.fieldsFor(ctx, q, in.Type)
		if err != nil {
			return err
		}
		if err := validateRequired(fields, in.Fields); err != nil {
			return err
		}

		now := s.clock.Now()
		content, err := q.CreateContent(ctx, store.CreateContentParams{
			Type:        in.Type,
			OwnerID:     in.AuthorID,
			Published:   in.Published,
			CreatedAt:   now,
			ChangedAt:   now,
			Promoted:    in.Promoted,
			Sticky:      in.Sticky,
			CommentMode: mode,
		})
		if err != nil {
			return storageErr("create content", err)
		}

		rev, err := s.insertRevision(ctx, q, content.ID, title, in, now)
		if err != nil {
			return err
		}

		if err := s.repoint(ctx, q, content.ID, rev.ID, in.Promoted, in.Sticky, now); err != nil {
			return err
		}

		if err := q.UpsertThreadStats(ctx, store.UpsertThreadStatsParams{ContentID: content.ID}); err != nil {
			return storageErr("create thread stats", err)
		}

		if err := s.fields.saveValues(ctx, q, content.ID, rev.ID, in.Type, in.Fields); err != nil {
			return err
		}

		contentID, revisionID = content.ID, rev.ID
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	s.logger.Info("content created", "content_id", contentID, "revision_id", revisionID, "type", in.Type)
	return contentID, revisionID, nil
}

// UpdateContent records a new revision for an existing content item and
// repoints the head at it. Earlier revisions are never modified.
func (s *ContentService) UpdateContent(ctx context.Context, contentID int64, in ContentInput) (int64, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return 0, err
	}

	var revisionID int64
	err = inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		content, err := q.GetContent(ctx, contentID)
		if err != nil {
			return notFoundOr("update content", "content", contentID, err)
		}

		if in.Fields != nil {
			fields, err := s.fields.fieldsFor(ctx, q, content.Type)
			if err != nil {
				return err
			}
			if err := validateRequired(fields, in.Fields); err != nil {
				return err
			}
		}

		now := s.clock.Now()
		rev, err := s.insertRevision(ctx, q, contentID, title, in, now)
		if err != nil {
			return err
		}

		if err := s.repoint(ctx, q, contentID, rev.ID, in.Promoted, in.Sticky, now); err != nil {
			return err
		}

		if in.Fields != nil {
			err = s.fields.saveValues(ctx, q, contentID, rev.ID, content.Type, in.Fields)
		} else if content.CurrentRevisionID.Valid {
			err = s.fields.copyValues(ctx, q, contentID, content.CurrentRevisionID.Int64, rev.ID)
		}
		if err != nil {
			return err
		}

		revisionID = rev.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("content updated", "content_id", contentID, "revision_id", revisionID)
	return revisionID, nil
}

// RevertToRevision copies an earlier revision and its field values into a
// new revision and makes it current.
func (s *ContentService) RevertToRevision(ctx context.Context, contentID, revisionID, authorID int64) (int64, error) {
	var newID int64
	err := inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		content, err := q.GetContent(ctx, contentID)
		if err != nil {
			return notFoundOr("revert content", "content", contentID, err)
		}
		old, err := q.GetRevision(ctx, revisionID)
		if err != nil {
			return notFoundOr("revert content", "revision", revisionID, err)
		}
		if old.ContentID != contentID {
			return fmt.Errorf("revision %d of content %d: %w", revisionID, contentID, ErrNotFound)
		}

		now := s.clock.Now()
		rev, err := q.CreateRevision(ctx, store.CreateRevisionParams{
			ContentID: contentID,
			AuthorID:  authorID,
			Title:     old.Title,
			Body:      old.Body,
			Teaser:    old.Teaser,
			Log:       fmt.Sprintf("Copy of the revision from %s.", old.CreatedAt.UTC().Format("2006-01-02 15:04:05")),
			CreatedAt: now,
		})
		if err != nil {
			return storageErr("create revision", err)
		}

		if err := s.repoint(ctx, q, contentID, rev.ID, content.Promoted, content.Sticky, now); err != nil {
			return err
		}
		if err := s.fields.copyValues(ctx, q, contentID, old.ID, rev.ID); err != nil {
			return err
		}

		newID = rev.ID
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("content reverted", "content_id", contentID, "from_revision", revisionID, "revision_id", newID)
	return newID, nil
}

// DeleteContent removes a content item with all of its revisions, field
// values, comments and thread summary.
func (s *ContentService) DeleteContent(ctx context.Context, contentID int64) error {
	err := inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		if _, err := q.GetContent(ctx, contentID); err != nil {
			return notFoundOr("delete content", "content", contentID, err)
		}
		if err := q.DeleteFieldValuesByContent(ctx, contentID); err != nil {
			return storageErr("delete field values", err)
		}
		if err := q.DeleteCommentsByContent(ctx, contentID); err != nil {
			return storageErr("delete comments", err)
		}
		if err := q.DeleteThreadStats(ctx, contentID); err != nil {
			return storageErr("delete thread stats", err)
		}
		if err := q.DeleteRevisionsByContent(ctx, contentID); err != nil {
			return storageErr("delete revisions", err)
		}
		if _, err := q.DeleteContent(ctx, contentID); err != nil {
			return storageErr("delete content", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("content deleted", "content_id", contentID)
	return nil
}

// GetContent returns a content item with its current revision and field values.
func (s *ContentService) GetContent(ctx context.Context, contentID int64) (ContentDetail, error) {
	row, err := s.queries.GetContentWithRevision(ctx, contentID)
	if err != nil {
		return ContentDetail{}, notFoundOr("get content", "content", contentID, err)
	}
	values, err := s.fields.loadValues(ctx, s.queries, row.Content.Type, row.Revision.ID)
	if err != nil {
		return ContentDetail{}, err
	}
	return ContentDetail{Content: row.Content, Revision: row.Revision, Fields: values}, nil
}

// GetRevision returns a content item with one of its revisions, current or
// not, and the field values stored for that revision.
func (s *ContentService) GetRevision(ctx context.Context, contentID, revisionID int64) (ContentDetail, error) {
	content, err := s.queries.GetContent(ctx, contentID)
	if err != nil {
		return ContentDetail{}, notFoundOr("get revision", "content", contentID, err)
	}
	rev, err := s.queries.GetRevision(ctx, revisionID)
	if err != nil {
		return ContentDetail{}, notFoundOr("get revision", "revision", revisionID, err)
	}
	if rev.ContentID != contentID {
		return ContentDetail{}, fmt.Errorf("revision %d of content %d: %w", revisionID, contentID, ErrNotFound)
	}
	values, err := s.fields.loadValues(ctx, s.queries, content.Type, rev.ID)
	if err != nil {
		return ContentDetail{}, err
	}
	return ContentDetail{Content: content, Revision: rev, Fields: values}, nil
}

// ListRevisions returns the revision history of a content item, newest first.
func (s *ContentService) ListRevisions(ctx context.Context, contentID int64) ([]store.ContentRevision, error) {
	if _, err := s.queries.GetContent(ctx, contentID); err != nil {
		return nil, notFoundOr("list revisions", "content", contentID, err)
	}
	revs, err := s.queries.ListRevisionsByContent(ctx, contentID)
	if err != nil {
		return nil, storageErr("list revisions", err)
	}
	return revs, nil
}

// ListFrontPage returns published, promoted content with sticky items first,
// then newest first.
func (s *ContentService) ListFrontPage(ctx context.Context, limit int) ([]store.ContentWithRevision, error) {
	if limit <= 0 {
		limit = DefaultFrontPageLimit
	}
	items, err := s.queries.ListFrontPage(ctx, int64(limit))
	if err != nil {
		return nil, storageErr("list front page", err)
	}
	return items, nil
}

// ListAll returns every content item, most recently changed first.
func (s *ContentService) ListAll(ctx context.Context, limit, offset int) ([]store.ContentWithRevision, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	items, err := s.queries.ListContentByChanged(ctx, store.ListContentByChangedParams{
		Limit:  int64(limit),
		Offset: int64(offset),
	})
	if err != nil {
		return nil, storageErr("list content", err)
	}
	return items, nil
}

// SetPublished changes the published flag without creating a revision.
func (s *ContentService) SetPublished(ctx context.Context, contentID int64, published bool) error {
	n, err := s.queries.SetContentPublished(ctx, store.SetContentPublishedParams{
		Published: published,
		ChangedAt: s.clock.Now(),
		ID:        contentID,
	})
	if err != nil {
		return storageErr("set published", err)
	}
	if n == 0 {
		return fmt.Errorf("content %d: %w", contentID, ErrNotFound)
	}
	s.logger.Info("content publish state changed", "content_id", contentID, "published", published)
	return nil
}

// SetCommentMode changes whether the content item accepts comments.
func (s *ContentService) SetCommentMode(ctx context.Context, contentID int64, mode string) error {
	if !model.IsValidCommentMode(mode) {
		return validationErr("comment_mode", "unknown comment mode %q", mode)
	}
	n, err := s.queries.SetContentCommentMode(ctx, store.SetContentCommentModeParams{
		CommentMode: mode,
		ChangedAt:   s.clock.Now(),
		ID:          contentID,
	})
	if err != nil {
		return storageErr("set comment mode", err)
	}
	if n == 0 {
		return fmt.Errorf("content %d: %w", contentID, ErrNotFound)
	}
	s.logger.Info("content comment mode changed", "content_id", contentID, "comment_mode", mode)
	return nil
}

func (s *ContentService) insertRevision(ctx context.Context, q *store.Queries, contentID int64, title string, in ContentInput, now time.Time) (store.ContentRevision, error) {
	source := in.Body
	if in.ExcerptSource != "" {
		source = in.ExcerptSource
	}
	rev, err := q.CreateRevision(ctx, store.CreateRevisionParams{
		ContentID: contentID,
		AuthorID:  in.AuthorID,
		Title:     title,
		Body:      in.Body,
		Teaser:    TeaserExcerpt(source),
		Log:       in.Log,
		CreatedAt: now,
	})
	if err != nil {
		return store.ContentRevision{}, storageErr("create revision", err)
	}
	return rev, nil
}

// repoint makes revisionID the current revision of the content item.
func (s *ContentService) repoint(ctx context.Context, q *store.Queries, contentID, revisionID int64, promoted, sticky bool, now time.Time) error {
	n, err := q.SetContentHead(ctx, store.SetContentHeadParams{
		CurrentRevisionID: revisionID,
		ChangedAt:         now,
		Promoted:          promoted,
		Sticky:            sticky,
		ID:                contentID,
	})
	if err != nil {
		return storageErr("set current revision", err)
	}
	if n == 0 {
		return fmt.Errorf("content %d: %w", contentID, ErrNotFound)
	}
	return nil
}

func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", validationErr("title", "is required")
	}
	if utf8.RuneCountInString(title) > TitleMaxChars {
		return "", validationErr("title", "must be at most %d characters", TitleMaxChars)
	}
	return title, nil
}
