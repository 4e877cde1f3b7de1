// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"

	"github.com/olegiv/ocms-content/internal/model"
	"github.com/olegiv/ocms-content/internal/store"
	"github.com/olegiv/ocms-content/internal/util"
	"github.com/olegiv/ocms-content/internal/vancode"
)

// DefaultThreadPathRetries is how many times comment creation is attempted
// when the computed thread path is already taken.
const DefaultThreadPathRetries = 5

// errPathTaken signals a unique-index collision on (content_id, thread_path).
var errPathTaken = errors.New("thread path taken")

// CommentService owns comments, their thread paths and the per-content
// thread summary.
type CommentService struct {
	db      *sql.DB
	queries *store.Queries
	clock   Clock
	logger  *slog.Logger
	retries int

	// nextPath allocates the thread path of a new comment inside the
	// creating transaction.
	nextPath func(ctx context.Context, q *store.Queries, contentID, parentID int64) (string, error)
}

// NewCommentService creates a new CommentService. A retries value below 1
// uses DefaultThreadPathRetries.
func NewCommentService(db *sql.DB, clock Clock, logger *slog.Logger, retries int) *CommentService {
	if clock == nil {
		clock = SystemClock{}
	}
	if retries < 1 {
		retries = DefaultThreadPathRetries
	}
	s := &CommentService{
		db:      db,
		queries: store.New(db),
		clock:   clock,
		logger:  logger,
		retries: retries,
	}
	s.nextPath = s.computeThreadPath
	return s
}

// CommentInput is a new comment as submitted by the identity collaborator.
// AuthorID 0 posts anonymously and requires DisplayName. An empty Status
// publishes the comment.
type CommentInput struct {
	ContentID   int64
	ParentID    int64
	AuthorID    int64
	Subject     string
	Body        string
	OriginHost  string
	DisplayName string
	Email       string
	Homepage    string
	Status      string
}

// ThreadComment is a comment positioned in its discussion tree.
type ThreadComment struct {
	store.Comment
	Depth int `json:"depth"`
}

// ComputeThreadPath returns the path the next comment under parentID would
// receive. Zero parentID means a top-level comment.
func (s *CommentService) ComputeThreadPath(ctx context.Context, contentID, parentID int64) (string, error) {
	return s.computeThreadPath(ctx, s.queries, contentID, parentID)
}

func (s *CommentService) computeThreadPath(ctx context.Context, q *store.Queries, contentID, parentID int64) (string, error) {
	if parentID == model.TopLevelParentID {
		last, err := q.GetLastRootThreadPath(ctx, contentID)
		if errors.Is(err, sql.ErrNoRows) {
			return vancode.Root(0), nil
		}
		if err != nil {
			return "", storageErr("compute thread path", err)
		}
		n, err := lastGroup(last, 0)
		if err != nil {
			return "", err
		}
		return vancode.Root(n + 1), nil
	}

	parent, err := q.GetComment(ctx, parentID)
	if err != nil {
		return "", notFoundOr("compute thread path", "parent comment", parentID, err)
	}
	if parent.ContentID != contentID {
		return "", fmt.Errorf("parent comment %d of content %d: %w", parentID, contentID, ErrNotFound)
	}

	last, err := q.GetLastDescendantThreadPath(ctx, store.GetLastDescendantThreadPathParams{
		ContentID: contentID,
		Prefix:    vancode.Prefix(parent.ThreadPath),
	})
	if errors.Is(err, sql.ErrNoRows) {
		return vancode.Child(parent.ThreadPath, 0), nil
	}
	if err != nil {
		return "", storageErr("compute thread path", err)
	}

	// The greatest descendant may be a grandchild; its group at the child
	// depth is the last child's index.
	n, err := lastGroup(last, vancode.Depth(parent.ThreadPath)+1)
	if err != nil {
		return "", err
	}
	return vancode.Child(parent.ThreadPath, n+1), nil
}

func lastGroup(path string, depth int) (uint64, error) {
	segments := vancode.Segments(path)
	if depth >= len(segments) {
		return 0, storageErr("compute thread path", fmt.Errorf("malformed thread path %q", path))
	}
	n, err := vancode.Decode(segments[depth])
	if err != nil {
		return 0, storageErr("compute thread path", fmt.Errorf("thread path %q: %w", path, err))
	}
	return n, nil
}

// warnIfWide reports a new comment whose sibling group outgrew the fixed
// two-digit width. Past that point string order no longer matches sibling
// order. Call it only after the creating transaction has ended: the event
// log writes through another connection and would wait on its write lock.
func (s *CommentService) warnIfWide(in CommentInput, path string) {
	n, err := lastGroup(path, vancode.Depth(path))
	if err != nil || n <= vancode.MaxFixedWidth {
		return
	}
	s.logger.Warn("thread path group exceeds fixed width",
		"content_id", in.ContentID, "parent_id", in.ParentID, "sibling_index", n, "thread_path", path)
}

// CreateComment stores a comment and refreshes the thread summary of its
// content item. Path allocation, insert and summary run in one transaction,
// repeated when another writer took the same path first.
func (s *CommentService) CreateComment(ctx context.Context, in CommentInput) (int64, error) {
	in, err := normalizeComment(in)
	if err != nil {
		return 0, err
	}

	for attempt := 1; attempt <= s.retries; attempt++ {
		id, path, err := s.createOnce(ctx, in)
		if errors.Is(err, errPathTaken) {
			s.logger.Debug("thread path collision, retrying",
				"content_id", in.ContentID, "parent_id", in.ParentID, "attempt", attempt)
			continue
		}
		if err != nil {
			return 0, err
		}

		s.warnIfWide(in, path)
		s.logger.Info("comment created", "comment_id", id, "content_id", in.ContentID, "status", in.Status)
		return id, nil
	}

	s.logger.Warn("thread path allocation failed",
		"content_id", in.ContentID, "parent_id", in.ParentID, "attempts", s.retries)
	return 0, fmt.Errorf("thread path for content %d after %d attempts: %w", in.ContentID, s.retries, ErrConflict)
}

// createOnce returns the new comment's id and thread path. Nothing inside
// the transaction logs above INFO.
func (s *CommentService) createOnce(ctx context.Context, in CommentInput) (int64, string, error) {
	var (
		id   int64
		path string
	)
	err := inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		content, err := q.GetContent(ctx, in.ContentID)
		if err != nil {
			return notFoundOr("create comment", "content", in.ContentID, err)
		}
		switch {
		case content.CommentMode == model.CommentModeDisabled:
			return validationErr("comment_mode", "comments are disabled")
		case content.CommentMode == model.CommentModeReadOnly && in.ParentID != model.TopLevelParentID:
			return validationErr("comment_mode", "comments are read only")
		}

		path, err = s.nextPath(ctx, q, in.ContentID, in.ParentID)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		c, err := q.CreateComment(ctx, store.CreateCommentParams{
			ContentID:   in.ContentID,
			ParentID:    in.ParentID,
			AuthorID:    in.AuthorID,
			Subject:     in.Subject,
			Body:        in.Body,
			OriginHost:  in.OriginHost,
			CreatedAt:   now,
			ChangedAt:   now,
			Status:      in.Status,
			ThreadPath:  path,
			DisplayName: util.NullStringFromValue(in.DisplayName),
			Email:       util.NullStringFromValue(in.Email),
			Homepage:    util.NullStringFromValue(in.Homepage),
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				return errPathTaken
			}
			return storageErr("create comment", err)
		}

		if _, err := recomputeStats(ctx, q, in.ContentID); err != nil {
			return err
		}

		id = c.ID
		return nil
	})
	return id, path, err
}

// UpdateComment edits the subject and body of a comment. Status, position
// and the thread summary are unaffected.
func (s *CommentService) UpdateComment(ctx context.Context, commentID int64, subject, body string) error {
	body = strings.TrimSpace(body)
	if body == "" {
		return validationErr("body", "is required")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = SubjectFromBody(body)
	} else {
		subject = truncateSubject(subject)
	}

	n, err := s.queries.UpdateComment(ctx, store.UpdateCommentParams{
		Subject:   subject,
		Body:      body,
		ChangedAt: s.clock.Now(),
		ID:        commentID,
	})
	if err != nil {
		return storageErr("update comment", err)
	}
	if n == 0 {
		return fmt.Errorf("comment %d: %w", commentID, ErrNotFound)
	}

	s.logger.Info("comment updated", "comment_id", commentID)
	return nil
}

// DeleteComment removes one comment and refreshes the thread summary.
// Replies are kept; they stay listed under the missing parent's path.
func (s *CommentService) DeleteComment(ctx context.Context, commentID int64) error {
	var contentID int64
	err := inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		c, err := q.GetComment(ctx, commentID)
		if err != nil {
			return notFoundOr("delete comment", "comment", commentID, err)
		}
		if _, err := q.DeleteComment(ctx, commentID); err != nil {
			return storageErr("delete comment", err)
		}
		if _, err := recomputeStats(ctx, q, c.ContentID); err != nil {
			return err
		}
		contentID = c.ContentID
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("comment deleted", "comment_id", commentID, "content_id", contentID)
	return nil
}

// GetComment returns one comment.
func (s *CommentService) GetComment(ctx context.Context, commentID int64) (store.Comment, error) {
	c, err := s.queries.GetComment(ctx, commentID)
	if err != nil {
		return store.Comment{}, notFoundOr("get comment", "comment", commentID, err)
	}
	return c, nil
}

// ListThread returns the comments of a content item in tree order: every
// comment directly followed by its descendants, siblings oldest first.
// Comments awaiting moderation are included only when includeUnpublished is set.
func (s *CommentService) ListThread(ctx context.Context, contentID int64, includeUnpublished bool) ([]ThreadComment, error) {
	if _, err := s.queries.GetContent(ctx, contentID); err != nil {
		return nil, notFoundOr("list thread", "content", contentID, err)
	}

	var (
		comments []store.Comment
		err      error
	)
	if includeUnpublished {
		comments, err = s.queries.ListThread(ctx, contentID)
	} else {
		comments, err = s.queries.ListThreadByStatus(ctx, store.ListThreadByStatusParams{
			ContentID: contentID,
			Status:    model.CommentStatusPublished,
		})
	}
	if err != nil {
		return nil, storageErr("list thread", err)
	}

	thread := make([]ThreadComment, 0, len(comments))
	for _, c := range comments {
		thread = append(thread, ThreadComment{Comment: c, Depth: vancode.Depth(c.ThreadPath)})
	}
	return thread, nil
}

// GetThreadStats returns the thread summary of a content item. A content
// item without a summary row reports zero values.
func (s *CommentService) GetThreadStats(ctx context.Context, contentID int64) (store.ThreadStat, error) {
	if _, err := s.queries.GetContent(ctx, contentID); err != nil {
		return store.ThreadStat{}, notFoundOr("get thread stats", "content", contentID, err)
	}
	stats, err := s.queries.GetThreadStats(ctx, contentID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ThreadStat{ContentID: contentID}, nil
	}
	if err != nil {
		return store.ThreadStat{}, storageErr("get thread stats", err)
	}
	return stats, nil
}

// RebuildThreadStats recomputes the thread summary of one content item and
// reports whether the stored summary had drifted.
func (s *CommentService) RebuildThreadStats(ctx context.Context, contentID int64) (bool, error) {
	var drifted bool
	err := inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		if _, err := q.GetContent(ctx, contentID); err != nil {
			return notFoundOr("rebuild thread stats", "content", contentID, err)
		}

		before, err := q.GetThreadStats(ctx, contentID)
		missing := errors.Is(err, sql.ErrNoRows)
		if err != nil && !missing {
			return storageErr("rebuild thread stats", err)
		}

		after, err := recomputeStats(ctx, q, contentID)
		if err != nil {
			return err
		}
		drifted = missing || !sameStats(before, after)
		return nil
	})
	if err != nil {
		return false, err
	}
	if drifted {
		s.logger.Warn("thread stats drift corrected", "content_id", contentID)
	}
	return drifted, nil
}

// RebuildAllThreadStats recomputes every thread summary, one transaction per
// content item, and returns how many had drifted.
func (s *CommentService) RebuildAllThreadStats(ctx context.Context) (int, error) {
	ids, err := s.queries.ListContentIDs(ctx)
	if err != nil {
		return 0, storageErr("list content", err)
	}

	corrected := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return corrected, err
		}
		drifted, err := s.RebuildThreadStats(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// Deleted since the listing.
			continue
		}
		if err != nil {
			return corrected, err
		}
		if drifted {
			corrected++
		}
	}
	return corrected, nil
}

// recomputeStats rebuilds the summary row from the published comments.
// With none left it resets to empty values.
func recomputeStats(ctx context.Context, q *store.Queries, contentID int64) (store.ThreadStat, error) {
	count, err := q.CountCommentsByStatus(ctx, store.CountCommentsByStatusParams{
		ContentID: contentID,
		Status:    model.CommentStatusPublished,
	})
	if err != nil {
		return store.ThreadStat{}, storageErr("count comments", err)
	}

	stats := store.ThreadStat{ContentID: contentID, CommentCount: count}

	latest, err := q.GetLatestCommentByStatus(ctx, store.GetLatestCommentByStatusParams{
		ContentID: contentID,
		Status:    model.CommentStatusPublished,
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return store.ThreadStat{}, storageErr("latest comment", err)
	default:
		stats.LastCommentAt = util.NullTimeFromValue(latest.CreatedAt)
		stats.LastCommentAuthorID = latest.AuthorID
		stats.LastCommentAuthorDisplay = latest.DisplayName.String
	}

	if err := q.UpsertThreadStats(ctx, store.UpsertThreadStatsParams{
		ContentID:                stats.ContentID,
		LastCommentAt:            stats.LastCommentAt,
		LastCommentAuthorDisplay: stats.LastCommentAuthorDisplay,
		LastCommentAuthorID:      stats.LastCommentAuthorID,
		CommentCount:             stats.CommentCount,
	}); err != nil {
		return store.ThreadStat{}, storageErr("update thread stats", err)
	}
	return stats, nil
}

func sameStats(a, b store.ThreadStat) bool {
	if a.LastCommentAt.Valid != b.LastCommentAt.Valid {
		return false
	}
	if a.LastCommentAt.Valid && !a.LastCommentAt.Time.Equal(b.LastCommentAt.Time) {
		return false
	}
	return a.CommentCount == b.CommentCount &&
		a.LastCommentAuthorID == b.LastCommentAuthorID &&
		a.LastCommentAuthorDisplay == b.LastCommentAuthorDisplay
}

// normalizeComment validates a new comment before any transaction starts.
func normalizeComment(in CommentInput) (CommentInput, error) {
	in.Body = strings.TrimSpace(in.Body)
	if in.Body == "" {
		return in, validationErr("body", "is required")
	}

	if in.Status == "" {
		in.Status = model.CommentStatusPublished
	}
	if !model.IsValidCommentStatus(in.Status) {
		return in, validationErr("status", "unknown comment status %q", in.Status)
	}

	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if in.AuthorID == model.AnonymousAuthorID && in.DisplayName == "" {
		return in, validationErr("display_name", "is required for anonymous comments")
	}

	in.Email = strings.TrimSpace(in.Email)
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			return in, validationErr("email", "is not a valid address")
		}
	}

	in.Homepage = strings.TrimSpace(in.Homepage)
	if in.Homepage != "" {
		u, err := url.Parse(in.Homepage)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return in, validationErr("homepage", "must be an http or https URL")
		}
	}

	in.Subject = strings.TrimSpace(in.Subject)
	if in.Subject == "" {
		in.Subject = SubjectFromBody(in.Body)
	} else {
		in.Subject = truncateSubject(in.Subject)
	}
	return in, nil
}
