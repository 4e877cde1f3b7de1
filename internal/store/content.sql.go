// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const createContentType = `-- name: CreateContentType :one
INSERT INTO content_type (type, name, description, help)
VALUES (?, ?, ?, ?)
RETURNING type, name, description, help
`

type CreateContentTypeParams struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Help        string `json:"help"`
}

func (q *Queries) CreateContentType(ctx context.Context, arg CreateContentTypeParams) (ContentType, error) {
	row := q.db.QueryRowContext(ctx, createContentType,
		arg.Type,
		arg.Name,
		arg.Description,
		arg.Help,
	)
	var i ContentType
	err := row.Scan(
		&i.Type,
		&i.Name,
		&i.Description,
		&i.Help,
	)
	return i, err
}

const getContentType = `-- name: GetContentType :one
SELECT type, name, description, help FROM content_type WHERE type = ?
`

func (q *Queries) GetContentType(ctx context.Context, typ string) (ContentType, error) {
	row := q.db.QueryRowContext(ctx, getContentType, typ)
	var i ContentType
	err := row.Scan(
		&i.Type,
		&i.Name,
		&i.Description,
		&i.Help,
	)
	return i, err
}

const listContentTypes = `-- name: ListContentTypes :many
SELECT type, name, description, help FROM content_type ORDER BY name, type
`

func (q *Queries) ListContentTypes(ctx context.Context) ([]ContentType, error) {
	rows, err := q.db.QueryContext(ctx, listContentTypes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ContentType{}
	for rows.Next() {
		var i ContentType
		if err := rows.Scan(
			&i.Type,
			&i.Name,
			&i.Description,
			&i.Help,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createContent = `-- name: CreateContent :one
INSERT INTO content (type, owner_id, published, created_at, changed_at, promoted, sticky, comment_mode)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, current_revision_id, type, owner_id, published, created_at, changed_at, promoted, sticky, comment_mode
`

type CreateContentParams struct {
	Type        string    `json:"type"`
	OwnerID     int64     `json:"owner_id"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	ChangedAt   time.Time `json:"changed_at"`
	Promoted    bool      `json:"promoted"`
	Sticky      bool      `json:"sticky"`
	CommentMode string    `json:"comment_mode"`
}

func (q *Queries) CreateContent(ctx context.Context, arg CreateContentParams) (Content, error) {
	row := q.db.QueryRowContext(ctx, createContent,
		arg.Type,
		arg.OwnerID,
		arg.Published,
		arg.CreatedAt,
		arg.ChangedAt,
		arg.Promoted,
		arg.Sticky,
		arg.CommentMode,
	)
	return scanContent(row)
}

const getContent = `-- name: GetContent :one
SELECT id, current_revision_id, type, owner_id, published, created_at, changed_at, promoted, sticky, comment_mode
FROM content WHERE id = ?
`

func (q *Queries) GetContent(ctx context.Context, id int64) (Content, error) {
	row := q.db.QueryRowContext(ctx, getContent, id)
	return scanContent(row)
}

func scanContent(row *sql.Row) (Content, error) {
	var i Content
	err := row.Scan(
		&i.ID,
		&i.CurrentRevisionID,
		&i.Type,
		&i.OwnerID,
		&i.Published,
		&i.CreatedAt,
		&i.ChangedAt,
		&i.Promoted,
		&i.Sticky,
		&i.CommentMode,
	)
	return i, err
}

const setContentHead = `-- name: SetContentHead :execrows
UPDATE content
SET current_revision_id = ?, changed_at = ?, promoted = ?, sticky = ?
WHERE id = ?
`

type SetContentHeadParams struct {
	CurrentRevisionID int64     `json:"current_revision_id"`
	ChangedAt         time.Time `json:"changed_at"`
	Promoted          bool      `json:"promoted"`
	Sticky            bool      `json:"sticky"`
	ID                int64     `json:"id"`
}

func (q *Queries) SetContentHead(ctx context.Context, arg SetContentHeadParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setContentHead,
		arg.CurrentRevisionID,
		arg.ChangedAt,
		arg.Promoted,
		arg.Sticky,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setContentPublished = `-- name: SetContentPublished :execrows
UPDATE content SET published = ?, changed_at = ? WHERE id = ?
`

type SetContentPublishedParams struct {
	Published bool      `json:"published"`
	ChangedAt time.Time `json:"changed_at"`
	ID        int64     `json:"id"`
}

func (q *Queries) SetContentPublished(ctx context.Context, arg SetContentPublishedParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setContentPublished, arg.Published, arg.ChangedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setContentCommentMode = `-- name: SetContentCommentMode :execrows
UPDATE content SET comment_mode = ?, changed_at = ? WHERE id = ?
`

type SetContentCommentModeParams struct {
	CommentMode string    `json:"comment_mode"`
	ChangedAt   time.Time `json:"changed_at"`
	ID          int64     `json:"id"`
}

func (q *Queries) SetContentCommentMode(ctx context.Context, arg SetContentCommentModeParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setContentCommentMode, arg.CommentMode, arg.ChangedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteContent = `-- name: DeleteContent :execrows
DELETE FROM content WHERE id = ?
`

func (q *Queries) DeleteContent(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteContent, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteRevisionsByContent = `-- name: DeleteRevisionsByContent :exec
DELETE FROM content_revision WHERE content_id = ?
`

func (q *Queries) DeleteRevisionsByContent(ctx context.Context, contentID int64) error {
	_, err := q.db.ExecContext(ctx, deleteRevisionsByContent, contentID)
	return err
}

const listContentIDs = `-- name: ListContentIDs :many
SELECT id FROM content ORDER BY id
`

func (q *Queries) ListContentIDs(ctx context.Context) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listContentIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createRevision = `-- name: CreateRevision :one
INSERT INTO content_revision (content_id, author_id, title, body, teaser, log, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id, content_id, author_id, title, body, teaser, log, created_at
`

type CreateRevisionParams struct {
	ContentID int64     `json:"content_id"`
	AuthorID  int64     `json:"author_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Teaser    string    `json:"teaser"`
	Log       string    `json:"log"`
	CreatedAt time.Time `json:"created_at"`
}

func (q *Queries) CreateRevision(ctx context.Context, arg CreateRevisionParams) (ContentRevision, error) {
	row := q.db.QueryRowContext(ctx, createRevision,
		arg.ContentID,
		arg.AuthorID,
		arg.Title,
		arg.Body,
		arg.Teaser,
		arg.Log,
		arg.CreatedAt,
	)
	var i ContentRevision
	err := row.Scan(
		&i.ID,
		&i.ContentID,
		&i.AuthorID,
		&i.Title,
		&i.Body,
		&i.Teaser,
		&i.Log,
		&i.CreatedAt,
	)
	return i, err
}

const getRevision = `-- name: GetRevision :one
SELECT id, content_id, author_id, title, body, teaser, log, created_at
FROM content_revision WHERE id = ?
`

func (q *Queries) GetRevision(ctx context.Context, id int64) (ContentRevision, error) {
	row := q.db.QueryRowContext(ctx, getRevision, id)
	var i ContentRevision
	err := row.Scan(
		&i.ID,
		&i.ContentID,
		&i.AuthorID,
		&i.Title,
		&i.Body,
		&i.Teaser,
		&i.Log,
		&i.CreatedAt,
	)
	return i, err
}

const listRevisionsByContent = `-- name: ListRevisionsByContent :many
SELECT id, content_id, author_id, title, body, teaser, log, created_at
FROM content_revision WHERE content_id = ?
ORDER BY id DESC
`

func (q *Queries) ListRevisionsByContent(ctx context.Context, contentID int64) ([]ContentRevision, error) {
	rows, err := q.db.QueryContext(ctx, listRevisionsByContent, contentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ContentRevision{}
	for rows.Next() {
		var i ContentRevision
		if err := rows.Scan(
			&i.ID,
			&i.ContentID,
			&i.AuthorID,
			&i.Title,
			&i.Body,
			&i.Teaser,
			&i.Log,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const contentWithRevisionColumns = `c.id, c.current_revision_id, c.type, c.owner_id, c.published, c.created_at, c.changed_at,
       c.promoted, c.sticky, c.comment_mode,
       r.id, r.content_id, r.author_id, r.title, r.body, r.teaser, r.log, r.created_at`

const getContentWithRevision = `-- name: GetContentWithRevision :one
SELECT ` + contentWithRevisionColumns + `
FROM content c
INNER JOIN content_revision r ON r.id = c.current_revision_id
WHERE c.id = ?
`

// ContentWithRevision is a content head joined with its current revision.
type ContentWithRevision struct {
	Content  Content         `json:"content"`
	Revision ContentRevision `json:"revision"`
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContentWithRevision(row rowScanner) (ContentWithRevision, error) {
	var i ContentWithRevision
	err := row.Scan(
		&i.Content.ID,
		&i.Content.CurrentRevisionID,
		&i.Content.Type,
		&i.Content.OwnerID,
		&i.Content.Published,
		&i.Content.CreatedAt,
		&i.Content.ChangedAt,
		&i.Content.Promoted,
		&i.Content.Sticky,
		&i.Content.CommentMode,
		&i.Revision.ID,
		&i.Revision.ContentID,
		&i.Revision.AuthorID,
		&i.Revision.Title,
		&i.Revision.Body,
		&i.Revision.Teaser,
		&i.Revision.Log,
		&i.Revision.CreatedAt,
	)
	return i, err
}

func (q *Queries) GetContentWithRevision(ctx context.Context, id int64) (ContentWithRevision, error) {
	row := q.db.QueryRowContext(ctx, getContentWithRevision, id)
	return scanContentWithRevision(row)
}

const listFrontPage = `-- name: ListFrontPage :many
SELECT ` + contentWithRevisionColumns + `
FROM content c
INNER JOIN content_revision r ON r.id = c.current_revision_id
WHERE c.published = 1 AND c.promoted = 1
ORDER BY c.sticky DESC, c.created_at DESC, c.id DESC
LIMIT ?
`

func (q *Queries) ListFrontPage(ctx context.Context, limit int64) ([]ContentWithRevision, error) {
	return q.listContentWithRevision(ctx, listFrontPage, limit)
}

const listContentByChanged = `-- name: ListContentByChanged :many
SELECT ` + contentWithRevisionColumns + `
FROM content c
INNER JOIN content_revision r ON r.id = c.current_revision_id
ORDER BY c.changed_at DESC, c.id DESC
LIMIT ? OFFSET ?
`

type ListContentByChangedParams struct {
	Limit  int64 `json:"limit"`
	Offset int64 `json:"offset"`
}

func (q *Queries) ListContentByChanged(ctx context.Context, arg ListContentByChangedParams) ([]ContentWithRevision, error) {
	return q.listContentWithRevision(ctx, listContentByChanged, arg.Limit, arg.Offset)
}

func (q *Queries) listContentWithRevision(ctx context.Context, query string, args ...any) ([]ContentWithRevision, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ContentWithRevision{}
	for rows.Next() {
		i, err := scanContentWithRevision(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
