// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const commentColumns = `id, content_id, parent_id, author_id, subject, body, origin_host, created_at, changed_at,
       status, thread_path, display_name, email, homepage`

func scanComment(row rowScanner) (Comment, error) {
	var i Comment
	err := row.Scan(
		&i.ID,
		&i.ContentID,
		&i.ParentID,
		&i.AuthorID,
		&i.Subject,
		&i.Body,
		&i.OriginHost,
		&i.CreatedAt,
		&i.ChangedAt,
		&i.Status,
		&i.ThreadPath,
		&i.DisplayName,
		&i.Email,
		&i.Homepage,
	)
	return i, err
}

func (q *Queries) listComments(ctx context.Context, query string, args ...any) ([]Comment, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Comment{}
	for rows.Next() {
		i, err := scanComment(rows)
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

const createComment = `-- name: CreateComment :one
INSERT INTO comment (content_id, parent_id, author_id, subject, body, origin_host, created_at, changed_at,
                     status, thread_path, display_name, email, homepage)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + commentColumns + `
`

type CreateCommentParams struct {
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

func (q *Queries) CreateComment(ctx context.Context, arg CreateCommentParams) (Comment, error) {
	row := q.db.QueryRowContext(ctx, createComment,
		arg.ContentID,
		arg.ParentID,
		arg.AuthorID,
		arg.Subject,
		arg.Body,
		arg.OriginHost,
		arg.CreatedAt,
		arg.ChangedAt,
		arg.Status,
		arg.ThreadPath,
		arg.DisplayName,
		arg.Email,
		arg.Homepage,
	)
	return scanComment(row)
}

const getComment = `-- name: GetComment :one
SELECT ` + commentColumns + ` FROM comment WHERE id = ?
`

func (q *Queries) GetComment(ctx context.Context, id int64) (Comment, error) {
	row := q.db.QueryRowContext(ctx, getComment, id)
	return scanComment(row)
}

const updateComment = `-- name: UpdateComment :execrows
UPDATE comment SET subject = ?, body = ?, changed_at = ? WHERE id = ?
`

type UpdateCommentParams struct {
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	ChangedAt time.Time `json:"changed_at"`
	ID        int64     `json:"id"`
}

func (q *Queries) UpdateComment(ctx context.Context, arg UpdateCommentParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateComment, arg.Subject, arg.Body, arg.ChangedAt, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteComment = `-- name: DeleteComment :execrows
DELETE FROM comment WHERE id = ?
`

func (q *Queries) DeleteComment(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteComment, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteCommentsByContent = `-- name: DeleteCommentsByContent :exec
DELETE FROM comment WHERE content_id = ?
`

func (q *Queries) DeleteCommentsByContent(ctx context.Context, contentID int64) error {
	_, err := q.db.ExecContext(ctx, deleteCommentsByContent, contentID)
	return err
}

// Vancode groups grow in length with their value, so length-then-string is
// numeric order for single-group paths.
const getLastRootThreadPath = `-- name: GetLastRootThreadPath :one
SELECT thread_path FROM comment
WHERE content_id = ? AND parent_id = 0
ORDER BY LENGTH(thread_path) DESC, thread_path DESC
LIMIT 1
`

func (q *Queries) GetLastRootThreadPath(ctx context.Context, contentID int64) (string, error) {
	row := q.db.QueryRowContext(ctx, getLastRootThreadPath, contentID)
	var threadPath string
	err := row.Scan(&threadPath)
	return threadPath, err
}

// Every path below "p" lies in ["p.", "p/") because '.' sorts just before '/'.
// The child group starts right after "p." and ends at the next separator;
// ordering by its length first keeps "p.100/" ahead of "p.zz/".
const getLastDescendantThreadPath = `-- name: GetLastDescendantThreadPath :one
WITH descendants AS (
    SELECT thread_path, SUBSTR(thread_path, ?) AS rest
    FROM comment
    WHERE content_id = ? AND thread_path >= ? AND thread_path < ?
)
SELECT thread_path FROM descendants
ORDER BY CASE WHEN INSTR(rest, '.') > 0 THEN INSTR(rest, '.') ELSE INSTR(rest, '/') END DESC,
         thread_path DESC
LIMIT 1
`

type GetLastDescendantThreadPathParams struct {
	ContentID int64  `json:"content_id"`
	Prefix    string `json:"prefix"`
}

// GetLastDescendantThreadPath returns a descendant of Prefix whose group at
// the child depth is the greatest. Decode that group for the last child index.
func (q *Queries) GetLastDescendantThreadPath(ctx context.Context, arg GetLastDescendantThreadPathParams) (string, error) {
	row := q.db.QueryRowContext(ctx, getLastDescendantThreadPath,
		len(arg.Prefix)+2,
		arg.ContentID,
		arg.Prefix+".",
		arg.Prefix+"/",
	)
	var threadPath string
	err := row.Scan(&threadPath)
	return threadPath, err
}

const listThread = `-- name: ListThread :many
SELECT ` + commentColumns + ` FROM comment
WHERE content_id = ?
ORDER BY SUBSTR(thread_path, 1, LENGTH(thread_path) - 1), id
`

func (q *Queries) ListThread(ctx context.Context, contentID int64) ([]Comment, error) {
	return q.listComments(ctx, listThread, contentID)
}

const listThreadByStatus = `-- name: ListThreadByStatus :many
SELECT ` + commentColumns + ` FROM comment
WHERE content_id = ? AND status = ?
ORDER BY SUBSTR(thread_path, 1, LENGTH(thread_path) - 1), id
`

type ListThreadByStatusParams struct {
	ContentID int64  `json:"content_id"`
	Status    string `json:"status"`
}

func (q *Queries) ListThreadByStatus(ctx context.Context, arg ListThreadByStatusParams) ([]Comment, error) {
	return q.listComments(ctx, listThreadByStatus, arg.ContentID, arg.Status)
}

const countCommentsByStatus = `-- name: CountCommentsByStatus :one
SELECT COUNT(*) FROM comment WHERE content_id = ? AND status = ?
`

type CountCommentsByStatusParams struct {
	ContentID int64  `json:"content_id"`
	Status    string `json:"status"`
}

func (q *Queries) CountCommentsByStatus(ctx context.Context, arg CountCommentsByStatusParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, countCommentsByStatus, arg.ContentID, arg.Status)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const getLatestCommentByStatus = `-- name: GetLatestCommentByStatus :one
SELECT ` + commentColumns + ` FROM comment
WHERE content_id = ? AND status = ?
ORDER BY created_at DESC, id DESC
LIMIT 1
`

type GetLatestCommentByStatusParams struct {
	ContentID int64  `json:"content_id"`
	Status    string `json:"status"`
}

func (q *Queries) GetLatestCommentByStatus(ctx context.Context, arg GetLatestCommentByStatusParams) (Comment, error) {
	row := q.db.QueryRowContext(ctx, getLatestCommentByStatus, arg.ContentID, arg.Status)
	return scanComment(row)
}

const upsertThreadStats = `-- name: UpsertThreadStats :exec
INSERT INTO thread_stats (content_id, last_comment_at, last_comment_author_display, last_comment_author_id, comment_count)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (content_id) DO UPDATE SET
    last_comment_at = excluded.last_comment_at,
    last_comment_author_display = excluded.last_comment_author_display,
    last_comment_author_id = excluded.last_comment_author_id,
    comment_count = excluded.comment_count
`

type UpsertThreadStatsParams struct {
	ContentID                int64        `json:"content_id"`
	LastCommentAt            sql.NullTime `json:"last_comment_at"`
	LastCommentAuthorDisplay string       `json:"last_comment_author_display"`
	LastCommentAuthorID      int64        `json:"last_comment_author_id"`
	CommentCount             int64        `json:"comment_count"`
}

func (q *Queries) UpsertThreadStats(ctx context.Context, arg UpsertThreadStatsParams) error {
	_, err := q.db.ExecContext(ctx, upsertThreadStats,
		arg.ContentID,
		arg.LastCommentAt,
		arg.LastCommentAuthorDisplay,
		arg.LastCommentAuthorID,
		arg.CommentCount,
	)
	return err
}

const getThreadStats = `-- name: GetThreadStats :one
SELECT content_id, last_comment_at, last_comment_author_display, last_comment_author_id, comment_count
FROM thread_stats WHERE content_id = ?
`

func (q *Queries) GetThreadStats(ctx context.Context, contentID int64) (ThreadStat, error) {
	row := q.db.QueryRowContext(ctx, getThreadStats, contentID)
	var i ThreadStat
	err := row.Scan(
		&i.ContentID,
		&i.LastCommentAt,
		&i.LastCommentAuthorDisplay,
		&i.LastCommentAuthorID,
		&i.CommentCount,
	)
	return i, err
}

const deleteThreadStats = `-- name: DeleteThreadStats :exec
DELETE FROM thread_stats WHERE content_id = ?
`

func (q *Queries) DeleteThreadStats(ctx context.Context, contentID int64) error {
	_, err := q.db.ExecContext(ctx, deleteThreadStats, contentID)
	return err
}
