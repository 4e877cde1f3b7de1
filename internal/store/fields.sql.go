// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
)

const upsertFieldDefinition = `-- name: UpsertFieldDefinition :one
INSERT INTO field_definition (field_name, value_kind, cardinality, settings)
VALUES (?, ?, ?, ?)
ON CONFLICT (field_name) DO UPDATE SET
    value_kind = excluded.value_kind,
    cardinality = excluded.cardinality,
    settings = excluded.settings
RETURNING field_name, value_kind, cardinality, settings
`

type UpsertFieldDefinitionParams struct {
	FieldName   string `json:"field_name"`
	ValueKind   string `json:"value_kind"`
	Cardinality int64  `json:"cardinality"`
	Settings    string `json:"settings"`
}

func (q *Queries) UpsertFieldDefinition(ctx context.Context, arg UpsertFieldDefinitionParams) (FieldDefinition, error) {
	row := q.db.QueryRowContext(ctx, upsertFieldDefinition,
		arg.FieldName,
		arg.ValueKind,
		arg.Cardinality,
		arg.Settings,
	)
	var i FieldDefinition
	err := row.Scan(
		&i.FieldName,
		&i.ValueKind,
		&i.Cardinality,
		&i.Settings,
	)
	return i, err
}

const getFieldDefinition = `-- name: GetFieldDefinition :one
SELECT field_name, value_kind, cardinality, settings FROM field_definition WHERE field_name = ?
`

func (q *Queries) GetFieldDefinition(ctx context.Context, fieldName string) (FieldDefinition, error) {
	row := q.db.QueryRowContext(ctx, getFieldDefinition, fieldName)
	var i FieldDefinition
	err := row.Scan(
		&i.FieldName,
		&i.ValueKind,
		&i.Cardinality,
		&i.Settings,
	)
	return i, err
}

const upsertFieldInstance = `-- name: UpsertFieldInstance :one
INSERT INTO field_instance (field_name, content_type, label, description, required, display_weight, widget_hint)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (field_name, content_type) DO UPDATE SET
    label = excluded.label,
    description = excluded.description,
    required = excluded.required,
    display_weight = excluded.display_weight,
    widget_hint = excluded.widget_hint
RETURNING field_name, content_type, label, description, required, display_weight, widget_hint
`

type UpsertFieldInstanceParams struct {
	FieldName     string `json:"field_name"`
	ContentType   string `json:"content_type"`
	Label         string `json:"label"`
	Description   string `json:"description"`
	Required      bool   `json:"required"`
	DisplayWeight int64  `json:"display_weight"`
	WidgetHint    string `json:"widget_hint"`
}

func (q *Queries) UpsertFieldInstance(ctx context.Context, arg UpsertFieldInstanceParams) (FieldInstance, error) {
	row := q.db.QueryRowContext(ctx, upsertFieldInstance,
		arg.FieldName,
		arg.ContentType,
		arg.Label,
		arg.Description,
		arg.Required,
		arg.DisplayWeight,
		arg.WidgetHint,
	)
	var i FieldInstance
	err := row.Scan(
		&i.FieldName,
		&i.ContentType,
		&i.Label,
		&i.Description,
		&i.Required,
		&i.DisplayWeight,
		&i.WidgetHint,
	)
	return i, err
}

const deleteFieldInstance = `-- name: DeleteFieldInstance :execrows
DELETE FROM field_instance WHERE field_name = ? AND content_type = ?
`

type DeleteFieldInstanceParams struct {
	FieldName   string `json:"field_name"`
	ContentType string `json:"content_type"`
}

func (q *Queries) DeleteFieldInstance(ctx context.Context, arg DeleteFieldInstanceParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteFieldInstance, arg.FieldName, arg.ContentType)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listFieldsByContentType = `-- name: ListFieldsByContentType :many
SELECT fi.field_name, fi.content_type, fi.label, fi.description, fi.required, fi.display_weight, fi.widget_hint,
       fd.field_name, fd.value_kind, fd.cardinality, fd.settings
FROM field_instance fi
INNER JOIN field_definition fd ON fd.field_name = fi.field_name
WHERE fi.content_type = ?
ORDER BY fi.display_weight, fi.label, fi.field_name
`

type ListFieldsByContentTypeRow struct {
	Instance   FieldInstance   `json:"instance"`
	Definition FieldDefinition `json:"definition"`
}

func (q *Queries) ListFieldsByContentType(ctx context.Context, contentType string) ([]ListFieldsByContentTypeRow, error) {
	rows, err := q.db.QueryContext(ctx, listFieldsByContentType, contentType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListFieldsByContentTypeRow{}
	for rows.Next() {
		var i ListFieldsByContentTypeRow
		if err := rows.Scan(
			&i.Instance.FieldName,
			&i.Instance.ContentType,
			&i.Instance.Label,
			&i.Instance.Description,
			&i.Instance.Required,
			&i.Instance.DisplayWeight,
			&i.Instance.WidgetHint,
			&i.Definition.FieldName,
			&i.Definition.ValueKind,
			&i.Definition.Cardinality,
			&i.Definition.Settings,
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

const deleteFieldValues = `-- name: DeleteFieldValues :exec
DELETE FROM field_value WHERE revision_id = ? AND field_name = ?
`

type DeleteFieldValuesParams struct {
	RevisionID int64  `json:"revision_id"`
	FieldName  string `json:"field_name"`
}

func (q *Queries) DeleteFieldValues(ctx context.Context, arg DeleteFieldValuesParams) error {
	_, err := q.db.ExecContext(ctx, deleteFieldValues, arg.RevisionID, arg.FieldName)
	return err
}

const deleteFieldValuesByContent = `-- name: DeleteFieldValuesByContent :exec
DELETE FROM field_value
WHERE revision_id IN (SELECT id FROM content_revision WHERE content_id = ?)
   OR content_id = ?
`

func (q *Queries) DeleteFieldValuesByContent(ctx context.Context, contentID int64) error {
	_, err := q.db.ExecContext(ctx, deleteFieldValuesByContent, contentID, contentID)
	return err
}

const insertFieldValue = `-- name: InsertFieldValue :exec
INSERT INTO field_value (content_id, revision_id, field_name, delta, value_text, value_int, value_float)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type InsertFieldValueParams struct {
	ContentID  int64           `json:"content_id"`
	RevisionID int64           `json:"revision_id"`
	FieldName  string          `json:"field_name"`
	Delta      int64           `json:"delta"`
	ValueText  sql.NullString  `json:"value_text"`
	ValueInt   sql.NullInt64   `json:"value_int"`
	ValueFloat sql.NullFloat64 `json:"value_float"`
}

func (q *Queries) InsertFieldValue(ctx context.Context, arg InsertFieldValueParams) error {
	_, err := q.db.ExecContext(ctx, insertFieldValue,
		arg.ContentID,
		arg.RevisionID,
		arg.FieldName,
		arg.Delta,
		arg.ValueText,
		arg.ValueInt,
		arg.ValueFloat,
	)
	return err
}

const listFieldValuesByRevision = `-- name: ListFieldValuesByRevision :many
SELECT content_id, revision_id, field_name, delta, value_text, value_int, value_float
FROM field_value WHERE revision_id = ?
ORDER BY field_name, delta
`

func (q *Queries) ListFieldValuesByRevision(ctx context.Context, revisionID int64) ([]FieldValue, error) {
	rows, err := q.db.QueryContext(ctx, listFieldValuesByRevision, revisionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []FieldValue{}
	for rows.Next() {
		var i FieldValue
		if err := rows.Scan(
			&i.ContentID,
			&i.RevisionID,
			&i.FieldName,
			&i.Delta,
			&i.ValueText,
			&i.ValueInt,
			&i.ValueFloat,
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
