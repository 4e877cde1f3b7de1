// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/olegiv/ocms-content/internal/cache"
	"github.com/olegiv/ocms-content/internal/model"
	"github.com/olegiv/ocms-content/internal/store"
	"github.com/olegiv/ocms-content/internal/util"
)

// FieldService manages the per-content-type field schema and the typed
// values stored against each revision.
type FieldService struct {
	db      *sql.DB
	queries *store.Queries
	schema  *cache.SchemaCache
	logger  *slog.Logger
}

// NewFieldService creates a new FieldService.
// If schema is nil, field lists are read from the database on every call.
func NewFieldService(db *sql.DB, schema *cache.SchemaCache, logger *slog.Logger) *FieldService {
	return &FieldService{
		db:      db,
		queries: store.New(db),
		schema:  schema,
		logger:  logger,
	}
}

// DefinitionInput describes a field definition to create or replace.
type DefinitionInput struct {
	Name        string
	Kind        string
	Cardinality int
	Settings    string
}

// InstanceInput attaches a defined field to a content type.
type InstanceInput struct {
	FieldName     string
	ContentType   string
	Label         string
	Description   string
	Required      bool
	DisplayWeight int
	WidgetHint    string
}

// DefineField creates or replaces a field definition. Replacing a definition
// does not rewrite values already stored under the old kind.
func (s *FieldService) DefineField(ctx context.Context, in DefinitionInput) (model.Field, error) {
	name := strings.TrimSpace(in.Name)
	if !util.IsValidMachineName(name) {
		return model.Field{}, validationErr("field_name", "must be lower-case letters, digits or underscores")
	}
	kind, err := model.ParseValueKind(in.Kind)
	if err != nil {
		return model.Field{}, validationErr("value_kind", "%v", err)
	}
	if in.Cardinality < 0 {
		return model.Field{}, validationErr("cardinality", "must not be negative")
	}

	def, err := s.queries.UpsertFieldDefinition(ctx, store.UpsertFieldDefinitionParams{
		FieldName:   name,
		ValueKind:   string(kind),
		Cardinality: int64(in.Cardinality),
		Settings:    in.Settings,
	})
	if err != nil {
		return model.Field{}, storageErr("define field", err)
	}

	s.invalidateAll(ctx)
	s.logger.Info("field defined", "field", name, "kind", kind, "cardinality", in.Cardinality)

	return model.Field{
		Name:        def.FieldName,
		Kind:        model.ValueKind(def.ValueKind),
		Cardinality: int(def.Cardinality),
		Settings:    def.Settings,
	}, nil
}

// GetFieldDefinition returns the definition of a field with no instance data.
func (s *FieldService) GetFieldDefinition(ctx context.Context, name string) (model.Field, error) {
	def, err := s.queries.GetFieldDefinition(ctx, name)
	if err != nil {
		return model.Field{}, notFoundOr("get field definition", "field", name, err)
	}
	return model.Field{
		Name:        def.FieldName,
		Kind:        model.ValueKind(def.ValueKind),
		Cardinality: int(def.Cardinality),
		Settings:    def.Settings,
	}, nil
}

// AttachField binds a defined field to a content type, or updates the
// binding when it already exists.
func (s *FieldService) AttachField(ctx context.Context, in InstanceInput) (model.Field, error) {
	if strings.TrimSpace(in.Label) == "" {
		return model.Field{}, validationErr("label", "is required")
	}

	def, err := s.queries.GetFieldDefinition(ctx, in.FieldName)
	if err != nil {
		return model.Field{}, notFoundOr("attach field", "field", in.FieldName, err)
	}
	if _, err := s.queries.GetContentType(ctx, in.ContentType); err != nil {
		return model.Field{}, notFoundOr("attach field", "content type", in.ContentType, err)
	}

	inst, err := s.queries.UpsertFieldInstance(ctx, store.UpsertFieldInstanceParams{
		FieldName:     in.FieldName,
		ContentType:   in.ContentType,
		Label:         strings.TrimSpace(in.Label),
		Description:   in.Description,
		Required:      in.Required,
		DisplayWeight: int64(in.DisplayWeight),
		WidgetHint:    in.WidgetHint,
	})
	if err != nil {
		return model.Field{}, storageErr("attach field", err)
	}

	s.invalidate(ctx, in.ContentType)
	s.logger.Info("field attached", "field", in.FieldName, "content_type", in.ContentType)

	return fieldFromRow(store.ListFieldsByContentTypeRow{Instance: inst, Definition: def}), nil
}

// DetachField removes a field from a content type. Values already stored
// for the field stay in place and are no longer loaded.
func (s *FieldService) DetachField(ctx context.Context, contentType, fieldName string) error {
	n, err := s.queries.DeleteFieldInstance(ctx, store.DeleteFieldInstanceParams{
		FieldName:   fieldName,
		ContentType: contentType,
	})
	if err != nil {
		return storageErr("detach field", err)
	}
	if n == 0 {
		return fmt.Errorf("field %s on %s: %w", fieldName, contentType, ErrNotFound)
	}

	s.invalidate(ctx, contentType)
	s.logger.Info("field detached", "field", fieldName, "content_type", contentType)
	return nil
}

// ListFields returns the fields of a content type ordered by display weight
// then label.
func (s *FieldService) ListFields(ctx context.Context, contentType string) ([]model.Field, error) {
	return s.fieldsFor(ctx, s.queries, contentType)
}

// LoadValues returns the values stored for a revision keyed by field name.
// Every field of the content type is present, with an empty slice when
// nothing is stored for it.
func (s *FieldService) LoadValues(ctx context.Context, contentType string, revisionID int64) (map[string][]model.FieldValue, error) {
	return s.loadValues(ctx, s.queries, contentType, revisionID)
}

func (s *FieldService) loadValues(ctx context.Context, q *store.Queries, contentType string, revisionID int64) (map[string][]model.FieldValue, error) {
	fields, err := s.fieldsFor(ctx, q, contentType)
	if err != nil {
		return nil, err
	}

	rows, err := q.ListFieldValuesByRevision(ctx, revisionID)
	if err != nil {
		return nil, storageErr("load field values", err)
	}

	kinds := make(map[string]model.ValueKind, len(fields))
	values := make(map[string][]model.FieldValue, len(fields))
	for _, f := range fields {
		kinds[f.Name] = f.Kind
		values[f.Name] = []model.FieldValue{}
	}

	// Rows are ordered by field name then delta.
	for _, row := range rows {
		kind, ok := kinds[row.FieldName]
		if !ok {
			continue
		}
		values[row.FieldName] = append(values[row.FieldName], model.FieldValue{
			ContentID:  row.ContentID,
			RevisionID: row.RevisionID,
			FieldName:  row.FieldName,
			Delta:      int(row.Delta),
			Value:      valueFromRow(kind, row),
		})
	}

	return values, nil
}

// SaveValues replaces the values of every field of the content type on one
// revision with the values derived from raw. It runs in its own transaction.
func (s *FieldService) SaveValues(ctx context.Context, contentID, revisionID int64, contentType string, raw map[string]string) error {
	return inTx(ctx, s.db, s.queries, func(q *store.Queries) error {
		rev, err := q.GetRevision(ctx, revisionID)
		if err != nil {
			return notFoundOr("save field values", "revision", revisionID, err)
		}
		if rev.ContentID != contentID {
			return fmt.Errorf("revision %d of content %d: %w", revisionID, contentID, ErrNotFound)
		}
		return s.saveValues(ctx, q, contentID, revisionID, contentType, raw)
	})
}

// saveValues validates every field before it deletes anything, so a
// validation error leaves the revision untouched.
func (s *FieldService) saveValues(ctx context.Context, q *store.Queries, contentID, revisionID int64, contentType string, raw map[string]string) error {
	fields, err := s.fieldsFor(ctx, q, contentType)
	if err != nil {
		return err
	}
	if err := validateRequired(fields, raw); err != nil {
		return err
	}

	for _, f := range fields {
		if err := q.DeleteFieldValues(ctx, store.DeleteFieldValuesParams{
			RevisionID: revisionID,
			FieldName:  f.Name,
		}); err != nil {
			return storageErr("clear field values", err)
		}

		for delta, v := range collectValues(f, raw) {
			text, integer, float := valueColumns(v)
			if err := q.InsertFieldValue(ctx, store.InsertFieldValueParams{
				ContentID:  contentID,
				RevisionID: revisionID,
				FieldName:  f.Name,
				Delta:      int64(delta),
				ValueText:  text,
				ValueInt:   integer,
				ValueFloat: float,
			}); err != nil {
				return storageErr("insert field value", err)
			}
		}
	}
	return nil
}

// copyValues duplicates every stored value of one revision onto another.
func (s *FieldService) copyValues(ctx context.Context, q *store.Queries, contentID, fromRevision, toRevision int64) error {
	rows, err := q.ListFieldValuesByRevision(ctx, fromRevision)
	if err != nil {
		return storageErr("copy field values", err)
	}
	for _, row := range rows {
		if err := q.InsertFieldValue(ctx, store.InsertFieldValueParams{
			ContentID:  contentID,
			RevisionID: toRevision,
			FieldName:  row.FieldName,
			Delta:      row.Delta,
			ValueText:  row.ValueText,
			ValueInt:   row.ValueInt,
			ValueFloat: row.ValueFloat,
		}); err != nil {
			return storageErr("copy field values", err)
		}
	}
	return nil
}

// fieldsFor reads the schema through the cache when one is configured.
// Unknown content types are reported as ErrNotFound and never cached.
// It runs inside content transactions, so a failed cache store is dropped
// rather than logged; the cache backend's health is reported by /health.
func (s *FieldService) fieldsFor(ctx context.Context, q *store.Queries, contentType string) ([]model.Field, error) {
	load := func() ([]model.Field, error) {
		return loadFields(ctx, q, contentType)
	}
	if s.schema == nil {
		return load()
	}
	return s.schema.GetOrSet(ctx, contentType, load)
}

func loadFields(ctx context.Context, q *store.Queries, contentType string) ([]model.Field, error) {
	rows, err := q.ListFieldsByContentType(ctx, contentType)
	if err != nil {
		return nil, storageErr("list fields", err)
	}
	if len(rows) == 0 {
		if _, err := q.GetContentType(ctx, contentType); err != nil {
			return nil, notFoundOr("list fields", "content type", contentType, err)
		}
	}

	fields := make([]model.Field, 0, len(rows))
	for _, row := range rows {
		fields = append(fields, fieldFromRow(row))
	}
	return fields, nil
}

func (s *FieldService) invalidate(ctx context.Context, contentType string) {
	if s.schema == nil {
		return
	}
	if err := s.schema.Invalidate(ctx, contentType); err != nil {
		s.logger.Warn("failed to invalidate field schema", "content_type", contentType, "error", err)
	}
}

func (s *FieldService) invalidateAll(ctx context.Context) {
	if s.schema == nil {
		return
	}
	if err := s.schema.InvalidateAll(ctx); err != nil {
		s.logger.Warn("failed to invalidate field schemas", "error", err)
	}
}

// validateRequired rejects a required field that would store no value.
// Inputs the kind's coercion drops, such as "abc" for an integer, count as
// empty.
func validateRequired(fields []model.Field, raw map[string]string) error {
	for _, f := range fields {
		if f.Required && len(collectValues(f, raw)) == 0 {
			return validationErr(f.Name, "%s is required", f.Label)
		}
	}
	return nil
}

// collectValues reads the inputs of one field in delta order, skipping empty
// inputs and values the kind's coercion drops. The result is compacted, so
// its index is the stored delta.
func collectValues(f model.Field, raw map[string]string) []model.Value {
	var values []model.Value
	for _, key := range f.InputKeys() {
		input, ok := raw[key]
		if !ok || input == "" {
			continue
		}
		v, keep := model.Coerce(f.Kind, input)
		if !keep {
			continue
		}
		values = append(values, v)
	}
	return values
}

func fieldFromRow(row store.ListFieldsByContentTypeRow) model.Field {
	return model.Field{
		Name:          row.Instance.FieldName,
		ContentType:   row.Instance.ContentType,
		Label:         row.Instance.Label,
		Description:   row.Instance.Description,
		Required:      row.Instance.Required,
		DisplayWeight: int(row.Instance.DisplayWeight),
		WidgetHint:    row.Instance.WidgetHint,
		Kind:          model.ValueKind(row.Definition.ValueKind),
		Cardinality:   int(row.Definition.Cardinality),
		Settings:      row.Definition.Settings,
	}
}

func valueFromRow(kind model.ValueKind, row store.FieldValue) model.Value {
	switch kind {
	case model.KindInteger, model.KindBoolean:
		return model.Value{Kind: kind, Int: row.ValueInt.Int64}
	case model.KindFloat:
		return model.Value{Kind: kind, Float: row.ValueFloat.Float64}
	default:
		return model.Value{Kind: model.KindText, Text: row.ValueText.String}
	}
}

func valueColumns(v model.Value) (sql.NullString, sql.NullInt64, sql.NullFloat64) {
	switch v.Kind {
	case model.KindInteger, model.KindBoolean:
		return sql.NullString{}, util.NullInt64FromValue(v.Int), sql.NullFloat64{}
	case model.KindFloat:
		return sql.NullString{}, sql.NullInt64{}, util.NullFloat64FromValue(v.Float)
	default:
		return sql.NullString{String: v.Text, Valid: true}, sql.NullInt64{}, sql.NullFloat64{}
	}
}

