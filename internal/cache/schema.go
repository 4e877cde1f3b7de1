// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"time"

	"github.com/olegiv/ocms-content/internal/model"
)

const schemaKeyPrefix = "fields:"

// SchemaCache caches the ordered field list of each content type.
// Entries are dropped whenever a definition or instance changes.
type SchemaCache struct {
	typed *TypedCache[[]model.Field]
}

// NewSchemaCache wraps backend. A zero ttl falls back to the backend default.
func NewSchemaCache(backend Cacher, ttl time.Duration) *SchemaCache {
	return &SchemaCache{typed: NewTypedCache[[]model.Field](backend, ttl)}
}

func schemaKey(contentType string) string {
	return schemaKeyPrefix + contentType
}

// Get returns the cached field list of contentType.
func (c *SchemaCache) Get(ctx context.Context, contentType string) ([]model.Field, bool) {
	return c.typed.Get(ctx, schemaKey(contentType))
}

// GetOrSet returns the cached field list of contentType, or loads and
// stores it. A load error is returned as is and nothing is stored.
func (c *SchemaCache) GetOrSet(ctx context.Context, contentType string, load func() ([]model.Field, error)) ([]model.Field, error) {
	return c.typed.GetOrSet(ctx, schemaKey(contentType), load)
}

// Invalidate drops the entry of one content type.
func (c *SchemaCache) Invalidate(ctx context.Context, contentType string) error {
	return c.typed.Delete(ctx, schemaKey(contentType))
}

// InvalidateAll drops every content type entry. A definition change affects
// every type the field is attached to.
func (c *SchemaCache) InvalidateAll(ctx context.Context) error {
	return c.typed.DeleteByPrefix(ctx, schemaKeyPrefix)
}
