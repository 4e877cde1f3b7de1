// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/olegiv/ocms-content/internal/model"
	"github.com/olegiv/ocms-content/internal/store"
)

// DefaultEventListLimit caps ListRecent when no limit is given.
const DefaultEventListLimit = 100

// EventService records and reads the persistent event log.
type EventService struct {
	queries *store.Queries
	clock   Clock
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB, clock Clock) *EventService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &EventService{
		queries: store.New(db),
		clock:   clock,
	}
}

// LogEvent creates a new event log entry. Metadata that cannot be encoded
// is stored as an empty object.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  metadataJSON,
		CreatedAt: s.clock.Now(),
	})
	if err != nil {
		return storageErr("log event", err)
	}
	return nil
}

// LogInfo logs an info-level event.
func (s *EventService) LogInfo(ctx context.Context, category, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelInfo, category, message, metadata)
}

// LogWarning logs a warning-level event.
func (s *EventService) LogWarning(ctx context.Context, category, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelWarning, category, message, metadata)
}

// LogError logs an error-level event.
func (s *EventService) LogError(ctx context.Context, category, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, model.EventLevelError, category, message, metadata)
}

// ListRecent returns the newest events first.
func (s *EventService) ListRecent(ctx context.Context, limit int) ([]store.Event, error) {
	if limit <= 0 {
		limit = DefaultEventListLimit
	}
	events, err := s.queries.ListEvents(ctx, int64(limit))
	if err != nil {
		return nil, storageErr("list events", err)
	}
	return events, nil
}

// DeleteOldEvents removes events older than the specified duration and
// returns how many were removed.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.clock.Now().Add(-olderThan)
	n, err := s.queries.DeleteOldEvents(ctx, cutoff)
	if err != nil {
		return 0, storageErr("delete old events", err)
	}
	return n, nil
}
