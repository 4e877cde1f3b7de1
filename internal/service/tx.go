// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/olegiv/ocms-content/internal/store"
)

// inTx runs fn inside a transaction and commits when fn succeeds.
// Any error or a cancelled context rolls the transaction back.
func inTx(ctx context.Context, db *sql.DB, queries *store.Queries, fn func(q *store.Queries) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit transaction", fmt.Errorf("committing: %w", err))
	}
	return nil
}
