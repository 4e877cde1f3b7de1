// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a content item, revision, comment or
	// field schema entry does not exist.
	ErrNotFound = errors.New("not found")

	// ErrValidation is returned when input is rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned when a thread path could not be allocated
	// within the retry budget.
	ErrConflict = errors.New("conflict")
)

// ValidationError describes rejected input. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Is reports ErrValidation as the sentinel of every ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationErr(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// StorageError wraps a failure of the underlying store. The driver error is
// preserved and reachable through errors.Is/As.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr wraps err as a StorageError unless it is nil or already one of
// the domain errors.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) || errors.Is(err, ErrConflict) {
		return err
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// notFoundOr maps sql.ErrNoRows to ErrNotFound and wraps everything else as a storage failure.
func notFoundOr(op, what string, id any, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
	}
	return storageErr(op, err)
}

// IsStorageFailure reports whether err originated in the storage layer.
func IsStorageFailure(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
