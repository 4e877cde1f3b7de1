// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testItem struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestTypedCache_SetGet(t *testing.T) {
	backend, _ := newTestMemoryCache(t, 0)
	tc := NewTypedCache[testItem](backend, time.Minute)
	ctx := context.Background()

	_, ok := tc.Get(ctx, "item")
	assert.False(t, ok)

	require.NoError(t, tc.Set(ctx, "item", testItem{Name: "a", Count: 2}))
	got, ok := tc.Get(ctx, "item")
	require.True(t, ok)
	assert.Equal(t, testItem{Name: "a", Count: 2}, got)

	require.NoError(t, tc.Delete(ctx, "item"))
	_, ok = tc.Get(ctx, "item")
	assert.False(t, ok)
}

func TestTypedCache_UndecodableEntryIsMiss(t *testing.T) {
	backend, _ := newTestMemoryCache(t, 0)
	tc := NewTypedCache[testItem](backend, time.Minute)
	ctx := context.Background()

	require.NoError(t, backend.Set(ctx, "item", []byte("not json"), 0))
	got, ok := tc.Get(ctx, "item")
	assert.False(t, ok)
	assert.Equal(t, testItem{}, got)
}

func TestTypedCache_GetOrSet(t *testing.T) {
	backend, _ := newTestMemoryCache(t, 0)
	tc := NewTypedCache[[]string](backend, time.Minute)
	ctx := context.Background()

	calls := 0
	load := func() ([]string, error) {
		calls++
		return []string{"x", "y"}, nil
	}

	first, err := tc.GetOrSet(ctx, "list", load)
	require.NoError(t, err)
	second, err := tc.GetOrSet(ctx, "list", load)
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	boom := errors.New("boom")
	_, err = tc.GetOrSet(ctx, "other", func() ([]string, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}
