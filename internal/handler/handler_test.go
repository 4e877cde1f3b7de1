// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-content/internal/cache"
	"github.com/olegiv/ocms-content/internal/middleware"
	"github.com/olegiv/ocms-content/internal/model"
	"github.com/olegiv/ocms-content/internal/scheduler"
	"github.com/olegiv/ocms-content/internal/service"
	"github.com/olegiv/ocms-content/internal/testutil"
	"github.com/olegiv/ocms-content/internal/version"
)

type apiTest struct {
	t      *testing.T
	router http.Handler
}

func newAPITest(t *testing.T) *apiTest {
	t.Helper()
	return newAPITestWithLimiter(t, nil)
}

func newAPITestWithLimiter(t *testing.T, limiter *middleware.OriginRateLimiter) *apiTest {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	logger := testutil.TestLoggerSilent()
	clock := testutil.NewStepClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	backend := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = backend.Close() })

	fields := service.NewFieldService(db, cache.NewSchemaCache(backend, time.Minute), logger)
	router := NewRouter(Deps{
		DB:       db,
		Content:  service.NewContentService(db, fields, clock, logger),
		Fields:   fields,
		Comments: service.NewCommentService(db, clock, logger, service.DefaultThreadPathRetries),
		Events:   service.NewEventService(db, clock),
		Cache:    backend,
		Limiter:  limiter,
		Logger:   logger,
		Version:  version.Info{Version: "v1.2.3"},
	})
	return &apiTest{t: t, router: router}
}

func (a *apiTest) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "192.0.2.10:4000"
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

// decode unmarshals the data member of a success response.
func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return resp.Data
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) middleware.APIError {
	t.Helper()
	var e middleware.APIError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &e), rr.Body.String())
	return e
}

func (a *apiTest) seed() int64 {
	a.t.Helper()
	rr := a.do(http.MethodPost, "/api/v1/types", map[string]string{"type": "article", "name": "Article"}, nil)
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = a.do(http.MethodPost, "/api/v1/fields", map[string]any{"name": "rating", "kind": "integer", "cardinality": 1}, nil)
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = a.do(http.MethodPost, "/api/v1/types/article/fields", map[string]any{"field_name": "rating", "label": "Rating"}, nil)
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = a.do(http.MethodPost, "/api/v1/content", map[string]any{
		"type":      "article",
		"title":     "Hello",
		"body":      "First paragraph.\n\nSecond.",
		"published": true,
		"promoted":  true,
		"fields":    map[string]string{"field_rating": "4"},
	}, map[string]string{HeaderAuthorID: "5"})
	require.Equal(a.t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[revisionRef](a.t, rr).ContentID
}

func TestHealth(t *testing.T) {
	a := newAPITest(t)
	rr := a.do(http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "v1.2.3", status.Version)
	assert.Equal(t, "healthy", status.Checks["database"].Status)
	assert.Equal(t, "healthy", status.Checks["cache"].Status)
}

func TestContentLifecycle(t *testing.T) {
	a := newAPITest(t)
	id := a.seed()
	path := "/api/v1/content/" + strconv.FormatInt(id, 10)

	rr := a.do(http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	detail := decode[service.ContentDetail](t, rr)
	assert.Equal(t, "Hello", detail.Revision.Title)
	assert.Equal(t, "First paragraph.", detail.Revision.Teaser)
	assert.Equal(t, int64(5), detail.Revision.AuthorID)
	require.Len(t, detail.Fields["rating"], 1)
	assert.Equal(t, int64(4), detail.Fields["rating"][0].Value.Int)

	rr = a.do(http.MethodPut, path, map[string]any{"title": "Hello again", "body": "Edited."}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	second := decode[revisionRef](t, rr).RevisionID

	rr = a.do(http.MethodGet, path+"/revisions", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	revs := decode[[]map[string]any](t, rr)
	require.Len(t, revs, 2)
	assert.Equal(t, float64(second), revs[0]["id"])

	first := detail.Revision.ID
	rr = a.do(http.MethodGet, path+"/revisions/"+strconv.FormatInt(first, 10), nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Hello", decode[service.ContentDetail](t, rr).Revision.Title)

	rr = a.do(http.MethodPost, path+"/revisions/"+strconv.FormatInt(first, 10)+"/revert", nil, nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = a.do(http.MethodGet, "/api/v1/frontpage", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]map[string]any](t, rr), 1)

	rr = a.do(http.MethodPut, path+"/published", map[string]bool{"published": false}, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = a.do(http.MethodGet, "/api/v1/frontpage", nil, nil)
	assert.Len(t, decode[[]map[string]any](t, rr), 0)

	rr = a.do(http.MethodGet, "/api/v1/content?limit=5", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]map[string]any](t, rr), 1)

	rr = a.do(http.MethodDelete, path, nil, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = a.do(http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestErrorMapping(t *testing.T) {
	a := newAPITest(t)
	id := a.seed()
	path := "/api/v1/content/" + strconv.FormatInt(id, 10)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"unknown content", http.MethodGet, "/api/v1/content/999", nil, http.StatusNotFound, "not_found"},
		{"bad id", http.MethodGet, "/api/v1/content/abc", nil, http.StatusBadRequest, "bad_request"},
		{"empty title", http.MethodPut, path, map[string]any{"title": ""}, http.StatusUnprocessableEntity, "validation_error"},
		{"unknown type", http.MethodPost, "/api/v1/content", map[string]any{"type": "nope", "title": "x"}, http.StatusUnprocessableEntity, "validation_error"},
		{"unknown json field", http.MethodPost, "/api/v1/content", map[string]any{"titel": "x"}, http.StatusBadRequest, "bad_request"},
		{"unknown field type", http.MethodGet, "/api/v1/types/nope/fields", nil, http.StatusNotFound, "not_found"},
		{"bad comment mode", http.MethodPut, path + "/comment-mode", map[string]string{"comment_mode": "open"}, http.StatusUnprocessableEntity, "validation_error"},
		{"bad limit", http.MethodGet, "/api/v1/content?limit=-1", nil, http.StatusBadRequest, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := a.do(tt.method, tt.path, tt.body, nil)
			require.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rr).Error.Code)
		})
	}

	rr := a.do(http.MethodPut, path, map[string]any{"title": ""}, nil)
	assert.Equal(t, "is required", errorCode(t, rr).Error.Details["title"])
}

func TestCommentsAPI(t *testing.T) {
	a := newAPITest(t)
	id := a.seed()
	base := "/api/v1/content/" + strconv.FormatInt(id, 10)
	member := map[string]string{HeaderAuthorID: "9", HeaderAuthorName: "Member"}

	rr := a.do(http.MethodPost, base+"/comments", map[string]any{"body": "Top level"}, member)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	top := decode[map[string]any](t, rr)
	assert.Equal(t, "00/", top["thread_path"])
	assert.Equal(t, "192.0.2.10", top["origin_host"])
	topID := int64(top["id"].(float64))

	rr = a.do(http.MethodPost, base+"/comments", map[string]any{"parent_id": topID, "body": "Reply"}, member)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "00.00/", decode[map[string]any](t, rr)["thread_path"])

	// Anonymous without a name is rejected; with one it is accepted.
	rr = a.do(http.MethodPost, base+"/comments", map[string]any{"body": "Anon"}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, errorCode(t, rr).Error.Details, "display_name")

	held := map[string]string{HeaderCommentApproved: "false"}
	rr = a.do(http.MethodPost, base+"/comments", map[string]any{"body": "Anon", "name": "Guest"}, held)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	heldComment := decode[map[string]any](t, rr)
	assert.Equal(t, model.CommentStatusAwaitingModeration, heldComment["status"])
	heldPath := "/api/v1/comments/" + strconv.FormatInt(int64(heldComment["id"].(float64)), 10)

	rr = a.do(http.MethodGet, heldPath, nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = a.do(http.MethodGet, heldPath, nil, map[string]string{HeaderModerator: "true"})
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = a.do(http.MethodGet, base+"/comments", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	thread := decode[[]map[string]any](t, rr)
	require.Len(t, thread, 2)
	assert.Equal(t, float64(1), thread[1]["depth"])

	rr = a.do(http.MethodGet, base+"/comments?all=true", nil, map[string]string{HeaderModerator: "true"})
	assert.Len(t, decode[[]map[string]any](t, rr), 3)
	rr = a.do(http.MethodGet, base+"/comments?all=true", nil, nil)
	assert.Len(t, decode[[]map[string]any](t, rr), 2)

	rr = a.do(http.MethodGet, base+"/stats", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[map[string]any](t, rr)
	assert.Equal(t, float64(2), stats["comment_count"])
	assert.Equal(t, float64(9), stats["last_comment_author_id"])

	topPath := "/api/v1/comments/" + strconv.FormatInt(topID, 10)
	rr = a.do(http.MethodPut, topPath, map[string]string{"body": "Edited top"}, nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "Edited top", decode[map[string]any](t, rr)["subject"])

	rr = a.do(http.MethodDelete, topPath, nil, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = a.do(http.MethodGet, base+"/comments", nil, nil)
	assert.Len(t, decode[[]map[string]any](t, rr), 1)

	rr = a.do(http.MethodPost, base+"/stats/rebuild", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, false, decode[map[string]any](t, rr)["drifted"])

	rr = a.do(http.MethodPut, base+"/comment-mode", map[string]string{"comment_mode": model.CommentModeDisabled}, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	rr = a.do(http.MethodPost, base+"/comments", map[string]any{"body": "Closed"}, member)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestCommentRateLimit(t *testing.T) {
	a := newAPITestWithLimiter(t, middleware.NewOriginRateLimiter(0.001, 1, nil))
	id := a.seed()
	path := "/api/v1/content/" + strconv.FormatInt(id, 10) + "/comments"
	member := map[string]string{HeaderAuthorID: "9"}

	rr := a.do(http.MethodPost, path, map[string]any{"body": "one"}, member)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = a.do(http.MethodPost, path, map[string]any{"body": "two"}, member)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	// Reads are not limited.
	rr = a.do(http.MethodGet, path, nil, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSchemaAPI(t *testing.T) {
	a := newAPITest(t)
	a.seed()

	rr := a.do(http.MethodGet, "/api/v1/types", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]map[string]any](t, rr), 1)

	rr = a.do(http.MethodGet, "/api/v1/types/article/fields", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	fields := decode[[]model.Field](t, rr)
	require.Len(t, fields, 1)
	assert.Equal(t, "rating", fields[0].Name)

	rr = a.do(http.MethodGet, "/api/v1/fields/rating", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = a.do(http.MethodDelete, "/api/v1/types/article/fields/rating", nil, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = a.do(http.MethodGet, "/api/v1/types/article/fields", nil, nil)
	assert.Len(t, decode[[]model.Field](t, rr), 0)

	rr = a.do(http.MethodDelete, "/api/v1/types/article/fields/rating", nil, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEventsRequireModerator(t *testing.T) {
	a := newAPITest(t)

	rr := a.do(http.MethodGet, "/api/v1/events", nil, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = a.do(http.MethodGet, "/api/v1/events?limit=5", nil, map[string]string{HeaderModerator: "1"})
	assert.Equal(t, http.StatusOK, rr.Code)
}

type countingReconciler struct{ runs int }

func (c *countingReconciler) RebuildAllThreadStats(context.Context) (int, error) {
	c.runs++
	return 0, nil
}

func TestJobsAPI(t *testing.T) {
	logger := testutil.TestLoggerSilent()
	stats := &countingReconciler{}
	sched, err := scheduler.New(scheduler.Config{ReconcileSchedule: "@hourly"}, stats, nil, logger)
	require.NoError(t, err)

	a := &apiTest{t: t, router: NewRouter(Deps{Jobs: sched, Logger: logger})}
	moderator := map[string]string{HeaderModerator: "1"}

	rr := a.do(http.MethodGet, "/api/v1/jobs", nil, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = a.do(http.MethodGet, "/api/v1/jobs", nil, moderator)
	require.Equal(t, http.StatusOK, rr.Code)
	jobs := decode[[]scheduler.JobInfo](t, rr)
	require.Len(t, jobs, 1)
	assert.Equal(t, scheduler.JobReconcileStats, jobs[0].Name)
	assert.Equal(t, "@hourly", jobs[0].Schedule)

	rr = a.do(http.MethodPost, "/api/v1/jobs/"+scheduler.JobReconcileStats+"/run", nil, nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, 0, stats.runs)

	rr = a.do(http.MethodPost, "/api/v1/jobs/"+scheduler.JobReconcileStats+"/run", nil, moderator)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, scheduler.JobReconcileStats, decode[JobRun](t, rr).Name)
	assert.Equal(t, 1, stats.runs)

	rr = a.do(http.MethodPost, "/api/v1/jobs/"+scheduler.JobPruneEvents+"/run", nil, moderator)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "not_found", errorCode(t, rr).Error.Code)
}

func TestJobsAPI_DisabledWithoutScheduler(t *testing.T) {
	a := newAPITest(t)
	rr := a.do(http.MethodGet, "/api/v1/jobs", nil, map[string]string{HeaderModerator: "1"})
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHeaderIdentity(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    Identity
	}{
		{"anonymous", nil, Identity{SkipModeration: true}},
		{"member", map[string]string{HeaderAuthorID: "12", HeaderAuthorName: " Ann "}, Identity{AuthorID: 12, Name: "Ann", SkipModeration: true}},
		{"malformed id", map[string]string{HeaderAuthorID: "x"}, Identity{SkipModeration: true}},
		{"held", map[string]string{HeaderCommentApproved: "false"}, Identity{}},
		{"moderator", map[string]string{HeaderModerator: "true"}, Identity{SkipModeration: true, Moderator: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, HeaderIdentity{}.Identify(req))
		})
	}
}
