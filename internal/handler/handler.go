// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the JSON HTTP API over the content, field and
// comment services.
package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/ocms-content/internal/cache"
	"github.com/olegiv/ocms-content/internal/middleware"
	"github.com/olegiv/ocms-content/internal/service"
	"github.com/olegiv/ocms-content/internal/version"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// DefaultRequestTimeout bounds API request handling.
const DefaultRequestTimeout = 30 * time.Second

// Deps holds everything the API handlers need.
type Deps struct {
	DB       *sql.DB
	Content  *service.ContentService
	Fields   *service.FieldService
	Comments *service.CommentService
	Events   *service.EventService
	Cache    cache.Cacher // optional, reported by /health
	Jobs     JobRunner    // optional, enables /api/v1/jobs
	Identity IdentityProvider
	Limiter  *middleware.OriginRateLimiter
	Logger   *slog.Logger
	Version  version.Info
	Timeout  time.Duration
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	db        *sql.DB
	content   *service.ContentService
	fields    *service.FieldService
	comments  *service.CommentService
	events    *service.EventService
	cache     cache.Cacher
	jobs      JobRunner
	identity  IdentityProvider
	limiter   *middleware.OriginRateLimiter
	logger    *slog.Logger
	version   version.Info
	startTime time.Time
}

// New creates a new API handler.
func New(d Deps) *Handler {
	identity := d.Identity
	if identity == nil {
		identity = HeaderIdentity{}
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:        d.DB,
		content:   d.Content,
		fields:    d.Fields,
		comments:  d.Comments,
		events:    d.Events,
		cache:     d.Cache,
		jobs:      d.Jobs,
		identity:  identity,
		limiter:   d.Limiter,
		logger:    logger,
		version:   d.Version,
		startTime: time.Now(),
	}
}

// NewRouter builds the chi router for the API.
func NewRouter(d Deps) http.Handler {
	h := New(d)
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))

		r.Get("/types", h.ListContentTypes)
		r.Post("/types", h.CreateContentType)
		r.Get("/types/{type}/fields", h.ListFields)
		r.Post("/types/{type}/fields", h.AttachField)
		r.Delete("/types/{type}/fields/{field}", h.DetachField)

		r.Post("/fields", h.DefineField)
		r.Get("/fields/{field}", h.GetFieldDefinition)

		r.Get("/frontpage", h.ListFrontPage)
		r.Get("/content", h.ListContent)
		r.Post("/content", h.CreateContent)
		r.Route("/content/{id}", func(r chi.Router) {
			r.Get("/", h.GetContent)
			r.Put("/", h.UpdateContent)
			r.Delete("/", h.DeleteContent)
			r.Put("/published", h.SetPublished)
			r.Put("/comment-mode", h.SetCommentMode)
			r.Get("/revisions", h.ListRevisions)
			r.Get("/revisions/{rid}", h.GetRevision)
			r.Post("/revisions/{rid}/revert", h.RevertRevision)
			r.Get("/comments", h.ListThread)
			r.With(h.limiter.Middleware).Post("/comments", h.CreateComment)
			r.Get("/stats", h.GetThreadStats)
			r.Post("/stats/rebuild", h.RebuildThreadStats)
		})

		r.Get("/comments/{id}", h.GetComment)
		r.Put("/comments/{id}", h.UpdateComment)
		r.Delete("/comments/{id}", h.DeleteComment)

		r.Get("/events", h.ListEvents)

		if h.jobs != nil {
			r.Get("/jobs", h.ListJobs)
			r.Post("/jobs/{name}/run", h.RunJob)
		}
	})

	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chimw.GetReqID(r.Context()),
		)
	})
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
	Count  int `json:"count"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	middleware.WriteAPIError(w, http.StatusBadRequest, "bad_request", message, nil)
}

// writeServiceError maps a service error to its HTTP status. Storage
// failures are logged and reported without detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		middleware.WriteAPIError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed",
			map[string]string{ve.Field: ve.Message})
	case errors.Is(err, service.ErrValidation):
		middleware.WriteAPIError(w, http.StatusUnprocessableEntity, "validation_error", err.Error(), nil)
	case errors.Is(err, service.ErrNotFound):
		middleware.WriteAPIError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, service.ErrConflict):
		middleware.WriteAPIError(w, http.StatusConflict, "conflict", "Concurrent update, please retry", nil)
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"storage", service.IsStorageFailure(err),
			"error", err,
		)
		middleware.WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
	}
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		WriteBadRequest(w, "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// idParam parses a positive integer URL parameter.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// pageParams reads limit and offset query parameters.
func pageParams(w http.ResponseWriter, r *http.Request) (limit, offset int, ok bool) {
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			WriteBadRequest(w, "Invalid limit")
			return 0, 0, false
		}
		limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			WriteBadRequest(w, "Invalid offset")
			return 0, 0, false
		}
		offset = n
	}
	return limit, offset, true
}
