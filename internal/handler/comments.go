// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/ocms-content/internal/middleware"
	"github.com/olegiv/ocms-content/internal/model"
	"github.com/olegiv/ocms-content/internal/service"
)

type commentRequest struct {
	ParentID int64  `json:"parent_id"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Homepage string `json:"homepage"`
}

type commentEditRequest struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// CreateComment handles POST /api/v1/content/{id}/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	contentID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req commentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	who := h.identity.Identify(r)
	name := who.Name
	if name == "" {
		name = req.Name
	}
	status := model.CommentStatusPublished
	if !who.SkipModeration {
		status = model.CommentStatusAwaitingModeration
	}

	id, err := h.comments.CreateComment(r.Context(), service.CommentInput{
		ContentID:   contentID,
		ParentID:    req.ParentID,
		AuthorID:    who.AuthorID,
		Subject:     req.Subject,
		Body:        req.Body,
		OriginHost:  middleware.ClientIP(r),
		DisplayName: name,
		Email:       req.Email,
		Homepage:    req.Homepage,
		Status:      status,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	c, err := h.comments.GetComment(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, c)
}

// ListThread handles GET /api/v1/content/{id}/comments. Moderators may pass
// all=true to include comments awaiting moderation.
func (h *Handler) ListThread(w http.ResponseWriter, r *http.Request) {
	contentID, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	all := r.URL.Query().Get("all") == "true" && h.identity.Identify(r).Moderator

	thread, err := h.comments.ListThread(r.Context(), contentID, all)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, thread, &Meta{Count: len(thread)})
}

// GetComment handles GET /api/v1/comments/{id}.
func (h *Handler) GetComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	c, err := h.comments.GetComment(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if c.Status != model.CommentStatusPublished && !h.identity.Identify(r).Moderator {
		middleware.WriteAPIError(w, http.StatusNotFound, "not_found", "comment not found", nil)
		return
	}
	WriteSuccess(w, c, nil)
}

// UpdateComment handles PUT /api/v1/comments/{id}.
func (h *Handler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req commentEditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.comments.UpdateComment(r.Context(), id, req.Subject, req.Body); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	c, err := h.comments.GetComment(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, c, nil)
}

// DeleteComment handles DELETE /api/v1/comments/{id}.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.comments.DeleteComment(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetThreadStats handles GET /api/v1/content/{id}/stats.
func (h *Handler) GetThreadStats(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	stats, err := h.comments.GetThreadStats(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, stats, nil)
}

// RebuildThreadStats handles POST /api/v1/content/{id}/stats/rebuild.
func (h *Handler) RebuildThreadStats(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	drifted, err := h.comments.RebuildThreadStats(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	stats, err := h.comments.GetThreadStats(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, map[string]any{"drifted": drifted, "stats": stats}, nil)
}
