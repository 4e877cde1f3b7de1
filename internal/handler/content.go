// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/olegiv/ocms-content/internal/service"
)

// contentRequest is the body of create and update requests. Type,
// Published and CommentMode are read on create only; omitting Fields on
// update keeps the current field values.
type contentRequest struct {
	Type          string            `json:"type"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	ExcerptSource string            `json:"excerpt_source"`
	Promoted      bool              `json:"promoted"`
	Sticky        bool              `json:"sticky"`
	Published     bool              `json:"published"`
	CommentMode   string            `json:"comment_mode"`
	Log           string            `json:"log"`
	Fields        map[string]string `json:"fields"`
}

func (req contentRequest) input(authorID int64) service.ContentInput {
	return service.ContentInput{
		Type:          req.Type,
		Title:         req.Title,
		Body:          req.Body,
		ExcerptSource: req.ExcerptSource,
		AuthorID:      authorID,
		Promoted:      req.Promoted,
		Sticky:        req.Sticky,
		Published:     req.Published,
		CommentMode:   req.CommentMode,
		Log:           req.Log,
		Fields:        req.Fields,
	}
}

type revisionRef struct {
	ContentID  int64 `json:"content_id"`
	RevisionID int64 `json:"revision_id"`
}

// CreateContent handles POST /api/v1/content.
func (h *Handler) CreateContent(w http.ResponseWriter, r *http.Request) {
	var req contentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	who := h.identity.Identify(r)
	contentID, revisionID, err := h.content.CreateContent(r.Context(), req.input(who.AuthorID))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, revisionRef{ContentID: contentID, RevisionID: revisionID})
}

// ListContent handles GET /api/v1/content.
func (h *Handler) ListContent(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := pageParams(w, r)
	if !ok {
		return
	}
	items, err := h.content.ListAll(r.Context(), limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, items, &Meta{Limit: limit, Offset: offset, Count: len(items)})
}

// ListFrontPage handles GET /api/v1/frontpage.
func (h *Handler) ListFrontPage(w http.ResponseWriter, r *http.Request) {
	limit, _, ok := pageParams(w, r)
	if !ok {
		return
	}
	items, err := h.content.ListFrontPage(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, items, &Meta{Limit: limit, Count: len(items)})
}

// GetContent handles GET /api/v1/content/{id}.
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.content.GetContent(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, detail, nil)
}

// UpdateContent handles PUT /api/v1/content/{id}.
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req contentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	who := h.identity.Identify(r)
	revisionID, err := h.content.UpdateContent(r.Context(), id, req.input(who.AuthorID))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, revisionRef{ContentID: id, RevisionID: revisionID}, nil)
}

// DeleteContent handles DELETE /api/v1/content/{id}.
func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteContent(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetPublished handles PUT /api/v1/content/{id}/published.
func (h *Handler) SetPublished(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Published bool `json:"published"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.content.SetPublished(r.Context(), id, req.Published); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetCommentMode handles PUT /api/v1/content/{id}/comment-mode.
func (h *Handler) SetCommentMode(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		CommentMode string `json:"comment_mode"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.content.SetCommentMode(r.Context(), id, req.CommentMode); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRevisions handles GET /api/v1/content/{id}/revisions.
func (h *Handler) ListRevisions(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	revs, err := h.content.ListRevisions(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, revs, &Meta{Count: len(revs)})
}

// GetRevision handles GET /api/v1/content/{id}/revisions/{rid}.
func (h *Handler) GetRevision(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	rid, ok := idParam(w, r, "rid")
	if !ok {
		return
	}
	detail, err := h.content.GetRevision(r.Context(), id, rid)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, detail, nil)
}

// RevertRevision handles POST /api/v1/content/{id}/revisions/{rid}/revert.
func (h *Handler) RevertRevision(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	rid, ok := idParam(w, r, "rid")
	if !ok {
		return
	}
	who := h.identity.Identify(r)
	revisionID, err := h.content.RevertToRevision(r.Context(), id, rid, who.AuthorID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, revisionRef{ContentID: id, RevisionID: revisionID})
}
