// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-content/internal/service"
)

type contentTypeRequest struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Help        string `json:"help"`
}

type fieldDefinitionRequest struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	Cardinality int    `json:"cardinality"`
	Settings    string `json:"settings"`
}

type fieldInstanceRequest struct {
	FieldName     string `json:"field_name"`
	Label         string `json:"label"`
	Description   string `json:"description"`
	Required      bool   `json:"required"`
	DisplayWeight int    `json:"display_weight"`
	WidgetHint    string `json:"widget_hint"`
}

// ListContentTypes handles GET /api/v1/types.
func (h *Handler) ListContentTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.content.ListContentTypes(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, types, &Meta{Count: len(types)})
}

// CreateContentType handles POST /api/v1/types.
func (h *Handler) CreateContentType(w http.ResponseWriter, r *http.Request) {
	var req contentTypeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ct, err := h.content.CreateContentType(r.Context(), service.ContentTypeInput(req))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, ct)
}

// DefineField handles POST /api/v1/fields.
func (h *Handler) DefineField(w http.ResponseWriter, r *http.Request) {
	var req fieldDefinitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.fields.DefineField(r.Context(), service.DefinitionInput(req))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, f)
}

// GetFieldDefinition handles GET /api/v1/fields/{field}.
func (h *Handler) GetFieldDefinition(w http.ResponseWriter, r *http.Request) {
	f, err := h.fields.GetFieldDefinition(r.Context(), chi.URLParam(r, "field"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, f, nil)
}

// ListFields handles GET /api/v1/types/{type}/fields.
func (h *Handler) ListFields(w http.ResponseWriter, r *http.Request) {
	fields, err := h.fields.ListFields(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, fields, &Meta{Count: len(fields)})
}

// AttachField handles POST /api/v1/types/{type}/fields.
func (h *Handler) AttachField(w http.ResponseWriter, r *http.Request) {
	var req fieldInstanceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.fields.AttachField(r.Context(), service.InstanceInput{
		FieldName:     req.FieldName,
		ContentType:   chi.URLParam(r, "type"),
		Label:         req.Label,
		Description:   req.Description,
		Required:      req.Required,
		DisplayWeight: req.DisplayWeight,
		WidgetHint:    req.WidgetHint,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteCreated(w, f)
}

// DetachField handles DELETE /api/v1/types/{type}/fields/{field}.
func (h *Handler) DetachField(w http.ResponseWriter, r *http.Request) {
	if err := h.fields.DetachField(r.Context(), chi.URLParam(r, "type"), chi.URLParam(r, "field")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
