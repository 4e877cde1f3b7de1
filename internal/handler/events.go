// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import "net/http"

// ListEvents handles GET /api/v1/events, newest first. Moderators only.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if !h.requireModerator(w, r) {
		return
	}
	limit, _, ok := pageParams(w, r)
	if !ok {
		return
	}
	events, err := h.events.ListRecent(r.Context(), limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, events, &Meta{Limit: limit, Count: len(events)})
}
