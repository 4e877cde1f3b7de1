// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-content/internal/middleware"
	"github.com/olegiv/ocms-content/internal/scheduler"
)

// JobRunner lists the maintenance jobs and runs one on demand.
type JobRunner interface {
	List() []scheduler.JobInfo
	TriggerNow(ctx context.Context, name string) error
}

// JobRun is the result of a manual job run.
type JobRun struct {
	Name     string `json:"name"`
	Duration string `json:"duration"`
}

// ListJobs handles GET /api/v1/jobs. Moderators only.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	if !h.requireModerator(w, r) {
		return
	}
	jobs := h.jobs.List()
	WriteSuccess(w, jobs, &Meta{Count: len(jobs)})
}

// RunJob handles POST /api/v1/jobs/{name}/run. The job runs in the request
// and the response is sent once it finishes. Moderators only.
func (h *Handler) RunJob(w http.ResponseWriter, r *http.Request) {
	if !h.requireModerator(w, r) {
		return
	}
	name := chi.URLParam(r, "name")

	start := time.Now()
	err := h.jobs.TriggerNow(r.Context(), name)
	switch {
	case errors.Is(err, scheduler.ErrJobNotFound):
		middleware.WriteAPIError(w, http.StatusNotFound, "not_found", err.Error(), nil)
		return
	case err != nil:
		h.writeServiceError(w, r, err)
		return
	}
	WriteSuccess(w, JobRun{Name: name, Duration: time.Since(start).String()}, nil)
}

func (h *Handler) requireModerator(w http.ResponseWriter, r *http.Request) bool {
	if h.identity.Identify(r).Moderator {
		return true
	}
	middleware.WriteAPIError(w, http.StatusForbidden, "forbidden", "Moderator access required", nil)
	return false
}
