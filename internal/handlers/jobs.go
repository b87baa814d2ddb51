package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tnp-portal/apiserver/internal/services"
	"github.com/tnp-portal/apiserver/types"
)

// JobHandler serves the posting lifecycle: creation, per-role listing,
// officer moderation and deletion.
type JobHandler struct {
	jobs *services.JobService
}

func NewJobHandler(jobs *services.JobService) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// JobRouter registers job routes. All routes require authentication.
// Application submission and listing live under the job they target.
func JobRouter(r chi.Router, handler *JobHandler, apps *ApplicationHandler) {
	r.Get("/", handler.List)
	r.With(requireRoles(types.RoleRecruiter)).Post("/", handler.Create)

	r.Route("/{jobID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.With(requireRoles(types.RoleRecruiter)).Put("/", handler.Update)
		r.With(requireRoles(types.RoleRecruiter, types.RoleTnP)).Delete("/", handler.Delete)
		r.With(requireRoles(types.RoleTnP)).Put("/approve", handler.Approve)
		r.With(requireRoles(types.RoleTnP)).Put("/reject", handler.Reject)

		r.With(requireRoles(types.RoleStudent)).Post("/applications", apps.Apply)
		r.With(requireRoles(types.RoleRecruiter, types.RoleTnP)).Get("/applications", apps.ListForJob)
	})
}

type JobRequest struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Company     string            `json:"company"`
	Location    string            `json:"location"`
	Eligibility types.Eligibility `json:"eligibility"`
	CTCMin      float64           `json:"ctc_min"`
	CTCMax      float64           `json:"ctc_max"`
	Deadline    time.Time         `json:"deadline"`
}

func (req JobRequest) input() services.JobInput {
	return services.JobInput{
		Title:       req.Title,
		Description: req.Description,
		Company:     req.Company,
		Location:    req.Location,
		Eligibility: req.Eligibility,
		CTCMin:      req.CTCMin,
		CTCMax:      req.CTCMax,
		Deadline:    req.Deadline,
	}
}

// List returns postings visible to the caller's role.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	viewer, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	jobs, total, err := h.jobs.ListForViewer(r.Context(), viewer, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, jobs, newPagination(page, limit, total))
}

// Create submits a new posting for officer approval.
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	recruiter, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req JobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	job, err := h.jobs.Create(r.Context(), recruiter.ID, req.input(), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, job, "job submitted for approval")
}

// Get returns one posting, subject to role visibility.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := urlID(r, "jobID")
	if err != nil {
		writeError(w, err)
		return
	}

	job, err := h.jobs.GetForViewer(r.Context(), viewer, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, job, "")
}

// Update patches a still-pending posting owned by the caller.
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	recruiter, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := urlID(r, "jobID")
	if err != nil {
		writeError(w, err)
		return
	}

	var req JobRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	job, err := h.jobs.Update(r.Context(), recruiter.ID, id, req.input(), requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, job, "job updated")
}

// Delete soft-deletes a posting with no applications.
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := urlID(r, "jobID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.jobs.Delete(r.Context(), actor, id, requestMeta(r)); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "job deleted")
}

// Approve moves a pending posting to approved.
func (h *JobHandler) Approve(w http.ResponseWriter, r *http.Request) {
	officer, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := urlID(r, "jobID")
	if err != nil {
		writeError(w, err)
		return
	}

	job, err := h.jobs.Approve(r.Context(), officer.ID, id, requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, job, "job approved")
}

type RejectRequest struct {
	Reason string `json:"reason"`
}

// Reject moves a pending posting to rejected with a reason.
func (h *JobHandler) Reject(w http.ResponseWriter, r *http.Request) {
	officer, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := urlID(r, "jobID")
	if err != nil {
		writeError(w, err)
		return
	}

	var req RejectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	job, err := h.jobs.Reject(r.Context(), officer.ID, id, req.Reason, requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, job, "job rejected")
}
