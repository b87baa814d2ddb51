package handlers

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tnp-portal/apiserver/internal/services"
	"github.com/tnp-portal/apiserver/types"
)

const formFieldResume = "resume"

// ApplicationHandler serves the application lifecycle from submission
// through recruiter review to withdrawal, plus resume downloads.
type ApplicationHandler struct {
	apps    *services.ApplicationService
	uploads *services.UploadService
}

func NewApplicationHandler(apps *services.ApplicationService, uploads *services.UploadService) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, uploads: uploads}
}

// ApplicationRouter registers the application routes that are not nested
// under a job. All routes require authentication.
func ApplicationRouter(r chi.Router, handler *ApplicationHandler) {
	r.With(requireRoles(types.RoleStudent)).Get("/me", handler.ListMine)
	r.Route("/{applicationID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Get("/resume", handler.DownloadResume)
		r.With(requireRoles(types.RoleRecruiter)).Put("/status", handler.UpdateStatus)
		r.With(requireRoles(types.RoleStudent)).Delete("/", handler.Withdraw)
	})
}

// Apply submits an application to the job in the URL. The resume PDF
// rides along in the multipart field "resume".
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	student, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jobID, err := urlID(r, "jobID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, errInvalidMultipart)
		return
	}
	filename, data, err := formFile(r.MultipartForm, formFieldResume, h.uploads.MaxResumeBytes())
	if err != nil {
		writeError(w, err)
		return
	}

	resume, err := h.uploads.StoreResume(r.Context(), student.ID, filename, data)
	if err != nil {
		writeError(w, err)
		return
	}

	app, err := h.apps.Apply(r.Context(), student, jobID, resume, requestMeta(r))
	if err != nil {
		// The resume was already stored; do not leave it orphaned.
		if derr := h.uploads.Remove(r.Context(), resume.ObjectKey); derr != nil {
			log.Printf("failed to remove resume %s of rejected application: %v", resume.ObjectKey, derr)
		}
		writeError(w, err)
		return
	}
	writeData(w, http.StatusCreated, app, "application submitted")
}

// ListMine returns the student's own applications.
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	student, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	apps, total, err := h.apps.ListMine(r.Context(), student.ID, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, apps, newPagination(page, limit, total))
}

// ListForJob returns a job's applications for its recruiter or any officer.
func (h *ApplicationHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	viewer, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	jobID, err := urlID(r, "jobID")
	if err != nil {
		writeError(w, err)
		return
	}
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	apps, total, err := h.apps.ListForJob(r.Context(), viewer, jobID, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, apps, newPagination(page, limit, total))
}

// Get returns one application for an allowed viewer.
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	viewer, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := urlID(r, "applicationID")
	if err != nil {
		writeError(w, err)
		return
	}

	app, err := h.apps.GetForViewer(r.Context(), viewer, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, app, "")
}

type StatusUpdateRequest struct {
	Status    types.ApplicationStatus `json:"status"`
	Notes     string                  `json:"notes"`
	Interview *types.InterviewDetails `json:"interview"`
}

// UpdateStatus applies a recruiter review transition.
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	recruiter, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := urlID(r, "applicationID")
	if err != nil {
		writeError(w, err)
		return
	}

	var req StatusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	app, err := h.apps.UpdateStatus(r.Context(), recruiter.ID, id, services.StatusUpdate{
		Status:    req.Status,
		Notes:     req.Notes,
		Interview: req.Interview,
	}, requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, app, "application updated")
}

// Withdraw removes the student's own not-yet-reviewed application.
func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	student, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := urlID(r, "applicationID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.apps.Withdraw(r.Context(), student.ID, id, requestMeta(r)); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "application withdrawn")
}

// DownloadResume streams the stored resume PDF to an allowed viewer.
func (h *ApplicationHandler) DownloadResume(w http.ResponseWriter, r *http.Request) {
	viewer, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := urlID(r, "applicationID")
	if err != nil {
		writeError(w, err)
		return
	}

	app, err := h.apps.GetForViewer(r.Context(), viewer, id)
	if err != nil {
		writeError(w, err)
		return
	}

	object, err := h.uploads.Open(r.Context(), app.Resume.ObjectKey)
	if err != nil {
		writeError(w, err)
		return
	}
	defer object.Close()

	w.Header().Set("Content-Type", app.Resume.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+app.Resume.Filename+`"`)
	if app.Resume.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(app.Resume.Size, 10))
	}
	_, _ = io.Copy(w, object)
}
