package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tnp-portal/apiserver/internal/services"
)

// CollegeHandler serves the public college directory used during
// registration.
type CollegeHandler struct {
	colleges *services.CollegeService
}

func NewCollegeHandler(colleges *services.CollegeService) *CollegeHandler {
	return &CollegeHandler{colleges: colleges}
}

// CollegeRouter registers the directory routes.
func CollegeRouter(r chi.Router, handler *CollegeHandler) {
	r.Get("/", handler.List)
	r.Get("/{collegeID}", handler.Get)
}

func (h *CollegeHandler) List(w http.ResponseWriter, r *http.Request) {
	colleges, err := h.colleges.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, colleges, "")
}

func (h *CollegeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r, "collegeID")
	if err != nil {
		writeError(w, err)
		return
	}

	college, err := h.colleges.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, college, "")
}
