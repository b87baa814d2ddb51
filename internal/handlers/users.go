package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/tnp-portal/apiserver/internal/services"
	"github.com/tnp-portal/apiserver/types"
)

// UserHandler serves profile management and the officer's student roster.
type UserHandler struct {
	users   *services.UserService
	uploads *services.UploadService
}

func NewUserHandler(users *services.UserService, uploads *services.UploadService) *UserHandler {
	return &UserHandler{users: users, uploads: uploads}
}

// UserRouter registers user routes. All routes require authentication.
func UserRouter(r chi.Router, handler *UserHandler) {
	r.Get("/me", handler.Me)
	r.Put("/me", handler.UpdateProfile)
	r.Post("/me/avatar", handler.UploadAvatar)
	r.With(requireRoles(types.RoleStudent)).Post("/me/marksheet", handler.UploadMarksheet)

	r.Route("/students", func(r chi.Router) {
		r.Use(requireRoles(types.RoleTnP))
		r.Get("/", handler.ListStudents)
		r.Put("/{studentID}/verify", handler.VerifyStudent)
		r.Put("/{studentID}/deactivate", handler.DeactivateStudent)
	})
}

// Me returns the caller's own profile.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, user, "")
}

type ProfileUpdateRequest struct {
	Name    string             `json:"name"`
	Phone   string             `json:"phone"`
	Details *types.RoleDetails `json:"details"`
}

// UpdateProfile patches the caller's name, phone and role details.
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var req ProfileUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	updated, err := h.users.UpdateProfile(r.Context(), user.ID, services.ProfileUpdate{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Details: req.Details,
	}, requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, updated, "profile updated")
}

// UploadAvatar stores a JPEG/PNG avatar for the caller.
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, "avatar", "avatars", func(r *http.Request, userID int, key string) (types.User, error) {
		return h.users.SetAvatar(r.Context(), userID, key)
	})
}

// UploadMarksheet stores a JPEG/PNG marksheet for a student. Replacing
// the marksheet is how an unverified student resubmits for verification.
func (h *UserHandler) UploadMarksheet(w http.ResponseWriter, r *http.Request) {
	h.uploadImage(w, r, "marksheet", "marksheets", func(r *http.Request, userID int, key string) (types.User, error) {
		return h.users.SetMarksheet(r.Context(), userID, key)
	})
}

func (h *UserHandler) uploadImage(
	w http.ResponseWriter,
	r *http.Request,
	field, kind string,
	apply func(r *http.Request, userID int, key string) (types.User, error),
) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, errInvalidMultipart)
		return
	}
	_, data, err := formFile(r.MultipartForm, field, h.uploads.MaxImageBytes())
	if err != nil {
		writeError(w, err)
		return
	}

	key, err := h.uploads.StoreImage(r.Context(), user.ID, kind, data)
	if err != nil {
		writeError(w, err)
		return
	}

	updated, err := apply(r, user.ID, key)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, updated, field+" uploaded")
}

// ListStudents returns the officer's college roster.
func (h *UserHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	officer, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	students, total, err := h.users.ListStudents(r.Context(), officer, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, students, newPagination(page, limit, total))
}

// VerifyStudent marks a student of the officer's college as verified.
func (h *UserHandler) VerifyStudent(w http.ResponseWriter, r *http.Request) {
	officer, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	studentID, err := urlID(r, "studentID")
	if err != nil {
		writeError(w, err)
		return
	}

	student, err := h.users.VerifyStudent(r.Context(), officer, studentID, requestMeta(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, student, "student verified")
}

// DeactivateStudent disables a student account in the officer's college.
func (h *UserHandler) DeactivateStudent(w http.ResponseWriter, r *http.Request) {
	officer, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	studentID, err := urlID(r, "studentID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.users.DeactivateStudent(r.Context(), officer, studentID, requestMeta(r)); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "student deactivated")
}
