package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tnp-portal/apiserver/internal/apperr"
	"github.com/tnp-portal/apiserver/types"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	maxMultipartMemory = 32 << 20
)

var errInvalidMultipart = apperr.BadRequest("invalid multipart form")

type contextKey string

const contextUserKey contextKey = "user"

// currentUser returns the authenticated user injected by RequireAuth.
func currentUser(ctx context.Context) (types.User, error) {
	user, ok := ctx.Value(contextUserKey).(types.User)
	if !ok {
		return types.User{}, apperr.Unauthorized("unauthorized")
	}
	return user, nil
}

// Pagination is the list-response page descriptor.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func newPagination(page, limit, total int) *Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return &Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

type successEnvelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type errorBody struct {
	Message   string      `json:"message"`
	Code      apperr.Code `json:"code"`
	Details   any         `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type errorEnvelope struct {
	Success bool      `json:"success"`
	Error   errorBody `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeData wraps a payload in the success envelope.
func writeData(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, successEnvelope{Success: true, Data: data, Message: message})
}

// writeList wraps a list payload with its pagination descriptor.
func writeList(w http.ResponseWriter, data any, p *Pagination) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: data, Pagination: p})
}

// writeError maps any error onto the error envelope. Unclassified
// errors become opaque internal errors and are logged server-side.
func writeError(w http.ResponseWriter, err error) {
	e := apperr.From(err)
	if e.Code == apperr.CodeInternal {
		log.Printf("internal error: %v", err)
	}
	body := errorBody{
		Message:   e.Message,
		Code:      e.Code,
		Timestamp: time.Now().UTC(),
	}
	if len(e.Details) > 0 {
		body.Details = e.Details
	}
	writeJSON(w, e.Status(), errorEnvelope{Success: false, Error: body})
}

// parsePagination reads ?page and ?limit with clamped defaults.
func parsePagination(r *http.Request) (page, limit, offset int, err error) {
	page = defaultPage
	limit = defaultLimit

	if raw := strings.TrimSpace(r.URL.Query().Get("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, 0, apperr.BadRequest("invalid page")
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return 0, 0, 0, apperr.BadRequest("invalid limit")
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	offset = (page - 1) * limit
	return page, limit, offset, nil
}

func urlID(r *http.Request, param string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil || id < 1 {
		return 0, apperr.BadRequest(fmt.Sprintf("invalid %s", param))
	}
	return id, nil
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.BadRequest("invalid request body")
	}
	return nil
}

// formFile reads a single uploaded file from a parsed multipart form,
// bounded by limit bytes.
func formFile(form *multipart.Form, field string, limit int64) (string, []byte, error) {
	if form == nil {
		return "", nil, apperr.BadRequest("missing form data")
	}
	files := form.File[field]
	if len(files) == 0 {
		return "", nil, apperr.BadRequest(fmt.Sprintf("%s file is required", field))
	}
	if len(files) > 1 {
		return "", nil, apperr.BadRequest(fmt.Sprintf("only one %s file is allowed", field))
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return "", nil, apperr.BadRequest("failed to read upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return "", nil, apperr.BadRequest("failed to read upload")
	}
	if int64(len(data)) > limit {
		return "", nil, apperr.BadRequest("uploaded file too large")
	}
	return header.Filename, data, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}
