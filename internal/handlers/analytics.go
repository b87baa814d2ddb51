package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tnp-portal/apiserver/internal/apperr"
	"github.com/tnp-portal/apiserver/internal/services"
	"github.com/tnp-portal/apiserver/types"
)

// AnalyticsHandler serves the role-scoped dashboards, the placement
// report and the activity log.
type AnalyticsHandler struct {
	dashboards *services.DashboardService
	activity   *services.ActivityService
}

func NewAnalyticsHandler(dashboards *services.DashboardService, activity *services.ActivityService) *AnalyticsHandler {
	return &AnalyticsHandler{dashboards: dashboards, activity: activity}
}

// AnalyticsRouter registers the analytics routes. All routes require
// authentication; the report and activity log are officer-only.
func AnalyticsRouter(r chi.Router, handler *AnalyticsHandler) {
	r.Get("/dashboard", handler.Dashboard)
	r.With(requireRoles(types.RoleTnP)).Get("/reports/placements", handler.PlacementReport)
	r.With(requireRoles(types.RoleTnP)).Get("/activity", handler.Activity)
}

// Dashboard dispatches to the caller's role-specific summary.
func (h *AnalyticsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	var data any
	switch user.Role {
	case types.RoleStudent:
		data, err = h.dashboards.ForStudent(r.Context(), user)
	case types.RoleRecruiter:
		data, err = h.dashboards.ForRecruiter(r.Context(), user.ID)
	case types.RoleTnP:
		data, err = h.dashboards.ForTnP(r.Context(), user)
	default:
		err = apperr.Forbidden("unknown role")
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, data, "")
}

// PlacementReport returns the per-course placement breakdown, optionally
// windowed with ?from and ?to (RFC 3339 or YYYY-MM-DD).
func (h *AnalyticsHandler) PlacementReport(w http.ResponseWriter, r *http.Request) {
	officer, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		writeError(w, apperr.BadRequest("to must not be before from"))
		return
	}

	rows, err := h.dashboards.PlacementReport(r.Context(), officer, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, rows, "")
}

// Activity lists recent audit records, newest first.
func (h *AnalyticsHandler) Activity(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	entries, total, err := h.activity.ListRecent(r.Context(), offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, entries, newPagination(page, limit, total))
}

func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, nil
	}
	return nil, apperr.BadRequest("invalid " + name + " timestamp")
}
