package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tnp-portal/apiserver/internal/services"
)

// NotificationHandler serves a user's notification feed.
type NotificationHandler struct {
	notifications *services.NotificationService
}

func NewNotificationHandler(notifications *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// NotificationRouter registers notification routes. All routes require
// authentication; every operation is scoped to the caller.
func NotificationRouter(r chi.Router, handler *NotificationHandler) {
	r.Get("/", handler.List)
	r.Get("/unread-count", handler.UnreadCount)
	r.Put("/read-all", handler.MarkAllRead)
	r.Put("/{notificationID}/read", handler.MarkRead)
}

// List returns the caller's unexpired notifications, newest first.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, err)
		return
	}

	items, total, err := h.notifications.ListForUser(r.Context(), user.ID, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeList(w, items, newPagination(page, limit, total))
}

// UnreadCount returns the caller's unread badge number.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	count, err := h.notifications.UnreadCount(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"unread": count}, "")
}

// MarkRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := urlID(r, "notificationID")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.notifications.MarkRead(r.Context(), id, user.ID); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "notification marked read")
}

// MarkAllRead marks the caller's entire feed as read.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.notifications.MarkAllRead(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, nil, "all notifications marked read")
}
