package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
)

// NotificationService defines the notification inbox operations
type NotificationService interface {
	ListForClient(ctx context.Context, clientID int64) ([]*entities.Notification, error)
	MarkRead(ctx context.Context, id string) (*entities.Notification, error)
}

// NotificationHandler handles a client's notification inbox
type NotificationHandler struct {
	service NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(service NotificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// ListClientNotifications handles GET /api/clients/{id}/notifications
func (h *NotificationHandler) ListClientNotifications(w http.ResponseWriter, r *http.Request) {
	clientID, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid client ID")
		return
	}

	notifications, err := h.service.ListForClient(r.Context(), clientID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// MarkNotificationRead handles PUT /api/notifications/{id}/read
func (h *NotificationHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "notification ID is required")
		return
	}

	notification, err := h.service.MarkRead(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, notification)
}
