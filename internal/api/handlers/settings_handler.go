package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/gymscheduler/internal/application/services"
)

// SettingsService reads and writes the planning week
type SettingsService interface {
	GetSystemWeek(ctx context.Context) (*services.SystemWeek, error)
	SetSystemWeek(ctx context.Context, weekStart string) (*services.SystemWeek, error)
}

// SettingsHandler handles system settings
type SettingsHandler struct {
	service SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(service SettingsService) *SettingsHandler {
	return &SettingsHandler{service: service}
}

// GetSystemWeek handles GET /api/system/week
func (h *SettingsHandler) GetSystemWeek(w http.ResponseWriter, r *http.Request) {
	week, err := h.service.GetSystemWeek(r.Context())
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, week)
}

// SetSystemWeek handles PUT /api/system/week
func (h *SettingsHandler) SetSystemWeek(w http.ResponseWriter, r *http.Request) {
	weekStart, ok := decodeWeekRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "week_start_date is required")
		return
	}

	week, err := h.service.SetSystemWeek(r.Context(), weekStart)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, week)
}
