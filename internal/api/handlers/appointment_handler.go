package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/zatekoja/gymscheduler/internal/application/services"
	"github.com/zatekoja/gymscheduler/internal/domain/entities"
	"github.com/zatekoja/gymscheduler/internal/domain/repositories"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// AppointmentService defines the interface for appointment operations
type AppointmentService interface {
	Book(ctx context.Context, req services.BookRequest) (*entities.Appointment, error)
	Cancel(ctx context.Context, appointmentID int64) (*entities.Appointment, error)
	ClearWeek(ctx context.Context, weekStartDate string) (*services.ClearWeekResult, error)
	ListAppointments(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error)
}

// AppointmentHandler handles appointment requests
type AppointmentHandler struct {
	service AppointmentService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(service AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		service: service,
	}
}

// BookAppointment handles POST /api/appointments
func (h *AppointmentHandler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	var payload services.BookRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.TrainerID <= 0 || payload.ClientID <= 0 || payload.StartTime == "" {
		respondWithError(w, http.StatusBadRequest, "trainer_id, client_id and start_time are required")
		return
	}

	appt, err := h.service.Book(r.Context(), payload)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, appt)
}

// CancelAppointment handles PUT /api/appointments/{id}/cancel
func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "invalid appointment ID")
		return
	}

	appt, err := h.service.Cancel(r.Context(), id)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, appt)
}

// ClearWeek handles DELETE /api/appointments/week/{week_start_date}
func (h *AppointmentHandler) ClearWeek(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ClearWeek(r.Context(), r.PathValue("week_start_date"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// ListAppointments handles GET /api/appointments
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repositories.AppointmentFilter{Limit: defaultListLimit}

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			respondWithError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = min(limit, maxListLimit)
	}
	if v := query.Get("skip"); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			respondWithError(w, http.StatusBadRequest, "invalid skip")
			return
		}
		filter.Offset = skip
	}
	if v := query.Get("client_id"); v != "" {
		clientID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid client_id")
			return
		}
		filter.ClientID = &clientID
	}

	var ok bool
	if filter.From, ok = parseOptionalTime(query.Get("from")); !ok {
		respondWithError(w, http.StatusBadRequest, "invalid from (use YYYY-MM-DDTHH:MM:SS)")
		return
	}
	if filter.To, ok = parseOptionalTime(query.Get("to")); !ok {
		respondWithError(w, http.StatusBadRequest, "invalid to (use YYYY-MM-DDTHH:MM:SS)")
		return
	}

	appts, err := h.service.ListAppointments(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appts,
		"count":        len(appts),
	})
}

func parseOptionalTime(value string) (*time.Time, bool) {
	if value == "" {
		return nil, true
	}
	t, err := entities.ParseTimestamp(value)
	if err != nil {
		return nil, false
	}
	return &t, true
}
