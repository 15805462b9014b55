package handlers

import (
	"context"
	"net/http"

	"github.com/zatekoja/gymscheduler/internal/domain/entities"
)

// ScheduleService runs the weekly auto-schedule pass
type ScheduleService interface {
	RunAutoSchedule(ctx context.Context, weekStartDate string) (*entities.ScheduleReport, error)
}

// ResolveService runs the one-hop conflict resolver
type ResolveService interface {
	RunAutoResolve(ctx context.Context, weekStartDate string) (*entities.ResolveReport, error)
}

// ReportReader returns the last cached schedule report of a week
type ReportReader interface {
	Get(ctx context.Context, weekStart string) (*entities.ScheduleReport, error)
}

// ScheduleHandler handles the batch scheduling endpoints
type ScheduleHandler struct {
	scheduler ScheduleService
	resolver  ResolveService
	reports   ReportReader
}

// NewScheduleHandler creates a new schedule handler. reports may be nil.
func NewScheduleHandler(scheduler ScheduleService, resolver ResolveService, reports ReportReader) *ScheduleHandler {
	return &ScheduleHandler{
		scheduler: scheduler,
		resolver:  resolver,
		reports:   reports,
	}
}

// AutoSchedule handles POST /api/appointments/auto-schedule
func (h *ScheduleHandler) AutoSchedule(w http.ResponseWriter, r *http.Request) {
	week, ok := decodeWeekRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "week_start_date is required")
		return
	}

	report, err := h.scheduler.RunAutoSchedule(r.Context(), week)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// AutoResolve handles POST /api/appointments/auto-resolve
func (h *ScheduleHandler) AutoResolve(w http.ResponseWriter, r *http.Request) {
	week, ok := decodeWeekRequest(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "week_start_date is required")
		return
	}

	report, err := h.resolver.RunAutoResolve(r.Context(), week)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}

// GetScheduleReport handles GET /api/schedule-reports/{week_start_date}
func (h *ScheduleHandler) GetScheduleReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		respondWithError(w, http.StatusNotFound, "schedule reports are not cached")
		return
	}

	report, err := h.reports.Get(r.Context(), r.PathValue("week_start_date"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
