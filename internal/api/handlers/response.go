package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	apperrors "github.com/zatekoja/gymscheduler/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// respondWithAppError maps typed errors to HTTP status codes. Internal
// details never reach the client.
func respondWithAppError(w http.ResponseWriter, err error) {
	appErr, ok := apperrors.As(err)
	if !ok {
		log.Error().Err(err).Msg("unhandled error")
		respondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		respondWithError(w, http.StatusBadRequest, appErr.Message)
	case apperrors.ErrorTypeNotFound:
		respondWithError(w, http.StatusNotFound, appErr.Message)
	case apperrors.ErrorTypeCapacityExceeded,
		apperrors.ErrorTypeQuotaExceeded,
		apperrors.ErrorTypeDuplicateBooking,
		apperrors.ErrorTypeConflict:
		respondWithJSON(w, http.StatusConflict, map[string]string{
			"error": appErr.Message,
			"type":  string(appErr.Type),
		})
	case apperrors.ErrorTypeExternal:
		respondWithError(w, http.StatusBadGateway, appErr.Message)
	default:
		log.Error().Err(err).Msg("internal error")
		respondWithError(w, http.StatusInternalServerError, appErr.Message)
	}
}

// pathID parses a numeric path segment
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

type weekRequest struct {
	WeekStartDate string `json:"week_start_date"`
}

func decodeWeekRequest(r *http.Request) (string, bool) {
	var payload weekRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.WeekStartDate == "" {
		return "", false
	}
	return payload.WeekStartDate, true
}
