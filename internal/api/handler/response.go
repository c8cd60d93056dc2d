package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"attendance.service/internal/core/model"
	"github.com/rs/zerolog/log"
)

// Error codes returned in the code field of failed responses.
const (
	CodeAlreadyCheckedIn = "ALREADY_CHECKED_IN"
	CodeNotCheckedIn     = "NOT_CHECKED_IN"
	CodeInvalidDuration  = "INVALID_DURATION"
	CodeRecordNotFound   = "RECORD_NOT_FOUND"
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidRange     = "INVALID_RANGE"
	CodeRateLimited      = "RATE_LIMITED"
	CodeInternal         = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Success bool              `json:"success"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

var errorStatus = []struct {
	err    error
	status int
	code   string
}{
	{model.ErrAlreadyCheckedIn, http.StatusConflict, CodeAlreadyCheckedIn},
	{model.ErrNotCheckedIn, http.StatusConflict, CodeNotCheckedIn},
	{model.ErrInvalidDuration, http.StatusUnprocessableEntity, CodeInvalidDuration},
	{model.ErrRecordNotFound, http.StatusNotFound, CodeRecordNotFound},
	{model.ErrInvalidRange, http.StatusBadRequest, CodeInvalidRange},
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// RespondError writes a failed response with an explicit code.
func RespondError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// RespondErr maps domain errors to their status and code. Anything unknown is logged and
// reported as INTERNAL_ERROR without leaking the cause.
func RespondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verrs model.ValidationErrors
	if errors.As(err, &verrs) {
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{
			Code:    CodeValidation,
			Message: "request validation failed",
			Details: verrs.ToMap(),
		})
		return
	}

	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			RespondError(w, e.status, e.code, e.err.Error())
			return
		}
	}

	log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	RespondError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
}
