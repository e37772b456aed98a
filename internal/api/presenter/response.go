package presenter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/callsign/internal/correlation"
)

// TimestampFormat is ISO 8601 in UTC with millisecond precision.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// SuccessResponse wraps successful results of the public API.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Success       bool   `json:"success"`
	Error         string `json:"error"`
	Timestamp     string `json:"timestamp"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// now is replaced in tests.
var now = time.Now

func JSON(w http.ResponseWriter, r *http.Request, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write json response")
	}
}

func Success(w http.ResponseWriter, r *http.Request, data any) {
	JSON(w, r, SuccessResponse{Success: true, Data: data}, http.StatusOK)
}

func Error(w http.ResponseWriter, r *http.Request, msg string, status int) {
	JSON(w, r, ErrorResponse{
		Success:       false,
		Error:         msg,
		Timestamp:     now().UTC().Format(TimestampFormat),
		CorrelationID: correlation.FromContext(r.Context()),
	}, status)
}
