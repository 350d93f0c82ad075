package http

import (
	"encoding/json"
	"net/http"

	"diabetesapi/pipeline"
)

// ErrorResponse is the JSON body of every failure.
type ErrorResponse struct {
	Status          pipeline.Status `json:"status"`
	Message         string          `json:"message"`
	MissingFeatures []string        `json:"missing_features,omitempty"`
	Errors          []string        `json:"errors,omitempty"`
}

var statusCodes = map[pipeline.Status]int{
	pipeline.StatusNoData:             http.StatusBadRequest,
	pipeline.StatusInvalidContentType: http.StatusUnsupportedMediaType,
	pipeline.StatusMissingFeatures:    http.StatusBadRequest,
	pipeline.StatusValidationFailed:   http.StatusBadRequest,
	pipeline.StatusModelNotLoaded:     http.StatusServiceUnavailable,
	pipeline.StatusPredictionFailed:   http.StatusInternalServerError,
	pipeline.StatusNotFound:           http.StatusNotFound,
	pipeline.StatusMethodNotAllowed:   http.StatusMethodNotAllowed,
	pipeline.StatusInternalError:      http.StatusInternalServerError,
}

// StatusCode maps a status tag to its HTTP status code.
func StatusCode(status pipeline.Status) int {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func NewErrorResponse(err *pipeline.Error) ErrorResponse {
	return ErrorResponse{
		Status:          err.Status,
		Message:         err.Message,
		MissingFeatures: err.MissingFields,
		Errors:          err.Violations,
	}
}

func writeError(w http.ResponseWriter, err *pipeline.Error) {
	respondJSON(w, StatusCode(err.Status), NewErrorResponse(err))
}

func respondJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
