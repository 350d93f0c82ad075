package pipeline

import (
	"fmt"
	"strings"
)

// Status is the machine-readable tag callers branch on.
type Status string

const (
	StatusSuccess            Status = "success"
	StatusNoData             Status = "no_data"
	StatusInvalidContentType Status = "invalid_content_type"
	StatusMissingFeatures    Status = "missing_features"
	StatusValidationFailed   Status = "validation_failed"
	StatusModelNotLoaded     Status = "model_not_loaded"
	StatusPredictionFailed   Status = "prediction_failed"
	StatusNotFound           Status = "not_found"
	StatusMethodNotAllowed   Status = "method_not_allowed"
	StatusInternalError      Status = "internal_error"
)

// Error is a terminal pipeline failure.
type Error struct {
	Status  Status
	Message string
	// MissingFields is set for StatusMissingFeatures.
	MissingFields []string
	// Violations is set for StatusValidationFailed.
	Violations []string
	// Cause is the underlying predictor error, if any.
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func NewError(status Status, message string) *Error {
	return &Error{Status: status, Message: message}
}

func errNoData() *Error {
	return NewError(StatusNoData, "no input data provided")
}

func errMissingFeatures(missing []string) *Error {
	return &Error{
		Status:        StatusMissingFeatures,
		Message:       "missing required features: " + strings.Join(missing, ", "),
		MissingFields: missing,
	}
}

func errValidation(violations []string) *Error {
	return &Error{
		Status:     StatusValidationFailed,
		Message:    "input validation failed",
		Violations: violations,
	}
}

func errModelNotLoaded() *Error {
	return NewError(StatusModelNotLoaded, "model is not loaded, try again later")
}

func errPrediction(cause error) *Error {
	return &Error{
		Status:  StatusPredictionFailed,
		Message: "prediction failed: " + cause.Error(),
		Cause:   cause,
	}
}
