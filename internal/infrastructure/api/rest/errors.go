package rest

import (
	"errors"
	"net/http"
	"strings"

	"github.com/distsudoku/master/internal/application/aggregator"
	"github.com/distsudoku/master/internal/application/coordinator"
	"github.com/distsudoku/master/internal/application/dispatcher"
	"github.com/distsudoku/master/internal/domain/board"
)

// APIError is the wire shape of every non-2xx response.
type APIError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError.
func NewAPIError(code, message string, httpStatus int) *APIError {
	return &APIError{Code: code, Message: message, HTTPStatus: httpStatus}
}

var (
	ErrBadRequest       = NewAPIError("BAD_REQUEST", "invalid request", http.StatusBadRequest)
	ErrInvalidJSON      = NewAPIError("INVALID_JSON", "invalid JSON in request body", http.StatusBadRequest)
	ErrMissingParameter = NewAPIError("MISSING_PARAMETER", "required parameter is missing", http.StatusBadRequest)
	ErrInternalServer   = NewAPIError("INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
)

// TranslateError maps an application-level error into the wire-level
// APIError, the same unwrap-chain shape the teacher's
// rest.TranslateError uses over serviceapi.OperationError.
func TranslateError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var opErr *coordinator.OperationError
	if errors.As(err, &opErr) {
		return NewAPIError(opErr.Code, opErr.Message, opErr.HTTPStatus)
	}

	switch {
	case errors.Is(err, coordinator.ErrJobNotFound):
		return NewAPIError("JOB_NOT_FOUND", "job not found", http.StatusNotFound)
	case errors.Is(err, coordinator.ErrMissingWorkerID):
		return NewAPIError("MISSING_WORKER_ID", "workerId is required", http.StatusBadRequest)
	case errors.Is(err, coordinator.ErrNoSubJobAvailable):
		return NewAPIError("NO_JOBS", "no sub-job available", http.StatusNotFound)
	case errors.Is(err, dispatcher.ErrQueueEmpty):
		return NewAPIError("NO_JOBS", "no sub-job available", http.StatusNotFound)
	case errors.Is(err, aggregator.ErrJobNotFound):
		return NewAPIError("JOB_NOT_FOUND", "job not found", http.StatusNotFound)
	case errors.Is(err, aggregator.ErrSubJobNotFound):
		return NewAPIError("SUBJOB_NOT_FOUND", "sub-job not found", http.StatusNotFound)
	case errors.Is(err, board.ErrMalformedBoard):
		return NewAPIError("INVALID_BOARD", err.Error(), http.StatusBadRequest)
	case errors.Is(err, board.ErrNoBlockFactorization):
		return NewAPIError("INVALID_BOARD", err.Error(), http.StatusBadRequest)
	case errors.Is(err, board.ErrIllFormedClues):
		return NewAPIError("INVALID_BOARD", err.Error(), http.StatusBadRequest)
	case errors.Is(err, board.ErrInfeasible):
		return NewAPIError("INVALID_BOARD", err.Error(), http.StatusBadRequest)
	case errors.Is(err, dispatcher.ErrSubJobNotPending):
		return NewAPIError("SUBJOB_NOT_PENDING", err.Error(), http.StatusConflict)
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "not found") || strings.Contains(errMsg, "no rows") {
		return NewAPIError("NOT_FOUND", "resource not found", http.StatusNotFound)
	}

	return NewAPIError("INTERNAL_ERROR", "an unexpected error occurred", http.StatusInternalServerError)
}
