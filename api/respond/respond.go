// Package respond writes JSON bodies and error envelopes for the HTTP API.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/kilianp07/classplan/core/catalog"
	"github.com/kilianp07/classplan/core/model"
	"github.com/kilianp07/classplan/core/solver"
)

// Error codes carried in the "error" field.
const (
	CodeInvalidInterval    = "invalid_interval"
	CodeUnknownClass       = "unknown_class"
	CodeInvalidLock        = "invalid_lock"
	CodeBadRequest         = "bad_request"
	CodeTimeout            = "timeout"
	CodeCatalogUnavailable = "catalog_unavailable"
	CodeInternal           = "internal"
)

// ErrorBody is the envelope of every non-2xx JSON response.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// BadRequest marks request-shape errors that have no domain sentinel.
type BadRequest struct{ Msg string }

func (e *BadRequest) Error() string { return e.Msg }

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, code, msg string) {
	JSON(w, status, ErrorBody{Error: code, Message: msg})
}

// Classify maps a domain error to its HTTP status and error code.
func Classify(err error) (int, string) {
	var br *BadRequest
	switch {
	case errors.Is(err, model.ErrInvalidInterval):
		return http.StatusBadRequest, CodeInvalidInterval
	case errors.Is(err, catalog.ErrUnknownClass):
		return http.StatusBadRequest, CodeUnknownClass
	case errors.Is(err, solver.ErrInvalidLock):
		return http.StatusBadRequest, CodeInvalidLock
	case errors.As(err, &br):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, solver.ErrTimeout):
		return http.StatusServiceUnavailable, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// Fail classifies err and writes the matching envelope. Internal errors are
// not echoed to the client.
func Fail(w http.ResponseWriter, err error) (int, string) {
	status, code := Classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	Error(w, status, code, msg)
	return status, code
}
