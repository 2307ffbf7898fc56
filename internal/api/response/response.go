// Package response provides utilities for HTTP response handling.
package response

import (
	"net/http"

	"github.com/ariamap/ariamap/internal/api/middleware"
	"github.com/ariamap/ariamap/internal/api/models"
)

// OK writes a success envelope with the given status code.
// Includes X-Request-Id header for correlation.
func OK(w http.ResponseWriter, r *http.Request, status int, message string, payload interface{}) {
	setRequestID(w, r)
	models.OK(message, payload).Write(w, status)
}

// Fail writes a failure envelope with the given status code.
// Includes X-Request-Id header for correlation.
func Fail(w http.ResponseWriter, r *http.Request, status int, message string) {
	setRequestID(w, r)
	models.Fail(message).Write(w, status)
}

// BadRequest writes a 400 failure envelope.
func BadRequest(w http.ResponseWriter, r *http.Request, message string) {
	Fail(w, r, http.StatusBadRequest, message)
}

// NotFound writes a 404 failure envelope.
func NotFound(w http.ResponseWriter, r *http.Request, message string) {
	Fail(w, r, http.StatusNotFound, message)
}

// InternalError writes a 500 failure envelope.
func InternalError(w http.ResponseWriter, r *http.Request, message string) {
	Fail(w, r, http.StatusInternalServerError, message)
}

func setRequestID(w http.ResponseWriter, r *http.Request) {
	if requestID := middleware.GetRequestID(r.Context()); requestID != "" {
		w.Header().Set("X-Request-Id", requestID)
	}
}
