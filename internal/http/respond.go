package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
)

const (
	msgMalformedBody = "Malformed request body"
	msgInvalidID     = "Invalid identifier in path"
	msgInternal      = "Internal server error"
	msgRateLimited   = "Rate limit exceeded. Please try again later."
	msgRouteNotFound = "Resource not found"
)

// errMalformedBody is returned by decodeJSON for bodies that are not a valid
// JSON object of the expected shape.
var errMalformedBody = errors.New("malformed request body")

// errInvalidID is returned by pathID for non-numeric path segments.
var errInvalidID = errors.New("invalid path identifier")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps a failure to its HTTP status and client-facing body.
func statusFor(err error) (int, errorResponse) {
	var domainErr *core.Error
	switch {
	case errors.As(err, &domainErr):
		body := errorResponse{Message: domainErr.Message, Errors: domainErr.Errors}
		if body.Errors == nil {
			body.Errors = []string{}
		}
		switch domainErr.Kind {
		case core.KindForbidden:
			return http.StatusForbidden, body
		case core.KindUnauthenticated:
			return http.StatusUnauthorized, body
		case core.KindNotFound, core.KindTypeMismatch, core.KindInvalidTransactionType,
			core.KindDuplicateUsername, core.KindInvalidCredentials, core.KindValidation:
			return http.StatusBadRequest, body
		default:
			return http.StatusInternalServerError, errorResponse{Message: msgInternal, Errors: []string{}}
		}
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, errorResponse{Message: msgMalformedBody, Errors: []string{}}
	case errors.Is(err, errInvalidID):
		return http.StatusBadRequest, errorResponse{Message: msgInvalidID, Errors: []string{}}
	default:
		return http.StatusInternalServerError, errorResponse{Message: msgInternal, Errors: []string{}}
	}
}

// writeError writes the JSON error body for err. Server-side failures are
// logged with the request-scoped logger; their detail never reaches the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldError, err)
	}
	writeJSON(w, status, body)
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorResponse{Message: msgRateLimited, Errors: []string{}})
}
