package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/psoldner/tripcrew/backend/internal/domain"
)

// ErrorResponse is the JSON envelope for every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a machine-readable code and a human-readable message.
// The code determines client recovery: "conflict" and "capacity_exceeded"
// mean the caller's snapshot is stale and a re-fetch is required; retrying
// the same mutation is never correct.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes v with the given status. Encoding failures are ignored —
// the status line has already been written and there is nothing left to do.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto the HTTP error taxonomy.
// Unrecognized errors become an opaque 500; the logging middleware has
// already recorded the request.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody("validation_error", err))
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not_found", err))
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody("forbidden", err))
	case errors.Is(err, domain.ErrCapacityExceeded):
		writeJSON(w, http.StatusConflict, errorBody("capacity_exceeded", err))
	case errors.Is(err, domain.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("conflict", err))
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{Code: "internal", Message: "internal server error"},
		})
	}
}

// requestError writes a 422 for a request rejected before reaching the
// service layer (malformed body, bad path parameter).
func requestError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
		Error: ErrorDetail{Code: "validation_error", Message: message},
	})
}

// unauthorized writes a 401 when no actor identity accompanied the request.
func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, ErrorResponse{
		Error: ErrorDetail{Code: "unauthorized", Message: "actor identity is required"},
	})
}

// errorBody builds an ErrorResponse from a wrapped sentinel error, stripping
// the internal call-path prefixes so the client sees only the reason.
// e.g. "service.ChatService.Send: forbidden: chat is read-only" → "forbidden: chat is read-only"
func errorBody(code string, err error) ErrorResponse {
	return ErrorResponse{Error: ErrorDetail{Code: code, Message: userMessage(err)}}
}

// userMessage trims "layer.Type.Method: " prefixes from a wrapped error chain.
func userMessage(err error) string {
	msg := err.Error()
	for {
		i := strings.Index(msg, ": ")
		if i < 0 {
			break
		}
		prefix := msg[:i]
		// Call-path prefixes look like "service.TripService.Create" —
		// dotted identifiers with no spaces. Anything else is message text.
		if strings.ContainsAny(prefix, " \t") || !strings.Contains(prefix, ".") {
			break
		}
		msg = msg[i+2:]
	}
	return msg
}
