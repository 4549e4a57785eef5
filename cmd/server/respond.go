package server

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/shivamghaware/BlogIn/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logg.Error("http", "Failed to encode response", err)
	}
}

// statusFor maps domain error codes onto HTTP statuses.
func statusFor(err error) int {
	switch apperrors.Code(err) {
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeForbidden:
		return http.StatusForbidden
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeConflict:
		return http.StatusConflict
	case apperrors.CodeInvalidCredentials, apperrors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperrors.CodeStorageUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.CodeSuggestionFailure:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError logs err under module and replies with its mapped status.
// Internal errors are not echoed to the client.
func writeError(w http.ResponseWriter, module string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logg.Error(module, "Request failed", err)
		msg = "internal error"
	} else {
		logg.Info(module, "Request rejected: "+msg)
	}

	var coded *apperrors.Error
	if errors.As(err, &coded) && status == http.StatusServiceUnavailable {
		msg = coded.Message
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Wrap(apperrors.CodeValidation, "invalid request body", err)
	}
	return nil
}
