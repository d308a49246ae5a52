// Package response writes error bodies for the raw chi handlers that sit
// outside huma: the relay and its middleware. Bodies match the huma error
// shape, {"code": ..., "error": ...}.
package response

import (
	"encoding/json/v2"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/listenupapp/listenup-addon/internal/errors"
)

// ErrorBody is the JSON error shape shared with the huma operations.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

// codeForStatus maps relay statuses to domain codes.
func codeForStatus(status int) domainerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return domainerrors.CodeValidation
	case http.StatusForbidden:
		return domainerrors.CodeForbidden
	case http.StatusNotFound:
		return domainerrors.CodeNotFound
	case http.StatusUnsupportedMediaType:
		return domainerrors.CodeUnsupportedMedia
	case http.StatusTooManyRequests:
		return domainerrors.CodeRateLimited
	case http.StatusBadGateway:
		return domainerrors.CodeBadGateway
	case http.StatusServiceUnavailable:
		return domainerrors.CodeSourceUnavailable
	default:
		return domainerrors.CodeInternal
	}
}

// Error writes an error body with the given status code.
func Error(w http.ResponseWriter, status int, message string, logger *slog.Logger) {
	write(w, status, ErrorBody{Code: string(codeForStatus(status)), Message: message}, logger)
}

// DomainError writes err with its own status and code. Errors outside the
// domain taxonomy become a 500 without their message.
func DomainError(w http.ResponseWriter, err error, logger *slog.Logger) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		if logger != nil {
			logger.Error("Unclassified error", "error", err)
		}
		Error(w, http.StatusInternalServerError, "internal error", logger)
		return
	}
	write(w, domainErr.HTTPStatus(), ErrorBody{Code: string(domainErr.Code), Message: domainErr.Message}, logger)
}

func write(w http.ResponseWriter, status int, body ErrorBody, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	if err := json.MarshalWrite(w, body); err != nil && logger != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// NoContent writes a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// TooManyRequests writes a 429 Too Many Requests response.
func TooManyRequests(w http.ResponseWriter, message string, logger *slog.Logger) {
	Error(w, http.StatusTooManyRequests, message, logger)
}
