package shared

import (
	"errors"
	"net/http"

	"voxgate/internal/transport/http/json"
	dErrors "voxgate/pkg/domain-errors"
)

// WriteError centralizes domain error translation to HTTP responses.
// It translates transport-agnostic domain errors into HTTP status codes and error responses.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		status := DomainCodeToHTTPStatus(domainErr.Code)
		response := map[string]string{
			"error": DomainCodeToHTTPCode(domainErr.Code),
		}
		if domainErr.Message != "" {
			response["error_description"] = domainErr.Message
		}
		json.WriteJSON(w, status, response)
		return
	}

	// Fallback for unexpected errors
	json.WriteJSON(w, http.StatusInternalServerError, map[string]string{
		"error": DomainCodeToHTTPCode(dErrors.CodeInternal),
	})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return http.StatusBadRequest
	case dErrors.CodeUnknownIdentity:
		return http.StatusNotFound
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case dErrors.CodeProcessing, dErrors.CodeDimensionMismatch:
		return http.StatusUnprocessableEntity
	case dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToHTTPCode translates domain error codes to HTTP error codes (for JSON response).
func DomainCodeToHTTPCode(code dErrors.Code) string {
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeValidation, dErrors.CodeInvalidInput:
		return "bad_request"
	case dErrors.CodeUnknownIdentity:
		return "unknown_identity"
	case dErrors.CodeTimeout:
		return "timeout"
	// Dimension drift is an operational problem, not a speaker mismatch.
	// Callers only ever see a generic processing failure.
	case dErrors.CodeProcessing, dErrors.CodeDimensionMismatch:
		return "processing_error"
	case dErrors.CodeInternal:
		return "internal_error"
	default:
		return "internal_error"
	}
}
