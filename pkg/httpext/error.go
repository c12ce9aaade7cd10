package httpext

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Error types used in the "type" field of the error envelope
const (
	TypeAuthentication = "authentication_error"
	TypeInvalidRequest = "invalid_request_error"
	TypeServer         = "server_error"
)

// GenericServerMessage is the only message a client ever sees for a 500
const GenericServerMessage = "An unexpected error occurred. Please try again later."

// ErrorDetail is the body of the OpenAI-style error envelope
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param,omitempty"`
	Code    string `json:"code"`
}

// ErrorResponse represents a standardised JSON error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// APIError is a domain error that knows its HTTP status and envelope
type APIError struct {
	Status  int
	Type    string
	Code    string
	Message string
	Param   string
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// Detail returns the envelope body for the error
func (e *APIError) Detail() ErrorDetail {
	return ErrorDetail{
		Message: e.Message,
		Type:    e.Type,
		Param:   e.Param,
		Code:    e.Code,
	}
}

func Authentication(code, message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Type: TypeAuthentication, Code: code, Message: message}
}

func Validation(code, message, param string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Type: TypeInvalidRequest, Code: code, Message: message, Param: param}
}

func NotFound(code, message, param string) *APIError {
	return &APIError{Status: http.StatusNotFound, Type: TypeInvalidRequest, Code: code, Message: message, Param: param}
}

func RateLimited() *APIError {
	return &APIError{
		Status:  http.StatusTooManyRequests,
		Type:    TypeInvalidRequest,
		Code:    "rate_limit_exceeded",
		Message: "Rate limit exceeded. Please try again later.",
	}
}

func MethodNotAllowed(method string) *APIError {
	return &APIError{
		Status:  http.StatusMethodNotAllowed,
		Type:    TypeInvalidRequest,
		Code:    "method_not_allowed",
		Message: "Method " + method + " is not allowed for this endpoint.",
	}
}

func Server() *APIError {
	return &APIError{
		Status:  http.StatusInternalServerError,
		Type:    TypeServer,
		Code:    "internal_server_error",
		Message: GenericServerMessage,
	}
}

// WriteJSON writes v as a JSON body with the given status code
func WriteJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Int("status", code).Msg("Failed to encode JSON response")
	}
}

// JsonError writes the error envelope for an APIError with its status code
func JsonError(w http.ResponseWriter, apiErr *APIError) {
	WriteJSON(w, apiErr.Status, ErrorResponse{Error: apiErr.Detail()})
}

// WriteError translates any error into the envelope. Errors that are not an
// APIError are logged and surface as a generic 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		JsonError(w, apiErr)
		return
	}

	log.Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Unexpected error while handling request")
	JsonError(w, Server())
}
