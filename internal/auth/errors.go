package auth

import (
	"fmt"
)

// Rejection codes, stable across releases
const (
	CodeMissingAPIKey     = "missing_api_key"
	CodeInvalidAuthFormat = "invalid_auth_format"
	CodeInvalidKeyFormat  = "invalid_key_format"
	CodeInvalidKeyLength  = "invalid_key_length"
	CodeInvalidKey        = "invalid_key"
)

var messages = map[string]string{
	CodeMissingAPIKey:     "Missing API key. Please provide a valid API key in the Authorization header using the Bearer scheme.",
	CodeInvalidAuthFormat: "Invalid authentication format. Please use 'Bearer YOUR_API_KEY'.",
	CodeInvalidKeyFormat:  "Invalid API key format. Keys may only contain letters, digits, '_', '-' and '.'.",
	CodeInvalidKeyLength:  "Invalid API key length.",
	CodeInvalidKey:        "Invalid API key. Please provide a valid API key in the Authorization header using the Bearer scheme.",
}

// RejectionError is a classified authentication failure
type RejectionError struct {
	Code string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("authentication rejected: %s", e.Code)
}

// Message is the client facing text for the rejection
func (e *RejectionError) Message() string {
	return messages[e.Code]
}

func reject(code string) *RejectionError {
	return &RejectionError{Code: code}
}
