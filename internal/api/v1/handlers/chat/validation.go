package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	chatModels "github.com/openai-api-blueprint/blueprint/internal/services/chat/models"
	"github.com/openai-api-blueprint/blueprint/pkg/httpext"
)

const (
	codeValidation = "validation_error"
	maxBodyBytes   = 1 << 20
)

// use a single instance of Validate, it caches struct info
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names so params match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeRequest reads and validates the request body. Every failure is a 400
// validation_error naming the offending field when one is known.
func decodeRequest(w http.ResponseWriter, r *http.Request) (*chatModels.ChatCompletionRequest, error) {
	var req chatModels.ChatCompletionRequest

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return nil, decodeError(err)
	}

	// the body must hold exactly one JSON value
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, decodeError(err)
		}
		return nil, httpext.Validation(codeValidation, "Request body is not valid JSON", "")
	}

	if err := validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fieldError(verrs[0])
		}
		return nil, fmt.Errorf("validate request: %w", err)
	}

	return &req, nil
}

func decodeError(err error) *httpext.APIError {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		tooLarge  *http.MaxBytesError
	)

	switch {
	case errors.Is(err, io.EOF):
		return httpext.Validation(codeValidation, "Request body is required", "")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return httpext.Validation(codeValidation, "Request body is not valid JSON", "")
	case errors.As(err, &typeErr):
		param := typeErr.Field
		if param == "" {
			return httpext.Validation(codeValidation, "Request body must be a JSON object", "")
		}
		return httpext.Validation(codeValidation,
			fmt.Sprintf("Input should be of type %s at %s", typeErr.Type, param), param)
	case errors.As(err, &tooLarge):
		return httpext.Validation(codeValidation, "Request body is too large", "")
	}

	return httpext.Validation(codeValidation, err.Error(), "")
}

func fieldError(fe validator.FieldError) *httpext.APIError {
	param := paramPath(fe.Namespace())

	var msg string
	switch fe.Tag() {
	case "required":
		msg = "Field required"
	case "min":
		msg = fmt.Sprintf("List should have at least %s item", fe.Param())
	case "oneof":
		msg = fmt.Sprintf("Input should be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		msg = fmt.Sprintf("Input should be greater than or equal to %s", fe.Param())
	case "lte":
		msg = fmt.Sprintf("Input should be less than or equal to %s", fe.Param())
	default:
		msg = "Invalid value"
	}

	return httpext.Validation(codeValidation, fmt.Sprintf("%s at %s", msg, param), param)
}

// paramPath turns "ChatCompletionRequest.messages[0].role" into "messages.0.role"
func paramPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		path = namespace
	}
	path = strings.ReplaceAll(path, "[", ".")
	return strings.ReplaceAll(path, "]", "")
}
