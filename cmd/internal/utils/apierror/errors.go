package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"rastru/cmd/internal/domain/fiscal"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse abstracts all API error responses to the user.
//
// This interface does not implement `error`, since its only purpose
// is to be used for API responses and not for logging circumstances.
//
// In general, the whole ErrorResponse can be sent for serialization.
type ErrorResponse interface {
	// Code is the HTTP status code to be returned.
	Code() int
}

type APIError struct {
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (a *APIError) Code() int {
	return a.Status
}

type StructuredError struct {
	Errors map[string][]string `json:"errors"`
	Status int                 `json:"-"`
}

func (s *StructuredError) Code() int {
	return s.Status
}

func (s *StructuredError) Add(field, problem string) {
	s.Errors[field] = append(s.Errors[field], problem)
}

var (
	MalformedJSONError  = NewSimple(400, "Malformed JSON body")
	InternalServerError = NewSimple(500, "Internal server error")
	NotFoundError       = NewSimple(404, "Resource not found")

	/*
	 * Used for authentication
	 */
	MissingTokenError = NewSimple(401, "Missing bearer token")
	InvalidTokenError = NewSimple(401, "Invalid or expired token")

	/*
	 * Used for document lookups
	 */
	LookupTimeoutError         = NewSimple(504, "The document lookup timed out, try again later")
	LookupUnavailableError     = NewSimple(502, "The document lookup provider is unavailable")
	DocumentNotFoundError      = NewSimple(404, "No document was found for the provided access key")
	UnprocessableDocumentError = NewSimple(422, "The document returned by the provider could not be read")

	StoreNotFoundError   = NewSimple(404, "Store not found")
	ProductNotFoundError = NewSimple(404, "Product not found")
	PriceNotFoundError   = NewSimple(404, "No price found for the provided EAN")
	InvalidCNPJError     = NewSimple(400, "The provided CNPJ is invalid")
	InvalidEANError      = NewSimple(400, "The provided EAN must have between 8 and 14 digits")
	InvalidCoordsError   = NewSimple(400, "Coordinates must be valid latitude and longitude values")
	InvalidRadiusError   = NewSimple(400, "Radius must be a positive number of kilometers, max: 200")
	ShortQueryError      = NewSimple(400, "Search query must have at least 2 characters")
)

// FromAccessKeyError names the exact constraint the key violated.
func FromAccessKeyError(err *fiscal.ValidationError) *StructuredError {
	s := NewStructured(http.StatusBadRequest)

	var problem string
	switch err.Kind {
	case fiscal.InvalidLength:
		problem = fmt.Sprintf("Value must have exactly %d digits, got %d", fiscal.AccessKeyLength, len(err.Value))
	case fiscal.NonNumeric:
		problem = "Value must contain only digits"
	case fiscal.MissingKey:
		problem = fmt.Sprintf("No %d-digit access key was found", fiscal.AccessKeyLength)
	default:
		problem = "Invalid value provided"
	}

	s.Add(err.Field, problem)
	return s
}

func FromValidationError(err error) *StructuredError {
	var ve validator.ValidationErrors
	ok := errors.As(err, &ve)
	if !ok {
		return nil
	}

	problems := map[string][]string{}
	for _, fe := range ve {
		field := lowerFirst(fe.Field())

		switch fe.Tag() {
		case "required", "required_without":
			problems[field] = append(problems[field], "This field is required")
		case "min":
			problems[field] = append(problems[field], "Value is too small, min: "+fe.Param())
		case "max":
			problems[field] = append(problems[field], "Value is too large, max: "+fe.Param())
		case "cnpj":
			problems[field] = append(problems[field], "Value must be a valid CNPJ")
		case "latitude":
			problems[field] = append(problems[field], "Value must be a latitude between -90 and 90")
		case "longitude":
			problems[field] = append(problems[field], "Value must be a longitude between -180 and 180")

		default:
			problems[field] = append(problems[field], "Invalid value provided")
		}
	}

	return &StructuredError{
		Errors: problems,
		Status: http.StatusBadRequest,
	}
}

func NewSimple(status int, msg string, args ...any) *APIError {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return &APIError{Status: status, Message: msg}
}

func NewStructured(code int) *StructuredError {
	return &StructuredError{
		Errors: make(map[string][]string),
		Status: code,
	}
}

func NewInvalidParamTypeError(name, dataType string) *APIError {
	return NewSimple(http.StatusBadRequest, "Parameter '%s' has invalid type, expected: %s", name, dataType)
}

func NewMissingParamError(name string) *APIError {
	return NewSimple(http.StatusBadRequest, "Parameter '%s' is required", name)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
