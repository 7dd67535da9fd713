package domain

// APIError is the problem-details body returned for every failed request
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// validationMessages maps validator tags to messages for tags without a
// dedicated formatter in the handler package
var validationMessages = map[string]string{
	"required": "This field is required",
	"email":    "Must be a valid email address",
	"oneof":    "Must be one of the allowed values",
	"numeric":  "Must be a numeric value",
	"len":      "Must be exactly the specified length",
	"iso4217":  "Must be a valid ISO 4217 currency code",
	"datetime": "Must be a valid date and time",
}

// GetValidationMessage returns a human-readable message for a validation tag
func GetValidationMessage(tag string) string {
	if msg, ok := validationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Problem types used in APIError.Type
const (
	ErrorTypeValidation   = "validation_error"
	ErrorTypeNotFound     = "not_found"
	ErrorTypeBadRequest   = "bad_request"
	ErrorTypeConflict     = "conflict"
	ErrorTypeUnauthorized = "unauthorized"
	ErrorTypeForbidden    = "forbidden"
	ErrorTypeInternal     = "internal_error"
)
