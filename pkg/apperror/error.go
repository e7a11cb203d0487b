package apperror

import "net/http"

// Error codes sent to clients in the "error" field of the JSON envelope.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeMailDisabled     = "MAIL_DISABLED"
	CodeServer           = "SERVER_ERROR"
	CodeUnexpected       = "UNEXPECTED_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeTooManyRequests  = "TOO_MANY_REQUESTS"
	CodeCSRF             = "CSRF"
	CodeSpam             = "SPAM" // security log only, never returned
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeMissingFields    = "MISSING_FIELDS"
	CodeEmailInvalid     = "EMAIL_INVALID"
	CodeVINInvalid       = "VIN_INVALID"
)

// AppError carries everything the error middleware needs to render a response.
// Err is kept for logging and is never serialized.
type AppError struct {
	Status      int                 `json:"-"`
	Code        string              `json:"error"`
	Message     string              `json:"message,omitempty"`
	FieldErrors map[string][]string `json:"-"`
	Err         error               `json:"-"`
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Code + ": " + e.Message
	}
	return e.Code
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(status int, code, message string, err error) *AppError {
	return &AppError{
		Status:  status,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation builds a 400 with field-keyed messages.
func Validation(fieldErrors map[string][]string) *AppError {
	return &AppError{
		Status:      http.StatusBadRequest,
		Code:        CodeValidation,
		FieldErrors: fieldErrors,
	}
}

// Unprocessable is used by the form-encoded endpoint for its coarse 422 codes.
func Unprocessable(code string) *AppError {
	return New(http.StatusUnprocessableEntity, code, "", nil)
}

func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, CodeValidation, message, nil)
}

func Forbidden(code string) *AppError {
	return New(http.StatusForbidden, code, "", nil)
}

func NotFound() *AppError {
	return New(http.StatusNotFound, CodeNotFound, "", nil)
}

func MethodNotAllowed() *AppError {
	return New(http.StatusMethodNotAllowed, CodeMethodNotAllowed, "", nil)
}

func TooManyRequests() *AppError {
	return New(http.StatusTooManyRequests, CodeTooManyRequests, "Too many requests, please try again later.", nil)
}

func MailDisabled(err error) *AppError {
	return New(http.StatusServiceUnavailable, CodeMailDisabled, "", err)
}

func Server(err error) *AppError {
	return New(http.StatusInternalServerError, CodeServer, "", err)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, CodeUnexpected, "", err)
}
