package contactform

import "time"

// Outcome is the result of one submit attempt. The set of implementations is
// closed: Success, ValidationError, RateLimited, MailDisabled, ServerError
// and NetworkError.
type Outcome interface {
	outcome()
}

// Success means the workshop mailbox accepted the message.
type Success struct {
	MessageID string
}

// ValidationError carries the first message per invalid field. FieldErrors
// is empty for a generic rejection the server did not explain.
type ValidationError struct {
	FieldErrors map[string]string
	// Server error code, empty for local validation
	Code string
}

type RateLimited struct {
	// Zero when the server sent no Retry-After
	RetryAfter time.Duration
}

type MailDisabled struct{}

type ServerError struct {
	Status int
	Code   string
}

// NetworkError means no response was received.
type NetworkError struct {
	Err error
}

func (Success) outcome()         {}
func (ValidationError) outcome() {}
func (RateLimited) outcome()     {}
func (MailDisabled) outcome()    {}
func (ServerError) outcome()     {}
func (NetworkError) outcome()    {}

func (e NetworkError) Unwrap() error { return e.Err }
