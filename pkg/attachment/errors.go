package attachment

import "errors"

type Reason string

const (
	ReasonTooMany   Reason = "too_many"
	ReasonTooLarge  Reason = "too_large"
	ReasonType      Reason = "unsupported_type"
	ReasonTotalSize Reason = "total_size"
)

// Error describes why an attachment set was rejected or trimmed.
type Error struct {
	Reason  Reason
	File    string
	Message string
	fatal   bool
}

func (e *Error) Error() string { return e.Message }

// Truncated reports that the set was cut to the allowed count and is still usable.
func (e *Error) Truncated() bool { return e.Reason == ReasonTooMany && !e.fatal }

// AsError extracts an *Error from err.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
