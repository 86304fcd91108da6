package scheduling

import "errors"

// Terminal, user-facing rejections. None are retryable without changing
// the request.
var (
	ErrInvalidProvider     = errors.New("appointments can only be created with providers")
	ErrSelfBooking         = errors.New("a provider cannot create an appointment with itself")
	ErrPastDate            = errors.New("past dates are not permitted")
	ErrSlotUnavailable     = errors.New("appointment slot is not available")
	ErrNotFound            = errors.New("appointment not found")
	ErrForbidden           = errors.New("only the booking client can cancel this appointment")
	ErrCancelWindowExpired = errors.New("appointments can only be canceled two hours in advance")
)

// ValidationError covers malformed input shape (missing ids, zero dates).
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}
