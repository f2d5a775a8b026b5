package kernel

import "errors"

// ErrInvalidArgument and ErrInvalidState are the two precondition-violation
// classes public operations report. Each is wrapped with
// fmt.Errorf("...: %w", ...) so callers can classify failures with
// errors.Is while still getting a descriptive message.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
)
