package algobytes

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrNotFound            = errors.New("not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrEmailTaken          = errors.New("email already registered")
	// ErrNotUnlockable is returned when unlocking a daily challenge, which
	// is free to play on its date.
	ErrNotUnlockable = errors.New("daily challenges cannot be unlocked")
)

// ValidationError reports a malformed submission or payload. Nothing has been
// mutated when one is returned.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
