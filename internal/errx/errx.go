// Package errx wraps sentinel errors with additional context while keeping
// errors.Is/errors.As working against the sentinel.
package errx

import "fmt"

type wrapped struct {
	sentinel error
	msg      string
	cause    error
}

func (w *wrapped) Error() string {
	if w.cause != nil {
		return w.msg + ": " + w.cause.Error()
	}
	return w.msg
}

func (w *wrapped) Unwrap() error { return w.sentinel }

// Wrap annotates sentinel with cause, e.g. errx.Wrap(ErrWriteEvent, err).
func Wrap(sentinel, cause error) error {
	if sentinel == nil {
		return cause
	}
	return &wrapped{sentinel: sentinel, msg: sentinel.Error(), cause: cause}
}

// With appends a formatted suffix to sentinel's message, e.g.
// errx.With(ErrInvalidConfig, ": %s requires a value", name).
func With(sentinel error, format string, args ...any) error {
	if sentinel == nil {
		return fmt.Errorf(format, args...)
	}
	return &wrapped{sentinel: sentinel, msg: sentinel.Error() + fmt.Sprintf(format, args...)}
}
