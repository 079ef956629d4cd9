package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorBuilder accumulates a hint and reportable details before the error is marked.
type ErrorBuilder struct {
	err     error
	details map[string]interface{}
}

// reportableError carries key/value details that are safe to show to API callers.
type reportableError struct {
	cause   error
	details map[string]interface{}
}

func (e *reportableError) Error() string { return e.cause.Error() }
func (e *reportableError) Unwrap() error { return e.cause }

// NewError starts a new error with the given message.
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.NewWithDepth(1, msg)}
}

// NewErrorf starts a new error with a formatted message.
func NewErrorf(format string, args ...interface{}) *ErrorBuilder {
	return &ErrorBuilder{err: errors.NewWithDepthf(1, format, args...)}
}

// WithError wraps an existing error. A nil err yields a generic internal error so that callers
// never mark nil.
func WithError(err error) *ErrorBuilder {
	if err == nil {
		err = errors.NewWithDepth(1, "unknown error")
	}
	return &ErrorBuilder{err: err}
}

func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...interface{}) *ErrorBuilder {
	b.err = errors.WithHint(b.err, fmt.Sprintf(format, args...))
	return b
}

func (b *ErrorBuilder) WithReportableDetails(details map[string]interface{}) *ErrorBuilder {
	if b.details == nil {
		b.details = make(map[string]interface{}, len(details))
	}
	for k, v := range details {
		b.details[k] = v
	}
	return b
}

// Mark finalizes the error and attaches the sentinel marker.
func (b *ErrorBuilder) Mark(marker error) error {
	err := b.err
	if len(b.details) > 0 {
		err = &reportableError{cause: err, details: b.details}
	}
	return errors.Mark(err, marker)
}

// GetReportableDetails merges every detail map found along the error chain, outermost wins.
func GetReportableDetails(err error) map[string]interface{} {
	var out map[string]interface{}
	for e := err; e != nil; e = errors.UnwrapOnce(e) {
		re, ok := e.(*reportableError)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]interface{})
		}
		for k, v := range re.details {
			if _, exists := out[k]; !exists {
				out[k] = v
			}
		}
	}
	return out
}
