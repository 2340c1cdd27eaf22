package errors

import "github.com/pkg/errors"

// ErrorTracer pairs an error code with the underlying error it wraps,
// preserving the originating stack trace for logging.
type ErrorTracer struct {
	Message string
	Err     error
}

// NewTracer creates a new ErrorTracer carrying an error code as its message.
func NewTracer(message string) *ErrorTracer {
	return &ErrorTracer{
		Message: message,
	}
}

// StackTracer is implemented by errors that can report their stack trace.
type StackTracer interface {
	StackTrace() errors.StackTrace
}

func (e *ErrorTracer) Error() string {
	return e.Message
}

func (e *ErrorTracer) Unwrap() error {
	return e.Err
}

// Wrap attaches err to the tracer, adding a stack trace if err doesn't
// already carry one.
func (e *ErrorTracer) Wrap(err error) *ErrorTracer {
	e.Err = err
	if _, ok := err.(StackTracer); !ok {
		e.Err = errors.WithStack(err)
	}

	return e
}

// StackTrace returns the wrapped error's stack trace, if it has one.
func (e *ErrorTracer) StackTrace() errors.StackTrace {
	if errWithStack, ok := e.Unwrap().(StackTracer); ok {
		return errWithStack.StackTrace()
	}
	return nil
}
