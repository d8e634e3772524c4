package torproc

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by supervisor operations
var (
	// ErrNotStarted indicates the supervisor never spawned a child
	ErrNotStarted = errors.New("torproc: process not started")

	// ErrAlreadyLaunched indicates Launch was called more than once
	ErrAlreadyLaunched = errors.New("torproc: already launched")

	// ErrTimeout indicates the deadline elapsed before the bootstrap target was reached
	ErrTimeout = errors.New("torproc: timeout waiting for bootstrap")

	// ErrInvalidLogLine indicates a stdout line shorter than the timestamp prefix
	ErrInvalidLogLine = errors.New("torproc: invalid log line")

	// ErrInvalidBootstrapLine indicates a bootstrap notice without a parsable percent
	ErrInvalidBootstrapLine = errors.New("torproc: invalid bootstrap line")

	// ErrPatternCompile indicates the bootstrap pattern failed to compile
	ErrPatternCompile = errors.New("torproc: bootstrap pattern")

	// ErrInvalidConfig indicates a LaunchConfig that cannot be launched
	ErrInvalidConfig = errors.New("torproc: invalid config")

	// ErrTerminated indicates the supervisor was closed or killed before
	// Launch could complete
	ErrTerminated = errors.New("torproc: supervisor terminated")
)

// OpError represents a failure of the process-control primitive or of an
// I/O operation on the child's streams
type OpError struct {
	// Op is the operation that failed
	Op Operation
	// Path is the binary or file involved in the operation
	Path string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *OpError) Error() string {
	return fmt.Sprintf("torproc %s %q: %v", e.Op.String(), e.Path, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *OpError) Unwrap() error {
	return e.Err
}

// RouterError reports an [err] line emitted by the router before the
// bootstrap target was reached. Warnings holds the [warn] lines seen
// before it, in arrival order.
type RouterError struct {
	// Line is the body of the [err] line
	Line string
	// Warnings are the bodies of the preceding [warn] lines
	Warnings []string
}

// Error returns the router line, followed by the warning count when present
func (e *RouterError) Error() string {
	if len(e.Warnings) == 0 {
		return "torproc: router: " + e.Line
	}
	return fmt.Sprintf("torproc: router: %s (after %d warnings: %s)",
		e.Line, len(e.Warnings), strings.Join(e.Warnings, "; "))
}

// BootstrapLineError reports a bootstrap notice whose percent could not be read
type BootstrapLineError struct {
	// Line is the offending line body
	Line string
}

// Error returns a formatted error message
func (e *BootstrapLineError) Error() string {
	return fmt.Sprintf("%v: %q", ErrInvalidBootstrapLine, e.Line)
}

// Unwrap allows errors.Is(err, ErrInvalidBootstrapLine)
func (e *BootstrapLineError) Unwrap() error {
	return ErrInvalidBootstrapLine
}

// ErrorKind groups errors into the categories callers act on
type ErrorKind int

const (
	// KindNone is the kind of a nil error
	KindNone ErrorKind = iota
	// KindProcess covers process-control and stream I/O failures
	KindProcess
	// KindRouter is an [err] line from the router
	KindRouter
	// KindInvalidLogLine is a line shorter than the timestamp prefix
	KindInvalidLogLine
	// KindInvalidBootstrapLine is an unparsable bootstrap notice
	KindInvalidBootstrapLine
	// KindPatternCompile is a bootstrap pattern compile failure
	KindPatternCompile
	// KindNotStarted is an operation on a supervisor without a child
	KindNotStarted
	// KindTimeout is an elapsed deadline
	KindTimeout
	// KindCanceled is a cancelled or expired caller context
	KindCanceled
	// KindUsage covers misuse such as double launch, invalid config or
	// launching a closed supervisor
	KindUsage
	// KindUnknown is any other error
	KindUnknown
)

// String returns the string representation of an ErrorKind
func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindProcess:
		return "process"
	case KindRouter:
		return "router"
	case KindInvalidLogLine:
		return "invalid-log-line"
	case KindInvalidBootstrapLine:
		return "invalid-bootstrap-line"
	case KindPatternCompile:
		return "pattern-compile"
	case KindNotStarted:
		return "not-started"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	case KindUsage:
		return "usage"
	default:
		return "unknown"
	}
}

// KindOf classifies err. Typed errors are checked before sentinels so an
// OpError wrapping a context error still reports KindProcess.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var routerErr *RouterError
	var opErr *OpError
	switch {
	case errors.As(err, &routerErr):
		return KindRouter
	case errors.As(err, &opErr):
		return KindProcess
	case errors.Is(err, ErrInvalidBootstrapLine):
		return KindInvalidBootstrapLine
	case errors.Is(err, ErrInvalidLogLine):
		return KindInvalidLogLine
	case errors.Is(err, ErrPatternCompile):
		return KindPatternCompile
	case errors.Is(err, ErrNotStarted):
		return KindNotStarted
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrAlreadyLaunched), errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrTerminated):
		return KindUsage
	default:
		return KindUnknown
	}
}
