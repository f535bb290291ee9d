package arcscript

import (
	"errors"
	"fmt"
)

// ErrorKind classifies interpreter and resolver failures.
type ErrorKind int

const (
	ParseError ErrorKind = iota + 1
	ExecutionError
	MalformedControlFlow
	UnknownVariable
	UnresolvableBranch
	CyclicGraph
)

func (k ErrorKind) String() string {
	switch k {
	case ParseError:
		return "parse_error"
	case ExecutionError:
		return "execution_error"
	case MalformedControlFlow:
		return "malformed_control_flow"
	case UnknownVariable:
		return "unknown_variable"
	case UnresolvableBranch:
		return "unresolvable_branch"
	case CyclicGraph:
		return "cyclic_graph"
	default:
		return "unknown"
	}
}

// ErrDivisionByZero is wrapped by every division or modulo by zero.
var ErrDivisionByZero = errors.New("division by zero")

// ErrIntegerOverflow is wrapped when integer arithmetic leaves the int64 range.
var ErrIntegerOverflow = errors.New("integer overflow")

// Error is a classified failure. Source holds the script text or graph id
// the failure relates to.
type Error struct {
	Kind   ErrorKind
	Msg    string
	Source string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Source != "" {
		return fmt.Sprintf("%s: %s (in %q)", e.Kind, msg, e.Source)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error.
func NewError(kind ErrorKind, source string, err error) *Error {
	return &Error{Kind: kind, Msg: err.Error(), Source: source, Err: err}
}

func errorf(kind ErrorKind, source, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Source: source}
}

// KindOf returns the kind of a classified error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Severity of a reported diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a failure the interpreter recovered from.
type Diagnostic struct {
	Kind     ErrorKind
	Severity Severity
	Message  string
	Source   string
	NodeID   string
}

// DiagnosticSink receives diagnostics as they are reported.
type DiagnosticSink func(Diagnostic)
