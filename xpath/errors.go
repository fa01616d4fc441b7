package xpath

import (
	"errors"
	"fmt"
)

// Sentinel evaluation errors, wrapped by the richer error types below when
// the failure needs to carry which name or expression triggered it.
var (
	ErrUndefined = errors.New("undefined")
	ErrArity     = errors.New("wrong number of arguments")
	ErrArgument  = errors.New("invalid argument")
	ErrAxis      = errors.New("axis not applicable to this node")
)

const (
	CodeGenericError = "XPST0003"
	CodeUndefinedVar = "XPST0017"
	CodeUndefinedFn  = "XPST0017"
	CodeArgument     = "XPST0018"
)

// ParseError reports a failure to reduce the token stream to a single
// expression tree: an unexpected token, an unknown operator, or a stack
// that never collapsed to one frame. Error renders the test-observable
// "XPath parse error " prefix followed by the quoted source text and the
// cause, then Stack when it is non-empty. The parser does not fill in
// Stack, so its errors carry no dump of the shift/reduce stack.
type ParseError struct {
	Code   string
	Source string
	Cause  string
	Stack  string
	Position
}

func (e ParseError) Error() string {
	if e.Stack == "" {
		return fmt.Sprintf("XPath parse error %q: %s", e.Source, e.Cause)
	}
	return fmt.Sprintf("XPath parse error %q: %s (stack: %s)", e.Source, e.Cause, e.Stack)
}

func parseError(source, cause string, pos Position) error {
	return ParseError{
		Code:     CodeGenericError,
		Source:   source,
		Cause:    cause,
		Position: pos,
	}
}

// ReferenceError is raised when a variable or function name cannot be
// resolved against the active context.
type ReferenceError struct {
	Name string
	Kind string // "variable" or "function"
}

func (e ReferenceError) Error() string {
	return fmt.Sprintf("%s %s is not defined", e.Kind, e.Name)
}

func (e ReferenceError) Unwrap() error { return ErrUndefined }

// ArgumentError is raised on function arity or type mismatches, and on the
// two documented extension-function failures.
type ArgumentError struct {
	Func  string
	Cause string
}

func (e ArgumentError) Error() string {
	if e.Func == "" {
		return e.Cause
	}
	return fmt.Sprintf("%s: %s", e.Func, e.Cause)
}

func (e ArgumentError) Unwrap() error { return ErrArgument }

// invalidRegexError and invalidMatchesError preserve the exact,
// test-observable error strings that matches() and its flag argument
// validation are expected to produce.
func invalidRegexError(flags string) error {
	return ArgumentError{Cause: fmt.Sprintf("Invalid regular expression syntax: %s", flags)}
}

func invalidMatchesError(pattern string) error {
	return ArgumentError{Cause: fmt.Sprintf("Invalid matches argument: %s", pattern)}
}
