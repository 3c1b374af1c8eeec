package walker

import (
	"errors"
	"fmt"
)

var (
	// ErrRootNotFound is returned when the requested root element is not declared.
	ErrRootNotFound = errors.New("root element not found")
	// ErrEmptyGroup reports a content group without particles.
	ErrEmptyGroup = errors.New("empty group")
	// ErrUnknownType reports an element whose type cannot be resolved.
	ErrUnknownType = errors.New("unknown type")
	// ErrUnresolvedRef reports an element or group reference naming nothing.
	ErrUnresolvedRef = errors.New("unresolved reference")
	// ErrMaxDepth reports a subtree cut off by the depth limit.
	ErrMaxDepth = errors.New("maximum depth exceeded")
)

// Severity classifies a Diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a problem found while walking. The walk skips the affected
// subtree and continues with its siblings.
type Diagnostic struct {
	Severity Severity
	Err      error
	// Path is the element path the problem was found at.
	Path string
	// Name identifies the offending group or type.
	Name string
}

func (d Diagnostic) Error() string {
	if d.Path == "" {
		return d.Err.Error()
	}
	return fmt.Sprintf("%s: %v", d.Path, d.Err)
}

func (d Diagnostic) Unwrap() error {
	return d.Err
}
