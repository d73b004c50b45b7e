// Package planerr defines the error taxonomy shared by every planning pass.
//
// Two kinds of failure exist. A ConfigurationError means the catalog (or the
// request made against it) is inconsistent: a missing or duplicated name, a
// conflicting aspect resolution, an undefined identity or dependency kind, or
// a cycle that no terminal dependency breaks. It is always fatal to the
// current resolution and is never retried. A VcsError wraps a failed
// version-control call with the repository it was made against.
//
// Both types cooperate with errors.Is and errors.As. Callers that only need
// the category can test against the sentinel values (ErrNotFound, ErrConflict,
// ...), callers that need the details can extract the concrete type.
package planerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code classifies a ConfigurationError.
type Code string

const (
	CodeNotFound  Code = "not_found"
	CodeDuplicate Code = "duplicate"
	CodeConflict  Code = "conflict"
	CodeUndefined Code = "undefined"
	CodeCycle     Code = "cycle"
	CodeInvalid   Code = "invalid"
)

// Sentinel errors matched by ConfigurationError.Is.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate definition")
	ErrConflict  = errors.New("conflicting definition")
	ErrUndefined = errors.New("undefined reference")
	ErrCycle     = errors.New("dependency cycle")
	ErrInvalid   = errors.New("invalid configuration")
)

var sentinels = map[Code]error{
	CodeNotFound:  ErrNotFound,
	CodeDuplicate: ErrDuplicate,
	CodeConflict:  ErrConflict,
	CodeUndefined: ErrUndefined,
	CodeCycle:     ErrCycle,
	CodeInvalid:   ErrInvalid,
}

// ConfigurationError reports an inconsistency in the catalog. The message is
// surfaced verbatim and always names the offending component, aspect, command
// or kind.
type ConfigurationError struct {
	Code    Code
	Message string
	// Conflicts is populated for CodeConflict errors raised by aspect
	// deduplication, one entry per conflicting aspect type.
	Conflicts []Conflict
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return e.Message
}

// Is reports whether target is the sentinel for the error's code.
func (e *ConfigurationError) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// Configf builds a ConfigurationError with a formatted message.
func Configf(code Code, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithPrefix returns a copy of err with prefix prepended to its message when
// err is a ConfigurationError. Other errors are returned unchanged.
func WithPrefix(err error, prefix string) error {
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		return err
	}
	out := *cfgErr
	out.Message = prefix + cfgErr.Message
	return &out
}

// Conflict describes two or more resolutions of the same aspect type for one
// component that disagree on a field.
type Conflict struct {
	Component string
	Type      string
	Field     string // "source", "provider" or "revision"
	Values    []string
}

// String renders the conflict the way it is reported to users.
func (c Conflict) String() string {
	return fmt.Sprintf("Component %s has 2 aspects with the same type %s and different %ss: %s",
		c.Component, c.Type, c.Field, strings.Join(c.Values, ", "))
}

// NewConflictError aggregates conflicts into a single ConfigurationError.
// The conflicts are reported in component, then type order. It returns nil
// when conflicts is empty.
func NewConflictError(conflicts []Conflict) error {
	if len(conflicts) == 0 {
		return nil
	}
	sorted := append([]Conflict(nil), conflicts...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Component != sorted[j].Component {
			return sorted[i].Component < sorted[j].Component
		}
		return sorted[i].Type < sorted[j].Type
	})
	lines := make([]string, 0, len(sorted))
	for _, c := range sorted {
		lines = append(lines, c.String())
	}
	return &ConfigurationError{
		Code:      CodeConflict,
		Message:   strings.Join(lines, "; "),
		Conflicts: sorted,
	}
}

// VcsError wraps a failed version-control operation with the repository it
// was performed against.
type VcsError struct {
	Op       string
	Path     string
	Source   string
	Revision string
	Err      error
}

// Error implements the error interface.
func (e *VcsError) Error() string {
	msg := "vcs failure"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	return fmt.Sprintf("%s in %s with source %s and revision %s", msg, e.Path, e.Source, e.Revision)
}

// Unwrap returns the underlying cause.
func (e *VcsError) Unwrap() error {
	return e.Err
}

// WrapVcs wraps err in a VcsError. It returns nil when err is nil, and
// returns err unchanged when it already is a VcsError.
func WrapVcs(err error, op, path, source, revision string) error {
	if err == nil {
		return nil
	}
	var vcsErr *VcsError
	if errors.As(err, &vcsErr) {
		return err
	}
	return &VcsError{Op: op, Path: path, Source: source, Revision: revision, Err: err}
}
