// Package cfgerr holds the error kinds surfaced by the configuration engine.
// Every kind wraps its cause so callers can use errors.As and errors.Is.
package cfgerr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoPath is returned by refresh and flush when the configuration has no cached source path.
var ErrNoPath = errors.New("configuration has no source path")

// ValidationError reports a field whose predicate rejected its current value.
type ValidationError struct {
	Section string   // Section name
	Key     string   // Field name
	Value   string   // Text rendering of the rejected value
	Reason  string   // Optional explanation from the predicate
	Suggest []string // Optional accepted values
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("bad [%s]::%s, found: %s", e.Section, e.Key, e.Value)
	switch {
	case len(e.Suggest) > 0:
		msg += fmt.Sprintf(", expected one of: %s", strings.Join(e.Suggest, ", "))
	case e.Reason != "":
		msg += ", reason: " + e.Reason
	}
	return msg
}

// CoercionError reports a present raw value that could not be decoded into its field's type.
type CoercionError struct {
	Section string
	Key     string
	Raw     string
	Err     error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("cannot parse [%s]::%s from %q: %v", e.Section, e.Key, e.Raw, e.Err)
}

func (e *CoercionError) Unwrap() error { return e.Err }

// SyntaxError reports a backing store whose text could not be parsed into sections.
type SyntaxError struct {
	Path string
	Err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error in %s: %v", e.Path, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// IOError reports a failed file operation on the backing store.
type IOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// EncodeError reports a field value that could not be serialized for writing.
type EncodeError struct {
	Section string
	Key     string
	Err     error
}

func (e *EncodeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cannot encode [%s]: %v", e.Section, e.Err)
	}
	return fmt.Sprintf("cannot encode [%s]::%s: %v", e.Section, e.Key, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
