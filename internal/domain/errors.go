package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies failures surfaced to API callers
type ErrorKind string

// Error kinds
const (
	KindNotFound           ErrorKind = "not_found"
	KindDuplicateSubstring ErrorKind = "duplicate_substring"
	KindMissingColumns     ErrorKind = "missing_columns"
	KindValidation         ErrorKind = "validation_error"
	KindConflict           ErrorKind = "conflict"
	KindUnauthenticated    ErrorKind = "unauthenticated"
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindForbidden          ErrorKind = "forbidden"
	KindInternal           ErrorKind = "internal_error"
)

// Error is a structured failure with a kind and a human-readable message
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Columns []string  `json:"columns,omitempty"` // Set for KindMissingColumns
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrDuplicateSubstring = &Error{Kind: KindDuplicateSubstring}
	ErrMissingColumns     = &Error{Kind: KindMissingColumns}
	ErrValidation         = &Error{Kind: KindValidation}
	ErrConflict           = &Error{Kind: KindConflict}
)

// NotFound reports a missing resource, or one owned by someone else
func NotFound(resource string) *Error {
	return &Error{Kind: KindNotFound, Message: resource + " not found"}
}

// DuplicateSubstring reports a substring already claimed by another category
func DuplicateSubstring(substring string) *Error {
	return &Error{Kind: KindDuplicateSubstring, Message: fmt.Sprintf("substring %q already mapped", substring)}
}

// MissingColumns names the required columns absent from an upload
func MissingColumns(columns []string) *Error {
	cols := append([]string(nil), columns...)
	sort.Strings(cols)
	return &Error{
		Kind:    KindMissingColumns,
		Message: "missing required columns: " + strings.Join(cols, ", "),
		Columns: cols,
	}
}

// Validation reports a malformed field
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict reports a uniqueness violation
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindInternal for anything unstructured
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// InvalidCredentials hides whether the login or the password was wrong
func InvalidCredentials() *Error {
	return &Error{Kind: KindInvalidCredentials, Message: "invalid credentials"}
}

// Forbidden reports an authenticated caller lacking rights
func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}
