package pages

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindInvalidIndex       ErrorKind = "invalid_index"
	KindInvalidPermutation ErrorKind = "invalid_permutation"
	KindForbidden          ErrorKind = "forbidden"
	KindNotRestorable      ErrorKind = "not_restorable"
)

// Error is the engine's structured error. Handlers map Kind to an HTTP status
// and expose Message only; wrapped storage errors stay server-side.
type Error struct {
	Kind    ErrorKind
	Message string

	// Populated for KindInvalidPermutation.
	MissingIDs []string
	ExtraIDs   []string

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func InvalidIndex(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidIndex, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...interface{}) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func NotRestorable(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotRestorable, Message: fmt.Sprintf(format, args...)}
}

func InvalidPermutation(missing, extra []string) *Error {
	parts := []string{"section id list is not a permutation of the page's sections"}
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(extra) > 0 {
		parts = append(parts, "unknown: "+strings.Join(extra, ", "))
	}
	return &Error{
		Kind:       KindInvalidPermutation,
		Message:    strings.Join(parts, "; "),
		MissingIDs: missing,
		ExtraIDs:   extra,
	}
}

// IsKind reports whether err is an engine Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
