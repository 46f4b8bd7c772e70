// Package apperr defines the error kinds surfaced by the inventory engine.
package apperr

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an error for callers.
type Kind uint8

const (
	// KindNone is reported for a nil error.
	KindNone Kind = iota
	// Validation means the caller supplied missing or malformed input.
	Validation
	// NotFound means a referenced pack, item, image, transaction or user is absent.
	NotFound
	// PreconditionFailed means a business rule rejected the operation.
	PreconditionFailed
	// DuplicateKey means an identifier collided with an existing row.
	DuplicateKey
	// StorageFailure means the underlying store failed.
	StorageFailure
	// Unauthorized means the supplied credential was rejected.
	Unauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case Validation:
		return "validation"
	case NotFound:
		return "not_found"
	case PreconditionFailed:
		return "precondition_failed"
	case DuplicateKey:
		return "duplicate_key"
	case StorageFailure:
		return "storage_failure"
	case Unauthorized:
		return "unauthorized"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// HTTPCode maps a kind to the status code the request layer responds with.
func (k Kind) HTTPCode() int {
	switch k {
	case Validation, PreconditionFailed:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthorized:
		return http.StatusUnauthorized
	case KindNone:
		return http.StatusOK
	}
	return http.StatusInternalServerError
}

// Error is a classified error with a human-readable message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Msg
	case e.Msg == "":
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Format prints the wrapped error's stack for %+v.
func (e *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') && e.Err != nil {
		if e.Msg != "" {
			fmt.Fprintf(s, "%s: ", e.Msg)
		}
		fmt.Fprintf(s, "%+v", e.Err)
		return
	}
	io.WriteString(s, e.Error())
}

// Public returns the message that is safe to show to a caller.
// Storage failures are opaque.
func (e *Error) Public() string {
	if e.Kind == StorageFailure {
		return "internal server error"
	}
	if e.Msg == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Msg
}

// Validationf returns a Validation error.
func Validationf(format string, args ...any) error {
	return &Error{Kind: Validation, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf returns a NotFound error.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: NotFound, Msg: fmt.Sprintf(format, args...)}
}

// Preconditionf returns a PreconditionFailed error.
func Preconditionf(format string, args ...any) error {
	return &Error{Kind: PreconditionFailed, Msg: fmt.Sprintf(format, args...)}
}

// Unauthorizedf returns an Unauthorized error.
func Unauthorizedf(format string, args ...any) error {
	return &Error{Kind: Unauthorized, Msg: fmt.Sprintf(format, args...)}
}

// Duplicate wraps a unique violation reported by the store.
func Duplicate(msg string, err error) error {
	return &Error{Kind: DuplicateKey, Msg: msg, Err: err}
}

// Storage wraps a store failure and records the stack where it was classified.
// Errors that are already classified pass through unchanged.
func Storage(msg string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: StorageFailure, Msg: msg, Err: pkgerrors.WithStack(err)}
}

// KindOf reports the kind of err. Unclassified errors are storage failures.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return StorageFailure
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
