package ledger

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies ledger errors so the transport layer can map them to
// status codes without string matching.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindStorage    Kind = "storage"
	KindConflict   Kind = "conflict"
)

type Error struct {
	Kind    Kind
	Message string
	Timeout bool
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func validationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(productID string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("product %s not found", productID)}
}

func conflictError(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

func storageError(message string, err error) *Error {
	return &Error{
		Kind:    KindStorage,
		Message: message,
		Timeout: errors.Is(err, context.DeadlineExceeded),
		Err:     err,
	}
}

// KindOf returns the error's kind, or an empty Kind for errors that did not
// originate in the ledger.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsValidation(err error) bool { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool   { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return KindOf(err) == KindConflict }
func IsStorage(err error) bool    { return KindOf(err) == KindStorage }

// IsTimeout reports whether err is a storage error caused by an expired
// store deadline.
func IsTimeout(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindStorage && e.Timeout
	}
	return false
}
