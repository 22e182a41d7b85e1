// Package importerr defines the error kinds produced while importing API
// description documents.
//
// Only InvalidFileFormat and DerefError ever leave the import pipeline. The
// validation and dereference kinds are recoverable: the pipeline catches them
// at the stage boundary and keeps the pre-stage document.
package importerr

import (
	"errors"
	"fmt"
)

// Kind is the stable error tag reported to callers.
type Kind string

const (
	KindInvalidFileFormat   Kind = "invalid_file_format"
	KindDerefError          Kind = "deref_error"
	KindCouldNotValidate    Kind = "could_not_validate"
	KindCouldNotDereference Kind = "could_not_dereference"
)

// Sentinels for errors.Is checks.
var (
	ErrInvalidFileFormat   = errors.New(string(KindInvalidFileFormat))
	ErrDerefError          = errors.New(string(KindDerefError))
	ErrCouldNotValidate    = errors.New(string(KindCouldNotValidate))
	ErrCouldNotDereference = errors.New(string(KindCouldNotDereference))
)

// Error is a tagged import failure. Doc is the zero-based index of the
// document in the batch, or -1 when the failure concerns the whole batch.
type Error struct {
	Kind        Kind
	Recoverable bool
	Doc         int
	Cause       error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Doc >= 0 {
		msg += fmt.Sprintf(" (document %d)", e.Doc)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidFileFormat:
		return e.Kind == KindInvalidFileFormat
	case ErrDerefError:
		return e.Kind == KindDerefError
	case ErrCouldNotValidate:
		return e.Kind == KindCouldNotValidate
	case ErrCouldNotDereference:
		return e.Kind == KindCouldNotDereference
	}
	return false
}

// Fatal builds a batch-level error.
func Fatal(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Doc: -1, Cause: cause}
}

// Recoverable builds a per-document error that the pipeline degrades past.
func Recoverable(kind Kind, doc int, cause error) *Error {
	return &Error{Kind: kind, Recoverable: true, Doc: doc, Cause: cause}
}

// KindOf returns the kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRecoverable reports whether err is a recoverable import error.
func IsRecoverable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Recoverable
}
