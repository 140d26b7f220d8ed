package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced to the UI layer.
type ErrorKind int

// Error kinds.
const (
	KindUnknown ErrorKind = iota
	KindDatabaseConnection
	KindQueryExecution
	KindTableFetch
	KindFileDialog
	KindInvalidInput
)

func (k ErrorKind) String() string {
	switch k {
	case KindDatabaseConnection:
		return "DatabaseConnection"
	case KindQueryExecution:
		return "QueryExecution"
	case KindTableFetch:
		return "TableFetch"
	case KindFileDialog:
		return "FileDialog"
	case KindInvalidInput:
		return "InvalidInput"
	}
	return "Unknown"
}

func (k ErrorKind) prefix() string {
	switch k {
	case KindDatabaseConnection:
		return "Database connection failed"
	case KindQueryExecution:
		return "Query execution failed"
	case KindTableFetch:
		return "Failed to fetch tables"
	case KindFileDialog:
		return "File dialog error"
	case KindInvalidInput:
		return "Invalid input"
	}
	return "Error"
}

// Error is a classified failure. Its message is shown verbatim to the user.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.prefix(), msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the kind sentinels below work
// with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Msg == "" && t.Err == nil
}

// Kind sentinels for errors.Is.
var (
	ErrDatabaseConnection = &Error{Kind: KindDatabaseConnection}
	ErrQueryExecution     = &Error{Kind: KindQueryExecution}
	ErrTableFetch         = &Error{Kind: KindTableFetch}
	ErrFileDialog         = &Error{Kind: KindFileDialog}
	ErrInvalidInput       = &Error{Kind: KindInvalidInput}
)

// Wrap classifies err. A nil err yields nil; an err already carrying a
// kind is returned unchanged.
func Wrap(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Kind: kind, Err: err}
}

// ConnectionError classifies a pool/connect failure.
func ConnectionError(err error) error {
	return Wrap(KindDatabaseConnection, err)
}

// QueryError classifies a statement execution failure.
func QueryError(err error) error {
	return Wrap(KindQueryExecution, err)
}

// TableFetchError classifies a schema introspection failure.
func TableFetchError(err error) error {
	return Wrap(KindTableFetch, err)
}

// Errorf creates a classified error with a formatted message.
func Errorf(kind ErrorKind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// InvalidInputf creates an InvalidInput error.
func InvalidInputf(format string, args ...any) error {
	return Errorf(KindInvalidInput, format, args...)
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}
