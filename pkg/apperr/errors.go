// Package apperr provides the closed set of error kinds used across the
// backup engine's core components. It is a leaf package with no internal
// dependencies so it can be imported by storage, cache, walker, and gc
// implementations without causing import cycles.
package apperr

import "fmt"

// ErrorCode represents the kind of error that occurred.
type ErrorCode int

const (
	// ErrNotFound indicates the requested key does not exist in a store.
	ErrNotFound ErrorCode = iota + 1

	// ErrAlreadyExists indicates a resource already exists under a name
	// that was expected to be free (e.g. a snapshot name in use).
	ErrAlreadyExists

	// ErrFS indicates lstat, listdir, or a file read failed. Per-entry
	// recoverable: the entry is logged and skipped.
	ErrFS

	// ErrIO indicates a storage backend transport failure. Retried by
	// the driver's own policy; terminal failure aborts the operation.
	ErrIO

	// ErrAuthFail indicates ciphertext failed authenticated decryption.
	// Always fatal to the operation that encountered it.
	ErrAuthFail

	// ErrCacheCorruption indicates a detected invariant violation in the
	// local cache (missing edge, dangling obj_id). Requires a
	// verify/rebuild before the engine can proceed.
	ErrCacheCorruption

	// ErrCancelled indicates cooperative cancellation of an in-flight
	// operation via a caller-supplied context.
	ErrCancelled

	// ErrInvalidArgument indicates a caller supplied a malformed or
	// out-of-range argument.
	ErrInvalidArgument
)

// String returns a human-readable name for the error code.
func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "NotFound"
	case ErrAlreadyExists:
		return "AlreadyExists"
	case ErrFS:
		return "FsError"
	case ErrIO:
		return "IOError"
	case ErrAuthFail:
		return "AuthFail"
	case ErrCacheCorruption:
		return "CacheCorruption"
	case ErrCancelled:
		return "Cancelled"
	case ErrInvalidArgument:
		return "InvalidArgument"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// Error is the engine's single error type. Every error surfaced by core
// components carries a closed ErrorCode rather than relying on sentinel
// values or type assertions against package-private types.
type Error struct {
	Code    ErrorCode
	Message string
	Path    string
	Err     error // wrapped cause, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Path != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s (path: %s): %v", e.Code, e.Message, e.Path, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %s (path: %s)", e.Code, e.Message, e.Path)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the wrapped cause, if any, so errors.Is/errors.As work
// against the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New constructs an Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap constructs an Error that wraps an underlying cause.
func Wrap(code ErrorCode, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// NotFound creates a NotFound error for the given key.
func NotFound(key string) *Error {
	return &Error{Code: ErrNotFound, Message: "object not found", Path: key}
}

// AlreadyExists creates an AlreadyExists error for the given name.
func AlreadyExists(name string) *Error {
	return &Error{Code: ErrAlreadyExists, Message: "already exists", Path: name}
}

// FSError wraps a filesystem syscall failure (lstat, listdir, read) for a path.
func FSError(path string, err error) *Error {
	return &Error{Code: ErrFS, Message: "filesystem operation failed", Path: path, Err: err}
}

// IOError wraps a storage backend transport failure.
func IOError(key string, err error) *Error {
	return &Error{Code: ErrIO, Message: "storage backend I/O failed", Path: key, Err: err}
}

// AuthFail creates an AuthFail error for a ciphertext that failed
// authenticated decryption.
func AuthFail(key string) *Error {
	return &Error{Code: ErrAuthFail, Message: "authentication failed", Path: key}
}

// CacheCorruption creates a CacheCorruption error describing the
// detected invariant violation.
func CacheCorruption(message string) *Error {
	return &Error{Code: ErrCacheCorruption, Message: message}
}

// Cancelled creates a Cancelled error.
func Cancelled() *Error {
	return &Error{Code: ErrCancelled, Message: "operation cancelled"}
}

// InvalidArgument creates an InvalidArgument error.
func InvalidArgument(message string) *Error {
	return &Error{Code: ErrInvalidArgument, Message: message}
}

// IsNotFound returns true if err is a NotFound error.
func IsNotFound(err error) bool {
	var e *Error
	return asError(err, &e) && e.Code == ErrNotFound
}

// IsAlreadyExists returns true if err is an AlreadyExists error.
func IsAlreadyExists(err error) bool {
	var e *Error
	return asError(err, &e) && e.Code == ErrAlreadyExists
}

// IsAuthFail returns true if err is an AuthFail error.
func IsAuthFail(err error) bool {
	var e *Error
	return asError(err, &e) && e.Code == ErrAuthFail
}

// IsCacheCorruption returns true if err is a CacheCorruption error.
func IsCacheCorruption(err error) bool {
	var e *Error
	return asError(err, &e) && e.Code == ErrCacheCorruption
}

// IsCancelled returns true if err is a Cancelled error.
func IsCancelled(err error) bool {
	var e *Error
	return asError(err, &e) && e.Code == ErrCancelled
}

// IsInvalidArgument returns true if err is an InvalidArgument error.
func IsInvalidArgument(err error) bool {
	var e *Error
	return asError(err, &e) && e.Code == ErrInvalidArgument
}

// asError walks err's single-error Unwrap chain and reports the first
// *Error it finds, keeping the Is* helpers terse. Errors that wrap
// several errors (Unwrap() []error) are not searched.
func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
