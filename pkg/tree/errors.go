package tree

import "errors"

// TreeError represents a structural error from a tree operation.
//
// These are user-facing conditions (name taken, parent missing, ...) as
// opposed to infrastructure failures. The workspace surfaces them to the
// presentation layer unchanged.
type TreeError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string

	// Path is the path or name related to the error (if applicable)
	Path string
}

// Error implements the error interface.
func (e *TreeError) Error() string {
	if e.Path != "" {
		return e.Message + ": " + e.Path
	}
	return e.Message
}

// ErrorCode represents the category of a tree error.
type ErrorCode int

const (
	// ErrNameConflict indicates a sibling with the same name already exists
	ErrNameConflict ErrorCode = iota

	// ErrParentNotFound indicates the target directory does not exist
	// or is not a directory
	ErrParentNotFound

	// ErrOversizeUpload indicates an import candidate exceeds the size limit
	ErrOversizeUpload

	// ErrInvalidName indicates a name that is not a single usable path segment
	ErrInvalidName

	// ErrNotFound indicates the addressed node does not exist
	ErrNotFound

	// ErrCycle indicates the operation would place a directory inside itself
	ErrCycle

	// ErrRootImmutable indicates an attempt to move or rename the root
	ErrRootImmutable

	// ErrMalformed indicates a tree that violates a structural invariant
	ErrMalformed
)

// String returns a short identifier for the code.
func (c ErrorCode) String() string {
	switch c {
	case ErrNameConflict:
		return "name_conflict"
	case ErrParentNotFound:
		return "parent_not_found"
	case ErrOversizeUpload:
		return "oversize_upload"
	case ErrInvalidName:
		return "invalid_name"
	case ErrNotFound:
		return "not_found"
	case ErrCycle:
		return "cycle"
	case ErrRootImmutable:
		return "root_immutable"
	case ErrMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// NewError creates a TreeError.
func NewError(code ErrorCode, message, path string) *TreeError {
	return &TreeError{Code: code, Message: message, Path: path}
}

// IsCode reports whether err is a TreeError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var te *TreeError
	return errors.As(err, &te) && te.Code == code
}
