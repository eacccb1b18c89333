// Package apperrors defines the structured error taxonomy shared by every
// component. No error payload is ever a stringified blob: every failure is
// a typed Error carrying a machine-readable Code, a human Message, and a
// Context map a caller can use to correct the request.
package apperrors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error discriminator.
type Code string

const (
	// Addressing errors
	CodeInvalidAddress          Code = "INVALID_ADDRESS"
	CodeDocumentNotFound        Code = "DOCUMENT_NOT_FOUND"
	CodeSectionNotFound         Code = "SECTION_NOT_FOUND"
	CodeTaskNotFound            Code = "TASK_NOT_FOUND"
	CodeAmbiguousHierarchical   Code = "AMBIGUOUS_HIERARCHICAL_MATCH"

	// Filesystem errors
	CodePathTraversal         Code = "PATH_TRAVERSAL"
	CodeFileTooLarge          Code = "FILE_TOO_LARGE"
	CodeConcurrentModification Code = "CONCURRENT_MODIFICATION"
	CodeIOError               Code = "IO_ERROR"

	// Structural errors
	CodeDuplicateSlug      Code = "DUPLICATE_SLUG"
	CodeSlugNotFound       Code = "SLUG_NOT_FOUND"
	CodeInvalidHeadingDepth Code = "INVALID_HEADING_DEPTH"

	// Resource errors
	CodeReferenceTreeLimitExceeded Code = "REFERENCE_TREE_LIMIT_EXCEEDED"
	CodeReferenceTimeout           Code = "REFERENCE_TIMEOUT"
	CodeCacheFull                  Code = "CACHE_FULL"

	// Validation errors
	CodeMissingParameter      Code = "MISSING_PARAMETER"
	CodeInvalidParameterValue Code = "INVALID_PARAMETER_VALUE"
	CodeUnknownOperation      Code = "UNKNOWN_OPERATION"
)

// Error is the sole error shape produced by this module's core. It
// satisfies the standard error interface and supports errors.Is by Code.
type Error struct {
	Code    Code
	Message string
	Context map[string]any
}

// New constructs an Error with an empty context map.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Context: map[string]any{}}
}

// Newf constructs an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// With returns a copy of e with key set in its context, for chaining.
func (e *Error) With(key string, value any) *Error {
	cp := &Error{Code: e.Code, Message: e.Message, Context: make(map[string]any, len(e.Context)+1)}
	for k, v := range e.Context {
		cp.Context[k] = v
	}
	cp.Context[key] = value
	return cp
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is makes errors.Is(err, Sentinel(code)) work: two *Error values are
// considered equal for errors.Is purposes if they share a Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinel returns a bare *Error carrying only a Code, suitable for use
// with errors.Is(err, apperrors.Sentinel(apperrors.CodeConcurrentModification)).
func Sentinel(code Code) *Error {
	return &Error{Code: code}
}

// CodeOf extracts the Code from err if it is (or wraps) an *Error, and ""
// otherwise.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
