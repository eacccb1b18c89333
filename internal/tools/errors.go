package tools

import (
	"errors"

	"github.com/nota-kb/docserver/internal/apperrors"
)

// asErrorResponse converts any error into the typed {code, message,
// context} shape every tool response surfaces on failure. Errors that
// didn't originate as an apperrors.Error (which should not happen for any
// internal failure path) still get a best-effort code of IO_ERROR rather
// than leaking a bare string.
func asErrorResponse(err error) ErrorResponse {
	var e *apperrors.Error
	if errors.As(err, &e) {
		return ErrorResponse{Code: string(e.Code), Message: e.Message, Context: e.Context}
	}
	return ErrorResponse{Code: string(apperrors.CodeIOError), Message: err.Error()}
}
