package tools

import (
	"go.uber.org/zap"

	"github.com/nota-kb/docserver/internal/apperrors"
)

func notFoundErr(path string) error {
	return apperrors.Newf(apperrors.CodeDocumentNotFound, "no such document: %s", path)
}

func invalidParam(msg string) error {
	return apperrors.New(apperrors.CodeInvalidParameterValue, msg)
}

func zapError(err error) zap.Field {
	return zap.Error(err)
}
