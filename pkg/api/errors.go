package api

import (
	"net/http"

	"github.com/smartapp/smartapp/internal/common/apperrors"
)

var (
	ErrInvalidInput      = apperrors.New("invalid input").SetKind(apperrors.KindValidation).SetStatusCode(http.StatusBadRequest)
	ErrNoFile            = ErrInvalidInput.New("no file selected")
	ErrNotAnImage        = ErrInvalidInput.New("file is not an image")
	ErrMalformedResponse = apperrors.New("malformed server response").SetKind(apperrors.KindServer).SetStatusCode(http.StatusBadGateway)
)
