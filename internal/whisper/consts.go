package whisper

import (
	"errors"
)

///////////////////////////////////////////////////////////////////////////////
// ERRORS

var (
	ErrUnableToLoadModel    = errors.New("unable to load model")
	ErrInternalAppError     = errors.New("internal application error")
	ErrModelNotMultilingual = errors.New("model is not multilingual")
)
