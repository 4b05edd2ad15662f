package errors

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalid              = errors.New("invalid")
	ErrTooMany              = errors.New("too many requests")
	ErrInternal             = errors.New("internal")
	ErrFetchFailed          = errors.New("document fetch failed")
	ErrFilingNotReady       = errors.New("filing not ready")
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
	ErrGenerationFailed     = errors.New("answer generation failed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsFilingNotReady(err error) bool {
	return errors.Is(err, ErrFilingNotReady)
}
