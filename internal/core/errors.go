package core

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnsupportedFormat  = errors.New("unsupported file type")
	ErrMalformedDocument  = errors.New("malformed document")
	ErrEmptyContent       = errors.New("No extractable content found")
	ErrGenerationService  = errors.New("text generation failed")
	ErrRateLimited        = errors.New("rate limited")
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("not authenticated")
)

// UnsupportedFormatError is returned when a content type is outside the
// supported set. It never wraps a parser error.
type UnsupportedFormatError struct {
	ContentType string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("Unsupported file type: %s", e.ContentType)
}

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// MalformedDocumentError means the bytes do not parse as their declared format.
type MalformedDocumentError struct {
	ContentType string
	Err         error
}

func (e *MalformedDocumentError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed %s document", e.ContentType)
	}
	return fmt.Sprintf("malformed %s document: %v", e.ContentType, e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

func (e *MalformedDocumentError) Is(target error) bool { return target == ErrMalformedDocument }

// EmptyContentError signals that extraction succeeded but left nothing to summarize.
type EmptyContentError struct{}

func (e *EmptyContentError) Error() string { return ErrEmptyContent.Error() }

func (e *EmptyContentError) Is(target error) bool { return target == ErrEmptyContent }

// GenerationServiceError wraps any failure of the text-generation service.
// Transient is true for rate limits, timeouts and temporary unavailability.
type GenerationServiceError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *GenerationServiceError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("text generation failed: %v", e.Err)
	}
	return fmt.Sprintf("text generation failed (%s): %v", e.Op, e.Err)
}

func (e *GenerationServiceError) Unwrap() error { return e.Err }

func (e *GenerationServiceError) Is(target error) bool { return target == ErrGenerationService }

// IsTransient reports whether err is a generation failure worth retrying.
func IsTransient(err error) bool {
	var gerr *GenerationServiceError
	if errors.As(err, &gerr) {
		return gerr.Transient
	}
	return errors.Is(err, ErrRateLimited)
}

// HTTPStatusCode maps the error taxonomy onto response codes.
func HTTPStatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnsupportedFormat), errors.Is(err, ErrEmptyContent):
		return http.StatusBadRequest
	case errors.Is(err, ErrMalformedDocument):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrGenerationService):
		return http.StatusBadGateway
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
