package analysis

import "errors"

// ErrEmptyInput is returned when metadata extraction is given no text.
var ErrEmptyInput = errors.New("no text provided for metadata extraction")

// ErrNoDocuments is returned when an analysis is requested without documents.
var ErrNoDocuments = errors.New("no document text provided for analysis")

// APIError means every provider in the chain failed. Message carries the
// last upstream error text verbatim so callers can surface it for debugging.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}
