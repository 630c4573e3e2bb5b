package document

import (
	"errors"
	"fmt"
)

// Request-fatal errors. Any of these aborts a run before answering starts.
var (
	// ErrNotFound indicates a local document reference does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrFetch indicates a remote document could not be retrieved.
	ErrFetch = errors.New("document fetch failed")

	// ErrUnknownFormat indicates the document is not pdf, docx or eml.
	ErrUnknownFormat = errors.New("unsupported document format")

	// ErrExtraction indicates the extractor produced no usable text.
	ErrExtraction = errors.New("text extraction failed")
)

// ErrModel marks a failed language-model call. It is question-local and
// never aborts a run.
var ErrModel = errors.New("language model call failed")

// FetchError describes a failed remote retrieval. StatusCode is zero when
// no response was received (timeout, connection refused, size limit).
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}
