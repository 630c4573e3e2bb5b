package answer

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"docqa/internal/document"
)

type Request struct {
	Documents string   `json:"documents"`
	Questions []string `json:"questions"`
}

type Response struct {
	Answers []string `json:"answers"`
}

// Stage is a state of the request pipeline:
// RESOLVING -> EXTRACTING -> INDEXING -> ANSWERING -> DONE, with FAILED
// reachable from the first three only.
type Stage string

const (
	StageResolving  Stage = "RESOLVING"
	StageExtracting Stage = "EXTRACTING"
	StageIndexing   Stage = "INDEXING"
	StageAnswering  Stage = "ANSWERING"
	StageDone       Stage = "DONE"
	StageFailed     Stage = "FAILED"
)

// StageError is a request-fatal failure and the stage it happened in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", strings.ToLower(string(e.Stage)), e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

const (
	// NoExcerptAnswer is returned for a question no chunk scores above zero on.
	NoExcerptAnswer = "No relevant excerpt found for this question."

	modelErrorPrefix = "Error processing question with LLM: "
)

// Outcome classifies a single answer.
type Outcome int

const (
	OutcomeAnswered Outcome = iota
	OutcomeNoMatch
	OutcomeModelError
)

// Answer is the result for one question. Text is always set: the model
// output, NoExcerptAnswer, or a message describing the model failure.
type Answer struct {
	Text       string
	Outcome    Outcome
	ChunkIndex int
	Score      float64
	Err        error
}

// Error codes returned to HTTP and MCP callers.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeExtractionFailed  = "EXTRACTION_FAILED"
	CodeFetchFailed       = "FETCH_FAILED"
	CodeValidation        = "VALIDATION_ERROR"
	CodeInternal          = "INTERNAL_ERROR"
)

// ErrorCode maps a pipeline error to its machine readable code and HTTP
// status.
func ErrorCode(err error) (string, int) {
	switch {
	case errors.Is(err, document.ErrNotFound):
		return CodeNotFound, http.StatusNotFound
	case errors.Is(err, document.ErrUnknownFormat):
		return CodeUnsupportedFormat, http.StatusBadRequest
	case errors.Is(err, document.ErrExtraction):
		return CodeExtractionFailed, http.StatusUnprocessableEntity
	case errors.Is(err, document.ErrFetch):
		return CodeFetchFailed, http.StatusBadGateway
	}
	return CodeInternal, http.StatusInternalServerError
}
