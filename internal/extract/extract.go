package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"docqa/internal/document"
)

// Extractor converts the raw bytes of one document format into plain text.
type Extractor interface {
	Extract(ctx context.Context, content []byte) (string, error)
}

// ExtractorFunc adapts a plain function to Extractor.
type ExtractorFunc func(ctx context.Context, content []byte) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, content []byte) (string, error) {
	return f(ctx, content)
}

// Registry dispatches extraction by format tag.
type Registry struct {
	extractors map[document.Format]Extractor
}

// NewRegistry returns a registry with the pdf, docx and eml extractors.
func NewRegistry() *Registry {
	return &Registry{
		extractors: map[document.Format]Extractor{
			document.FormatPDF:  ExtractorFunc(PDF),
			document.FormatDOCX: ExtractorFunc(DOCX),
			document.FormatEML:  ExtractorFunc(EML),
		},
	}
}

// Register replaces the extractor for a format.
func (r *Registry) Register(format document.Format, e Extractor) {
	r.extractors[format] = e
}

// Extract returns the document text. An unknown format wraps
// document.ErrUnknownFormat; a parser failure or whitespace-only output wraps
// document.ErrExtraction.
func (r *Registry) Extract(ctx context.Context, format document.Format, content []byte) (string, error) {
	e, ok := r.extractors[format]
	if !ok {
		return "", fmt.Errorf("%w: %s", document.ErrUnknownFormat, format)
	}

	text, err := e.Extract(ctx, content)
	if err != nil {
		slog.WarnContext(ctx, "extractor failed", "format", format, "error", err)
		return "", fmt.Errorf("%w: %s: %v", document.ErrExtraction, format, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s produced no text", document.ErrExtraction, format)
	}
	return text, nil
}
