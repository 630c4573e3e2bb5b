package text

import "strings"

// Chunk is a non-empty, trimmed paragraph of document text. Index is the
// 0-based position among the chunks of one document.
type Chunk struct {
	Index   int
	Content string
}

// ChunkText splits text on blank lines ("\n\n") after normalising CRLF line
// endings, trims each candidate and drops the empty ones. Empty or
// whitespace-only input yields no chunks.
func ChunkText(text string) []Chunk {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []Chunk
	for _, part := range strings.Split(text, "\n\n") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, Chunk{Index: len(chunks), Content: part})
	}
	return chunks
}

// Contents returns the chunk texts in order.
func Contents(chunks []Chunk) []string {
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Content
	}
	return out
}
