package vector

import (
	"sort"

	"docqa/internal/text"
)

// Result is a ranked chunk.
type Result struct {
	Chunk text.Chunk
	Score float64
}

// Index is the term-weighted representation of one document's chunks. It
// is built per document and is read-only afterwards, so a built Index may
// be ranked against from several goroutines.
type Index struct {
	chunks     []text.Chunk
	vectorizer *Vectorizer
	vectors    []SparseVector
}

// Empty returns an index that matches nothing.
func Empty() *Index {
	return &Index{}
}

// Build fits a fresh vectorizer to chunks and vectorises each of them. No
// chunks yields the empty index. ErrEmptyVocabulary is returned when the
// chunks contain no terms at all.
func Build(chunks []text.Chunk) (*Index, error) {
	if len(chunks) == 0 {
		return Empty(), nil
	}

	docs := text.Contents(chunks)
	v, err := Fit(docs)
	if err != nil {
		return nil, err
	}

	vectors := make([]SparseVector, len(docs))
	for i, d := range docs {
		vectors[i] = v.Transform(d)
	}

	return &Index{chunks: chunks, vectorizer: v, vectors: vectors}, nil
}

// Len is the number of indexed chunks.
func (ix *Index) Len() int {
	return len(ix.chunks)
}

// VocabularySize is the number of distinct terms in the index.
func (ix *Index) VocabularySize() int {
	if ix.vectorizer == nil {
		return 0
	}
	return ix.vectorizer.VocabularySize()
}

// Rank scores query against every chunk by cosine similarity and returns at
// most k results in descending score order. Equal scores keep chunk order.
// Chunks scoring zero or less are never returned.
func (ix *Index) Rank(query string, k int) []Result {
	if ix.vectorizer == nil || k <= 0 {
		return []Result{}
	}

	q := ix.vectorizer.Transform(query)
	results := make([]Result, 0, len(ix.chunks))
	for i, vec := range ix.vectors {
		score := Cosine(q, vec)
		if score <= 0 {
			continue
		}
		results = append(results, Result{Chunk: ix.chunks[i], Score: score})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}
