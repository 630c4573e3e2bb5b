package vector

import (
	"errors"
	"math"
	"sort"

	"docqa/internal/text"
)

// ErrEmptyVocabulary is returned when the fitted documents contain no tokens.
var ErrEmptyVocabulary = errors.New("empty vocabulary: documents contain no terms")

// SparseVector holds the non-zero weights of a vector, sorted by index.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Vectorizer weights terms by raw count times smoothed inverse document
// frequency, idf(t) = ln((1+n)/(1+df(t))) + 1, and L2-normalises each vector.
// A Vectorizer is fit to a single corpus and never refit.
type Vectorizer struct {
	vocab map[string]int
	idf   []float64
}

// Fit learns the vocabulary and idf weights of docs. Terms are indexed in
// lexical order.
func Fit(docs []string) (*Vectorizer, error) {
	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]struct{})
		for _, tok := range text.Tokenize(d) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return nil, ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v := &Vectorizer{
		vocab: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
	}
	for i, t := range terms {
		v.vocab[t] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return v, nil
}

// VocabularySize is the number of distinct terms seen during Fit.
func (v *Vectorizer) VocabularySize() int {
	return len(v.vocab)
}

// Transform maps doc into the fitted space. Unknown terms are ignored, so a
// doc sharing no terms with the vocabulary yields the zero vector.
func (v *Vectorizer) Transform(doc string) SparseVector {
	counts := make(map[int]float64)
	for _, tok := range text.Tokenize(doc) {
		if i, ok := v.vocab[tok]; ok {
			counts[i]++
		}
	}

	vec := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for i := range counts {
		vec.Indices = append(vec.Indices, i)
	}
	sort.Ints(vec.Indices)

	var norm float64
	for _, i := range vec.Indices {
		w := counts[i] * v.idf[i]
		vec.Values = append(vec.Values, w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for k := range vec.Values {
			vec.Values[k] /= norm
		}
	}
	return vec
}
