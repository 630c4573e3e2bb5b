package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFit(t *testing.T) {
	v, err := Fit([]string{"aa bb", "aa cc"})
	require.NoError(t, err)
	assert.Equal(t, 3, v.VocabularySize())

	// Lexical order: aa=0, bb=1, cc=2.
	assert.Equal(t, 0, v.vocab["aa"])
	assert.Equal(t, 2, v.vocab["cc"])
	assert.InDelta(t, 1.0, v.idf[0], 1e-12)
	assert.InDelta(t, math.Log(1.5)+1, v.idf[1], 1e-12)
}

func TestFit_EmptyVocabulary(t *testing.T) {
	_, err := Fit([]string{"a b c", "!!", ""})
	assert.ErrorIs(t, err, ErrEmptyVocabulary)
}

func TestTransform(t *testing.T) {
	v, err := Fit([]string{"aa bb", "aa cc"})
	require.NoError(t, err)

	t.Run("L2 Normalised And Sorted", func(t *testing.T) {
		vec := v.Transform("bb aa bb")
		assert.Equal(t, []int{0, 1}, vec.Indices)

		wa, wb := 1.0, 2*(math.Log(1.5)+1)
		n := math.Sqrt(wa*wa + wb*wb)
		assert.InDelta(t, wa/n, vec.Values[0], 1e-12)
		assert.InDelta(t, wb/n, vec.Values[1], 1e-12)
		assert.InDelta(t, 1.0, norm(vec), 1e-12)
	})

	t.Run("Unknown Terms Give Zero Vector", func(t *testing.T) {
		vec := v.Transform("zz yy")
		assert.Empty(t, vec.Indices)
		assert.Equal(t, 0.0, norm(vec))
	})
}

func TestCosine(t *testing.T) {
	a := SparseVector{Indices: []int{0, 2}, Values: []float64{1, 1}}
	b := SparseVector{Indices: []int{2, 5}, Values: []float64{1, 1}}
	c := SparseVector{Indices: []int{1}, Values: []float64{3}}

	assert.InDelta(t, 0.5, Cosine(a, b), 1e-12)
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-12)
	assert.Equal(t, 0.0, Cosine(a, c))
	assert.Equal(t, 0.0, Cosine(a, SparseVector{}))
}
