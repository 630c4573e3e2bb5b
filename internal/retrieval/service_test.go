package retrieval_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docqa/internal/middleware"
	"docqa/internal/retrieval"
	"docqa/internal/text"
	"docqa/internal/vector"
)

type MockRanker struct{ mock.Mock }

func (m *MockRanker) Rank(query string, k int) []vector.Result {
	args := m.Called(query, k)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]vector.Result)
}

func TestService_Search(t *testing.T) {
	ranker := new(MockRanker)
	ranker.On("Rank", "grace period", 2).Return([]vector.Result{
		{Chunk: text.Chunk{Index: 3, Content: "Grace period is 30 days."}, Score: 0.8},
		{Chunk: text.Chunk{Index: 1, Content: "Period of cover."}, Score: 0.2},
	})

	svc := retrieval.NewService(nil)
	results := svc.Search(context.Background(), ranker, "grace period", 2)

	require.Len(t, results, 2)
	assert.Equal(t, retrieval.SearchResult{ChunkIndex: 3, Content: "Grace period is 30 days.", Score: 0.8}, results[0])
	assert.Equal(t, 1, results[1].ChunkIndex)
	ranker.AssertExpectations(t)
}

func TestService_Search_Logging(t *testing.T) {
	var buf bytes.Buffer
	svc := retrieval.NewService(retrieval.NewQueryLogger(&buf))

	ctx := middleware.WithCorrelationID(context.Background(), "corr-1")
	ctx = middleware.WithDocument(ctx, "policy.pdf")

	ix, err := vector.Build(text.ChunkText("Grace period is 30 days.\n\nClaims require notice."))
	require.NoError(t, err)

	t.Run("Hit", func(t *testing.T) {
		buf.Reset()
		results := svc.Search(ctx, ix, "What is the grace period?", 1)
		require.Len(t, results, 1)

		var entry retrieval.QueryLogEntry
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "What is the grace period?", entry.Query)
		assert.Equal(t, "policy.pdf", entry.Document)
		assert.Equal(t, "corr-1", entry.CorrelationID)
		assert.Equal(t, 1, entry.NumResults)
		assert.Equal(t, 0, entry.ChunkIndex)
		assert.InDelta(t, results[0].Score, entry.TopScore, 1e-12)
	})

	t.Run("Miss", func(t *testing.T) {
		buf.Reset()
		results := svc.Search(ctx, ix, "hospital", 1)
		assert.Empty(t, results)

		var entry retrieval.QueryLogEntry
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, 0, entry.NumResults)
		assert.Equal(t, -1, entry.ChunkIndex)
	})
}

func TestService_Search_EmptyIndex(t *testing.T) {
	svc := retrieval.NewService(nil)
	assert.Empty(t, svc.Search(context.Background(), vector.Empty(), "anything", 1))
}
