package retrieval

import (
	"context"
	"time"

	"docqa/internal/middleware"
	"docqa/internal/vector"
)

type SearchResult struct {
	ChunkIndex int     `json:"chunkIndex"`
	Content    string  `json:"content"`
	Score      float64 `json:"score"`
}

// Ranker scores a query against an already built document index.
type Ranker interface {
	Rank(query string, k int) []vector.Result
}

type Service struct {
	logger *QueryLogger
}

// NewService returns a search service. A nil logger disables query logging.
func NewService(l *QueryLogger) *Service {
	return &Service{logger: l}
}

// Search returns at most limit chunks of the index ranked against query.
// An empty result means no chunk shares a term with the query.
func (s *Service) Search(ctx context.Context, idx Ranker, query string, limit int) []SearchResult {
	start := time.Now()

	ranked := idx.Rank(query, limit)
	results := make([]SearchResult, len(ranked))
	for i, r := range ranked {
		results[i] = SearchResult{
			ChunkIndex: r.Chunk.Index,
			Content:    r.Chunk.Content,
			Score:      r.Score,
		}
	}

	if s.logger != nil {
		entry := QueryLogEntry{
			Query:         query,
			Document:      middleware.GetDocument(ctx),
			NumResults:    len(results),
			ChunkIndex:    -1,
			Duration:      time.Since(start),
			CorrelationID: middleware.GetCorrelationID(ctx),
		}
		if len(results) > 0 {
			entry.ChunkIndex = results[0].ChunkIndex
			entry.TopScore = results[0].Score
		}
		s.logger.Log(entry)
	}

	return results
}
