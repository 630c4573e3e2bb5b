package run_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/features/run"
	"docqa/internal/testutils"
)

func TestRunRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := testutils.NewIntegrationSuite(t)
	s.Setup()
	defer s.Teardown()

	repo := run.NewPostgresRepo(s.DB)
	ctx := context.Background()

	first := &run.Run{
		ID: uuid.New().String(), Document: "policy.pdf", Format: "pdf", Stage: run.StageDone,
		Questions: 3, Answered: 2, NoMatch: 1, ChunkCount: 12, DurationMs: 900, CorrelationID: "c-1",
	}
	require.NoError(t, repo.Save(ctx, first))
	assert.False(t, first.CreatedAt.IsZero())

	// Sleep to ensure time difference for ordering test
	time.Sleep(50 * time.Millisecond)

	second := &run.Run{
		ID: uuid.New().String(), Document: "missing.eml", Stage: run.StageFailed, FailedStage: "RESOLVING",
		ErrorCode: "NOT_FOUND", Error: "document not found", Questions: 2, CorrelationID: "c-2",
	}
	require.NoError(t, repo.Save(ctx, second))

	runs, err := repo.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.ChunkCount)
	assert.Equal(t, "c-1", got.CorrelationID)

	_, err = repo.Get(ctx, uuid.New().String())
	assert.ErrorIs(t, err, sql.ErrNoRows)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	failed, err := repo.CountFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)

	questions, err := repo.SumQuestions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, questions)
}
