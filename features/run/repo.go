package run

import (
	"context"
	"database/sql"
)

type Repository interface {
	Save(ctx context.Context, run *Run) error
	List(ctx context.Context, limit int) ([]Run, error)
	Get(ctx context.Context, id string) (*Run, error)
	Count(ctx context.Context) (int, error)
	CountFailed(ctx context.Context) (int, error)
	SumQuestions(ctx context.Context) (int, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const runColumns = `id, document, format, stage, failed_stage, error_code, error, questions, answered, no_match, model_errors, chunk_count, duration_ms, correlation_id, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner, r *Run) error {
	return s.Scan(&r.ID, &r.Document, &r.Format, &r.Stage, &r.FailedStage, &r.ErrorCode, &r.Error,
		&r.Questions, &r.Answered, &r.NoMatch, &r.ModelErrors, &r.ChunkCount, &r.DurationMs,
		&r.CorrelationID, &r.CreatedAt)
}

func (r *PostgresRepo) Save(ctx context.Context, run *Run) error {
	query := `INSERT INTO runs (id, document, format, stage, failed_stage, error_code, error, questions, answered, no_match, model_errors, chunk_count, duration_ms, correlation_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING created_at`
	return r.db.QueryRowContext(ctx, query,
		run.ID, run.Document, run.Format, run.Stage, run.FailedStage, run.ErrorCode, run.Error,
		run.Questions, run.Answered, run.NoMatch, run.ModelErrors, run.ChunkCount, run.DurationMs,
		run.CorrelationID,
	).Scan(&run.CreatedAt)
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		if err := scanRun(rows, &run); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (*Run, error) {
	run := &Run{}
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`
	if err := scanRun(r.db.QueryRowContext(ctx, query, id), run); err != nil {
		return nil, err
	}
	return run, nil
}

func (r *PostgresRepo) Count(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM runs`
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, err
}

func (r *PostgresRepo) CountFailed(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM runs WHERE stage = $1`
	err := r.db.QueryRowContext(ctx, query, StageFailed).Scan(&count)
	return count, err
}

func (r *PostgresRepo) SumQuestions(ctx context.Context) (int, error) {
	var sum int
	query := `SELECT COALESCE(SUM(questions), 0) FROM runs`
	err := r.db.QueryRowContext(ctx, query).Scan(&sum)
	return sum, err
}
