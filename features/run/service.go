package run

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record stores a finished run. Storage failures are logged and never
// reach the caller, whose answers are already computed.
func (s *Service) Record(ctx context.Context, r Run) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if err := s.repo.Save(ctx, &r); err != nil {
		slog.ErrorContext(ctx, "failed to record run", "run_id", r.ID, "stage", r.Stage, "error", err)
		return
	}
	slog.DebugContext(ctx, "run recorded", "run_id", r.ID, "stage", r.Stage)
}

// List returns the most recent runs first. limit is clamped to
// [1, MaxListLimit]; zero selects DefaultListLimit.
func (s *Service) List(ctx context.Context, limit int) ([]Run, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.repo.List(ctx, limit)
}

func (s *Service) Get(ctx context.Context, id string) (*Run, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}
