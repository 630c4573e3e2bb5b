package run_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"docqa/features/run"
)

func TestService_Record(t *testing.T) {
	t.Run("Assigns ID", func(t *testing.T) {
		mockRepo := new(MockRepo)
		svc := run.NewService(mockRepo)

		mockRepo.On("Save", mock.Anything, mock.MatchedBy(func(r *run.Run) bool {
			_, err := uuid.Parse(r.ID)
			return err == nil && r.Stage == run.StageDone && r.Questions == 3
		})).Return(nil)

		svc.Record(context.Background(), run.Run{Stage: run.StageDone, Questions: 3})
		mockRepo.AssertExpectations(t)
	})

	t.Run("Save Error Is Swallowed", func(t *testing.T) {
		mockRepo := new(MockRepo)
		svc := run.NewService(mockRepo)
		mockRepo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down"))

		assert.NotPanics(t, func() {
			svc.Record(context.Background(), run.Run{Stage: run.StageFailed})
		})
		mockRepo.AssertExpectations(t)
	})
}

func TestService_List_Limits(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, run.DefaultListLimit},
		{-5, run.DefaultListLimit},
		{10, 10},
		{run.MaxListLimit + 1, run.MaxListLimit},
	}
	for _, tt := range tests {
		mockRepo := new(MockRepo)
		mockRepo.On("List", mock.Anything, tt.want).Return([]run.Run{}, nil)

		_, err := run.NewService(mockRepo).List(context.Background(), tt.in)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	}
}
