package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"docvault/internal/enrichment"
	"docvault/internal/model"
	repoMocks "docvault/internal/repository/mocks"
)

type runnerFunc func(ctx context.Context, task enrichment.Task) error

func (f runnerFunc) Run(ctx context.Context, task enrichment.Task) error { return f(ctx, task) }

func TestExecute(t *testing.T) {
	failedDocs := []model.Document{
		{ID: "a", OriginalName: "a.txt", ProcessingStatus: model.StatusFailed},
		{ID: "b", OriginalName: "b.txt", ProcessingStatus: model.StatusFailed},
	}

	tests := []struct {
		name       string
		dryRun     bool
		setupMocks func(*repoMocks.MockDocumentRepository)
		run        runnerFunc
		wantCode   int
		wantOut    string
	}{
		{
			name:   "dry run lists candidates",
			dryRun: true,
			setupMocks: func(m *repoMocks.MockDocumentRepository) {
				m.On("ListByStatus", mock.Anything, []model.ProcessingStatus{model.StatusFailed}).Return(failedDocs, nil)
			},
			wantCode: 0,
			wantOut:  "2 document(s) selected",
		},
		{
			name: "all recovered",
			setupMocks: func(m *repoMocks.MockDocumentRepository) {
				m.On("ListByStatus", mock.Anything, []model.ProcessingStatus{model.StatusFailed}).Return(failedDocs, nil)
				m.On("SetStatus", mock.Anything, mock.Anything, model.StatusProcessing).Return(nil)
			},
			run:      func(context.Context, enrichment.Task) error { return nil },
			wantCode: 0,
			wantOut:  `"completed": 2`,
		},
		{
			name: "a failed document sets exit code",
			setupMocks: func(m *repoMocks.MockDocumentRepository) {
				m.On("ListByStatus", mock.Anything, []model.ProcessingStatus{model.StatusFailed}).Return(failedDocs, nil)
				m.On("SetStatus", mock.Anything, mock.Anything, model.StatusProcessing).Return(nil)
			},
			run: func(_ context.Context, task enrichment.Task) error {
				if task.DocumentID == "b" {
					return errors.New("model unavailable")
				}
				return nil
			},
			wantCode: 1,
			wantOut:  `"failed": 1`,
		},
		{
			name: "scan error",
			setupMocks: func(m *repoMocks.MockDocumentRepository) {
				m.On("ListByStatus", mock.Anything, []model.ProcessingStatus{model.StatusFailed}).Return(nil, errors.New("db down"))
			},
			wantCode: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			tt.setupMocks(mRepo)
			sweeper := enrichment.NewSweeper(mRepo, tt.run, zap.NewNop())

			var out bytes.Buffer
			code := execute(context.Background(), sweeper, enrichment.SelectFailed, tt.dryRun, &out, zap.NewNop())

			require.Equal(t, tt.wantCode, code)
			assert.Contains(t, out.String(), tt.wantOut)
			mRepo.AssertExpectations(t)
		})
	}
}
