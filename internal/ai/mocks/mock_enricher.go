package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockEnricher struct {
	mock.Mock
}

func (m *MockEnricher) Summarize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *MockEnricher) Markdown(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}
