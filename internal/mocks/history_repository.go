package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lifesavers-united/internal/domain"
)

type HistoryRepository struct {
	mock.Mock
}

func (m *HistoryRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *HistoryRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.HistoryEntry, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]domain.HistoryEntry), args.Error(1)
}
