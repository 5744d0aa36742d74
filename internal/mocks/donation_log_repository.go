package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lifesavers-united/internal/domain"
)

type DonationLogRepository struct {
	mock.Mock
}

func (m *DonationLogRepository) Create(ctx context.Context, log *domain.DonationLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *DonationLogRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.DonationLog, error) {
	args := m.Called(ctx, requestID)
	return args.Get(0).([]domain.DonationLog), args.Error(1)
}

func (m *DonationLogRepository) CountUnitsDonated(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
