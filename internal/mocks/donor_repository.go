package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"lifesavers-united/internal/domain"
)

type DonorRepository struct {
	mock.Mock
}

func (m *DonorRepository) Create(ctx context.Context, donor *domain.Donor) error {
	args := m.Called(ctx, donor)
	return args.Error(0)
}

func (m *DonorRepository) GetByID(ctx context.Context, id string) (*domain.Donor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Donor), args.Error(1)
}

func (m *DonorRepository) GetActiveByContact(ctx context.Context, contactNumber string) (*domain.Donor, error) {
	args := m.Called(ctx, contactNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Donor), args.Error(1)
}

func (m *DonorRepository) ListActive(ctx context.Context) ([]domain.Donor, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Donor), args.Error(1)
}

func (m *DonorRepository) Upsert(ctx context.Context, donor *domain.Donor) error {
	args := m.Called(ctx, donor)
	return args.Error(0)
}

func (m *DonorRepository) TouchLastDonated(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}
