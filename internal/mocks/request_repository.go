package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lifesavers-united/internal/domain"
)

type RequestRepository struct {
	mock.Mock
}

func (m *RequestRepository) Create(ctx context.Context, request *domain.Request) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *RequestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}

func (m *RequestRepository) GetByContactNumber(ctx context.Context, contactNumber string) (*domain.Request, error) {
	args := m.Called(ctx, contactNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}

func (m *RequestRepository) GetByPatientName(ctx context.Context, patientName string) (*domain.Request, error) {
	args := m.Called(ctx, patientName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Request), args.Error(1)
}

func (m *RequestRepository) Update(ctx context.Context, request *domain.Request) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *RequestRepository) List(ctx context.Context, filter domain.RequestListFilter, params domain.PaginationParams) ([]domain.Request, int64, error) {
	args := m.Called(ctx, filter, params)
	return args.Get(0).([]domain.Request), args.Get(1).(int64), args.Error(2)
}

func (m *RequestRepository) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[domain.RequestStatus]int64), args.Error(1)
}

func (m *RequestRepository) CountFulfilledClosures(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
