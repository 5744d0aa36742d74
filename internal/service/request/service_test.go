package request_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/mocks"
	"lifesavers-united/internal/service/request"
)

func coordinator() *domain.User {
	return &domain.User{
		ID:       uuid.New(),
		FullName: "Coordinator One",
		Role:     domain.RoleCoordinator,
	}
}

func openRequest() *domain.Request {
	return &domain.Request{
		ID:             "rameshkumar_9428354534_1700000000000",
		PatientName:    "Ramesh Kumar",
		Status:         domain.StatusOpen,
		UnitsFulfilled: 1,
		DonationLogIDs: pq.StringArray{"d0"},
		ClosureHistory: domain.ClosureHistory{},
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("Open Becomes Verified", func(t *testing.T) {
		requestRepo := new(mocks.RequestRepository)
		historyRepo := new(mocks.HistoryRepository)
		svc := request.NewService(requestRepo, historyRepo)

		req := openRequest()
		requestRepo.On("GetByID", ctx, req.ID).Return(req, nil).Once()
		requestRepo.On("Update", ctx, req).Return(nil).Once()
		historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
			return e.Type == domain.HistoryVerified
		})).Return(nil).Once()

		outcome, err := svc.Verify(ctx, req.ID, coordinator())

		assert.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, domain.ActionUpdated, outcome.Action)
		assert.Equal(t, domain.StatusVerified, req.Status)
		assert.NotNil(t, req.VerifiedAt)
		assert.Equal(t, "Coordinator One", req.VerifiedByName)

		requestRepo.AssertExpectations(t)
		historyRepo.AssertExpectations(t)
	})

	t.Run("Already Verified Is Idempotent", func(t *testing.T) {
		requestRepo := new(mocks.RequestRepository)
		historyRepo := new(mocks.HistoryRepository)
		svc := request.NewService(requestRepo, historyRepo)

		req := openRequest()
		req.Status = domain.StatusVerified
		requestRepo.On("GetByID", ctx, req.ID).Return(req, nil).Once()

		outcome, err := svc.Verify(ctx, req.ID, coordinator())

		assert.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, domain.ActionNoChange, outcome.Action)

		requestRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		historyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Closed Cannot Be Verified", func(t *testing.T) {
		requestRepo := new(mocks.RequestRepository)
		historyRepo := new(mocks.HistoryRepository)
		svc := request.NewService(requestRepo, historyRepo)

		req := openRequest()
		req.Status = domain.StatusClosed
		requestRepo.On("GetByID", ctx, req.ID).Return(req, nil).Once()

		outcome, err := svc.Verify(ctx, req.ID, coordinator())

		assert.NoError(t, err)
		assert.False(t, outcome.Success)
		assert.Equal(t, domain.ActionNoChange, outcome.Action)
		requestRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Not Found", func(t *testing.T) {
		requestRepo := new(mocks.RequestRepository)
		historyRepo := new(mocks.HistoryRepository)
		svc := request.NewService(requestRepo, historyRepo)

		requestRepo.On("GetByID", ctx, "missing").Return(nil, nil).Once()

		_, err := svc.Verify(ctx, "missing", coordinator())
		assert.ErrorIs(t, err, request.ErrRequestNotFound)
	})
}

func TestClose(t *testing.T) {
	ctx := context.Background()

	t.Run("Manual Close", func(t *testing.T) {
		requestRepo := new(mocks.RequestRepository)
		historyRepo := new(mocks.HistoryRepository)
		svc := request.NewService(requestRepo, historyRepo)

		req := openRequest()
		requestRepo.On("GetByID", ctx, req.ID).Return(req, nil).Once()
		requestRepo.On("Update", ctx, req).Return(nil).Once()
		historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
			return e.Type == domain.HistoryClosed
		})).Return(nil).Once()

		outcome, err := svc.Close(ctx, req.ID, domain.CloseRequestInput{
			Reason: "Patient discharged",
			Type:   domain.ClosureOther,
		}, coordinator())

		assert.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, domain.StatusClosed, req.Status)
		assert.Equal(t, "Patient discharged", req.ClosureReason)
		assert.Equal(t, 1, req.TotalClosures)
		assert.Len(t, req.ClosureHistory, 1)
		assert.Equal(t, []string{"d0"}, req.ClosureHistory[0].DonationLogIDs)
		assert.Equal(t, 1, req.ClosureHistory[0].UnitsFulfilled)
	})

	t.Run("Already Closed Is Idempotent", func(t *testing.T) {
		requestRepo := new(mocks.RequestRepository)
		historyRepo := new(mocks.HistoryRepository)
		svc := request.NewService(requestRepo, historyRepo)

		req := openRequest()
		req.Status = domain.StatusClosed
		req.TotalClosures = 1
		requestRepo.On("GetByID", ctx, req.ID).Return(req, nil).Once()

		outcome, err := svc.Close(ctx, req.ID, domain.CloseRequestInput{}, coordinator())

		assert.NoError(t, err)
		assert.True(t, outcome.Success)
		assert.Equal(t, domain.ActionNoChange, outcome.Action)
		assert.Equal(t, 1, req.TotalClosures)

		requestRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		historyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Defaults Applied", func(t *testing.T) {
		requestRepo := new(mocks.RequestRepository)
		historyRepo := new(mocks.HistoryRepository)
		svc := request.NewService(requestRepo, historyRepo)

		req := openRequest()
		requestRepo.On("GetByID", ctx, req.ID).Return(req, nil).Once()
		requestRepo.On("Update", ctx, req).Return(nil).Once()
		historyRepo.On("Create", ctx, mock.Anything).Return(nil).Once()

		_, err := svc.Close(ctx, req.ID, domain.CloseRequestInput{}, coordinator())

		assert.NoError(t, err)
		assert.Equal(t, domain.ClosureOther, req.ClosureType)
		assert.Equal(t, "Closed by coordinator", req.ClosureReason)
	})
}

func TestListPublic_ExcludesClosed(t *testing.T) {
	ctx := context.Background()
	requestRepo := new(mocks.RequestRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := request.NewService(requestRepo, historyRepo)

	requestRepo.On("List", ctx, mock.MatchedBy(func(f domain.RequestListFilter) bool {
		for _, s := range f.Statuses {
			if s == domain.StatusClosed {
				return false
			}
		}
		return len(f.Statuses) == 3
	}), mock.Anything).Return([]domain.Request{}, int64(0), nil).Once()

	_, err := svc.ListPublic(ctx, domain.PaginationParams{Page: 1, PageSize: 20})

	assert.NoError(t, err)
	requestRepo.AssertExpectations(t)
}
