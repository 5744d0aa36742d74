package donation_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/mocks"
	"lifesavers-united/internal/service/donation"
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
		ID:                 "rameshkumar_9428354534_1700000000000",
		PatientName:        "Ramesh Kumar",
		ContactNumber:      "9428354534",
		RequiredBloodGroup: "B+",
		UnitsRequired:      "3",
		HospitalName:       "City Hospital",
		Status:             domain.StatusOpen,
		DonationLogIDs:     pq.StringArray{},
		AllDonationLogIDs:  pq.StringArray{},
		ClosureHistory:     domain.ClosureHistory{},
	}
}

func newService(t *testing.T) (donation.Service, *mocks.RequestRepository, *mocks.DonationLogRepository, *mocks.DonorRepository, *mocks.HistoryRepository) {
	t.Helper()
	requestRepo := new(mocks.RequestRepository)
	donationRepo := new(mocks.DonationLogRepository)
	donorRepo := new(mocks.DonorRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := donation.NewService(requestRepo, donationRepo, donorRepo, historyRepo)
	return svc, requestRepo, donationRepo, donorRepo, historyRepo
}

func TestRecordDonation_PartialFulfillment(t *testing.T) {
	svc, requestRepo, donationRepo, donorRepo, historyRepo := newService(t)
	ctx := context.Background()
	request := openRequest()

	requestRepo.On("GetByID", ctx, request.ID).Return(request, nil).Once()
	donorRepo.On("GetActiveByContact", ctx, "9876543210").Return(nil, nil).Once()
	donorRepo.On("Upsert", ctx, mock.MatchedBy(func(d *domain.Donor) bool {
		return d.FullName == "Amit Shah" && d.BloodGroup == "B+" && d.Status == domain.DonorActive
	})).Return(nil).Once()
	donationRepo.On("Create", ctx, mock.MatchedBy(func(l *domain.DonationLog) bool {
		return l.RequestID == request.ID && l.UnitsDonated == 1 && l.DonorType == domain.DonorTypeDonor
	})).Return(nil).Once()
	requestRepo.On("Update", ctx, request).Return(nil).Once()
	historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
		return e.Type == domain.HistoryDonation
	})).Return(nil).Once()

	result, err := svc.RecordDonation(ctx, request.ID, domain.LogDonationInput{
		Units:        1,
		DonorType:    domain.DonorTypeDonor,
		DonorName:    "Amit Shah",
		DonorContact: "+91 98765 43210",
	}, coordinator())

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.AutoClosed)
	assert.Equal(t, 2, result.UnitsRemaining)

	assert.Equal(t, domain.StatusOpen, request.Status)
	assert.Equal(t, 1, request.UnitsFulfilled)
	assert.Len(t, request.DonationLogIDs, 1)
	assert.Equal(t, request.DonationLogIDs, request.AllDonationLogIDs)
	assert.Equal(t, "Amit Shah (1 units)", request.DonorSummary)
	assert.NotNil(t, request.LastDonationAt)

	requestRepo.AssertExpectations(t)
	donationRepo.AssertExpectations(t)
	donorRepo.AssertExpectations(t)
	historyRepo.AssertExpectations(t)
}

func TestRecordDonation_AutoClosesWhenFulfilled(t *testing.T) {
	svc, requestRepo, donationRepo, donorRepo, historyRepo := newService(t)
	ctx := context.Background()
	request := openRequest()
	request.UnitsFulfilled = 2
	request.DonationLogIDs = pq.StringArray{"d0", "d1"}
	request.AllDonationLogIDs = pq.StringArray{"d0", "d1"}
	request.DonorSummary = "Amit Shah (2 units)"

	requestRepo.On("GetByID", ctx, request.ID).Return(request, nil).Once()
	donorRepo.On("GetActiveByContact", ctx, "9876543210").Return(nil, nil).Once()
	donorRepo.On("Upsert", ctx, mock.Anything).Return(nil).Once()
	donationRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
	requestRepo.On("Update", ctx, request).Return(nil).Once()
	historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
		return e.Type == domain.HistoryDonation
	})).Return(nil).Once()
	historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
		return e.Type == domain.HistoryClosed
	})).Return(nil).Once()

	result, err := svc.RecordDonation(ctx, request.ID, domain.LogDonationInput{
		Units:        1,
		DonorType:    domain.DonorTypeDonor,
		DonorName:    "Priya Patel",
		DonorContact: "9876543210",
	}, coordinator())

	assert.NoError(t, err)
	assert.True(t, result.AutoClosed)
	assert.Equal(t, domain.ClosureFulfilled, result.ClosureType)
	assert.Equal(t, 0, result.UnitsRemaining)

	assert.Equal(t, domain.StatusClosed, request.Status)
	assert.Equal(t, 3, request.UnitsFulfilled)
	assert.NotNil(t, request.FulfilledAt)
	assert.NotNil(t, request.ClosedAt)
	assert.Equal(t, 1, request.TotalClosures)
	assert.Equal(t, "Amit Shah (2 units), Priya Patel (1 units)", request.DonorSummary)

	assert.Len(t, request.DonationLogIDs, 3)
	assert.Len(t, request.AllDonationLogIDs, 3)

	assert.Len(t, request.ClosureHistory, 1)
	assert.Equal(t, domain.ClosureFulfilled, request.ClosureHistory[0].ClosureType)
	assert.Equal(t, 3, request.ClosureHistory[0].UnitsFulfilled)
	assert.Len(t, request.ClosureHistory[0].DonationLogIDs, 3)

	historyRepo.AssertExpectations(t)
}

func TestRecordDonation_RelativeClosesImmediately(t *testing.T) {
	svc, requestRepo, donationRepo, _, historyRepo := newService(t)
	ctx := context.Background()
	request := openRequest()

	requestRepo.On("GetByID", ctx, request.ID).Return(request, nil).Once()
	requestRepo.On("Update", ctx, request).Return(nil).Once()
	historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
		return e.Type == domain.HistoryClosed
	})).Return(nil).Once()

	result, err := svc.RecordDonation(ctx, request.ID, domain.LogDonationInput{
		DonorType: domain.DonorTypeRelative,
	}, coordinator())

	assert.NoError(t, err)
	assert.True(t, result.AutoClosed)
	assert.Equal(t, domain.ClosureRelative, result.ClosureType)

	assert.Equal(t, domain.StatusClosed, request.Status)
	assert.Equal(t, 0, request.UnitsFulfilled)
	assert.Equal(t, "Relative donated at the hospital", request.ClosureReason)

	// No donation log is written for a relative closure.
	donationRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecordDonation_Rejections(t *testing.T) {
	svc, requestRepo, _, _, _ := newService(t)
	ctx := context.Background()

	t.Run("Unknown Donor Type", func(t *testing.T) {
		_, err := svc.RecordDonation(ctx, "some-id", domain.LogDonationInput{DonorType: "stranger"}, coordinator())
		assert.ErrorIs(t, err, donation.ErrInvalidInput)
	})

	t.Run("Request Not Found", func(t *testing.T) {
		requestRepo.On("GetByID", ctx, "missing").Return(nil, nil).Once()

		_, err := svc.RecordDonation(ctx, "missing", domain.LogDonationInput{DonorType: domain.DonorTypeDonor, Units: 1, DonorName: "Amit"}, coordinator())
		assert.ErrorIs(t, err, donation.ErrRequestNotFound)
	})

	t.Run("Already Closed", func(t *testing.T) {
		closed := openRequest()
		closed.Status = domain.StatusClosed
		requestRepo.On("GetByID", ctx, closed.ID).Return(closed, nil).Once()

		_, err := svc.RecordDonation(ctx, closed.ID, domain.LogDonationInput{DonorType: domain.DonorTypeDonor, Units: 1, DonorName: "Amit"}, coordinator())
		assert.ErrorIs(t, err, donation.ErrRequestClosed)
	})

	t.Run("Zero Units", func(t *testing.T) {
		request := openRequest()
		requestRepo.On("GetByID", ctx, request.ID).Return(request, nil).Once()

		_, err := svc.RecordDonation(ctx, request.ID, domain.LogDonationInput{DonorType: domain.DonorTypeDonor, Units: 0, DonorName: "Amit"}, coordinator())
		assert.ErrorIs(t, err, donation.ErrInvalidInput)
	})

	t.Run("More Units Than Remaining", func(t *testing.T) {
		request := openRequest() // 3 required, 0 fulfilled
		requestRepo.On("GetByID", ctx, request.ID).Return(request, nil).Once()

		_, err := svc.RecordDonation(ctx, request.ID, domain.LogDonationInput{DonorType: domain.DonorTypeDonor, Units: 5, DonorName: "Amit"}, coordinator())

		assert.ErrorIs(t, err, donation.ErrExceedsRemaining)
		assert.Equal(t, 0, request.UnitsFulfilled)
		assert.Equal(t, domain.StatusOpen, request.Status)
		requestRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

}

func TestRecordDonation_ExactlyRemainingIsAccepted(t *testing.T) {
	svc, requestRepo, donationRepo, _, historyRepo := newService(t)
	ctx := context.Background()
	request := openRequest()
	request.UnitsFulfilled = 2

	requestRepo.On("GetByID", ctx, request.ID).Return(request, nil).Once()
	donationRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
	requestRepo.On("Update", ctx, request).Return(nil).Once()
	historyRepo.On("Create", ctx, mock.Anything).Return(nil).Twice()

	result, err := svc.RecordDonation(ctx, request.ID, domain.LogDonationInput{DonorType: domain.DonorTypeDonor, Units: 1, DonorName: "Amit"}, coordinator())

	assert.NoError(t, err)
	assert.True(t, result.AutoClosed)
	assert.Equal(t, 3, request.UnitsFulfilled)
}

func TestRecordDonation_DonorUpsertFailureDoesNotFail(t *testing.T) {
	svc, requestRepo, donationRepo, donorRepo, historyRepo := newService(t)
	ctx := context.Background()
	request := openRequest()

	requestRepo.On("GetByID", ctx, request.ID).Return(request, nil).Once()
	donorRepo.On("GetActiveByContact", ctx, "9876543210").Return(nil, assert.AnError).Once()
	donationRepo.On("Create", ctx, mock.MatchedBy(func(l *domain.DonationLog) bool {
		return l.DonorID == ""
	})).Return(nil).Once()
	requestRepo.On("Update", ctx, request).Return(nil).Once()
	historyRepo.On("Create", ctx, mock.Anything).Return(nil).Once()

	result, err := svc.RecordDonation(ctx, request.ID, domain.LogDonationInput{
		Units:        1,
		DonorType:    domain.DonorTypeDonor,
		DonorName:    "Amit Shah",
		DonorContact: "9876543210",
	}, coordinator())

	assert.NoError(t, err)
	assert.True(t, result.Success)
}
