package reconcile_test

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/mocks"
	"lifesavers-united/internal/service/reconcile"
)

func validSubmission() domain.Submission {
	return domain.Submission{
		PatientName:        "Ramesh Kumar",
		ContactNumber:      "+91 94283 54534",
		RequiredBloodGroup: "B+",
		UnitsRequired:      "3",
		HospitalName:       "City Hospital",
		HospitalCity:       "Rajkot",
		Source:             domain.SourceWebForm,
		SubmittedBy:        "Web Form",
	}
}

func activeRequest() *domain.Request {
	return &domain.Request{
		ID:                 "rameshkumar_9428354534_1700000000000",
		PatientName:        "Ramesh Kumar",
		ContactNumber:      "9428354534",
		RequiredBloodGroup: "B+",
		UnitsRequired:      "3",
		HospitalName:       "City Hospital",
		HospitalCity:       "Rajkot",
		Status:             domain.StatusOpen,
		DonationLogIDs:     pq.StringArray{},
		AllDonationLogIDs:  pq.StringArray{},
		ClosureHistory:     domain.ClosureHistory{},
		CreatedBy:          "Original Submitter",
		CreatedByUID:       "uid-original",
		Source:             domain.SourceTelegramBot,
	}
}

func TestSubmit_Validation(t *testing.T) {
	requestRepo := new(mocks.RequestRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := reconcile.NewService(requestRepo, historyRepo, nil)
	ctx := context.Background()

	t.Run("Missing Mandatory Fields", func(t *testing.T) {
		outcome, err := svc.Submit(ctx, domain.Submission{PatientName: "Ramesh"})

		assert.NoError(t, err)
		assert.False(t, outcome.Success)
		assert.Equal(t, domain.CodeValidationError, outcome.Code)
		assert.Equal(t, []string{"contactNumber", "requiredBloodGroup", "unitsRequired", "hospitalName"}, outcome.MissingFields)

		requestRepo.AssertNotCalled(t, "Create")
		requestRepo.AssertNotCalled(t, "Update")
	})

	t.Run("Whitespace Only Counts As Missing", func(t *testing.T) {
		submission := validSubmission()
		submission.HospitalName = "   "

		outcome, err := svc.Submit(ctx, submission)

		assert.NoError(t, err)
		assert.False(t, outcome.Success)
		assert.Contains(t, outcome.MissingFields, "hospitalName")
	})
}

func TestSubmit_Create(t *testing.T) {
	requestRepo := new(mocks.RequestRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := reconcile.NewService(requestRepo, historyRepo, nil)
	ctx := context.Background()

	requestRepo.On("GetByContactNumber", ctx, "9428354534").Return(nil, nil).Once()
	requestRepo.On("GetByPatientName", ctx, "Ramesh Kumar").Return(nil, nil).Once()

	var created *domain.Request
	requestRepo.On("Create", ctx, mock.MatchedBy(func(r *domain.Request) bool {
		created = r
		return r.PatientName == "Ramesh Kumar" && r.ContactNumber == "9428354534"
	})).Return(nil).Once()

	historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
		return e.Type == domain.HistoryCreated
	})).Return(nil).Once()

	outcome, err := svc.Submit(ctx, validSubmission())

	assert.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, domain.ActionCreated, outcome.Action)
	assert.Equal(t, domain.StatusOpen, created.Status)
	assert.Equal(t, "Normal", created.UrgencyLevel)
	assert.Equal(t, "3", created.UnitsRequired)
	assert.Empty(t, created.DonationLogIDs)
	assert.Regexp(t, regexp.MustCompile(`^rameshkumar_9428354534_\d+$`), created.ID)

	requestRepo.AssertExpectations(t)
	historyRepo.AssertExpectations(t)
}

func TestSubmit_RejectsIdenticalDuplicate(t *testing.T) {
	requestRepo := new(mocks.RequestRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := reconcile.NewService(requestRepo, historyRepo, nil)
	ctx := context.Background()

	existing := activeRequest()
	requestRepo.On("GetByContactNumber", ctx, "9428354534").Return(existing, nil).Once()

	outcome, err := svc.Submit(ctx, validSubmission())

	assert.NoError(t, err)
	assert.False(t, outcome.Success)
	assert.Equal(t, domain.ActionRejectedDuplicate, outcome.Action)
	assert.Equal(t, domain.CodeDuplicateActive, outcome.Code)
	assert.Equal(t, existing.ID, outcome.RequestID)
	assert.Equal(t, existing, outcome.Existing)

	// An exact duplicate performs no write at all.
	requestRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	requestRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	historyRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSubmit_UpdatesChangedFields(t *testing.T) {
	requestRepo := new(mocks.RequestRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := reconcile.NewService(requestRepo, historyRepo, nil)
	ctx := context.Background()

	existing := activeRequest()
	requestRepo.On("GetByContactNumber", ctx, "9428354534").Return(existing, nil).Once()
	requestRepo.On("Update", ctx, existing).Return(nil).Once()
	historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
		return e.Type == domain.HistoryUpdated && len(e.ChangedFields) == 1
	})).Return(nil).Once()

	submission := validSubmission()
	submission.UnitsRequired = "5"
	submission.SubmittedBy = "Second Submitter"
	submission.SubmittedByUID = "uid-second"

	outcome, err := svc.Submit(ctx, submission)

	assert.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, domain.ActionUpdated, outcome.Action)
	assert.Len(t, outcome.ChangedFields, 1)
	assert.Equal(t, "Units Required", outcome.ChangedFields[0].Field)
	assert.Equal(t, "3", outcome.ChangedFields[0].Old)
	assert.Equal(t, "5", outcome.ChangedFields[0].New)

	assert.Equal(t, "5", existing.UnitsRequired)
	assert.Equal(t, "Second Submitter", existing.UpdatedBy)

	// Provenance never moves off the original submitter.
	assert.Equal(t, "Original Submitter", existing.CreatedBy)
	assert.Equal(t, "uid-original", existing.CreatedByUID)
	assert.Equal(t, domain.SourceTelegramBot, existing.Source)

	requestRepo.AssertExpectations(t)
	historyRepo.AssertExpectations(t)
}

func TestSubmit_EmptyFieldsNeverOverwrite(t *testing.T) {
	requestRepo := new(mocks.RequestRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := reconcile.NewService(requestRepo, historyRepo, nil)
	ctx := context.Background()

	existing := activeRequest()
	existing.HospitalCity = "Rajkot"
	requestRepo.On("GetByContactNumber", ctx, "9428354534").Return(existing, nil).Once()

	submission := validSubmission()
	submission.HospitalCity = "" // absent, not a change to empty

	outcome, err := svc.Submit(ctx, submission)

	assert.NoError(t, err)
	assert.Equal(t, domain.ActionRejectedDuplicate, outcome.Action)
	assert.Equal(t, "Rajkot", existing.HospitalCity)
}

func TestSubmit_MatchesByNameWhenContactDiffers(t *testing.T) {
	requestRepo := new(mocks.RequestRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := reconcile.NewService(requestRepo, historyRepo, nil)
	ctx := context.Background()

	existing := activeRequest()
	existing.ContactNumber = "9876543210"

	requestRepo.On("GetByContactNumber", ctx, "9428354534").Return(nil, nil).Once()
	requestRepo.On("GetByPatientName", ctx, "Ramesh Kumar").Return(existing, nil).Once()
	requestRepo.On("Update", ctx, existing).Return(nil).Once()
	historyRepo.On("Create", ctx, mock.Anything).Return(nil).Once()

	outcome, err := svc.Submit(ctx, validSubmission())

	assert.NoError(t, err)
	assert.Equal(t, domain.ActionUpdated, outcome.Action)
	// The new contact number is one of the detected changes.
	assert.Equal(t, "9428354534", existing.ContactNumber)
}

func TestSubmit_ReopensClosedRequest(t *testing.T) {
	requestRepo := new(mocks.RequestRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := reconcile.NewService(requestRepo, historyRepo, nil)
	ctx := context.Background()

	existing := activeRequest()
	existing.Status = domain.StatusClosed
	existing.UnitsFulfilled = 3
	existing.DonorSummary = "Amit (2 units), Priya (1 units)"
	existing.DonationLogIDs = pq.StringArray{"d0", "d1"}
	existing.AllDonationLogIDs = pq.StringArray{}
	existing.ReopenCount = 0

	requestRepo.On("GetByContactNumber", ctx, "9428354534").Return(existing, nil).Once()
	requestRepo.On("Update", ctx, existing).Return(nil).Once()
	historyRepo.On("Create", ctx, mock.MatchedBy(func(e *domain.HistoryEntry) bool {
		return e.Type == domain.HistoryReopened
	})).Return(nil).Once()

	outcome, err := svc.Submit(ctx, validSubmission())

	assert.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, domain.ActionReopened, outcome.Action)

	assert.Equal(t, domain.StatusReopened, existing.Status)
	assert.NotNil(t, existing.ReopenedAt)
	assert.Equal(t, 1, existing.ReopenCount)

	// The finished cycle's logs move to the lifetime list before the reset.
	assert.Equal(t, pq.StringArray{"d0", "d1"}, existing.AllDonationLogIDs)
	assert.Empty(t, existing.DonationLogIDs)
	assert.Equal(t, 0, existing.UnitsFulfilled)
	assert.Equal(t, "", existing.DonorSummary)

	requestRepo.AssertExpectations(t)
	historyRepo.AssertExpectations(t)
}

func TestSubmit_ReopenAccumulatesAcrossCycles(t *testing.T) {
	requestRepo := new(mocks.RequestRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := reconcile.NewService(requestRepo, historyRepo, nil)
	ctx := context.Background()

	existing := activeRequest()
	existing.Status = domain.StatusClosed
	existing.DonationLogIDs = pq.StringArray{"d2"}
	existing.AllDonationLogIDs = pq.StringArray{"d0", "d1"}
	existing.ReopenCount = 1

	requestRepo.On("GetByContactNumber", ctx, "9428354534").Return(existing, nil).Once()
	requestRepo.On("Update", ctx, existing).Return(nil).Once()
	historyRepo.On("Create", ctx, mock.Anything).Return(nil).Once()

	_, err := svc.Submit(ctx, validSubmission())

	assert.NoError(t, err)
	assert.Equal(t, pq.StringArray{"d0", "d1", "d2"}, existing.AllDonationLogIDs)
	assert.Equal(t, 2, existing.ReopenCount)
}

func TestSubmit_ReopenDoesNotDuplicateLifetimeLogs(t *testing.T) {
	requestRepo := new(mocks.RequestRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := reconcile.NewService(requestRepo, historyRepo, nil)
	ctx := context.Background()

	// Donation logging appends to both lists, so at close time the cycle's
	// ids are already on the lifetime list.
	existing := activeRequest()
	existing.Status = domain.StatusClosed
	existing.DonationLogIDs = pq.StringArray{"d0", "d1"}
	existing.AllDonationLogIDs = pq.StringArray{"d0", "d1"}

	requestRepo.On("GetByContactNumber", ctx, "9428354534").Return(existing, nil).Once()
	requestRepo.On("Update", ctx, existing).Return(nil).Once()
	historyRepo.On("Create", ctx, mock.Anything).Return(nil).Once()

	_, err := svc.Submit(ctx, validSubmission())

	assert.NoError(t, err)
	assert.Equal(t, pq.StringArray{"d0", "d1"}, existing.AllDonationLogIDs)
	assert.Empty(t, existing.DonationLogIDs)
}

func TestSubmit_HistoryFailureDoesNotFailOperation(t *testing.T) {
	requestRepo := new(mocks.RequestRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := reconcile.NewService(requestRepo, historyRepo, nil)
	ctx := context.Background()

	requestRepo.On("GetByContactNumber", ctx, "9428354534").Return(nil, nil).Once()
	requestRepo.On("GetByPatientName", ctx, "Ramesh Kumar").Return(nil, nil).Once()
	requestRepo.On("Create", ctx, mock.Anything).Return(nil).Once()
	historyRepo.On("Create", ctx, mock.Anything).Return(errors.New("history table down")).Once()

	outcome, err := svc.Submit(ctx, validSubmission())

	assert.NoError(t, err)
	assert.True(t, outcome.Success)
	assert.Equal(t, domain.ActionCreated, outcome.Action)
}

func TestSubmit_StoreErrorPropagates(t *testing.T) {
	requestRepo := new(mocks.RequestRepository)
	historyRepo := new(mocks.HistoryRepository)
	svc := reconcile.NewService(requestRepo, historyRepo, nil)
	ctx := context.Background()

	requestRepo.On("GetByContactNumber", ctx, "9428354534").Return(nil, errors.New("connection refused")).Once()

	outcome, err := svc.Submit(ctx, validSubmission())

	assert.Error(t, err)
	assert.Nil(t, outcome)
}
