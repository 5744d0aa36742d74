package request

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/repository"
	"lifesavers-united/internal/service/reconcile"
)

var ErrRequestNotFound = errors.New("request not found")

type Service interface {
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	// ListPublic returns the feed of active requests (Open, Verified,
	// Reopened); Closed requests are hidden from the public.
	ListPublic(ctx context.Context, params domain.PaginationParams) (domain.PaginatedResponse[domain.Request], error)
	ListAll(ctx context.Context, params domain.PaginationParams) (domain.PaginatedResponse[domain.Request], error)
	History(ctx context.Context, requestID string) ([]domain.HistoryEntry, error)
	Verify(ctx context.Context, id string, actor *domain.User) (*domain.ReconcileOutcome, error)
	Close(ctx context.Context, id string, input domain.CloseRequestInput, actor *domain.User) (*domain.ReconcileOutcome, error)
	SetArchiver(archiver reconcile.Archiver)
}

type service struct {
	requestRepo repository.RequestRepository
	historyRepo repository.HistoryRepository
	archiver    reconcile.Archiver
	now         func() time.Time
}

func NewService(requestRepo repository.RequestRepository, historyRepo repository.HistoryRepository) Service {
	return &service{
		requestRepo: requestRepo,
		historyRepo: historyRepo,
		now:         time.Now,
	}
}

func (s *service) SetArchiver(archiver reconcile.Archiver) {
	s.archiver = archiver
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	return request, nil
}

func (s *service) ListPublic(ctx context.Context, params domain.PaginationParams) (domain.PaginatedResponse[domain.Request], error) {
	filter := domain.RequestListFilter{
		Statuses: []domain.RequestStatus{domain.StatusOpen, domain.StatusVerified, domain.StatusReopened},
	}
	return s.list(ctx, filter, params)
}

func (s *service) ListAll(ctx context.Context, params domain.PaginationParams) (domain.PaginatedResponse[domain.Request], error) {
	filter := domain.RequestListFilter{
		Statuses: []domain.RequestStatus{domain.StatusOpen, domain.StatusVerified, domain.StatusReopened, domain.StatusClosed},
	}
	return s.list(ctx, filter, params)
}

func (s *service) list(ctx context.Context, filter domain.RequestListFilter, params domain.PaginationParams) (domain.PaginatedResponse[domain.Request], error) {
	params.Validate()
	requests, total, err := s.requestRepo.List(ctx, filter, params)
	if err != nil {
		return domain.PaginatedResponse[domain.Request]{}, err
	}
	return domain.NewPaginatedResponse(requests, params.Page, params.PageSize, total), nil
}

func (s *service) History(ctx context.Context, requestID string) ([]domain.HistoryEntry, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	return s.historyRepo.ListByRequest(ctx, requestID)
}

func (s *service) Verify(ctx context.Context, id string, actor *domain.User) (*domain.ReconcileOutcome, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}

	if request.Status == domain.StatusVerified {
		return &domain.ReconcileOutcome{
			Success:   true,
			Action:    domain.ActionNoChange,
			RequestID: request.ID,
			Message:   "Request is already verified.",
		}, nil
	}
	if request.Status == domain.StatusClosed {
		return &domain.ReconcileOutcome{
			Success:   false,
			Action:    domain.ActionNoChange,
			RequestID: request.ID,
			Message:   "Cannot verify a closed request.",
		}, nil
	}

	now := s.now()
	request.Status = domain.StatusVerified
	request.VerifiedAt = &now
	request.VerifiedByName = actor.FullName
	request.VerifiedByUID = actor.ID.String()
	request.UpdatedBy = actor.FullName
	request.UpdatedByUID = actor.ID.String()

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	s.record(ctx, request.ID, domain.HistoryVerified, actor,
		fmt.Sprintf("Request verified by %s", actor.FullName))

	return &domain.ReconcileOutcome{
		Success:   true,
		Action:    domain.ActionUpdated,
		RequestID: request.ID,
		Message:   "Request verified.",
	}, nil
}

func (s *service) Close(ctx context.Context, id string, input domain.CloseRequestInput, actor *domain.User) (*domain.ReconcileOutcome, error) {
	request, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}

	if request.Status == domain.StatusClosed {
		return &domain.ReconcileOutcome{
			Success:   true,
			Action:    domain.ActionNoChange,
			RequestID: request.ID,
			Message:   "Request is already closed.",
		}, nil
	}

	closureType := input.Type
	if closureType == "" {
		closureType = domain.ClosureOther
	}
	reason := input.Reason
	if reason == "" {
		reason = "Closed by coordinator"
	}

	now := s.now()
	request.Status = domain.StatusClosed
	request.ClosedAt = &now
	request.ClosedBy = actor.FullName
	request.ClosedByUID = actor.ID.String()
	request.ClosureReason = reason
	request.ClosureType = closureType
	request.ClosureHistory = append(request.ClosureHistory, domain.ClosureEntry{
		ClosedBy:       actor.FullName,
		ClosedByUID:    actor.ID.String(),
		ClosedAt:       now,
		ClosureReason:  reason,
		ClosureType:    closureType,
		ReopenCycle:    request.ReopenCount,
		UnitsFulfilled: request.UnitsFulfilled,
		DonationLogIDs: append([]string{}, request.DonationLogIDs...),
	})
	request.TotalClosures++
	request.UpdatedBy = actor.FullName
	request.UpdatedByUID = actor.ID.String()

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	s.record(ctx, request.ID, domain.HistoryClosed, actor,
		fmt.Sprintf("Request closed - %s", reason))

	if s.archiver != nil {
		snapshot := *request
		go s.archiver.ArchiveRequest(context.Background(), &snapshot)
	}

	return &domain.ReconcileOutcome{
		Success:   true,
		Action:    domain.ActionUpdated,
		RequestID: request.ID,
		Message:   "Request closed.",
	}, nil
}

func (s *service) record(ctx context.Context, requestID string, historyType domain.HistoryType, actor *domain.User, note string) {
	entry := &domain.HistoryEntry{
		ID:        uuid.New(),
		RequestID: requestID,
		Type:      historyType,
		ActorName: actor.FullName,
		ActorUID:  actor.ID.String(),
		Note:      note,
	}
	if err := s.historyRepo.Create(ctx, entry); err != nil {
		log.Printf("request: failed to append history entry for %s: %v", requestID, err)
	}
}
