package donation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/pkg/phone"
	"lifesavers-united/internal/repository"
	"lifesavers-united/internal/service/reconcile"
)

var (
	ErrRequestNotFound  = errors.New("request not found")
	ErrRequestClosed    = errors.New("request is already closed")
	ErrInvalidInput     = errors.New("invalid donation input")
	ErrExceedsRemaining = errors.New("donation exceeds the units still required")
)

type Service interface {
	// RecordDonation applies a donation (or a non-donation closure) to a
	// request. donor_type "donor" logs units and may auto-close; "relative"
	// and "other" close the request immediately without a donation log.
	RecordDonation(ctx context.Context, requestID string, input domain.LogDonationInput, actor *domain.User) (*domain.DonationResult, error)
	ListByRequest(ctx context.Context, requestID string) ([]domain.DonationLog, error)
	SetArchiver(archiver reconcile.Archiver)
}

type service struct {
	requestRepo  repository.RequestRepository
	donationRepo repository.DonationLogRepository
	donorRepo    repository.DonorRepository
	historyRepo  repository.HistoryRepository
	archiver     reconcile.Archiver
	now          func() time.Time
}

func NewService(
	requestRepo repository.RequestRepository,
	donationRepo repository.DonationLogRepository,
	donorRepo repository.DonorRepository,
	historyRepo repository.HistoryRepository,
) Service {
	return &service{
		requestRepo:  requestRepo,
		donationRepo: donationRepo,
		donorRepo:    donorRepo,
		historyRepo:  historyRepo,
		now:          time.Now,
	}
}

func (s *service) SetArchiver(archiver reconcile.Archiver) {
	s.archiver = archiver
}

func (s *service) RecordDonation(ctx context.Context, requestID string, input domain.LogDonationInput, actor *domain.User) (*domain.DonationResult, error) {
	if !input.DonorType.IsValid() {
		return nil, fmt.Errorf("%w: unknown donor type %q", ErrInvalidInput, input.DonorType)
	}

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	if request.Status == domain.StatusClosed {
		return nil, ErrRequestClosed
	}

	switch input.DonorType {
	case domain.DonorTypeDonor:
		return s.recordDonorUnits(ctx, request, input, actor)
	case domain.DonorTypeRelative:
		return s.closeWithout(ctx, request, input, actor, domain.ClosureRelative, "Relative donated at the hospital")
	default:
		return s.closeWithout(ctx, request, input, actor, domain.ClosureOther, "Closed without network donation")
	}
}

func (s *service) recordDonorUnits(ctx context.Context, request *domain.Request, input domain.LogDonationInput, actor *domain.User) (*domain.DonationResult, error) {
	if input.Units <= 0 {
		return nil, fmt.Errorf("%w: units must be positive", ErrInvalidInput)
	}
	if remaining := request.UnitsRemaining(); input.Units > remaining {
		return nil, fmt.Errorf("%w: %d unit(s) still required", ErrExceedsRemaining, remaining)
	}
	donorName := strings.TrimSpace(input.DonorName)
	if donorName == "" {
		return nil, fmt.Errorf("%w: donor name is required", ErrInvalidInput)
	}

	now := s.now()
	donorContact := phone.Normalize(input.DonorContact)
	donorID := s.upsertDonor(ctx, donorName, donorContact, request.RequiredBloodGroup, now)

	entry := &domain.DonationLog{
		ID:             uuid.New(),
		RequestID:      request.ID,
		DonorID:        donorID,
		PatientName:    request.PatientName,
		BloodGroup:     request.RequiredBloodGroup,
		UnitsDonated:   input.Units,
		DonorType:      domain.DonorTypeDonor,
		DonorName:      donorName,
		DonorContact:   donorContact,
		RecordedByName: actor.FullName,
		RecordedByUID:  actor.ID.String(),
		ReopenCycle:    request.ReopenCount,
	}
	if err := s.donationRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	// The log id lands on both lists up front: the cycle list is cleared on
	// reopen, the lifetime list never is.
	request.UnitsFulfilled += input.Units
	request.DonationLogIDs = append(request.DonationLogIDs, entry.ID.String())
	request.AllDonationLogIDs = append(request.AllDonationLogIDs, entry.ID.String())
	request.LastDonationAt = &now
	if request.DonorSummary != "" {
		request.DonorSummary += ", "
	}
	request.DonorSummary += fmt.Sprintf("%s (%d units)", donorName, input.Units)
	request.UpdatedBy = actor.FullName
	request.UpdatedByUID = actor.ID.String()

	result := &domain.DonationResult{
		Success:       true,
		DonationLogID: entry.ID.String(),
	}

	if request.UnitsRemaining() == 0 {
		s.close(request, actor, domain.ClosureFulfilled,
			fmt.Sprintf("All %s units fulfilled", request.UnitsRequired), now)
		request.FulfilledAt = &now
		result.AutoClosed = true
		result.ClosureType = domain.ClosureFulfilled
	}
	result.UnitsRemaining = request.UnitsRemaining()

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	note := fmt.Sprintf("Donation of %d unit(s) by %s recorded by %s", input.Units, donorName, actor.FullName)
	if result.AutoClosed {
		note += ". Request auto-closed: all units fulfilled"
	}
	s.record(ctx, request.ID, domain.HistoryDonation, actor, note)
	if result.AutoClosed {
		s.record(ctx, request.ID, domain.HistoryClosed, actor, "Request closed - all units fulfilled")
	}

	s.archive(request)
	return result, nil
}

func (s *service) closeWithout(ctx context.Context, request *domain.Request, input domain.LogDonationInput, actor *domain.User, closureType domain.ClosureType, defaultReason string) (*domain.DonationResult, error) {
	reason := strings.TrimSpace(input.ClosureReason)
	if reason == "" {
		reason = defaultReason
	}

	now := s.now()
	s.close(request, actor, closureType, reason, now)
	request.UpdatedBy = actor.FullName
	request.UpdatedByUID = actor.ID.String()

	if err := s.requestRepo.Update(ctx, request); err != nil {
		return nil, err
	}

	s.record(ctx, request.ID, domain.HistoryClosed, actor,
		fmt.Sprintf("Request closed - %s", reason))

	s.archive(request)
	return &domain.DonationResult{
		Success:        true,
		AutoClosed:     true,
		UnitsRemaining: request.UnitsRemaining(),
		ClosureType:    closureType,
	}, nil
}

// close mutates the request into the closed state; the caller persists it.
func (s *service) close(request *domain.Request, actor *domain.User, closureType domain.ClosureType, reason string, now time.Time) {
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
}

// upsertDonor keeps the donor master current. Failures only cost us the
// master record, never the donation itself.
func (s *service) upsertDonor(ctx context.Context, name, contact, bloodGroup string, now time.Time) string {
	if contact == "" {
		return ""
	}

	existing, err := s.donorRepo.GetActiveByContact(ctx, contact)
	if err != nil {
		log.Printf("donation: donor lookup failed for %s: %v", contact, err)
		return ""
	}

	donor := &domain.Donor{
		FullName:      name,
		ContactNumber: contact,
		BloodGroup:    bloodGroup,
		Status:        domain.DonorActive,
		LastDonatedAt: &now,
	}
	if existing != nil {
		donor.ID = existing.ID
	} else {
		donor.ID = "DON" + fmt.Sprintf("%d", now.UnixMilli())
	}

	if err := s.donorRepo.Upsert(ctx, donor); err != nil {
		log.Printf("donation: donor upsert failed for %s: %v", contact, err)
		return ""
	}
	return donor.ID
}

func (s *service) ListByRequest(ctx context.Context, requestID string) ([]domain.DonationLog, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request == nil {
		return nil, ErrRequestNotFound
	}
	return s.donationRepo.ListByRequest(ctx, requestID)
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
		log.Printf("donation: failed to append history entry for %s: %v", requestID, err)
	}
}

func (s *service) archive(request *domain.Request) {
	if s.archiver == nil {
		return
	}
	snapshot := *request
	go s.archiver.ArchiveRequest(context.Background(), &snapshot)
}
