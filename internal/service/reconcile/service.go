// Package reconcile decides what an incoming blood-request submission means:
// a new request, an update to an active one, a duplicate to reject, or the
// reopening of a closed one. All intake channels (web form, Telegram bot,
// legacy script endpoint) funnel through Submit.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/pkg/phone"
	"lifesavers-united/internal/repository"
)

// ErrSubmissionInFlight is returned when another submission for the same
// contact number is still being processed. The caller should retry; this
// closes the read-then-write race between match and write.
var ErrSubmissionInFlight = errors.New("a submission for this contact number is already being processed")

const inFlightLockTTL = 10 * time.Second

type Service interface {
	Submit(ctx context.Context, submission domain.Submission) (*domain.ReconcileOutcome, error)
	SetNotifier(notifier Notifier)
	SetArchiver(archiver Archiver)
}

// Notifier receives best-effort alerts about lifecycle transitions.
type Notifier interface {
	NotifyRequestCreated(ctx context.Context, request *domain.Request)
	NotifyRequestReopened(ctx context.Context, request *domain.Request)
}

// Archiver snapshots request state to secondary storage. Failures never
// affect the reconciliation outcome.
type Archiver interface {
	ArchiveRequest(ctx context.Context, request *domain.Request)
}

type service struct {
	requestRepo repository.RequestRepository
	historyRepo repository.HistoryRepository
	redis       *redis.Client
	notifier    Notifier
	archiver    Archiver
	now         func() time.Time
}

func NewService(requestRepo repository.RequestRepository, historyRepo repository.HistoryRepository, redisClient *redis.Client) Service {
	return &service{
		requestRepo: requestRepo,
		historyRepo: historyRepo,
		redis:       redisClient,
		now:         time.Now,
	}
}

func (s *service) SetNotifier(notifier Notifier) {
	s.notifier = notifier
}

func (s *service) SetArchiver(archiver Archiver) {
	s.archiver = archiver
}

func (s *service) Submit(ctx context.Context, submission domain.Submission) (*domain.ReconcileOutcome, error) {
	if missing := submission.MissingFields(); len(missing) > 0 {
		return &domain.ReconcileOutcome{
			Success:       false,
			Code:          domain.CodeValidationError,
			MissingFields: missing,
			Message:       "Missing mandatory fields: " + strings.Join(missing, ", "),
		}, nil
	}

	submission.PatientName = strings.TrimSpace(submission.PatientName)
	submission.ContactNumber = phone.Normalize(submission.ContactNumber)

	unlock, err := s.lockContact(ctx, submission.ContactNumber)
	if err != nil {
		return nil, err
	}
	defer unlock()

	existing, err := s.findMatch(ctx, submission)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return s.create(ctx, submission)
	}
	if existing.Status == domain.StatusClosed {
		return s.reopen(ctx, submission, existing)
	}
	return s.update(ctx, submission, existing)
}

// lockContact takes a short-lived in-flight lock on the normalized contact
// number so two near-simultaneous submissions cannot both pass the duplicate
// check. Without redis the service degrades to the unguarded behavior.
func (s *service) lockContact(ctx context.Context, contactNumber string) (func(), error) {
	if s.redis == nil || contactNumber == "" {
		return func() {}, nil
	}

	key := "reconcile:inflight:" + contactNumber
	acquired, err := s.redis.SetNX(ctx, key, 1, inFlightLockTTL).Result()
	if err != nil {
		// Redis being down must not block intake.
		log.Printf("reconcile: in-flight lock unavailable: %v", err)
		return func() {}, nil
	}
	if !acquired {
		return nil, ErrSubmissionInFlight
	}
	return func() {
		_ = s.redis.Del(context.Background(), key).Err()
	}, nil
}

// findMatch implements the duplicate-match order: normalized contact number
// first, then exact patient name. The first hit wins; historical ties are not
// disambiguated further.
func (s *service) findMatch(ctx context.Context, submission domain.Submission) (*domain.Request, error) {
	// A contact that normalized to fewer than 10 digits is unmatchable, not
	// invalid.
	if len(submission.ContactNumber) == 10 {
		match, err := s.requestRepo.GetByContactNumber(ctx, submission.ContactNumber)
		if err != nil {
			return nil, err
		}
		if match != nil {
			return match, nil
		}
	}

	return s.requestRepo.GetByPatientName(ctx, submission.PatientName)
}

func (s *service) create(ctx context.Context, submission domain.Submission) (*domain.ReconcileOutcome, error) {
	now := s.now()

	urgency := strings.TrimSpace(submission.UrgencyLevel)
	if urgency == "" {
		urgency = "Normal"
	}

	request := &domain.Request{
		ID:                   domain.NewRequestID(submission.PatientName, submission.ContactNumber, now),
		PatientName:          submission.PatientName,
		ContactNumber:        submission.ContactNumber,
		RequiredBloodGroup:   strings.TrimSpace(submission.RequiredBloodGroup),
		UnitsRequired:        strings.TrimSpace(submission.UnitsRequired),
		HospitalName:         strings.TrimSpace(submission.HospitalName),
		HospitalCity:         strings.TrimSpace(submission.HospitalCity),
		HospitalAddress:      strings.TrimSpace(submission.HospitalAddress),
		PatientAge:           strings.TrimSpace(submission.PatientAge),
		PatientSufferingFrom: strings.TrimSpace(submission.PatientSufferingFrom),
		ContactPerson:        strings.TrimSpace(submission.ContactPerson),
		ContactEmail:         strings.TrimSpace(submission.ContactEmail),
		UrgencyLevel:         urgency,
		AdditionalInfo:       strings.TrimSpace(submission.AdditionalInfo),
		Status:               domain.StatusOpen,
		DonationLogIDs:       pq.StringArray{},
		AllDonationLogIDs:    pq.StringArray{},
		ClosureHistory:       domain.ClosureHistory{},
		CreatedBy:            submission.SubmittedBy,
		CreatedByUID:         submission.SubmittedByUID,
		Source:               submission.Source,
	}

	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}

	s.record(ctx, request.ID, domain.HistoryCreated, submission,
		fmt.Sprintf("Request created via %s by %s", submission.Source, submission.SubmittedBy), nil)

	s.afterWrite(request, true, false)

	return &domain.ReconcileOutcome{
		Success:   true,
		Action:    domain.ActionCreated,
		RequestID: request.ID,
		Message:   fmt.Sprintf("Request created for %s.", request.PatientName),
	}, nil
}

func (s *service) update(ctx context.Context, submission domain.Submission, existing *domain.Request) (*domain.ReconcileOutcome, error) {
	changes := diffUserFields(submission, existing)

	// An exact duplicate of an active request performs no write at all: no
	// history entry, and updatedAt stays untouched.
	if len(changes) == 0 {
		return &domain.ReconcileOutcome{
			Success:   false,
			Action:    domain.ActionRejectedDuplicate,
			Code:      domain.CodeDuplicateActive,
			RequestID: existing.ID,
			Existing:  existing,
			Message: fmt.Sprintf("A request for %s is already active (status %s). No changes detected - no action taken.",
				existing.PatientName, existing.Status),
		}, nil
	}

	applyChanges(submission, existing, changes)
	existing.UpdatedBy = submission.SubmittedBy
	existing.UpdatedByUID = submission.SubmittedByUID

	if err := s.requestRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.record(ctx, existing.ID, domain.HistoryUpdated, submission,
		fmt.Sprintf("Request updated via %s by %s. Changes: %s",
			submission.Source, submission.SubmittedBy, changeSummary(changes)), changes)

	s.afterWrite(existing, false, false)

	return &domain.ReconcileOutcome{
		Success:       true,
		Action:        domain.ActionUpdated,
		RequestID:     existing.ID,
		ChangedFields: changes,
		Message:       fmt.Sprintf("Request updated for %s. Changed: %s", existing.PatientName, changeSummary(changes)),
	}, nil
}

func (s *service) reopen(ctx context.Context, submission domain.Submission, existing *domain.Request) (*domain.ReconcileOutcome, error) {
	now := s.now()
	changes := diffUserFields(submission, existing)

	existing.Status = domain.StatusReopened
	existing.ReopenedAt = &now
	existing.ReopenCount++

	// Fold the finished cycle's donation logs into the lifetime list before
	// resetting. Logging already appends to both lists, so this only picks up
	// ids recorded before the lists were kept in sync; duplicates are skipped.
	for _, id := range existing.DonationLogIDs {
		if !containsID(existing.AllDonationLogIDs, id) {
			existing.AllDonationLogIDs = append(existing.AllDonationLogIDs, id)
		}
	}
	existing.UnitsFulfilled = 0
	existing.DonorSummary = ""
	existing.DonationLogIDs = pq.StringArray{}

	applyChanges(submission, existing, changes)
	existing.UpdatedBy = submission.SubmittedBy
	existing.UpdatedByUID = submission.SubmittedByUID

	if err := s.requestRepo.Update(ctx, existing); err != nil {
		return nil, err
	}

	note := fmt.Sprintf("Request reopened via %s by %s.", submission.Source, submission.SubmittedBy)
	message := fmt.Sprintf("Request reopened for %s.", existing.PatientName)
	if len(changes) == 0 {
		note += " No changes detected."
		message += " No changes detected - reopened with same data."
	} else {
		note += " Changes: " + changeSummary(changes)
		message += " Changed: " + changeSummary(changes)
	}
	s.record(ctx, existing.ID, domain.HistoryReopened, submission, note, changes)

	s.afterWrite(existing, false, true)

	return &domain.ReconcileOutcome{
		Success:       true,
		Action:        domain.ActionReopened,
		RequestID:     existing.ID,
		ChangedFields: changes,
		Message:       message,
	}, nil
}

// record appends the audit entry for a transition. The request mutation is
// the system of record; a failed append is logged and swallowed, never
// surfaced as an operation failure.
func (s *service) record(ctx context.Context, requestID string, historyType domain.HistoryType, submission domain.Submission, note string, changes []domain.FieldChange) {
	entry := &domain.HistoryEntry{
		ID:        uuid.New(),
		RequestID: requestID,
		Type:      historyType,
		ActorName: submission.SubmittedBy,
		ActorUID:  submission.SubmittedByUID,
		Note:      note,
	}
	for _, c := range changes {
		entry.ChangedFields = append(entry.ChangedFields, c.String())
	}

	if err := s.historyRepo.Create(ctx, entry); err != nil {
		log.Printf("reconcile: failed to append history entry for %s: %v", requestID, err)
	}
}

func (s *service) afterWrite(request *domain.Request, created, reopened bool) {
	snapshot := *request

	if s.notifier != nil {
		go func() {
			if created {
				s.notifier.NotifyRequestCreated(context.Background(), &snapshot)
			}
			if reopened {
				s.notifier.NotifyRequestReopened(context.Background(), &snapshot)
			}
		}()
	}
	if s.archiver != nil {
		go s.archiver.ArchiveRequest(context.Background(), &snapshot)
	}
}

func containsID(ids pq.StringArray, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func changeSummary(changes []domain.FieldChange) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, ", ")
}
