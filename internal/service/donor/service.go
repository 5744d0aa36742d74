package donor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"lifesavers-united/internal/domain"
	"lifesavers-united/internal/pkg/phone"
	"lifesavers-united/internal/repository"
)

var (
	ErrDonorNotFound  = errors.New("donor not found")
	ErrAlreadyActive  = errors.New("an active donor is already registered with this contact number")
	ErrNotEligible    = errors.New("donor does not meet eligibility requirements")
	ErrMissingFields  = errors.New("missing mandatory fields")
	ErrInvalidContact = errors.New("contact number is not a valid mobile number")
)

const (
	minDonorAge    = 18
	maxDonorAge    = 65
	minDonorWeight = 50
)

type Service interface {
	Register(ctx context.Context, input domain.RegisterDonorInput) (*domain.Donor, error)
	GetByID(ctx context.Context, id string) (*domain.Donor, error)
	// FindCompatible returns active donors whose blood group can serve a
	// patient of the given group, O- donors first.
	FindCompatible(ctx context.Context, patientBloodGroup string) ([]domain.Donor, error)
	SetMailer(mailer Mailer)
}

// Mailer sends the registration confirmation. Delivery is best effort.
type Mailer interface {
	SendDonorConfirmation(ctx context.Context, donor *domain.Donor)
}

type service struct {
	donorRepo repository.DonorRepository
	mailer    Mailer
	now       func() time.Time
}

func NewService(donorRepo repository.DonorRepository) Service {
	return &service{
		donorRepo: donorRepo,
		now:       time.Now,
	}
}

func (s *service) SetMailer(mailer Mailer) {
	s.mailer = mailer
}

func (s *service) Register(ctx context.Context, input domain.RegisterDonorInput) (*domain.Donor, error) {
	fullName := strings.TrimSpace(input.FullName)
	bloodGroup := strings.ToUpper(strings.TrimSpace(input.BloodGroup))
	if fullName == "" || input.ContactNumber == "" || bloodGroup == "" {
		return nil, fmt.Errorf("%w: full name, contact number and blood group are required", ErrMissingFields)
	}

	contact := phone.Normalize(input.ContactNumber)
	if !phone.IsValid(contact) {
		return nil, ErrInvalidContact
	}

	now := s.now()
	age := 0
	if input.DateOfBirth != nil {
		age = ageAt(*input.DateOfBirth, now)
		if age < minDonorAge || age > maxDonorAge {
			return nil, fmt.Errorf("%w: age must be between %d and %d", ErrNotEligible, minDonorAge, maxDonorAge)
		}
	}
	if input.WeightKG > 0 && input.WeightKG < minDonorWeight {
		return nil, fmt.Errorf("%w: minimum weight is %dkg", ErrNotEligible, minDonorWeight)
	}

	existing, err := s.donorRepo.GetActiveByContact(ctx, contact)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyActive
	}

	donor := &domain.Donor{
		ID:                 "DON" + fmt.Sprintf("%d", now.UnixMilli()),
		FullName:           fullName,
		ContactNumber:      contact,
		Email:              strings.TrimSpace(input.Email),
		Gender:             strings.TrimSpace(input.Gender),
		DateOfBirth:        input.DateOfBirth,
		Age:                age,
		WeightKG:           input.WeightKG,
		BloodGroup:         bloodGroup,
		City:               strings.TrimSpace(input.City),
		Area:               strings.TrimSpace(input.Area),
		EmergencyAvailable: input.EmergencyAvailable,
		PreferredContact:   strings.TrimSpace(input.PreferredContact),
		MedicalHistory:     strings.TrimSpace(input.MedicalHistory),
		Status:             domain.DonorActive,
	}

	if err := s.donorRepo.Create(ctx, donor); err != nil {
		return nil, err
	}

	if s.mailer != nil && donor.Email != "" {
		snapshot := *donor
		go s.mailer.SendDonorConfirmation(context.Background(), &snapshot)
	}

	log.Printf("donor: registered %s (%s, %s)", donor.ID, donor.FullName, donor.BloodGroup)
	return donor, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*domain.Donor, error) {
	donor, err := s.donorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if donor == nil {
		return nil, ErrDonorNotFound
	}
	return donor, nil
}

func (s *service) FindCompatible(ctx context.Context, patientBloodGroup string) ([]domain.Donor, error) {
	donors, err := s.donorRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var universal, rest []domain.Donor
	for _, d := range donors {
		if !domain.IsBloodCompatible(d.BloodGroup, patientBloodGroup) {
			continue
		}
		if strings.EqualFold(d.BloodGroup, "O-") {
			universal = append(universal, d)
		} else {
			rest = append(rest, d)
		}
	}
	return append(universal, rest...), nil
}

func ageAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.YearDay() < dob.YearDay() {
		age--
	}
	return age
}
