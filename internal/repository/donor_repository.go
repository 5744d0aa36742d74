package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"lifesavers-united/internal/domain"
)

type DonorRepository interface {
	Create(ctx context.Context, donor *domain.Donor) error
	GetByID(ctx context.Context, id string) (*domain.Donor, error)
	// GetActiveByContact looks up the Active donor for a normalized contact
	// number; registration rejects a second Active donor for the same number.
	GetActiveByContact(ctx context.Context, contactNumber string) (*domain.Donor, error)
	ListActive(ctx context.Context) ([]domain.Donor, error)
	Upsert(ctx context.Context, donor *domain.Donor) error
	TouchLastDonated(ctx context.Context, id string, at time.Time) error
}

type donorRepository struct {
	db *sqlx.DB
}

func NewDonorRepository(db *sqlx.DB) DonorRepository {
	return &donorRepository{db: db}
}

func (r *donorRepository) Create(ctx context.Context, donor *domain.Donor) error {
	query := `
		INSERT INTO donors (id, full_name, contact_number, email, gender,
			date_of_birth, age, weight_kg, blood_group, city, area,
			emergency_available, preferred_contact, medical_history, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		donor.ID, donor.FullName, donor.ContactNumber, donor.Email, donor.Gender,
		donor.DateOfBirth, donor.Age, donor.WeightKG, donor.BloodGroup,
		donor.City, donor.Area, donor.EmergencyAvailable, donor.PreferredContact,
		donor.MedicalHistory, donor.Status,
	).Scan(&donor.CreatedAt, &donor.UpdatedAt)
}

func (r *donorRepository) GetByID(ctx context.Context, id string) (*domain.Donor, error) {
	var donor domain.Donor
	query := `SELECT * FROM donors WHERE id = $1`

	err := r.db.GetContext(ctx, &donor, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &donor, nil
}

func (r *donorRepository) GetActiveByContact(ctx context.Context, contactNumber string) (*domain.Donor, error) {
	var donor domain.Donor
	query := `SELECT * FROM donors WHERE contact_number = $1 AND status = 'Active' LIMIT 1`

	err := r.db.GetContext(ctx, &donor, query, contactNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &donor, nil
}

func (r *donorRepository) ListActive(ctx context.Context) ([]domain.Donor, error) {
	query := `SELECT * FROM donors WHERE status = 'Active' ORDER BY full_name`

	var donors []domain.Donor
	err := r.db.SelectContext(ctx, &donors, query)
	return donors, err
}

// Upsert keeps the donor master in sync when a donation is logged for a donor
// who may or may not be registered yet.
func (r *donorRepository) Upsert(ctx context.Context, donor *domain.Donor) error {
	query := `
		INSERT INTO donors (id, full_name, contact_number, blood_group, status, last_donated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name,
			blood_group = EXCLUDED.blood_group,
			last_donated_at = EXCLUDED.last_donated_at,
			updated_at = NOW()
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		donor.ID, donor.FullName, donor.ContactNumber, donor.BloodGroup,
		donor.Status, donor.LastDonatedAt,
	).Scan(&donor.CreatedAt, &donor.UpdatedAt)
}

func (r *donorRepository) TouchLastDonated(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE donors SET last_donated_at = $2, updated_at = NOW() WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}
