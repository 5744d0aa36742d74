package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"lifesavers-united/internal/domain"
)

type DonationLogRepository interface {
	Create(ctx context.Context, log *domain.DonationLog) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.DonationLog, error)
	CountUnitsDonated(ctx context.Context) (int64, error)
}

type donationLogRepository struct {
	db *sqlx.DB
}

func NewDonationLogRepository(db *sqlx.DB) DonationLogRepository {
	return &donationLogRepository{db: db}
}

func (r *donationLogRepository) Create(ctx context.Context, log *domain.DonationLog) error {
	query := `
		INSERT INTO donation_logs (id, request_id, donor_id, patient_name, blood_group,
			units_donated, donor_type, donor_name, donor_contact,
			recorded_by_name, recorded_by_uid, reopen_cycle)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		log.ID, log.RequestID, log.DonorID, log.PatientName, log.BloodGroup,
		log.UnitsDonated, log.DonorType, log.DonorName, log.DonorContact,
		log.RecordedByName, log.RecordedByUID, log.ReopenCycle,
	).Scan(&log.CreatedAt)
}

func (r *donationLogRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.DonationLog, error) {
	query := `
		SELECT * FROM donation_logs
		WHERE request_id = $1
		ORDER BY created_at ASC`

	var logs []domain.DonationLog
	err := r.db.SelectContext(ctx, &logs, query, requestID)
	return logs, err
}

func (r *donationLogRepository) CountUnitsDonated(ctx context.Context) (int64, error) {
	var units int64
	query := `SELECT COALESCE(SUM(units_donated), 0) FROM donation_logs`
	err := r.db.GetContext(ctx, &units, query)
	return units, err
}
