package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"lifesavers-united/internal/domain"
)

type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	// GetByContactNumber matches the stored, already-normalized contact
	// number. Callers must normalize before querying; un-normalized forms
	// must never be compared.
	GetByContactNumber(ctx context.Context, contactNumber string) (*domain.Request, error)
	GetByPatientName(ctx context.Context, patientName string) (*domain.Request, error)
	Update(ctx context.Context, request *domain.Request) error
	List(ctx context.Context, filter domain.RequestListFilter, params domain.PaginationParams) ([]domain.Request, int64, error)
	CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error)
	CountFulfilledClosures(ctx context.Context) (int64, error)
}

type requestRepository struct {
	db *sqlx.DB
}

func NewRequestRepository(db *sqlx.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	query := `
		INSERT INTO emergency_requests (
			id, patient_name, contact_number, required_blood_group, units_required,
			hospital_name, hospital_city, hospital_address, patient_age,
			patient_suffering_from, contact_person, contact_email, urgency_level,
			additional_info, status,
			units_fulfilled, donation_log_ids, all_donation_log_ids, donor_summary,
			fulfilled_at, last_donation_at,
			closed_at, closed_by, closed_by_uid, closure_reason, closure_type,
			closure_history, total_closures,
			reopened_at, reopen_count,
			verified_at, verified_by_name, verified_by_uid,
			created_by, created_by_uid, source, updated_by, updated_by_uid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
			$29, $30, $31, $32, $33, $34, $35, $36, $37, $38)
		RETURNING created_at, updated_at`

	return r.db.QueryRowxContext(ctx, query,
		request.ID, request.PatientName, request.ContactNumber,
		request.RequiredBloodGroup, request.UnitsRequired,
		request.HospitalName, request.HospitalCity, request.HospitalAddress,
		request.PatientAge, request.PatientSufferingFrom, request.ContactPerson,
		request.ContactEmail, request.UrgencyLevel, request.AdditionalInfo,
		request.Status,
		request.UnitsFulfilled, request.DonationLogIDs, request.AllDonationLogIDs,
		request.DonorSummary, request.FulfilledAt, request.LastDonationAt,
		request.ClosedAt, request.ClosedBy, request.ClosedByUID,
		request.ClosureReason, request.ClosureType, request.ClosureHistory,
		request.TotalClosures,
		request.ReopenedAt, request.ReopenCount,
		request.VerifiedAt, request.VerifiedByName, request.VerifiedByUID,
		request.CreatedBy, request.CreatedByUID, request.Source,
		request.UpdatedBy, request.UpdatedByUID,
	).Scan(&request.CreatedAt, &request.UpdatedAt)
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	var request domain.Request
	query := `SELECT * FROM emergency_requests WHERE id = $1`

	err := r.db.GetContext(ctx, &request, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) GetByContactNumber(ctx context.Context, contactNumber string) (*domain.Request, error) {
	var request domain.Request
	query := `SELECT * FROM emergency_requests WHERE contact_number = $1 ORDER BY created_at DESC LIMIT 1`

	err := r.db.GetContext(ctx, &request, query, contactNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) GetByPatientName(ctx context.Context, patientName string) (*domain.Request, error) {
	var request domain.Request
	query := `SELECT * FROM emergency_requests WHERE patient_name = $1 ORDER BY created_at DESC LIMIT 1`

	err := r.db.GetContext(ctx, &request, query, patientName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) Update(ctx context.Context, request *domain.Request) error {
	query := `
		UPDATE emergency_requests
		SET patient_name = $2, contact_number = $3, required_blood_group = $4,
			units_required = $5, hospital_name = $6, hospital_city = $7,
			hospital_address = $8, patient_age = $9, patient_suffering_from = $10,
			contact_person = $11, contact_email = $12, urgency_level = $13,
			additional_info = $14, status = $15,
			units_fulfilled = $16, donation_log_ids = $17, all_donation_log_ids = $18,
			donor_summary = $19, fulfilled_at = $20, last_donation_at = $21,
			closed_at = $22, closed_by = $23, closed_by_uid = $24,
			closure_reason = $25, closure_type = $26, closure_history = $27,
			total_closures = $28,
			reopened_at = $29, reopen_count = $30,
			verified_at = $31, verified_by_name = $32, verified_by_uid = $33,
			updated_by = $34, updated_by_uid = $35, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRowxContext(ctx, query,
		request.ID, request.PatientName, request.ContactNumber,
		request.RequiredBloodGroup, request.UnitsRequired,
		request.HospitalName, request.HospitalCity, request.HospitalAddress,
		request.PatientAge, request.PatientSufferingFrom, request.ContactPerson,
		request.ContactEmail, request.UrgencyLevel, request.AdditionalInfo,
		request.Status,
		request.UnitsFulfilled, request.DonationLogIDs, request.AllDonationLogIDs,
		request.DonorSummary, request.FulfilledAt, request.LastDonationAt,
		request.ClosedAt, request.ClosedBy, request.ClosedByUID,
		request.ClosureReason, request.ClosureType, request.ClosureHistory,
		request.TotalClosures,
		request.ReopenedAt, request.ReopenCount,
		request.VerifiedAt, request.VerifiedByName, request.VerifiedByUID,
		request.UpdatedBy, request.UpdatedByUID,
	).Scan(&request.UpdatedAt)
}

func (r *requestRepository) List(ctx context.Context, filter domain.RequestListFilter, params domain.PaginationParams) ([]domain.Request, int64, error) {
	params.Validate()

	statuses := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM emergency_requests WHERE status = ANY($1)`
	if err := r.db.GetContext(ctx, &total, countQuery, pq.Array(statuses)); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT * FROM emergency_requests
		WHERE status = ANY($1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var requests []domain.Request
	err := r.db.SelectContext(ctx, &requests, query, pq.Array(statuses), params.PageSize, params.Offset())
	return requests, total, err
}

func (r *requestRepository) CountByStatus(ctx context.Context) (map[domain.RequestStatus]int64, error) {
	rows := []struct {
		Status domain.RequestStatus `db:"status"`
		Count  int64                `db:"count"`
	}{}

	query := `SELECT status, COUNT(*) AS count FROM emergency_requests GROUP BY status`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	counts := make(map[domain.RequestStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *requestRepository) CountFulfilledClosures(ctx context.Context) (int64, error) {
	var count int64
	query := `SELECT COUNT(*) FROM emergency_requests WHERE status = 'Closed' AND closure_type = 'fulfilled'`
	err := r.db.GetContext(ctx, &count, query)
	return count, err
}
