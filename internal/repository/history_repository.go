package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"lifesavers-united/internal/domain"
)

type HistoryRepository interface {
	Create(ctx context.Context, entry *domain.HistoryEntry) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.HistoryEntry, error)
}

type historyRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, entry *domain.HistoryEntry) error {
	query := `
		INSERT INTO request_history (id, request_id, type, actor_name, actor_uid, note, changed_fields)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return r.db.QueryRowxContext(ctx, query,
		entry.ID, entry.RequestID, entry.Type, entry.ActorName, entry.ActorUID,
		entry.Note, entry.ChangedFields,
	).Scan(&entry.CreatedAt)
}

func (r *historyRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.HistoryEntry, error) {
	query := `
		SELECT * FROM request_history
		WHERE request_id = $1
		ORDER BY created_at ASC`

	var entries []domain.HistoryEntry
	err := r.db.SelectContext(ctx, &entries, query, requestID)
	return entries, err
}
