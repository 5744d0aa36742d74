package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"lifesavers-united/internal/domain"
)

type TelegramUserRepository interface {
	Upsert(ctx context.Context, user *domain.TelegramUser) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.TelegramUser, error)
}

type telegramUserRepository struct {
	db *sqlx.DB
}

func NewTelegramUserRepository(db *sqlx.DB) TelegramUserRepository {
	return &telegramUserRepository{db: db}
}

func (r *telegramUserRepository) Upsert(ctx context.Context, user *domain.TelegramUser) error {
	query := `
		INSERT INTO telegram_users (telegram_id, phone_number, first_name, last_name, username)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (telegram_id) DO UPDATE
		SET phone_number = EXCLUDED.phone_number,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			username = EXCLUDED.username
		RETURNING registered_at`

	return r.db.QueryRowxContext(ctx, query,
		user.TelegramID, user.PhoneNumber, user.FirstName, user.LastName, user.Username,
	).Scan(&user.RegisteredAt)
}

func (r *telegramUserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.TelegramUser, error) {
	var user domain.TelegramUser
	query := `SELECT * FROM telegram_users WHERE telegram_id = $1`

	err := r.db.GetContext(ctx, &user, query, telegramID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
