package repository

import (
	"github.com/jmoiron/sqlx"
)

type Repositories struct {
	Request      RequestRepository
	History      HistoryRepository
	DonationLog  DonationLogRepository
	Donor        DonorRepository
	User         UserRepository
	Session      SessionRepository
	TelegramUser TelegramUserRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Request:      NewRequestRepository(db),
		History:      NewHistoryRepository(db),
		DonationLog:  NewDonationLogRepository(db),
		Donor:        NewDonorRepository(db),
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		TelegramUser: NewTelegramUserRepository(db),
	}
}
