package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a coordinator/volunteer account used to moderate requests. Donors
// and requesters do not need accounts; intake channels are open.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	FullName     string     `json:"full_name" db:"full_name"`
	Role         string     `json:"role" db:"role"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"-" db:"deleted_at"`
}

const (
	RoleVolunteer   = "volunteer"
	RoleCoordinator = "coordinator"
	RoleSuperuser   = "superuser"
)

var roleRank = map[string]int{
	RoleVolunteer:   1,
	RoleCoordinator: 2,
	RoleSuperuser:   3,
}

// HasRole reports whether the user's role is at least the required one.
func (u *User) HasRole(required string) bool {
	return roleRank[u.Role] >= roleRank[required]
}

type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// TelegramUser is a bot user verified by sharing their contact. Verification
// gates request submission over Telegram.
type TelegramUser struct {
	TelegramID   int64     `json:"telegram_id" db:"telegram_id"`
	PhoneNumber  string    `json:"phone_number" db:"phone_number"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Username     string    `json:"username" db:"username"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`
}

// DisplayName is the name recorded as request provenance for bot submissions.
func (u *TelegramUser) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		name += " " + u.LastName
	}
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = "Telegram User"
	}
	return name
}
