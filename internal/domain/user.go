package domain

import "time"

type UserStatus string

const (
	UserStatusActive   UserStatus = "Active"
	UserStatusInactive UserStatus = "Inactive"
)

// User is an account that can authenticate against the API.
type User struct {
	ID           UserID
	Email        string
	FullName     string
	Phone        *string
	Role         Role
	Status       UserStatus
	PasswordHash string

	ProfileImageURL *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (u User) IsActive() bool { return u.Status != UserStatusInactive }
