package dto

import (
	"time"

	"github.com/broce-labs/partsline/internal/entity"
)

// UserResponse represents a user. PasswordHash never leaves the service layer.
type UserResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      int       `json:"role"`
	AccountID int64     `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FromUser maps a user entity.
func FromUser(user *entity.User) UserResponse {
	return UserResponse{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		Role:      int(user.Role),
		AccountID: user.AccountID,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// FromUsers maps a slice of users.
func FromUsers(users []*entity.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, user := range users {
		out = append(out, FromUser(user))
	}
	return out
}

// SessionResponse is the payload of a successful signup or login.
type SessionResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
