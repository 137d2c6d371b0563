package models

import (
	"time"

	"github.com/google/uuid"
)

// UserSummary is the account shape returned by register and login. The
// identity provider owns the full account record.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
}

// Profile is the locally stored row paired one-to-one with a provider account.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  UserSummary `json:"user"`
	Token string      `json:"token"`
}
