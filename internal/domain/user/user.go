package user

import (
	"errors"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	FullName     *string   `json:"full_name"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"-"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Public is the only shape of a user that leaves the API.
type Public struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	FullName *string `json:"full_name"`
	Role     Role    `json:"role"`
}

func (u User) Public() Public {
	return Public{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
	}
}

// NewUser is the input to the credential store; the hash is computed by the caller.
type NewUser struct {
	Email        string
	FullName     *string
	PasswordHash string
	Role         Role
}

type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	FullName *string `json:"full_name" binding:"omitempty,max=200"`
	Password string  `json:"password" binding:"required,min=6,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}
