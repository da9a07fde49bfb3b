package users

import "time"

// User represents a platform account as seen by the POS endpoints.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"enabled"`
	Language     string    `json:"language"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}
