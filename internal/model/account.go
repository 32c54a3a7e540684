package model

import (
	"time"

	"github.com/google/uuid"
)

// Account is an identity-provider credential record. A Profile shares its
// id; the account knows nothing about hospitals or roles.
type Account struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	ResetToken   *string    `db:"reset_token" json:"-"`
	ResetExpiry  *time.Time `db:"reset_expiry" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
