package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/prescripto/prescripto/internal/platform/auth"
)

// Account maps to the accounts table. One record per user regardless of role;
// Speciality and Fee are populated for doctors only. The credential hash is
// never serialized.
type Account struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         auth.Role `db:"role" json:"role"`
	Speciality   *string   `db:"speciality" json:"speciality,omitempty"`
	Fee          *float64  `db:"fee" json:"fee,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
