package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/prescripto/prescripto/internal/platform/auth"
)

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByRole(ctx context.Context, role auth.Role, speciality string, limit, offset int) ([]*Account, int, error)
	List(ctx context.Context, limit, offset int) ([]*Account, int, error)
}
