package staff

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/platform/auth"
)

var ErrNotFound = errors.New("account not found")

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByEmailAndRole(ctx context.Context, email string, role auth.Role) (*Account, error)
	// FindTaken reports which of email and contact number are already in use.
	FindTaken(ctx context.Context, email, contact string) (emailTaken, contactTaken bool, err error)
	ListByRole(ctx context.Context, role auth.Role) ([]*Account, error)
	ListPending(ctx context.Context) ([]*Account, error)
	SetApproval(ctx context.Context, id uuid.UUID, approved bool, status string) error
}
