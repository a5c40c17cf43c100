package patient

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("patient not found")
	ErrDuplicateCustomID = errors.New("custom id already in use")
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	List(ctx context.Context) ([]*Patient, error)
	// Search matches name or custom id, case-insensitively.
	Search(ctx context.Context, query string) ([]*Patient, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByCustomID(ctx context.Context, customID string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	DeleteByCustomID(ctx context.Context, customID string) (*Patient, error)
}
