package labreport

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("lab report not found")

type Repository interface {
	Create(ctx context.Context, r *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	Update(ctx context.Context, r *Report) error
	// ListPendingUnassigned returns Pending reports no technician has claimed.
	ListPendingUnassigned(ctx context.Context) ([]*Report, error)
	ListByTechnician(ctx context.Context, technicianID uuid.UUID) ([]*Report, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Report, error)
	// AttachToPatient records the report on the patient's report list.
	AttachToPatient(ctx context.Context, patientID, reportID uuid.UUID) error
	// CountDistinctPatients counts distinct patients among the technician's
	// Completed reports with completedAt in [from, to).
	CountDistinctPatients(ctx context.Context, technicianID uuid.UUID, from, to time.Time) (int, error)
}
