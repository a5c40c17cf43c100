package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("prescription not found")
	// ErrDuplicateAppointment means a prescription already exists for the
	// appointment; appointment_id carries a unique constraint.
	ErrDuplicateAppointment = errors.New("prescription already exists for appointment")
)

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Prescription, error)
	// FirstByPatient returns the patient's oldest prescription.
	FirstByPatient(ctx context.Context, patientID uuid.UUID) (*Prescription, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
