package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("appointment not found")

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	// ListByDoctorAndDate returns the doctor's scheduled appointments for
	// one calendar day.
	ListByDoctorAndDate(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}
