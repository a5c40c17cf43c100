package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/appointment"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrNotAppointmentOwner means the appointment belongs to a different
	// doctor than the one issuing the prescription.
	ErrNotAppointmentOwner = errors.New("appointment belongs to another doctor")
	ErrAlreadyExists       = errors.New("prescription already exists for this appointment")
	// ErrNotDeletable means the caller is neither an admin nor the
	// authoring doctor.
	ErrNotDeletable = errors.New("not authorized to delete prescription")
)

// AppointmentStore is the slice of the appointment repository the
// prescription workflow needs.
type AppointmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

// TxRunner executes fn inside a database transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo         Repository
	appointments AppointmentStore
	inTx         TxRunner
}

func NewService(repo Repository, appointments AppointmentStore, inTx TxRunner) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{repo: repo, appointments: appointments, inTx: inTx}
}

type CreateInput struct {
	AppointmentID uuid.UUID
	Diagnosis     *string
	Medications   []Medication
	Notes         *string
	FilePath      *string
}

// Create issues a prescription against a scheduled appointment. The
// appointment must belong to the issuing doctor and carry no prior
// prescription. Writing the record and flipping the appointment to
// completed happen in one transaction.
func (s *Service) Create(ctx context.Context, doctorID uuid.UUID, in CreateInput) (*Prescription, error) {
	appt, err := s.appointments.GetByID(ctx, in.AppointmentID)
	if err != nil {
		if errors.Is(err, appointment.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	if appt.DoctorID != doctorID {
		return nil, ErrNotAppointmentOwner
	}

	if _, err := s.repo.GetByAppointment(ctx, in.AppointmentID); err == nil {
		return nil, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	p := &Prescription{
		AppointmentID: in.AppointmentID,
		PatientID:     appt.PatientID,
		DoctorID:      doctorID,
		Diagnosis:     in.Diagnosis,
		Medications:   in.Medications,
		Notes:         in.Notes,
		FilePath:      in.FilePath,
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.appointments.UpdateStatus(ctx, appt.ID, appointment.StatusCompleted)
	})
	if err != nil {
		// Lost the race against a concurrent create for this appointment.
		if errors.Is(err, ErrDuplicateAppointment) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Prescription, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Prescription, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

// FirstForPatient returns the patient's oldest prescription, the one the
// lab desk hands out on request.
func (s *Service) FirstForPatient(ctx context.Context, patientID uuid.UUID) (*Prescription, error) {
	return s.repo.FirstByPatient(ctx, patientID)
}

// Delete removes a prescription record. Admins may delete any; a doctor
// only their own. Returns the deleted record so the caller can unlink
// the backing file.
func (s *Service) Delete(ctx context.Context, id, actorID uuid.UUID, isAdmin bool) (*Prescription, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdmin && p.DoctorID != actorID {
		return nil, ErrNotDeletable
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}
