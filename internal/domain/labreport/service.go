package labreport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrMissingTechnician = errors.New("completed report requires a technician")

// TxRunner executes fn inside a storage transaction. The composition root
// binds it to the database pool; tests pass the function through.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	repo Repository
	inTx TxRunner
}

func NewService(repo Repository, inTx TxRunner) *Service {
	if inTx == nil {
		inTx = func(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }
	}
	return &Service{repo: repo, inTx: inTx}
}

// PendingTests lists unclaimed Pending reports for the technician work queue.
func (s *Service) PendingTests(ctx context.Context) ([]*Report, error) {
	return s.repo.ListPendingUnassigned(ctx)
}

// ResultInput carries a technician's result entry. Nil fields keep the
// stored value.
type ResultInput struct {
	Result         *string         `json:"result"`
	Notes          *string         `json:"notes"`
	ReferenceRange *string         `json:"referenceRange"`
	Units          *string         `json:"units"`
	TestParameters []TestParameter `json:"testParameters"`
}

// UpdateLabResult records a result against a pending test, completing it
// and stamping the acting technician.
func (s *Service) UpdateLabResult(ctx context.Context, testID, technicianID uuid.UUID, in ResultInput) (*Report, error) {
	rep, err := s.repo.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}

	if in.Result != nil {
		rep.Results = in.Result
	}
	if in.Notes != nil {
		rep.Notes = in.Notes
	}
	if in.ReferenceRange != nil {
		rep.ReferenceRange = in.ReferenceRange
	}
	if in.Units != nil {
		rep.Units = in.Units
	}
	if in.TestParameters != nil {
		rep.TestParameters = in.TestParameters
	}

	now := time.Now()
	rep.Status = StatusCompleted
	rep.LabTechnicianID = &technicianID
	rep.CompletedAt = &now
	rep.UpdatedAt = now
	rep.DeriveIsNormal()

	if err := s.checkCompleted(rep); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// CreateInput is a technician's direct report entry.
type CreateInput struct {
	PatientID      uuid.UUID       `json:"patientId"`
	DoctorID       uuid.UUID       `json:"doctorId"`
	TestName       string          `json:"testName"`
	TestType       string          `json:"testType"`
	Notes          *string         `json:"notes"`
	FileURL        *string         `json:"fileUrl"`
	TestParameters []TestParameter `json:"testParameters"`
	Priority       string          `json:"priority"`
}

// Create records a completed report and links it to the patient's report
// list in one transaction.
func (s *Service) Create(ctx context.Context, technicianID uuid.UUID, in CreateInput) (*Report, error) {
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patientId is required")
	}
	if in.TestName == "" {
		return nil, fmt.Errorf("testName is required")
	}
	if in.TestType == "" {
		in.TestType = DefaultTestType
	}
	if !TestTypes[in.TestType] {
		return nil, fmt.Errorf("invalid testType: %s", in.TestType)
	}
	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
	if in.Priority != PriorityNormal && in.Priority != PriorityUrgent && in.Priority != PriorityEmergency {
		return nil, fmt.Errorf("invalid priority: %s", in.Priority)
	}

	now := time.Now()
	rep := &Report{
		PatientID:       in.PatientID,
		DoctorID:        in.DoctorID,
		LabTechnicianID: &technicianID,
		TestName:        in.TestName,
		TestType:        in.TestType,
		Date:            now,
		Status:          StatusCompleted,
		Notes:           in.Notes,
		FileURL:         in.FileURL,
		TestParameters:  in.TestParameters,
		Priority:        in.Priority,
		CompletedAt:     &now,
	}
	rep.DeriveIsNormal()

	if err := s.checkCompleted(rep); err != nil {
		return nil, err
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rep); err != nil {
			return err
		}
		return s.repo.AttachToPatient(ctx, rep.PatientID, rep.ID)
	})
	if err != nil {
		return nil, err
	}
	return rep, nil
}

// UpdateInput is a technician's edit of their own report.
type UpdateInput struct {
	Results        *string         `json:"results"`
	Notes          *string         `json:"notes"`
	FileURL        *string         `json:"fileUrl"`
	TestParameters []TestParameter `json:"testParameters"`
}

// Update edits a report owned by the technician. A report belonging to
// someone else is indistinguishable from a missing one.
func (s *Service) Update(ctx context.Context, reportID, technicianID uuid.UUID, in UpdateInput) (*Report, error) {
	rep, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rep.LabTechnicianID == nil || *rep.LabTechnicianID != technicianID {
		return nil, ErrNotFound
	}

	if in.Results != nil {
		rep.Results = in.Results
	}
	if in.Notes != nil {
		rep.Notes = in.Notes
	}
	if in.FileURL != nil {
		rep.FileURL = in.FileURL
	}
	if in.TestParameters != nil {
		rep.TestParameters = in.TestParameters
	}

	now := time.Now()
	rep.Status = StatusCompleted
	if rep.CompletedAt == nil {
		rep.CompletedAt = &now
	}
	rep.UpdatedAt = now
	rep.DeriveIsNormal()

	if err := s.repo.Update(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Report, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) MyReports(ctx context.Context, technicianID uuid.UUID) ([]*Report, error) {
	return s.repo.ListByTechnician(ctx, technicianID)
}

func (s *Service) PatientReports(ctx context.Context, patientID uuid.UUID) ([]*Report, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// PatientsServedToday counts distinct patients with reports the technician
// completed today, in the server's local day.
func (s *Service) PatientsServedToday(ctx context.Context, technicianID uuid.UUID, now time.Time) (int, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.repo.CountDistinctPatients(ctx, technicianID, midnight, midnight.AddDate(0, 0, 1))
}

func (s *Service) checkCompleted(rep *Report) error {
	if rep.Status == StatusCompleted && rep.LabTechnicianID == nil {
		return ErrMissingTechnician
	}
	return nil
}
