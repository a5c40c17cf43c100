package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrNotOwner = errors.New("appointment belongs to another doctor")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// BookInput is the booking form. Date is the calendar day, Time the slot
// label shown to patients ("10:30").
type BookInput struct {
	PatientID uuid.UUID `json:"patientId"`
	DoctorID  uuid.UUID `json:"doctorId"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
}

func (s *Service) Book(ctx context.Context, in BookInput) (*Appointment, error) {
	if in.PatientID == uuid.Nil {
		return nil, fmt.Errorf("patientId is required")
	}
	if in.DoctorID == uuid.Nil {
		return nil, fmt.Errorf("doctorId is required")
	}
	if in.Time == "" {
		return nil, fmt.Errorf("time is required")
	}
	date, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, fmt.Errorf("date must be YYYY-MM-DD")
	}

	a := &Appointment{
		PatientID: in.PatientID,
		DoctorID:  in.DoctorID,
		Date:      date,
		Time:      in.Time,
		Status:    StatusScheduled,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// AvailableSlots returns the slots of the standard grid not yet taken by
// a scheduled appointment with the doctor on the given day.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, dateStr string) ([]string, error) {
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return nil, fmt.Errorf("date must be YYYY-MM-DD")
	}

	booked, err := s.repo.ListByDoctorAndDate(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, a := range booked {
		taken[a.Time] = true
	}

	free := make([]string, 0, len(SlotGrid))
	for _, slot := range SlotGrid {
		if !taken[slot] {
			free = append(free, slot)
		}
	}
	return free, nil
}

// Complete marks an appointment finished. Only the doctor it was booked
// with may complete it.
func (s *Service) Complete(ctx context.Context, id, doctorID uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.DoctorID != doctorID {
		return nil, ErrNotOwner
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusCompleted); err != nil {
		return nil, err
	}
	a.Status = StatusCompleted
	return a, nil
}
