package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput is the admission form.
type CreateInput struct {
	Name      string `json:"name"`
	Age       int    `json:"age"`
	Gender    string `json:"gender"`
	Diagnosis string `json:"diagnosis"`
}

// Create admits a patient, assigning a generated customId. On the rare
// customId collision the id is re-rolled once; a second collision surfaces.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	if in.Name == "" || in.Gender == "" || in.Diagnosis == "" {
		return nil, fmt.Errorf("name, gender and diagnosis are required")
	}
	if in.Age <= 0 {
		return nil, fmt.Errorf("age must be positive")
	}

	now := time.Now()
	p := &Patient{
		CustomID:      NewCustomID(now),
		Name:          in.Name,
		Age:           in.Age,
		Gender:        in.Gender,
		Diagnosis:     in.Diagnosis,
		AdmissionDate: now,
	}

	err := s.repo.Create(ctx, p)
	if errors.Is(err, ErrDuplicateCustomID) {
		p.CustomID = NewCustomID(time.Now())
		err = s.repo.Create(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) Search(ctx context.Context, query string) ([]*Patient, error) {
	return s.repo.Search(ctx, query)
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByCustomID(ctx context.Context, customID string) (*Patient, error) {
	return s.repo.GetByCustomID(ctx, customID)
}

// UpdateInput carries a partial update; nil fields keep their stored value.
type UpdateInput struct {
	Name      *string `json:"name"`
	Age       *int    `json:"age"`
	Gender    *string `json:"gender"`
	Diagnosis *string `json:"diagnosis"`
}

func (s *Service) UpdateByCustomID(ctx context.Context, customID string, in UpdateInput) (*Patient, error) {
	p, err := s.repo.GetByCustomID(ctx, customID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Age != nil {
		p.Age = *in.Age
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.Diagnosis != nil {
		p.Diagnosis = *in.Diagnosis
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) DeleteByCustomID(ctx context.Context, customID string) (*Patient, error) {
	return s.repo.DeleteByCustomID(ctx, customID)
}
