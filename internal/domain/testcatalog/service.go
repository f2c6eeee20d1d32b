package testcatalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prescripto/prescripto/internal/platform/apierror"
)

// loadError keeps missing rows distinct from storage outages.
func loadError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apierror.NotFound("test not found")
	}
	return apierror.Unexpected("failed to load test")
}

type Service struct {
	tests Repository
}

func NewService(tests Repository) *Service {
	return &Service{tests: tests}
}

// Input carries the writable catalog fields, shared by create and update.
type Input struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	ReportTime  string  `json:"report_time"`
}

func (in Input) validate() error {
	if in.Name == "" {
		return apierror.Validation("name is required")
	}
	if in.Price < 0 {
		return apierror.Validation("price must not be negative")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, in Input) (*Test, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	t := &Test{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		ReportTime:  in.ReportTime,
	}
	if err := s.tests.Create(ctx, t); err != nil {
		return nil, apierror.Unexpected("failed to create test")
	}
	return t, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*Test, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	t, err := s.tests.GetByID(ctx, id)
	if err != nil {
		return nil, loadError(err)
	}
	t.Name = in.Name
	t.Description = in.Description
	t.Price = in.Price
	t.ReportTime = in.ReportTime
	if err := s.tests.Update(ctx, t); err != nil {
		return nil, apierror.Unexpected("failed to update test")
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Test, error) {
	t, err := s.tests.GetByID(ctx, id)
	if err != nil {
		return nil, loadError(err)
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.tests.GetByID(ctx, id); err != nil {
		return loadError(err)
	}
	if err := s.tests.Delete(ctx, id); err != nil {
		return apierror.Unexpected("failed to delete test")
	}
	return nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Test, int, error) {
	items, total, err := s.tests.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apierror.Unexpected("failed to list tests")
	}
	return items, total, nil
}
