package feedback

import (
	"context"

	"github.com/prescripto/prescripto/internal/platform/apierror"
	"github.com/prescripto/prescripto/internal/platform/auth"
)

type Service struct {
	feedback Repository
}

func NewService(feedback Repository) *Service {
	return &Service{feedback: feedback}
}

// CreateInput carries the client-supplied fields for a new feedback entry.
type CreateInput struct {
	Message string `json:"message"`
	Rating  int    `json:"rating"`
}

// Create records feedback from the acting patient.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*Feedback, error) {
	if in.Message == "" {
		return nil, apierror.Validation("message is required")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apierror.Validation("rating must be between 1 and 5")
	}

	f := &Feedback{
		PatientID: actor.ID,
		Message:   in.Message,
		Rating:    in.Rating,
	}
	if err := s.feedback.Create(ctx, f); err != nil {
		return nil, apierror.Unexpected("failed to submit feedback")
	}
	return f, nil
}

// List returns all feedback with the submitting patient joined, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Feedback, int, error) {
	items, total, err := s.feedback.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, apierror.Unexpected("failed to list feedback")
	}
	return items, total, nil
}
