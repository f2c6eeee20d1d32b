package feedback

import (
	"context"
)

// Repository persists feedback entries. List joins the submitting patient's
// name and email, newest first.
type Repository interface {
	Create(ctx context.Context, f *Feedback) error
	List(ctx context.Context, limit, offset int) ([]*Feedback, int, error)
}
