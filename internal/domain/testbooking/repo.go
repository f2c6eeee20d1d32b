package testbooking

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *TestBooking) error
	GetByID(ctx context.Context, id uuid.UUID) (*TestBooking, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	// SetReport writes the stored report path and flips status to Completed in
	// one statement.
	SetReport(ctx context.Context, id uuid.UUID, reportFile string) error
	SetNotes(ctx context.Context, id uuid.UUID, notes string) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Listings join catalog test details and account names, newest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*TestBooking, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*TestBooking, int, error)
	List(ctx context.Context, limit, offset int) ([]*TestBooking, int, error)
}
