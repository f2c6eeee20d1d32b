package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// ListByPatient returns the patient's non-cancelled appointments on or
	// after from, prescription-joined, soonest first.
	ListByPatient(ctx context.Context, patientID uuid.UUID, from time.Time, limit, offset int) ([]*Appointment, int, error)
	// ListByDoctor returns the doctor's non-cancelled appointments,
	// prescription-joined, newest first.
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// List returns all appointments unfiltered, newest first.
	List(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
}
