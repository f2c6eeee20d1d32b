package prescription

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prescripto/prescripto/internal/domain/identity"
	"github.com/prescripto/prescripto/internal/platform/apierror"
	"github.com/prescripto/prescripto/internal/platform/auth"
)

// Directory resolves accounts for name snapshots. Satisfied by the identity
// service.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*identity.Account, error)
}

// Clinic is the letterhead metadata stamped on every prescription.
type Clinic struct {
	Name    string
	Website string
}

type Service struct {
	prescriptions Repository
	directory     Directory
	clinic        Clinic
}

func NewService(prescriptions Repository, directory Directory, clinic Clinic) *Service {
	return &Service{prescriptions: prescriptions, directory: directory, clinic: clinic}
}

// CreateInput carries the client-supplied fields for a new prescription.
type CreateInput struct {
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	PatientID     uuid.UUID  `json:"patient_id"`
	DoctorID      uuid.UUID  `json:"doctor_id"`
	Date          *time.Time `json:"date,omitempty"`
	Medicines     []Medicine `json:"medicines"`
	Notes         string     `json:"notes"`
}

// Create writes a standalone prescription. Doctors always prescribe as
// themselves; the client-supplied doctor reference is honored for admins only.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*Prescription, error) {
	if actor.Role == auth.RoleDoctor {
		in.DoctorID = actor.ID
	}
	if in.PatientID == uuid.Nil {
		return nil, apierror.Validation("patient_id is required")
	}
	if in.DoctorID == uuid.Nil {
		return nil, apierror.Validation("doctor_id is required")
	}
	if len(in.Medicines) == 0 {
		return nil, apierror.Validation("at least one medicine is required")
	}
	for _, m := range in.Medicines {
		if m.Name == "" {
			return nil, apierror.Validation("medicine name is required")
		}
	}

	if in.AppointmentID != nil {
		_, err := s.prescriptions.GetByAppointment(ctx, *in.AppointmentID)
		if err == nil {
			return nil, apierror.Conflict("appointment already has a prescription")
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apierror.Unexpected("failed to check existing prescription")
		}
	}

	patient, err := s.directory.Get(ctx, in.PatientID)
	if err != nil {
		if apierror.CodeOf(err) == apierror.CodeNotFound {
			return nil, apierror.NotFound("patient not found")
		}
		return nil, err
	}
	doctor, err := s.directory.Get(ctx, in.DoctorID)
	if err != nil {
		if apierror.CodeOf(err) == apierror.CodeNotFound {
			return nil, apierror.NotFound("doctor not found")
		}
		return nil, err
	}
	if doctor.Role != auth.RoleDoctor {
		return nil, apierror.NotFound("doctor not found")
	}

	date := time.Now()
	if in.Date != nil {
		date = *in.Date
	}

	p := &Prescription{
		AppointmentID: in.AppointmentID,
		PatientID:     patient.ID,
		DoctorID:      doctor.ID,
		PatientName:   patient.Name,
		DoctorName:    doctor.Name,
		ClinicName:    s.clinic.Name,
		ClinicWebsite: s.clinic.Website,
		Date:          date,
		Medicines:     in.Medicines,
		Notes:         in.Notes,
	}
	if err := s.prescriptions.Create(ctx, p); err != nil {
		return nil, apierror.Unexpected("failed to create prescription")
	}
	return p, nil
}

// Get loads a prescription and applies the ownership policy against the
// stored record.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Prescription, error) {
	p, err := s.prescriptions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apierror.NotFound("prescription not found")
		}
		return nil, apierror.Unexpected("failed to load prescription")
	}
	if auth.Authorize(actor, p, auth.ActionRead) != auth.Allow {
		return nil, apierror.Forbidden("access denied")
	}
	return p, nil
}
