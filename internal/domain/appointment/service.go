package appointment

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prescripto/prescripto/internal/domain/identity"
	"github.com/prescripto/prescripto/internal/domain/prescription"
	"github.com/prescripto/prescripto/internal/platform/apierror"
	"github.com/prescripto/prescripto/internal/platform/auth"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// loadError keeps missing rows distinct from storage outages.
func loadError(err error, missing string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apierror.NotFound(missing)
	}
	return apierror.Unexpected("failed to load appointment")
}

var validGenders = map[string]bool{"male": true, "female": true, "other": true}

// Directory resolves accounts for doctor snapshots and notification
// recipients. Satisfied by the identity service.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*identity.Account, error)
}

// PrescriptionWriter is the slice of the prescription repository the
// completion flow needs.
type PrescriptionWriter interface {
	Create(ctx context.Context, p *prescription.Prescription) error
}

// TxRunner wraps compound transitions in one transactional unit. Satisfied by
// db.Runner.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier dispatches the booking confirmation. Implementations never report
// failure to the caller.
type Notifier interface {
	AppointmentBooked(ctx context.Context, to string, data map[string]string)
}

// Clinic is stamped on prescriptions written through the completion flow.
type Clinic struct {
	Name    string
	Website string
}

type Service struct {
	appointments  Repository
	prescriptions PrescriptionWriter
	directory     Directory
	tx            TxRunner
	notifier      Notifier
	clinic        Clinic
}

func NewService(appointments Repository, prescriptions PrescriptionWriter, directory Directory, tx TxRunner, notifier Notifier, clinic Clinic) *Service {
	return &Service{
		appointments:  appointments,
		prescriptions: prescriptions,
		directory:     directory,
		tx:            tx,
		notifier:      notifier,
		clinic:        clinic,
	}
}

// CreateInput carries the client-supplied fields for a new booking.
type CreateInput struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Date     time.Time `json:"date"`
	TimeSlot string    `json:"time_slot"`
	Phone    string    `json:"phone"`
	Age      *int      `json:"age,omitempty"`
	Gender   *string   `json:"gender,omitempty"`
}

// Create books an appointment for the acting patient. The confirmation email
// is dispatched after the write and never affects the result.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*Appointment, error) {
	if !phonePattern.MatchString(in.Phone) {
		return nil, apierror.Validation("phone must be exactly 10 digits")
	}
	if in.Age != nil && (*in.Age < 0 || *in.Age > 120) {
		return nil, apierror.Validation("age must be between 0 and 120")
	}
	if in.Gender != nil && !validGenders[*in.Gender] {
		return nil, apierror.Validation("gender must be male, female or other")
	}
	if in.Date.IsZero() {
		return nil, apierror.Validation("date is required")
	}
	if in.TimeSlot == "" {
		return nil, apierror.Validation("time_slot is required")
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

	a := &Appointment{
		PatientID:  actor.ID,
		DoctorID:   doctor.ID,
		DoctorName: doctor.Name,
		Date:       in.Date,
		TimeSlot:   in.TimeSlot,
		Age:        in.Age,
		Gender:     in.Gender,
		Phone:      in.Phone,
		Status:     StatusBooked,
	}
	if doctor.Speciality != nil {
		a.Speciality = *doctor.Speciality
	}
	if doctor.Fee != nil {
		a.Fee = *doctor.Fee
	}

	if err := s.appointments.Create(ctx, a); err != nil {
		return nil, apierror.Unexpected("failed to create appointment")
	}

	s.notify(ctx, a)
	return a, nil
}

func (s *Service) notify(ctx context.Context, a *Appointment) {
	patient, err := s.directory.Get(ctx, a.PatientID)
	if err != nil {
		return
	}
	s.notifier.AppointmentBooked(ctx, patient.Email, map[string]string{
		"patient_name": patient.Name,
		"doctor_name":  a.DoctorName,
		"speciality":   a.Speciality,
		"date":         a.Date.Format("2006-01-02"),
		"time":         a.TimeSlot,
		"fee":          fmt.Sprintf("%.2f", a.Fee),
	})
}

// Get loads an appointment and applies the ownership policy.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "appointment not found")
	}
	if auth.Authorize(actor, a, auth.ActionRead) != auth.Allow {
		return nil, apierror.Forbidden("access denied")
	}
	return a, nil
}

// Cancel sets status to cancelled. The transition is deliberately
// unconditional: staff may cancel completed appointments.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "appointment not found")
	}
	if auth.Authorize(actor, a, auth.ActionMutate) != auth.Allow {
		return nil, apierror.Forbidden("access denied")
	}
	if err := s.appointments.UpdateStatus(ctx, id, StatusCancelled); err != nil {
		return nil, apierror.Unexpected("failed to cancel appointment")
	}
	a.Status = StatusCancelled
	return a, nil
}

// CompleteInput carries the prescription payload for the completion flow.
type CompleteInput struct {
	Medicines []prescription.Medicine `json:"medicines"`
	Notes     string                  `json:"notes"`
}

// CompleteWithPrescription writes the prescription and flips the appointment
// to completed inside a single transaction. Only the assigned doctor may do
// this.
func (s *Service) CompleteWithPrescription(ctx context.Context, actor auth.Actor, id uuid.UUID, in CompleteInput) (*prescription.Prescription, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, loadError(err, "appointment not found")
	}
	if actor.Role != auth.RoleDoctor || a.DoctorID != actor.ID {
		return nil, apierror.Forbidden("only the assigned doctor may complete an appointment")
	}
	if a.Status != StatusBooked {
		return nil, apierror.Conflict("appointment is not open for completion")
	}
	if len(in.Medicines) == 0 {
		return nil, apierror.Validation("at least one medicine is required")
	}
	for _, m := range in.Medicines {
		if m.Name == "" {
			return nil, apierror.Validation("medicine name is required")
		}
	}

	patient, err := s.directory.Get(ctx, a.PatientID)
	if err != nil {
		if apierror.CodeOf(err) == apierror.CodeNotFound {
			return nil, apierror.NotFound("patient not found")
		}
		return nil, err
	}

	apptID := a.ID
	p := &prescription.Prescription{
		AppointmentID: &apptID,
		PatientID:     a.PatientID,
		DoctorID:      a.DoctorID,
		PatientName:   patient.Name,
		DoctorName:    a.DoctorName,
		ClinicName:    s.clinic.Name,
		ClinicWebsite: s.clinic.Website,
		Date:          time.Now(),
		Medicines:     in.Medicines,
		Notes:         in.Notes,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.prescriptions.Create(ctx, p); err != nil {
			return err
		}
		return s.appointments.UpdateStatus(ctx, id, StatusCompleted)
	})
	if err != nil {
		return nil, apierror.Unexpected("failed to complete appointment")
	}
	return p, nil
}

// List returns the role-scoped appointment listing. Patients see upcoming
// non-cancelled bookings, doctors their own non-cancelled ones, admins
// everything.
func (s *Service) List(ctx context.Context, actor auth.Actor, limit, offset int) ([]*Appointment, int, error) {
	switch actor.Role {
	case auth.RolePatient:
		return s.appointments.ListByPatient(ctx, actor.ID, time.Now(), limit, offset)
	case auth.RoleDoctor:
		return s.appointments.ListByDoctor(ctx, actor.ID, limit, offset)
	case auth.RoleAdmin:
		return s.appointments.List(ctx, limit, offset)
	default:
		return nil, 0, apierror.Forbidden("access denied")
	}
}
