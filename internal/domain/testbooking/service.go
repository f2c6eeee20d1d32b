package testbooking

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prescripto/prescripto/internal/domain/identity"
	"github.com/prescripto/prescripto/internal/domain/testcatalog"
	"github.com/prescripto/prescripto/internal/platform/apierror"
	"github.com/prescripto/prescripto/internal/platform/auth"
	"github.com/prescripto/prescripto/internal/platform/blobstore"
)

// Catalog resolves booked tests. Satisfied by the testcatalog service.
type Catalog interface {
	Get(ctx context.Context, id uuid.UUID) (*testcatalog.Test, error)
}

// Directory resolves the booking patient for notifications. Satisfied by the
// identity service.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*identity.Account, error)
}

// TxRunner wraps compound transitions in one transactional unit.
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier dispatches the booking confirmation. Failures never surface.
type Notifier interface {
	TestBooked(ctx context.Context, to string, data map[string]string)
}

// loadError keeps missing rows distinct from storage outages.
func loadError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apierror.NotFound("booking not found")
	}
	return apierror.Unexpected("failed to load booking")
}

type Service struct {
	bookings  Repository
	catalog   Catalog
	directory Directory
	store     blobstore.Store
	tx        TxRunner
	notifier  Notifier
}

func NewService(bookings Repository, catalog Catalog, directory Directory, store blobstore.Store, tx TxRunner, notifier Notifier) *Service {
	return &Service{
		bookings:  bookings,
		catalog:   catalog,
		directory: directory,
		store:     store,
		tx:        tx,
		notifier:  notifier,
	}
}

// CreateInput carries the client-supplied fields for a new booking.
type CreateInput struct {
	TestID      uuid.UUID `json:"test_id"`
	Date        time.Time `json:"date"`
	TimeSlot    string    `json:"time_slot"`
	PaymentMode string    `json:"payment_mode"`
}

// Create books a test for the acting patient. Payment mode defaults to Cash.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (*TestBooking, error) {
	if in.Date.IsZero() {
		return nil, apierror.Validation("date is required")
	}
	if !validTimeSlots[in.TimeSlot] {
		return nil, apierror.Validation("time_slot must be Morning, Afternoon or Evening")
	}
	if in.PaymentMode == "" {
		in.PaymentMode = PaymentCash
	}
	if !validPaymentModes[in.PaymentMode] {
		return nil, apierror.Validation("payment_mode must be Online or Cash")
	}

	test, err := s.catalog.Get(ctx, in.TestID)
	if err != nil {
		if apierror.CodeOf(err) == apierror.CodeNotFound {
			return nil, apierror.NotFound("test not found")
		}
		return nil, err
	}

	b := &TestBooking{
		PatientID:   actor.ID,
		TestID:      test.ID,
		Date:        in.Date,
		TimeSlot:    in.TimeSlot,
		PaymentMode: in.PaymentMode,
		Status:      StatusPending,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, apierror.Unexpected("failed to create booking")
	}

	s.notify(ctx, b, test)
	return b, nil
}

func (s *Service) notify(ctx context.Context, b *TestBooking, test *testcatalog.Test) {
	patient, err := s.directory.Get(ctx, b.PatientID)
	if err != nil {
		return
	}
	s.notifier.TestBooked(ctx, patient.Email, map[string]string{
		"patient_name": patient.Name,
		"test_name":    test.Name,
		"date":         b.Date.Format("2006-01-02"),
		"time_slot":    b.TimeSlot,
		"price":        fmt.Sprintf("%.2f", test.Price),
		"payment_mode": b.PaymentMode,
	})
}

// Get loads a booking and applies the ownership policy.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*TestBooking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, loadError(err)
	}
	if auth.Authorize(actor, b, auth.ActionRead) != auth.Allow {
		return nil, apierror.Forbidden("access denied")
	}
	return b, nil
}

// SetStatus overwrites the booking status. No transition rules apply: staff
// may move a completed booking back to pending or cancel it outright.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string) (*TestBooking, error) {
	if !validStatuses[status] {
		return nil, apierror.Validation("status must be Pending, Completed or Canceled")
	}
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, loadError(err)
	}
	if err := s.bookings.SetStatus(ctx, id, status); err != nil {
		return nil, apierror.Unexpected("failed to update status")
	}
	b.Status = status
	return b, nil
}

// UploadReport stores the PDF and, in one transaction, records its path and
// marks the booking completed. A rejected or failed upload leaves the booking
// untouched.
func (s *Service) UploadReport(ctx context.Context, id uuid.UUID, contentType string, file io.Reader) (*TestBooking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, loadError(err)
	}

	ref, err := s.store.Save(ctx, contentType, file)
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrInvalidContentType):
			return nil, apierror.UnsupportedMedia("report must be a PDF")
		case errors.Is(err, blobstore.ErrFileTooLarge):
			return nil, apierror.Validation("report exceeds the size limit")
		default:
			return nil, apierror.Unexpected("failed to store report")
		}
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.bookings.SetReport(ctx, id, ref)
	})
	if err != nil {
		// Best effort: do not leave an orphaned file behind.
		_ = s.store.Delete(ctx, ref)
		return nil, apierror.Unexpected("failed to record report")
	}

	b.ReportFile = ref
	b.Status = StatusCompleted
	return b, nil
}

// UpdateNotes overwrites the booking notes.
func (s *Service) UpdateNotes(ctx context.Context, actor auth.Actor, id uuid.UUID, notes string) (*TestBooking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, loadError(err)
	}
	if auth.Authorize(actor, b, auth.ActionMutate) != auth.Allow {
		return nil, apierror.Forbidden("access denied")
	}
	if err := s.bookings.SetNotes(ctx, id, notes); err != nil {
		return nil, apierror.Unexpected("failed to update notes")
	}
	b.Notes = notes
	return b, nil
}

// Cancel sets status to Canceled regardless of the current status.
func (s *Service) Cancel(ctx context.Context, actor auth.Actor, id uuid.UUID) (*TestBooking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, loadError(err)
	}
	if auth.Authorize(actor, b, auth.ActionMutate) != auth.Allow {
		return nil, apierror.Forbidden("access denied")
	}
	if err := s.bookings.SetStatus(ctx, id, StatusCanceled); err != nil {
		return nil, apierror.Unexpected("failed to cancel booking")
	}
	b.Status = StatusCanceled
	return b, nil
}

// Delete removes the booking permanently.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.bookings.GetByID(ctx, id); err != nil {
		return loadError(err)
	}
	if err := s.bookings.Delete(ctx, id); err != nil {
		return apierror.Unexpected("failed to delete booking")
	}
	return nil
}

// List returns the role-scoped booking listing, test-joined, newest first.
func (s *Service) List(ctx context.Context, actor auth.Actor, limit, offset int) ([]*TestBooking, int, error) {
	switch actor.Role {
	case auth.RolePatient:
		return s.bookings.ListByPatient(ctx, actor.ID, limit, offset)
	case auth.RoleDoctor:
		return s.bookings.ListByDoctor(ctx, actor.ID, limit, offset)
	case auth.RoleAdmin, auth.RoleLab:
		return s.bookings.List(ctx, limit, offset)
	default:
		return nil, 0, apierror.Forbidden("access denied")
	}
}
