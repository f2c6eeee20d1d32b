package testbooking

import (
	"time"

	"github.com/google/uuid"
)

// Booking statuses. Transitions are deliberately permissive: status writes
// overwrite whatever is there, terminal or not.
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
	StatusCanceled  = "Canceled"
)

var validStatuses = map[string]bool{
	StatusPending: true, StatusCompleted: true, StatusCanceled: true,
}

var validTimeSlots = map[string]bool{
	"Morning": true, "Afternoon": true, "Evening": true,
}

const (
	PaymentOnline = "Online"
	PaymentCash   = "Cash"
)

var validPaymentModes = map[string]bool{PaymentOnline: true, PaymentCash: true}

// TestDetails carries catalog fields joined onto listed bookings.
type TestDetails struct {
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	ReportTime string  `json:"report_time,omitempty"`
}

// TestBooking maps to the test_bookings table. DoctorID is reserved for a
// future assignment workflow and is never written today.
type TestBooking struct {
	ID          uuid.UUID    `db:"id" json:"id"`
	PatientID   uuid.UUID    `db:"patient_id" json:"patient_id"`
	DoctorID    *uuid.UUID   `db:"doctor_id" json:"doctor_id,omitempty"`
	TestID      uuid.UUID    `db:"test_id" json:"test_id"`
	Date        time.Time    `db:"date" json:"date"`
	TimeSlot    string       `db:"time_slot" json:"time_slot"`
	PaymentMode string       `db:"payment_mode" json:"payment_mode"`
	Status      string       `db:"status" json:"status"`
	ReportFile  string       `db:"report_file" json:"report_file,omitempty"`
	Notes       string       `db:"notes" json:"notes,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
	Test        *TestDetails `db:"-" json:"test,omitempty"`
	PatientName string       `db:"-" json:"patient_name,omitempty"`
	DoctorName  string       `db:"-" json:"doctor_name,omitempty"`
}

// OwnerPatient implements the ownership policy resource contract.
func (b *TestBooking) OwnerPatient() uuid.UUID { return b.PatientID }

// OwnerDoctor implements the ownership policy resource contract.
func (b *TestBooking) OwnerDoctor() (uuid.UUID, bool) {
	if b.DoctorID == nil {
		return uuid.Nil, false
	}
	return *b.DoctorID, true
}

// LabManaged lets the lab role operate on bookings without an ownership
// relation.
func (b *TestBooking) LabManaged() bool { return true }
