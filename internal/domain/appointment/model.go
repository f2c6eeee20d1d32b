package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses. Booked is the only non-terminal state.
const (
	StatusBooked    = "booked"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// PrescriptionSummary is attached to listed appointments when a prescription
// references them.
type PrescriptionSummary struct {
	ID    uuid.UUID `json:"id"`
	Date  time.Time `json:"date"`
	Notes string    `json:"notes,omitempty"`
}

// Appointment maps to the appointments table. Doctor name, speciality and fee
// are snapshots taken at booking time so later doctor edits never alter
// historical records.
type Appointment struct {
	ID           uuid.UUID            `db:"id" json:"id"`
	PatientID    uuid.UUID            `db:"patient_id" json:"patient_id"`
	DoctorID     uuid.UUID            `db:"doctor_id" json:"doctor_id"`
	DoctorName   string               `db:"doctor_name" json:"doctor_name"`
	Speciality   string               `db:"speciality" json:"speciality"`
	Fee          float64              `db:"fee" json:"fee"`
	Date         time.Time            `db:"date" json:"date"`
	TimeSlot     string               `db:"time_slot" json:"time_slot"`
	Age          *int                 `db:"age" json:"age,omitempty"`
	Gender       *string              `db:"gender" json:"gender,omitempty"`
	Phone        string               `db:"phone" json:"phone"`
	Status       string               `db:"status" json:"status"`
	CreatedAt    time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time            `db:"updated_at" json:"updated_at"`
	Prescription *PrescriptionSummary `db:"-" json:"prescription,omitempty"`
}

// OwnerPatient implements the ownership policy resource contract.
func (a *Appointment) OwnerPatient() uuid.UUID { return a.PatientID }

// OwnerDoctor implements the ownership policy resource contract. Appointments
// always carry a doctor.
func (a *Appointment) OwnerDoctor() (uuid.UUID, bool) {
	return a.DoctorID, a.DoctorID != uuid.Nil
}
