package prescription

import (
	"time"

	"github.com/google/uuid"
)

// Medicine is a single entry on a prescription. Only the name is mandatory.
type Medicine struct {
	Name         string `json:"name"`
	Dosage       string `json:"dosage,omitempty"`
	Frequency    string `json:"frequency,omitempty"`
	Duration     string `json:"duration,omitempty"`
	Instructions string `json:"instructions,omitempty"`
}

// Prescription maps to the prescriptions table. Medicines are stored as a
// JSONB column. Records are immutable once created; no update or delete
// operation exists.
type Prescription struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	PatientName   string     `db:"patient_name" json:"patient_name"`
	DoctorName    string     `db:"doctor_name" json:"doctor_name"`
	ClinicName    string     `db:"clinic_name" json:"clinic_name"`
	ClinicWebsite string     `db:"clinic_website" json:"clinic_website,omitempty"`
	Date          time.Time  `db:"date" json:"date"`
	Medicines     []Medicine `db:"medicines" json:"medicines"`
	Notes         string     `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// OwnerPatient implements the ownership policy resource contract.
func (p *Prescription) OwnerPatient() uuid.UUID { return p.PatientID }

// OwnerDoctor implements the ownership policy resource contract.
func (p *Prescription) OwnerDoctor() (uuid.UUID, bool) {
	return p.DoctorID, p.DoctorID != uuid.Nil
}
