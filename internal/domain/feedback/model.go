package feedback

import (
	"time"

	"github.com/google/uuid"
)

// Feedback is a patient-submitted message with a rating. The patient name and
// email are joined from the accounts table for the admin listing and never
// stored on the row itself.
type Feedback struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PatientID uuid.UUID `json:"patient_id" db:"patient_id"`
	Message   string    `json:"message" db:"message"`
	Rating    int       `json:"rating" db:"rating"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	PatientName  string `json:"patient_name,omitempty" db:"-"`
	PatientEmail string `json:"patient_email,omitempty" db:"-"`
}
