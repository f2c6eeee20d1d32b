package testcatalog

import (
	"time"

	"github.com/google/uuid"
)

// Test is a lab test offered by the clinic. Price and report time are
// informational and copied onto bookings at display time, not snapshotted.
type Test struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description,omitempty"`
	Price       float64   `db:"price" json:"price"`
	ReportTime  string    `db:"report_time" json:"report_time,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
