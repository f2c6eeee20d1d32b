package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prescripto/prescripto/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const apptCols = `a.id, a.patient_id, a.doctor_id, a.doctor_name, a.speciality, a.fee,
	a.date, a.time_slot, a.age, a.gender, a.phone, a.status, a.created_at, a.updated_at`

const apptJoinedCols = apptCols + `, p.id, p.date, p.notes`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.DoctorName, &a.Speciality, &a.Fee,
		&a.Date, &a.TimeSlot, &a.Age, &a.Gender, &a.Phone, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func scanJoinedAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var presID *uuid.UUID
	var presDate *time.Time
	var presNotes *string
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.DoctorName, &a.Speciality, &a.Fee,
		&a.Date, &a.TimeSlot, &a.Age, &a.Gender, &a.Phone, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		&presID, &presDate, &presNotes)
	if err != nil {
		return nil, err
	}
	if presID != nil {
		summary := PrescriptionSummary{ID: *presID}
		if presDate != nil {
			summary.Date = *presDate
		}
		if presNotes != nil {
			summary.Notes = *presNotes
		}
		a.Prescription = &summary
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, doctor_name, speciality, fee,
			date, time_slot, age, gender, phone, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		a.ID, a.PatientID, a.DoctorID, a.DoctorName, a.Speciality, a.Fee,
		a.Date, a.TimeSlot, a.Age, a.Gender, a.Phone, a.Status)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments a WHERE a.id = $1`, id))
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) listJoined(ctx context.Context, where string, orderBy string, args []interface{}, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments a `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apptJoinedCols + ` FROM appointments a
		LEFT JOIN prescriptions p ON p.appointment_id = a.id ` + where + orderBy
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := scanJoinedAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, from time.Time, limit, offset int) ([]*Appointment, int, error) {
	return r.listJoined(ctx,
		`WHERE a.patient_id = $1 AND a.status <> 'cancelled' AND a.date >= $2`,
		` ORDER BY a.date ASC LIMIT $3 OFFSET $4`,
		[]interface{}{patientID, from}, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.listJoined(ctx,
		`WHERE a.doctor_id = $1 AND a.status <> 'cancelled'`,
		` ORDER BY a.date DESC LIMIT $2 OFFSET $3`,
		[]interface{}{doctorID}, limit, offset)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return r.listJoined(ctx, ``, ` ORDER BY a.created_at DESC LIMIT $1 OFFSET $2`, nil, limit, offset)
}
