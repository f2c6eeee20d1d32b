package testbooking

import (
	"context"
	"fmt"

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

const bookingCols = `b.id, b.patient_id, b.doctor_id, b.test_id, b.date, b.time_slot,
	b.payment_mode, b.status, b.report_file, b.notes, b.created_at, b.updated_at`

const bookingJoinedCols = bookingCols + `, t.name, t.price, t.report_time, pa.name, da.name`

func scanBooking(row pgx.Row) (*TestBooking, error) {
	var b TestBooking
	err := row.Scan(&b.ID, &b.PatientID, &b.DoctorID, &b.TestID, &b.Date, &b.TimeSlot,
		&b.PaymentMode, &b.Status, &b.ReportFile, &b.Notes, &b.CreatedAt, &b.UpdatedAt)
	return &b, err
}

func scanJoinedBooking(row pgx.Row) (*TestBooking, error) {
	var b TestBooking
	var testName, testReportTime, patientName, doctorName *string
	var testPrice *float64
	err := row.Scan(&b.ID, &b.PatientID, &b.DoctorID, &b.TestID, &b.Date, &b.TimeSlot,
		&b.PaymentMode, &b.Status, &b.ReportFile, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
		&testName, &testPrice, &testReportTime, &patientName, &doctorName)
	if err != nil {
		return nil, err
	}
	if testName != nil {
		details := TestDetails{Name: *testName}
		if testPrice != nil {
			details.Price = *testPrice
		}
		if testReportTime != nil {
			details.ReportTime = *testReportTime
		}
		b.Test = &details
	}
	if patientName != nil {
		b.PatientName = *patientName
	}
	if doctorName != nil {
		b.DoctorName = *doctorName
	}
	return &b, nil
}

func (r *repoPG) Create(ctx context.Context, b *TestBooking) error {
	b.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO test_bookings (id, patient_id, doctor_id, test_id, date, time_slot,
			payment_mode, status, report_file, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		b.ID, b.PatientID, b.DoctorID, b.TestID, b.Date, b.TimeSlot,
		b.PaymentMode, b.Status, b.ReportFile, b.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*TestBooking, error) {
	return scanBooking(r.conn(ctx).QueryRow(ctx,
		`SELECT `+bookingCols+` FROM test_bookings b WHERE b.id = $1`, id))
}

func (r *repoPG) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE test_bookings SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *repoPG) SetReport(ctx context.Context, id uuid.UUID, reportFile string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE test_bookings SET report_file = $2, status = $3, updated_at = NOW()
		WHERE id = $1`, id, reportFile, StatusCompleted)
	return err
}

func (r *repoPG) SetNotes(ctx context.Context, id uuid.UUID, notes string) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE test_bookings SET notes = $2, updated_at = NOW() WHERE id = $1`, id, notes)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM test_bookings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repoPG) listJoined(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*TestBooking, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM test_bookings b `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	query := fmt.Sprintf(`SELECT `+bookingJoinedCols+` FROM test_bookings b
		LEFT JOIN tests t ON t.id = b.test_id
		LEFT JOIN accounts pa ON pa.id = b.patient_id
		LEFT JOIN accounts da ON da.id = b.doctor_id %s
		ORDER BY b.created_at DESC LIMIT $%d OFFSET $%d`, where, n+1, n+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*TestBooking
	for rows.Next() {
		b, err := scanJoinedBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*TestBooking, int, error) {
	return r.listJoined(ctx, `WHERE b.patient_id = $1`, []interface{}{patientID}, limit, offset)
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*TestBooking, int, error) {
	return r.listJoined(ctx, `WHERE b.doctor_id = $1`, []interface{}{doctorID}, limit, offset)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*TestBooking, int, error) {
	return r.listJoined(ctx, ``, nil, limit, offset)
}
