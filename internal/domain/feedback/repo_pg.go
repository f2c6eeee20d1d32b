package feedback

import (
	"context"

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

func (r *repoPG) Create(ctx context.Context, f *Feedback) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO feedback (id, patient_id, message, rating)
		VALUES ($1,$2,$3,$4)`,
		f.ID, f.PatientID, f.Message, f.Rating)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Feedback, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM feedback`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT f.id, f.patient_id, f.message, f.rating, f.created_at, a.name, a.email
		FROM feedback f
		LEFT JOIN accounts a ON a.id = f.patient_id
		ORDER BY f.created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Feedback
	for rows.Next() {
		var f Feedback
		var name, email *string
		if err := rows.Scan(&f.ID, &f.PatientID, &f.Message, &f.Rating, &f.CreatedAt, &name, &email); err != nil {
			return nil, 0, err
		}
		if name != nil {
			f.PatientName = *name
		}
		if email != nil {
			f.PatientEmail = *email
		}
		items = append(items, &f)
	}
	return items, total, nil
}
