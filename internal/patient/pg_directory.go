package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface so the directory can be tested with a mock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgDirectory struct {
	db DB
}

func NewPgDirectory(db DB) *PgDirectory {
	return &PgDirectory{db: db}
}

func (d *PgDirectory) Classify(ctx context.Context, name, dob string) (Classification, error) {
	var id uuid.UUID

	err := d.db.QueryRow(ctx, `
		SELECT id
		FROM patients
		WHERE lower(name) = lower($1) AND dob = $2
	`, name, dob).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Classification{PatientID: uuid.New(), IsNewPatient: true}, nil
		}
		return Classification{}, fmt.Errorf("classify patient: %w", err)
	}

	return Classification{PatientID: id, IsNewPatient: false}, nil
}

func (d *PgDirectory) Register(ctx context.Context, p Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	_, err := d.db.Exec(ctx, `
		INSERT INTO patients (id, name, dob, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, p.ID, p.Name, p.DOB, p.Email, p.Phone)
	if err != nil {
		return fmt.Errorf("register patient: %w", err)
	}

	return nil
}
