package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface so the store can be tested with a mock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgStore struct {
	db DB
}

func NewPgStore(db DB) *PgStore {
	return &PgStore{db: db}
}

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	var patientID *uuid.UUID

	err := row.Scan(
		&s.Doctor,
		&s.Date,
		&s.StartTime,
		&s.EndTime,
		&s.DurationMinutes,
		&s.IsBooked,
		&patientID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}

	s.PatientID = patientID
	return &s, nil
}

func (st *PgStore) ListAvailable(ctx context.Context, doctor string, date time.Time) ([]Slot, error) {
	rows, err := st.db.Query(ctx, `
		SELECT doctor, slot_date, start_time, end_time, duration_minutes, is_booked, patient_id
		FROM availability_slots
		WHERE doctor = $1 AND slot_date = $2 AND is_booked = false
		ORDER BY start_time ASC
	`, doctor, date)
	if err != nil {
		return nil, fmt.Errorf("list available slots: %w", err)
	}
	defer rows.Close()

	var result []Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (st *PgStore) GetSlot(ctx context.Context, doctor string, date time.Time, startTime string) (*Slot, error) {
	row := st.db.QueryRow(ctx, `
		SELECT doctor, slot_date, start_time, end_time, duration_minutes, is_booked, patient_id
		FROM availability_slots
		WHERE doctor = $1 AND slot_date = $2 AND start_time = $3
	`, doctor, date, startTime)
	return scanSlot(row)
}

// Reserve is a conditional update: the `is_booked = false` predicate is the
// compare-and-swap that makes concurrent reservations lose cleanly instead
// of silently overwriting each other.
func (st *PgStore) Reserve(ctx context.Context, doctor string, date time.Time, startTime string, patientID uuid.UUID) error {
	tag, err := st.db.Exec(ctx, `
		UPDATE availability_slots
		SET is_booked = true,
		    patient_id = $4
		WHERE doctor = $1
		  AND slot_date = $2
		  AND start_time = $3
		  AND is_booked = false
	`, doctor, date, startTime, patientID)
	if err != nil {
		return fmt.Errorf("reserve slot: %w", err)
	}

	if tag.RowsAffected() > 0 {
		return nil
	}

	// No row matched: either the slot does not exist or someone else won it.
	slot, err := st.GetSlot(ctx, doctor, date, startTime)
	if err != nil {
		return err
	}
	if slot.IsBooked {
		return ErrSlotAlreadyBooked
	}
	return ErrSlotNotFound
}

func (st *PgStore) Release(ctx context.Context, doctor string, date time.Time, startTime string) error {
	tag, err := st.db.Exec(ctx, `
		UPDATE availability_slots
		SET is_booked = false,
		    patient_id = NULL
		WHERE doctor = $1
		  AND slot_date = $2
		  AND start_time = $3
		  AND is_booked = true
	`, doctor, date, startTime)
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

func (st *PgStore) ListDoctors(ctx context.Context) ([]string, error) {
	rows, err := st.db.Query(ctx, `
		SELECT DISTINCT doctor
		FROM availability_slots
		ORDER BY doctor ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}

	return doctors, rows.Err()
}

func (st *PgStore) ListDates(ctx context.Context, doctor string) ([]time.Time, error) {
	rows, err := st.db.Query(ctx, `
		SELECT DISTINCT slot_date
		FROM availability_slots
		WHERE doctor = $1 AND is_booked = false
		ORDER BY slot_date ASC
	`, doctor)
	if err != nil {
		return nil, fmt.Errorf("list dates: %w", err)
	}
	defer rows.Close()

	var dates []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}

	return dates, rows.Err()
}
