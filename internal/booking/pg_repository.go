package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const appointmentColumns = `
	id, patient_id, patient_name, patient_email, patient_phone,
	doctor, appt_date, start_time, end_time, duration_minutes, reason, status,
	forms_sent, forms_completed, visit_confirmed, cancellation_reason,
	reminder1_sent, reminder2_sent, reminder3_sent,
	created_at, updated_at`

// DB abstracts the pgx query interface so the repository can be tested with a mock pool.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgRepository struct {
	db DB
}

func NewPgRepository(db DB) *PgRepository {
	return &PgRepository{db: db}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.PatientName,
		&a.PatientEmail,
		&a.PatientPhone,
		&a.Doctor,
		&a.Date,
		&a.StartTime,
		&a.EndTime,
		&a.DurationMinutes,
		&a.Reason,
		&a.Status,
		&a.FormsSent,
		&a.FormsCompleted,
		&a.VisitConfirmed,
		&a.CancellationReason,
		&a.Reminder1Sent,
		&a.Reminder2Sent,
		&a.Reminder3Sent,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func (r *PgRepository) Insert(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO appointments (
			id, patient_id, patient_name, patient_email, patient_phone,
			doctor, appt_date, start_time, end_time, duration_minutes, reason, status,
			forms_sent, forms_completed, visit_confirmed, cancellation_reason,
			reminder1_sent, reminder2_sent, reminder3_sent,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, now(), now())
	`,
		a.ID, a.PatientID, a.PatientName, a.PatientEmail, a.PatientPhone,
		a.Doctor, a.Date, a.StartTime, a.EndTime, a.DurationMinutes, a.Reason, a.Status,
		a.FormsSent, a.FormsCompleted, a.VisitConfirmed, a.CancellationReason,
		a.Reminder1Sent, a.Reminder2Sent, a.Reminder3Sent,
	)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}

	return nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListByEmail(ctx context.Context, email string) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_email = $1
		ORDER BY appt_date ASC, start_time ASC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("list appointments by email: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListActive(ctx context.Context) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status <> 'cancelled'
		ORDER BY appt_date ASC, start_time ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list active appointments: %w", err)
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *PgRepository) SetFormsSent(ctx context.Context, id uuid.UUID, sent bool) error {
	return r.setFlag(ctx, id, "forms_sent", sent)
}

func (r *PgRepository) SetFormsCompleted(ctx context.Context, id uuid.UUID, completed bool) error {
	return r.setFlag(ctx, id, "forms_completed", completed)
}

func (r *PgRepository) setFlag(ctx context.Context, id uuid.UUID, column string, value bool) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET `+column+` = $2,
		    updated_at = now()
		WHERE id = $1
	`, id, value)
	if err != nil {
		return fmt.Errorf("update %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) SetVisitStatus(ctx context.Context, id uuid.UUID, confirmed bool, reason string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET visit_confirmed = $2,
		    cancellation_reason = $3,
		    updated_at = now()
		WHERE id = $1
	`, id, confirmed, reason)
	if err != nil {
		return fmt.Errorf("update visit status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *PgRepository) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
		    visit_confirmed = false,
		    cancellation_reason = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status <> 'cancelled'
	`, id, reason)
	if err != nil {
		return fmt.Errorf("cancel appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

var reminderColumns = map[int]string{
	1: "reminder1_sent",
	2: "reminder2_sent",
	3: "reminder3_sent",
}

func (r *PgRepository) MarkRemindersSent(ctx context.Context, stage int, ids []uuid.UUID) error {
	column, ok := reminderColumns[stage]
	if !ok {
		return fmt.Errorf("invalid reminder stage %d", stage)
	}
	if len(ids) == 0 {
		return nil
	}

	_, err := r.db.Exec(ctx, `
		UPDATE appointments
		SET `+column+` = true,
		    updated_at = now()
		WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return fmt.Errorf("mark stage %d reminders sent: %w", stage, err)
	}

	return nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
