package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/siva23367/clinic-scheduler/internal/db"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS availability_slots (
		doctor TEXT NOT NULL,
		slot_date DATE NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		duration_minutes INT NOT NULL,
		is_booked BOOLEAN NOT NULL DEFAULT false,
		patient_id UUID,
		PRIMARY KEY (doctor, slot_date, start_time)
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		dob TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id UUID PRIMARY KEY,
		patient_id UUID NOT NULL,
		patient_name TEXT NOT NULL,
		patient_email TEXT NOT NULL,
		patient_phone TEXT NOT NULL DEFAULT '',
		doctor TEXT NOT NULL,
		appt_date DATE NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		duration_minutes INT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		forms_sent BOOLEAN NOT NULL DEFAULT false,
		forms_completed BOOLEAN NOT NULL DEFAULT false,
		visit_confirmed BOOLEAN NOT NULL DEFAULT false,
		cancellation_reason TEXT NOT NULL DEFAULT '',
		reminder1_sent BOOLEAN NOT NULL DEFAULT false,
		reminder2_sent BOOLEAN NOT NULL DEFAULT false,
		reminder3_sent BOOLEAN NOT NULL DEFAULT false,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments (status)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_patient_email ON appointments (patient_email)`,
	`CREATE TABLE IF NOT EXISTS event_logs (
		id BIGSERIAL PRIMARY KEY,
		event_type TEXT NOT NULL,
		appointment_id UUID,
		payload JSONB,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if err := createSchema(context.Background(), pool); err != nil {
		log.Fatalf("create schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedSlots(context.Background(), pool, 8, 14); err != nil {
		log.Fatalf("seed slots: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 500); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func createSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	log.Println("schema ready")
	return nil
}

// seedSlots fills the next `days` days with 30- and 60-minute slots for
// `doctors` generated doctors, 09:00 to 17:00.
func seedSlots(ctx context.Context, pool *pgxpool.Pool, doctors, days int) error {
	log.Printf("seeding slots for %d doctors over %d days", doctors, days)

	names := make([]string, 0, doctors)
	for i := 0; i < doctors; i++ {
		names = append(names, "Dr. "+gofakeit.LastName())
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	total := 0
	for _, doctor := range names {
		for d := 0; d < days; d++ {
			date := today.AddDate(0, 0, d)
			minute := 9 * 60 // start of day, minutes since midnight
			for minute < 17*60 {
				duration := 30
				if gofakeit.Bool() {
					duration = 60
				}
				if minute+duration > 17*60 {
					break
				}

				start := fmt.Sprintf("%02d:%02d", minute/60, minute%60)
				end := fmt.Sprintf("%02d:%02d", (minute+duration)/60, (minute+duration)%60)

				_, err := tx.Exec(ctx, `
					INSERT INTO availability_slots (doctor, slot_date, start_time, end_time, duration_minutes)
					VALUES ($1, $2, $3, $4, $5)
					ON CONFLICT (doctor, slot_date, start_time) DO NOTHING
				`, doctor, date, start, end, duration)
				if err != nil {
					return err
				}

				total++
				minute += duration
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Printf("slots seeded: %d", total)
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const batchSize = 100

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			name := gofakeit.Name()
			dob := gofakeit.DateRange(
				time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC),
			).Format("2006-01-02")
			email := gofakeit.Email()
			phone := gofakeit.Numerify("9#########")

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, dob, email, phone, created_at)
				VALUES ($1, $2, $3, $4, $5, now())
			`, id, name, dob, email, phone)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	return nil
}
