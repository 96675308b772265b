package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/siva23367/clinic-scheduler/internal/availability"
	"github.com/siva23367/clinic-scheduler/internal/booking"
	"github.com/siva23367/clinic-scheduler/pkg/logging"
)

// BookingService is the slice of the booking engine the handlers need.
type BookingService interface {
	Book(ctx context.Context, req booking.BookingRequest) (*booking.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*booking.Appointment, error)
	ListByEmail(ctx context.Context, email string) ([]booking.Appointment, error)
	SetFormsCompleted(ctx context.Context, id uuid.UUID, completed bool) error
	SetVisitStatus(ctx context.Context, id uuid.UUID, confirmed bool, reason string) error
	Cancel(ctx context.Context, id uuid.UUID, reason string) error
}

// AvailabilityService is the read side of the slot store.
type AvailabilityService interface {
	ListAvailable(ctx context.Context, doctor string, date time.Time) ([]availability.Slot, error)
	ListDoctors(ctx context.Context) ([]string, error)
	ListDates(ctx context.Context, doctor string) ([]time.Time, error)
}

type RouterConfig struct {
	Bookings BookingService
	Slots    AvailabilityService
	PgPool   *pgxpool.Pool
	Redis    *redis.Client
	Env      string
	Version  string
	Logger   *logging.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Get("/availability", listAvailabilityHandler(cfg.Slots))
	r.Get("/availability/doctors", listDoctorsHandler(cfg.Slots))
	r.Get("/availability/doctors/{doctor}/dates", listDatesHandler(cfg.Slots))

	r.Post("/appointments", bookAppointmentHandler(cfg.Bookings))
	r.Get("/appointments", listAppointmentsHandler(cfg.Bookings))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Bookings))
	r.Post("/appointments/{id}/forms", formsStatusHandler(cfg.Bookings))
	r.Post("/appointments/{id}/visit", visitStatusHandler(cfg.Bookings))
	r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Bookings))

	return r
}
