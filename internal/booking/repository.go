package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrAppointmentNotFound = errors.New("appointment not found")

// Repository contains all appointment persistence needed by the booking
// service and the reminder sweep.
type Repository interface {
	Insert(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListByEmail(ctx context.Context, email string) ([]Appointment, error)

	// ListActive returns every appointment whose status is not cancelled.
	ListActive(ctx context.Context) ([]Appointment, error)

	SetFormsSent(ctx context.Context, id uuid.UUID, sent bool) error
	SetFormsCompleted(ctx context.Context, id uuid.UUID, completed bool) error
	SetVisitStatus(ctx context.Context, id uuid.UUID, confirmed bool, reason string) error
	Cancel(ctx context.Context, id uuid.UUID, reason string) error

	// MarkRemindersSent flips the flag for one reminder stage (1..3) on all
	// given appointments in a single write.
	MarkRemindersSent(ctx context.Context, stage int, ids []uuid.UUID) error

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
