package availability

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrSlotNotFound      = errors.New("slot not found")
	ErrSlotAlreadyBooked = errors.New("slot already booked")
)

// Store holds the bookable slots per (doctor, date).
type Store interface {
	// ListAvailable returns the unbooked slots for the doctor on that date,
	// ordered by start time. An unknown doctor/date yields an empty slice,
	// not an error.
	ListAvailable(ctx context.Context, doctor string, date time.Time) ([]Slot, error)

	// GetSlot loads a single slot by its three-part key regardless of
	// booking state.
	GetSlot(ctx context.Context, doctor string, date time.Time, startTime string) (*Slot, error)

	// Reserve marks the slot booked for the patient. Exactly one Reserve may
	// succeed per slot key; later callers get ErrSlotAlreadyBooked.
	Reserve(ctx context.Context, doctor string, date time.Time, startTime string, patientID uuid.UUID) error

	// Release undoes a reservation. Used only to compensate when the
	// appointment write fails after the slot was already taken.
	Release(ctx context.Context, doctor string, date time.Time, startTime string) error

	// ListDoctors and ListDates back the API's discovery endpoints.
	ListDoctors(ctx context.Context) ([]string, error)
	ListDates(ctx context.Context, doctor string) ([]time.Time, error)
}
