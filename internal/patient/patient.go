package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID        uuid.UUID
	Name      string
	DOB       string // "2006-01-02"
	Email     string
	Phone     string
	CreatedAt time.Time
}

// Classification drives the slot-duration policy: a new patient needs a
// 60-minute slot, a returning one 30 minutes.
type Classification struct {
	PatientID    uuid.UUID
	IsNewPatient bool
}

// RequiredDuration returns the slot length in minutes this patient must book.
func (c Classification) RequiredDuration() int {
	if c.IsNewPatient {
		return 60
	}
	return 30
}

// Directory looks up and registers patients.
type Directory interface {
	// Classify finds a patient by name and date of birth. Unknown patients
	// are classified as new and get a freshly generated ID; they are only
	// persisted via Register once a booking succeeds.
	Classify(ctx context.Context, name, dob string) (Classification, error)

	// Register stores a new patient record.
	Register(ctx context.Context, p Patient) error
}
