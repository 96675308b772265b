package availability

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a fixed bookable interval on a doctor's calendar. Its identity is
// the three-part key (Doctor, Date, StartTime). IsBooked and PatientID are
// always set or cleared together.
type Slot struct {
	Doctor          string
	Date            time.Time
	StartTime       string // "15:04"
	EndTime         string // "15:04"
	DurationMinutes int
	IsBooked        bool
	PatientID       *uuid.UUID
}
