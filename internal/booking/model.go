package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/siva23367/clinic-scheduler/internal/notify"
)

type Status string

const (
	StatusPendingConfirmation Status = "pending_confirmation"
	StatusConfirmed           Status = "confirmed"
	StatusCancelled           Status = "cancelled"
)

// Appointment is the durable record of a reservation. Rows are never
// deleted; cancelled appointments stay as an audit trail. The three reminder
// flags only ever move false -> true.
type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	PatientName     string
	PatientEmail    string
	PatientPhone    string
	Doctor          string
	Date            time.Time
	StartTime       string
	EndTime         string
	DurationMinutes int
	Reason          string
	Status          Status

	FormsSent          bool
	FormsCompleted     bool
	VisitConfirmed     bool
	CancellationReason string

	Reminder1Sent bool
	Reminder2Sent bool
	Reminder3Sent bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// VisitDetails adapts the appointment for the message templates.
func (a *Appointment) VisitDetails() notify.VisitDetails {
	return notify.VisitDetails{
		PatientName:     a.PatientName,
		PatientEmail:    a.PatientEmail,
		PatientPhone:    a.PatientPhone,
		Doctor:          a.Doctor,
		Date:            a.Date.Format("2006-01-02"),
		StartTime:       a.StartTime,
		EndTime:         a.EndTime,
		DurationMinutes: a.DurationMinutes,
		Reason:          a.Reason,
	}
}

// EventLog is an append-only audit record of booking activity.
type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       map[string]any
	CreatedAt     time.Time
}

// BookingRequest carries everything the engine needs to book a slot.
type BookingRequest struct {
	PatientName  string
	DateOfBirth  string // "2006-01-02"
	PatientEmail string
	PatientPhone string
	Doctor       string
	Date         time.Time
	StartTime    string
	Reason       string
}
