package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/siva23367/clinic-scheduler/internal/availability"
	"github.com/siva23367/clinic-scheduler/internal/booking"
)

type BookAppointmentRequest struct {
	PatientName  string `json:"patient_name"`
	DateOfBirth  string `json:"date_of_birth"`
	PatientEmail string `json:"patient_email"`
	PatientPhone string `json:"patient_phone"`
	Doctor       string `json:"doctor"`
	Date         string `json:"date"` // "2006-01-02"
	StartTime    string `json:"start_time"`
	Reason       string `json:"reason"`
}

type FormsStatusRequest struct {
	Completed bool `json:"completed"`
}

type VisitStatusRequest struct {
	Confirmed bool   `json:"confirmed"`
	Reason    string `json:"reason,omitempty"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type SlotResponse struct {
	Doctor          string `json:"doctor"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

type AppointmentResponse struct {
	ID                 uuid.UUID `json:"id"`
	PatientID          uuid.UUID `json:"patient_id"`
	PatientName        string    `json:"patient_name"`
	PatientEmail       string    `json:"patient_email"`
	Doctor             string    `json:"doctor"`
	Date               string    `json:"date"`
	StartTime          string    `json:"start_time"`
	EndTime            string    `json:"end_time"`
	DurationMinutes    int       `json:"duration_minutes"`
	Reason             string    `json:"reason"`
	Status             string    `json:"status"`
	FormsSent          bool      `json:"forms_sent"`
	FormsCompleted     bool      `json:"forms_completed"`
	VisitConfirmed     bool      `json:"visit_confirmed"`
	CancellationReason string    `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toSlotResponse(s availability.Slot) SlotResponse {
	return SlotResponse{
		Doctor:          s.Doctor,
		Date:            s.Date.Format("2006-01-02"),
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		DurationMinutes: s.DurationMinutes,
	}
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                 a.ID,
		PatientID:          a.PatientID,
		PatientName:        a.PatientName,
		PatientEmail:       a.PatientEmail,
		Doctor:             a.Doctor,
		Date:               a.Date.Format("2006-01-02"),
		StartTime:          a.StartTime,
		EndTime:            a.EndTime,
		DurationMinutes:    a.DurationMinutes,
		Reason:             a.Reason,
		Status:             string(a.Status),
		FormsSent:          a.FormsSent,
		FormsCompleted:     a.FormsCompleted,
		VisitConfirmed:     a.VisitConfirmed,
		CancellationReason: a.CancellationReason,
		CreatedAt:          a.CreatedAt,
	}
}
