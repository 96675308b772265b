package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/siva23367/clinic-scheduler/internal/availability"
	"github.com/siva23367/clinic-scheduler/internal/notify"
	"github.com/siva23367/clinic-scheduler/internal/patient"
	redisclient "github.com/siva23367/clinic-scheduler/internal/redis"
	"github.com/siva23367/clinic-scheduler/pkg/logging"
)

const (
	EventBookingCreated   = "BOOKING_CREATED"
	EventBookingCancelled = "BOOKING_CANCELLED"
)

var (
	ErrValidation      = errors.New("invalid booking request")
	ErrSlotUnavailable = errors.New("slot unavailable")
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

type Service struct {
	slots      availability.Store
	repo       Repository
	patients   patient.Directory
	locker     redisclient.Locker
	dispatcher notify.Dispatcher
	logger     *logging.Logger

	// Optional PDF attached to the intake-forms email.
	intakeFormPath string
}

func NewService(
	slots availability.Store,
	repo Repository,
	patients patient.Directory,
	locker redisclient.Locker,
	dispatcher notify.Dispatcher,
	intakeFormPath string,
	logger *logging.Logger,
) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		slots:          slots,
		repo:           repo,
		patients:       patients,
		locker:         locker,
		dispatcher:     dispatcher,
		intakeFormPath: intakeFormPath,
		logger:         logger,
	}
}

// Book validates the request, reserves the chosen slot and records the
// appointment. Confirmation and intake-form notifications are best-effort:
// their failure never rolls back a successful booking.
func (s *Service) Book(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	cls, err := s.patients.Classify(ctx, req.PatientName, req.DateOfBirth)
	if err != nil {
		return nil, fmt.Errorf("classify patient: %w", err)
	}

	slot, err := s.slots.GetSlot(ctx, req.Doctor, req.Date, req.StartTime)
	if err != nil {
		if errors.Is(err, availability.ErrSlotNotFound) {
			return nil, ErrSlotUnavailable
		}
		return nil, fmt.Errorf("load slot: %w", err)
	}

	// Duration comes from the patient classification, never from the
	// request, so a caller cannot book a mismatched slot length.
	if slot.DurationMinutes != cls.RequiredDuration() {
		return nil, fmt.Errorf("%w: slot duration is %d minutes, this patient requires %d",
			ErrValidation, slot.DurationMinutes, cls.RequiredDuration())
	}

	appt := &Appointment{
		ID:              uuid.New(),
		PatientID:       cls.PatientID,
		PatientName:     req.PatientName,
		PatientEmail:    req.PatientEmail,
		PatientPhone:    req.PatientPhone,
		Doctor:          req.Doctor,
		Date:            req.Date,
		StartTime:       slot.StartTime,
		EndTime:         slot.EndTime,
		DurationMinutes: slot.DurationMinutes,
		Reason:          req.Reason,
		Status:          StatusConfirmed,
		VisitConfirmed:  true,
	}

	lockKey := redisclient.SlotLockKey(req.Doctor, req.Date, req.StartTime)
	err = s.locker.WithLock(ctx, lockKey, func(lockCtx context.Context) error {
		if err := s.slots.Reserve(lockCtx, req.Doctor, req.Date, req.StartTime, cls.PatientID); err != nil {
			return err
		}

		if err := s.repo.Insert(lockCtx, appt); err != nil {
			// The slot was taken but the appointment write failed; undo
			// the reservation so the two stay paired.
			if relErr := s.slots.Release(lockCtx, req.Doctor, req.Date, req.StartTime); relErr != nil {
				s.logger.Error("failed to release slot after insert failure",
					"doctor", req.Doctor, "start_time", req.StartTime, "error", relErr)
			}
			return fmt.Errorf("insert appointment: %w", err)
		}

		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrSlotAlreadyBooked),
			errors.Is(err, availability.ErrSlotNotFound):
			return nil, ErrSlotUnavailable
		case errors.Is(err, redisclient.ErrLockNotAcquired):
			return nil, ErrSlotBeingBooked
		default:
			return nil, err
		}
	}

	if cls.IsNewPatient {
		p := patient.Patient{
			ID:    cls.PatientID,
			Name:  req.PatientName,
			DOB:   req.DateOfBirth,
			Email: req.PatientEmail,
			Phone: req.PatientPhone,
		}
		if err := s.patients.Register(ctx, p); err != nil {
			s.logger.Error("failed to register new patient", "patient_id", cls.PatientID, "error", err)
		}
	}

	s.logEvent(ctx, appt.ID, EventBookingCreated, map[string]any{
		"doctor":     appt.Doctor,
		"date":       appt.Date.Format("2006-01-02"),
		"start_time": appt.StartTime,
		"patient_id": cls.PatientID.String(),
	})

	s.sendBookingNotifications(ctx, appt)

	return appt, nil
}

func (s *Service) sendBookingNotifications(ctx context.Context, appt *Appointment) {
	details := appt.VisitDetails()

	for _, msg := range notify.ConfirmationMessages(details) {
		if err := s.dispatcher.Send(ctx, msg); err != nil {
			s.logger.Error("confirmation dispatch failed",
				"appointment_id", appt.ID, "channel", msg.Channel, "error", err)
		}
	}

	// forms_sent records that a dispatch attempt was made, not that
	// delivery succeeded.
	if err := s.dispatcher.Send(ctx, notify.IntakeFormsMessage(details, s.intakeFormPath)); err != nil {
		s.logger.Error("intake forms dispatch failed", "appointment_id", appt.ID, "error", err)
	}
	if err := s.repo.SetFormsSent(ctx, appt.ID, true); err != nil {
		s.logger.Error("failed to record forms_sent", "appointment_id", appt.ID, "error", err)
	} else {
		appt.FormsSent = true
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (s *Service) ListByEmail(ctx context.Context, email string) ([]Appointment, error) {
	appts, err := s.repo.ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

func (s *Service) SetFormsCompleted(ctx context.Context, id uuid.UUID, completed bool) error {
	return s.repo.SetFormsCompleted(ctx, id, completed)
}

func (s *Service) SetVisitStatus(ctx context.Context, id uuid.UUID, confirmed bool, reason string) error {
	return s.repo.SetVisitStatus(ctx, id, confirmed, reason)
}

func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	if err := s.repo.Cancel(ctx, id, reason); err != nil {
		return err
	}
	s.logEvent(ctx, id, EventBookingCancelled, map[string]any{"reason": reason})
	return nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID uuid.UUID, eventType string, payload map[string]any) {
	ev := EventLog{
		EventType:     eventType,
		AppointmentID: &appointmentID,
		Payload:       payload,
		CreatedAt:     time.Now(),
	}
	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		s.logger.Error("failed to insert event log",
			"event_type", eventType, "appointment_id", appointmentID, "error", err)
	}
}

func validateRequest(req BookingRequest) error {
	missing := func(field string) error {
		return fmt.Errorf("%w: %s is required", ErrValidation, field)
	}

	if strings.TrimSpace(req.PatientName) == "" {
		return missing("patient name")
	}
	if strings.TrimSpace(req.DateOfBirth) == "" {
		return missing("date of birth")
	}
	if _, err := time.Parse("2006-01-02", req.DateOfBirth); err != nil {
		return fmt.Errorf("%w: date of birth must be YYYY-MM-DD", ErrValidation)
	}
	if strings.TrimSpace(req.PatientEmail) == "" {
		return missing("patient email")
	}
	if strings.TrimSpace(req.PatientPhone) == "" {
		return missing("patient phone")
	}
	if strings.TrimSpace(req.Doctor) == "" {
		return missing("doctor")
	}
	if req.Date.IsZero() {
		return missing("date")
	}
	if strings.TrimSpace(req.StartTime) == "" {
		return missing("start time")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return missing("reason for visit")
	}
	return nil
}
