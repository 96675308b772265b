package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/siva23367/clinic-scheduler/internal/booking"
	"github.com/siva23367/clinic-scheduler/internal/notify"
	"github.com/siva23367/clinic-scheduler/pkg/logging"
)

// SweepReport summarizes one reminder sweep.
type SweepReport struct {
	Attempted int // appointments whose stage fired this sweep
	Succeeded int // stages whose every message was dispatched
	Failed    int // stages with at least one dispatch failure
	Skipped   int // appointments with no stage due
}

// Sweeper walks the active appointments and fires the 7/3/1-day reminder
// stages. The sent flag is the sole idempotence gate: a flag flips true
// after a dispatch attempt, delivered or not, so a failing channel is never
// retried (at-most-once delivery).
type Sweeper struct {
	repo       booking.Repository
	dispatcher notify.Dispatcher
	logger     *logging.Logger
}

func NewSweeper(repo booking.Repository, dispatcher notify.Dispatcher, logger *logging.Logger) *Sweeper {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sweeper{repo: repo, dispatcher: dispatcher, logger: logger}
}

// RunSweep processes every non-cancelled appointment once. A dispatch
// failure for one appointment never aborts the sweep for the rest. Flag
// updates are written in one batch per stage at the end.
func (s *Sweeper) RunSweep(ctx context.Context, now time.Time) (SweepReport, error) {
	var report SweepReport

	appts, err := s.repo.ListActive(ctx)
	if err != nil {
		return report, fmt.Errorf("list active appointments: %w", err)
	}

	fired := map[int][]uuid.UUID{}

	for i := range appts {
		a := &appts[i]

		stage := dueStage(a, now)
		if stage == 0 {
			report.Skipped++
			continue
		}

		report.Attempted++
		failed := false
		for _, msg := range stageMessages(a, stage) {
			if err := s.dispatcher.Send(ctx, msg); err != nil {
				s.logger.Error("reminder dispatch failed",
					"appointment_id", a.ID, "stage", stage, "channel", msg.Channel, "error", err)
				failed = true
			}
		}

		// Mark the stage regardless of dispatch outcome.
		fired[stage] = append(fired[stage], a.ID)

		if failed {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}

	for stage := 1; stage <= 3; stage++ {
		ids := fired[stage]
		if len(ids) == 0 {
			continue
		}
		if err := s.repo.MarkRemindersSent(ctx, stage, ids); err != nil {
			return report, fmt.Errorf("persist stage %d flags: %w", stage, err)
		}
	}

	s.logger.Info("reminder sweep complete",
		"attempted", report.Attempted,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
	)

	return report, nil
}

// dueStage returns which reminder stage (1..3) fires for the appointment at
// the given time, or 0. Stages are keyed strictly on days-until-visit, so at
// most one stage can fire per appointment per sweep.
func dueStage(a *booking.Appointment, now time.Time) int {
	switch daysUntil(a.Date, now) {
	case 7:
		if !a.Reminder1Sent {
			return 1
		}
	case 3:
		if !a.Reminder2Sent {
			return 2
		}
	case 1:
		if !a.Reminder3Sent {
			return 3
		}
	}
	return 0
}

func stageMessages(a *booking.Appointment, stage int) []notify.Message {
	var status string
	switch stage {
	case 2:
		status = "not completed"
		if a.FormsCompleted {
			status = "completed"
		}
	case 3:
		// An unconfirmed visit still gets its final reminder, carrying the
		// cancellation reason instead of suppressing the message.
		status = "confirmed"
		if !a.VisitConfirmed {
			status = fmt.Sprintf("cancelled: %s", a.CancellationReason)
		}
	}
	return notify.ReminderMessages(a.VisitDetails(), stage, status)
}

// daysUntil computes whole calendar days between now and the appointment
// date, ignoring the time of day on either side.
func daysUntil(apptDate, now time.Time) int {
	a := time.Date(apptDate.Year(), apptDate.Month(), apptDate.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(a.Sub(n) / (24 * time.Hour))
}
