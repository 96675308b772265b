package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siva23367/clinic-scheduler/internal/booking"
	"github.com/siva23367/clinic-scheduler/internal/notify"
)

var sweepNow = time.Date(2025, 9, 5, 14, 30, 0, 0, time.UTC)

type fakeRepo struct {
	appts map[uuid.UUID]*booking.Appointment
}

func newFakeRepo(appts ...*booking.Appointment) *fakeRepo {
	r := &fakeRepo{appts: make(map[uuid.UUID]*booking.Appointment)}
	for _, a := range appts {
		r.appts[a.ID] = a
	}
	return r
}

func (r *fakeRepo) ListActive(ctx context.Context) ([]booking.Appointment, error) {
	var out []booking.Appointment
	for _, a := range r.appts {
		if a.Status != booking.StatusCancelled {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeRepo) MarkRemindersSent(ctx context.Context, stage int, ids []uuid.UUID) error {
	for _, id := range ids {
		a := r.appts[id]
		switch stage {
		case 1:
			a.Reminder1Sent = true
		case 2:
			a.Reminder2Sent = true
		case 3:
			a.Reminder3Sent = true
		}
	}
	return nil
}

func (r *fakeRepo) Insert(ctx context.Context, a *booking.Appointment) error { return nil }
func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*booking.Appointment, error) {
	return nil, booking.ErrAppointmentNotFound
}
func (r *fakeRepo) ListByEmail(ctx context.Context, email string) ([]booking.Appointment, error) {
	return nil, nil
}
func (r *fakeRepo) SetFormsSent(ctx context.Context, id uuid.UUID, sent bool) error      { return nil }
func (r *fakeRepo) SetFormsCompleted(ctx context.Context, id uuid.UUID, done bool) error { return nil }
func (r *fakeRepo) SetVisitStatus(ctx context.Context, id uuid.UUID, confirmed bool, reason string) error {
	return nil
}
func (r *fakeRepo) Cancel(ctx context.Context, id uuid.UUID, reason string) error { return nil }
func (r *fakeRepo) InsertEvent(ctx context.Context, ev booking.EventLog) error    { return nil }

type recordingDispatcher struct {
	sent      []notify.Message
	failEmail string // fail sends to this email recipient
}

func (d *recordingDispatcher) Send(ctx context.Context, msg notify.Message) error {
	if d.failEmail != "" && msg.Channel == notify.ChannelEmail && msg.Recipient == d.failEmail {
		return errors.New("provider down")
	}
	d.sent = append(d.sent, msg)
	return nil
}

func apptInDays(days int) *booking.Appointment {
	return &booking.Appointment{
		ID:              uuid.New(),
		PatientID:       uuid.New(),
		PatientName:     "Siva Kumar",
		PatientEmail:    "siva@example.com",
		PatientPhone:    "9391241551",
		Doctor:          "Dr. Lee",
		Date:            sweepNow.AddDate(0, 0, days),
		StartTime:       "09:00",
		EndTime:         "09:30",
		DurationMinutes: 30,
		Reason:          "Regular Checkup",
		Status:          booking.StatusConfirmed,
		VisitConfirmed:  true,
	}
}

func TestSweepFiresFirstReminderOnce(t *testing.T) {
	a := apptInDays(7)
	repo := newFakeRepo(a)
	disp := &recordingDispatcher{}
	sweeper := NewSweeper(repo, disp, nil)

	report, err := sweeper.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Attempted)
	assert.Equal(t, 1, report.Succeeded)
	assert.True(t, repo.appts[a.ID].Reminder1Sent)
	require.Len(t, disp.sent, 2) // email + SMS
	assert.Equal(t, "Appointment Reminder", disp.sent[0].Subject)

	// Second sweep same day: the flag gates it out.
	report, err = sweeper.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Attempted)
	assert.Equal(t, 1, report.Skipped)
	assert.Len(t, disp.sent, 2)
}

func TestSweepIsIdempotentAcrossRestart(t *testing.T) {
	// Same on-disk state, same now: zero additional dispatch attempts.
	a := apptInDays(3)
	repo := newFakeRepo(a)
	disp := &recordingDispatcher{}
	sweeper := NewSweeper(repo, disp, nil)

	_, err := sweeper.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)
	sentAfterFirst := len(disp.sent)

	fresh := NewSweeper(repo, disp, nil)
	_, err = fresh.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, sentAfterFirst, len(disp.sent))
}

func TestSweepStage2ReportsFormStatus(t *testing.T) {
	a := apptInDays(3)
	a.FormsCompleted = false
	repo := newFakeRepo(a)
	disp := &recordingDispatcher{}
	sweeper := NewSweeper(repo, disp, nil)

	_, err := sweeper.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)

	require.Len(t, disp.sent, 2)
	assert.Contains(t, disp.sent[0].Body, "not completed")
	assert.True(t, repo.appts[a.ID].Reminder2Sent)
	assert.False(t, repo.appts[a.ID].Reminder1Sent)
}

func TestSweepStage3CarriesCancellationReason(t *testing.T) {
	a := apptInDays(1)
	a.VisitConfirmed = false
	a.CancellationReason = "patient unavailable"
	repo := newFakeRepo(a)
	disp := &recordingDispatcher{}
	sweeper := NewSweeper(repo, disp, nil)

	_, err := sweeper.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)

	require.Len(t, disp.sent, 2)
	assert.Contains(t, disp.sent[0].Body, "cancelled: patient unavailable")
	assert.True(t, repo.appts[a.ID].Reminder3Sent)
}

func TestSweepSkipsOffScheduleDays(t *testing.T) {
	repo := newFakeRepo(apptInDays(5), apptInDays(0), apptInDays(-2))
	disp := &recordingDispatcher{}
	sweeper := NewSweeper(repo, disp, nil)

	report, err := sweeper.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Attempted)
	assert.Equal(t, 3, report.Skipped)
	assert.Empty(t, disp.sent)
}

func TestSweepSkipsAlreadySentStage(t *testing.T) {
	a := apptInDays(7)
	a.Reminder1Sent = true
	repo := newFakeRepo(a)
	disp := &recordingDispatcher{}
	sweeper := NewSweeper(repo, disp, nil)

	report, err := sweeper.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Attempted)
	assert.Empty(t, disp.sent)
}

func TestSweepIgnoresCancelledAppointments(t *testing.T) {
	a := apptInDays(7)
	a.Status = booking.StatusCancelled
	repo := newFakeRepo(a)
	disp := &recordingDispatcher{}
	sweeper := NewSweeper(repo, disp, nil)

	report, err := sweeper.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Attempted)
	assert.Empty(t, disp.sent)
	assert.False(t, repo.appts[a.ID].Reminder1Sent)
}

func TestSweepContinuesPastDispatchFailures(t *testing.T) {
	failing := apptInDays(7)
	failing.PatientEmail = "broken@example.com"
	healthy := apptInDays(7)

	repo := newFakeRepo(failing, healthy)
	disp := &recordingDispatcher{failEmail: "broken@example.com"}
	sweeper := NewSweeper(repo, disp, nil)

	report, err := sweeper.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Attempted)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, 1, report.Failed)

	// At-most-once: the failing appointment's flag is set anyway, so the
	// broken channel is not stormed on the next sweep.
	assert.True(t, repo.appts[failing.ID].Reminder1Sent)
	assert.True(t, repo.appts[healthy.ID].Reminder1Sent)

	sentAfterFirst := len(disp.sent)
	_, err = sweeper.RunSweep(context.Background(), sweepNow)
	require.NoError(t, err)
	assert.Equal(t, sentAfterFirst, len(disp.sent))
}

func TestDaysUntilIgnoresTimeOfDay(t *testing.T) {
	appt := time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)
	lateEvening := time.Date(2025, 9, 5, 23, 59, 0, 0, time.UTC)
	earlyMorning := time.Date(2025, 9, 5, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 7, daysUntil(appt, lateEvening))
	assert.Equal(t, 7, daysUntil(appt, earlyMorning))
	assert.Equal(t, 0, daysUntil(appt, appt))
	assert.Equal(t, -1, daysUntil(appt, appt.AddDate(0, 0, 1)))
}
