package booking

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siva23367/clinic-scheduler/internal/availability"
	"github.com/siva23367/clinic-scheduler/internal/notify"
	"github.com/siva23367/clinic-scheduler/internal/patient"
)

var bookDate = time.Date(2025, 9, 12, 0, 0, 0, 0, time.UTC)

// In-memory fakes

type fakeSlotStore struct {
	slots map[string]*availability.Slot
}

func slotKey(doctor string, date time.Time, start string) string {
	return fmt.Sprintf("%s|%s|%s", doctor, date.Format("2006-01-02"), start)
}

func newFakeSlotStore(slots ...availability.Slot) *fakeSlotStore {
	st := &fakeSlotStore{slots: make(map[string]*availability.Slot)}
	for i := range slots {
		s := slots[i]
		st.slots[slotKey(s.Doctor, s.Date, s.StartTime)] = &s
	}
	return st
}

func (st *fakeSlotStore) ListAvailable(ctx context.Context, doctor string, date time.Time) ([]availability.Slot, error) {
	var out []availability.Slot
	for _, s := range st.slots {
		if s.Doctor == doctor && s.Date.Equal(date) && !s.IsBooked {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (st *fakeSlotStore) GetSlot(ctx context.Context, doctor string, date time.Time, start string) (*availability.Slot, error) {
	s, ok := st.slots[slotKey(doctor, date, start)]
	if !ok {
		return nil, availability.ErrSlotNotFound
	}
	cp := *s
	return &cp, nil
}

func (st *fakeSlotStore) Reserve(ctx context.Context, doctor string, date time.Time, start string, patientID uuid.UUID) error {
	s, ok := st.slots[slotKey(doctor, date, start)]
	if !ok {
		return availability.ErrSlotNotFound
	}
	if s.IsBooked {
		return availability.ErrSlotAlreadyBooked
	}
	s.IsBooked = true
	s.PatientID = &patientID
	return nil
}

func (st *fakeSlotStore) Release(ctx context.Context, doctor string, date time.Time, start string) error {
	s, ok := st.slots[slotKey(doctor, date, start)]
	if !ok {
		return availability.ErrSlotNotFound
	}
	s.IsBooked = false
	s.PatientID = nil
	return nil
}

func (st *fakeSlotStore) ListDoctors(ctx context.Context) ([]string, error) { return nil, nil }
func (st *fakeSlotStore) ListDates(ctx context.Context, doctor string) ([]time.Time, error) {
	return nil, nil
}

type fakeRepo struct {
	appts     map[uuid.UUID]*Appointment
	events    []EventLog
	insertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{appts: make(map[uuid.UUID]*Appointment)}
}

func (r *fakeRepo) Insert(ctx context.Context, a *Appointment) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	cp := *a
	r.appts[a.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := r.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) ListByEmail(ctx context.Context, email string) ([]Appointment, error) {
	var out []Appointment
	for _, a := range r.appts {
		if a.PatientEmail == email {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListActive(ctx context.Context) ([]Appointment, error) {
	var out []Appointment
	for _, a := range r.appts {
		if a.Status != StatusCancelled {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeRepo) SetFormsSent(ctx context.Context, id uuid.UUID, sent bool) error {
	a, ok := r.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.FormsSent = sent
	return nil
}

func (r *fakeRepo) SetFormsCompleted(ctx context.Context, id uuid.UUID, completed bool) error {
	a, ok := r.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.FormsCompleted = completed
	return nil
}

func (r *fakeRepo) SetVisitStatus(ctx context.Context, id uuid.UUID, confirmed bool, reason string) error {
	a, ok := r.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.VisitConfirmed = confirmed
	a.CancellationReason = reason
	return nil
}

func (r *fakeRepo) Cancel(ctx context.Context, id uuid.UUID, reason string) error {
	a, ok := r.appts[id]
	if !ok {
		return ErrAppointmentNotFound
	}
	a.Status = StatusCancelled
	a.CancellationReason = reason
	return nil
}

func (r *fakeRepo) MarkRemindersSent(ctx context.Context, stage int, ids []uuid.UUID) error {
	for _, id := range ids {
		a, ok := r.appts[id]
		if !ok {
			continue
		}
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

func (r *fakeRepo) InsertEvent(ctx context.Context, ev EventLog) error {
	r.events = append(r.events, ev)
	return nil
}

type fakeDirectory struct {
	cls        patient.Classification
	registered []patient.Patient
}

func (d *fakeDirectory) Classify(ctx context.Context, name, dob string) (patient.Classification, error) {
	return d.cls, nil
}

func (d *fakeDirectory) Register(ctx context.Context, p patient.Patient) error {
	d.registered = append(d.registered, p)
	return nil
}

// inlineLocker runs the critical section directly; lock behavior itself is
// covered in the redis package tests.
type inlineLocker struct{}

func (inlineLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingDispatcher struct {
	sent []notify.Message
	err  error
}

func (d *recordingDispatcher) Send(ctx context.Context, msg notify.Message) error {
	d.sent = append(d.sent, msg)
	return d.err
}

// Helpers

func freeSlot(duration int) availability.Slot {
	end := "09:30"
	if duration == 60 {
		end = "10:00"
	}
	return availability.Slot{
		Doctor:          "Dr. Lee",
		Date:            bookDate,
		StartTime:       "09:00",
		EndTime:         end,
		DurationMinutes: duration,
	}
}

func validRequest() BookingRequest {
	return BookingRequest{
		PatientName:  "Siva Kumar",
		DateOfBirth:  "2002-03-12",
		PatientEmail: "siva@example.com",
		PatientPhone: "9391241551",
		Doctor:       "Dr. Lee",
		Date:         bookDate,
		StartTime:    "09:00",
		Reason:       "Regular Checkup",
	}
}

func newTestService(slots *fakeSlotStore, repo *fakeRepo, dir *fakeDirectory, disp *recordingDispatcher) *Service {
	return NewService(slots, repo, dir, inlineLocker{}, disp, "", nil)
}

// Tests

func TestBookReturningPatient(t *testing.T) {
	slots := newFakeSlotStore(freeSlot(30))
	repo := newFakeRepo()
	dir := &fakeDirectory{cls: patient.Classification{PatientID: uuid.New(), IsNewPatient: false}}
	disp := &recordingDispatcher{}
	svc := newTestService(slots, repo, dir, disp)

	appt, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, appt.Status)
	assert.Equal(t, 30, appt.DurationMinutes)
	assert.True(t, appt.FormsSent)
	assert.True(t, appt.VisitConfirmed)
	assert.False(t, appt.Reminder1Sent)

	// The slot is marked booked for the classified patient.
	slot, err := slots.GetSlot(context.Background(), "Dr. Lee", bookDate, "09:00")
	require.NoError(t, err)
	assert.True(t, slot.IsBooked)
	require.NotNil(t, slot.PatientID)
	assert.Equal(t, dir.cls.PatientID, *slot.PatientID)

	// Confirmation email + SMS and the intake-forms email.
	require.Len(t, disp.sent, 3)
	assert.Equal(t, "Appointment Confirmation", disp.sent[0].Subject)
	assert.Equal(t, notify.ChannelSMS, disp.sent[1].Channel)
	assert.Equal(t, "Your Patient Intake Forms", disp.sent[2].Subject)

	// Persisted record matches and carries the forms_sent flag.
	stored, err := repo.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.True(t, stored.FormsSent)

	// Returning patient is not re-registered.
	assert.Empty(t, dir.registered)
}

func TestBookRegistersNewPatient(t *testing.T) {
	slots := newFakeSlotStore(freeSlot(60))
	repo := newFakeRepo()
	dir := &fakeDirectory{cls: patient.Classification{PatientID: uuid.New(), IsNewPatient: true}}
	disp := &recordingDispatcher{}
	svc := newTestService(slots, repo, dir, disp)

	_, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, dir.registered, 1)
	assert.Equal(t, "Siva Kumar", dir.registered[0].Name)
	assert.Equal(t, dir.cls.PatientID, dir.registered[0].ID)
}

func TestBookValidatesRequiredFields(t *testing.T) {
	slots := newFakeSlotStore(freeSlot(30))
	repo := newFakeRepo()
	dir := &fakeDirectory{cls: patient.Classification{PatientID: uuid.New()}}
	disp := &recordingDispatcher{}
	svc := newTestService(slots, repo, dir, disp)

	req := validRequest()
	req.PatientEmail = "  "

	_, err := svc.Book(context.Background(), req)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.appts)
	assert.Empty(t, disp.sent)
}

func TestBookRejectsDurationMismatch(t *testing.T) {
	// New patient needs 60 minutes but picked a 30-minute slot.
	slots := newFakeSlotStore(freeSlot(30))
	repo := newFakeRepo()
	dir := &fakeDirectory{cls: patient.Classification{PatientID: uuid.New(), IsNewPatient: true}}
	disp := &recordingDispatcher{}
	svc := newTestService(slots, repo, dir, disp)

	_, err := svc.Book(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrValidation)

	// Slot untouched even though it was free.
	slot, _ := slots.GetSlot(context.Background(), "Dr. Lee", bookDate, "09:00")
	assert.False(t, slot.IsBooked)
	assert.Empty(t, disp.sent)
}

func TestBookSlotAlreadyBooked(t *testing.T) {
	taken := freeSlot(30)
	occupant := uuid.New()
	taken.IsBooked = true
	taken.PatientID = &occupant

	slots := newFakeSlotStore(taken)
	repo := newFakeRepo()
	dir := &fakeDirectory{cls: patient.Classification{PatientID: uuid.New()}}
	disp := &recordingDispatcher{}
	svc := newTestService(slots, repo, dir, disp)

	_, err := svc.Book(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Empty(t, repo.appts)
	assert.Empty(t, disp.sent)
}

func TestBookUnknownSlot(t *testing.T) {
	slots := newFakeSlotStore()
	repo := newFakeRepo()
	dir := &fakeDirectory{cls: patient.Classification{PatientID: uuid.New()}}
	disp := &recordingDispatcher{}
	svc := newTestService(slots, repo, dir, disp)

	_, err := svc.Book(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestBookSucceedsWhenDispatchFails(t *testing.T) {
	slots := newFakeSlotStore(freeSlot(30))
	repo := newFakeRepo()
	dir := &fakeDirectory{cls: patient.Classification{PatientID: uuid.New()}}
	disp := &recordingDispatcher{err: errors.New("provider down")}
	svc := newTestService(slots, repo, dir, disp)

	appt, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)

	// Booking stands and the flag still records the attempt.
	assert.True(t, appt.FormsSent)
	slot, _ := slots.GetSlot(context.Background(), "Dr. Lee", bookDate, "09:00")
	assert.True(t, slot.IsBooked)
}

func TestBookReleasesSlotWhenInsertFails(t *testing.T) {
	slots := newFakeSlotStore(freeSlot(30))
	repo := newFakeRepo()
	repo.insertErr = errors.New("disk full")
	dir := &fakeDirectory{cls: patient.Classification{PatientID: uuid.New()}}
	disp := &recordingDispatcher{}
	svc := newTestService(slots, repo, dir, disp)

	_, err := svc.Book(context.Background(), validRequest())
	require.Error(t, err)

	// Reservation was undone so the slot stays bookable.
	slot, getErr := slots.GetSlot(context.Background(), "Dr. Lee", bookDate, "09:00")
	require.NoError(t, getErr)
	assert.False(t, slot.IsBooked)
	assert.Nil(t, slot.PatientID)
	assert.Empty(t, disp.sent)
}

func TestCancelKeepsAuditTrail(t *testing.T) {
	slots := newFakeSlotStore(freeSlot(30))
	repo := newFakeRepo()
	dir := &fakeDirectory{cls: patient.Classification{PatientID: uuid.New()}}
	disp := &recordingDispatcher{}
	svc := newTestService(slots, repo, dir, disp)

	appt, err := svc.Book(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(context.Background(), appt.ID, "patient unavailable"))

	stored, err := svc.Get(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, stored.Status)
	assert.Equal(t, "patient unavailable", stored.CancellationReason)

	// Created + cancelled events recorded.
	require.Len(t, repo.events, 2)
	assert.Equal(t, EventBookingCreated, repo.events[0].EventType)
	assert.Equal(t, EventBookingCancelled, repo.events[1].EventType)
}
