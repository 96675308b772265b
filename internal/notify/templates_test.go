package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testVisit() VisitDetails {
	return VisitDetails{
		PatientName:     "Siva Kumar",
		PatientEmail:    "siva@example.com",
		PatientPhone:    "9391241551",
		Doctor:          "Dr. Lee",
		Date:            "2025-09-12",
		StartTime:       "09:00",
		EndTime:         "09:30",
		DurationMinutes: 30,
		Reason:          "Regular Checkup",
	}
}

func TestConfirmationMessages(t *testing.T) {
	msgs := ConfirmationMessages(testVisit())
	require.Len(t, msgs, 2)

	email := msgs[0]
	assert.Equal(t, ChannelEmail, email.Channel)
	assert.Equal(t, "siva@example.com", email.Recipient)
	assert.Contains(t, email.Body, "Dr. Lee")
	assert.Contains(t, email.Body, "30 minutes")
	assert.Contains(t, email.Body, "Regular Checkup")

	sms := msgs[1]
	assert.Equal(t, ChannelSMS, sms.Channel)
	assert.Equal(t, "+919391241551", sms.Recipient)
	assert.Contains(t, sms.Body, "Appt confirmed")
}

func TestIntakeFormsMessageCarriesAttachment(t *testing.T) {
	msg := IntakeFormsMessage(testVisit(), "forms/patient_intake_form.pdf")

	assert.Equal(t, ChannelEmail, msg.Channel)
	assert.Equal(t, "Your Patient Intake Forms", msg.Subject)
	assert.Equal(t, "forms/patient_intake_form.pdf", msg.AttachmentPath)
	assert.Contains(t, msg.Body, "intake forms")
}

func TestReminderMessagesStage1(t *testing.T) {
	msgs := ReminderMessages(testVisit(), 1, "")
	require.Len(t, msgs, 2)
	assert.Equal(t, "Appointment Reminder", msgs[0].Subject)
	assert.Contains(t, msgs[0].Body, "friendly reminder")
}

func TestReminderMessagesStage2IncludesFormStatus(t *testing.T) {
	msgs := ReminderMessages(testVisit(), 2, "not completed")
	assert.Contains(t, msgs[0].Body, "Form Status:</strong> not completed")
	assert.Contains(t, msgs[1].Body, "Forms: not completed")
}

func TestReminderMessagesStage3IncludesVisitStatus(t *testing.T) {
	msgs := ReminderMessages(testVisit(), 3, "cancelled: patient unavailable")
	assert.Equal(t, "Final Appointment Reminder", msgs[0].Subject)
	assert.Contains(t, msgs[0].Body, "cancelled: patient unavailable")
	assert.Contains(t, msgs[1].Body, "Status: cancelled: patient unavailable")
}
