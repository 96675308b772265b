package notify

import "fmt"

// VisitDetails carries the appointment fields the message templates need.
type VisitDetails struct {
	PatientName     string
	PatientEmail    string
	PatientPhone    string
	Doctor          string
	Date            string // "2006-01-02"
	StartTime       string
	EndTime         string
	DurationMinutes int
	Reason          string
}

// ConfirmationMessages renders the booking confirmation pair (email + SMS).
func ConfirmationMessages(v VisitDetails) []Message {
	emailBody := fmt.Sprintf(`<html>
<body>
	<h2>Appointment Confirmation</h2>
	<p>Dear %s,</p>
	<p>Your appointment has been confirmed:</p>
	<ul>
		<li><strong>Doctor:</strong> %s</li>
		<li><strong>Date:</strong> %s</li>
		<li><strong>Time:</strong> %s - %s</li>
		<li><strong>Duration:</strong> %d minutes</li>
		<li><strong>Reason:</strong> %s</li>
	</ul>
	<p>Please arrive 15 minutes early for your appointment.</p>
	<p>Best regards,<br>Medical Clinic Team</p>
</body>
</html>`, v.PatientName, v.Doctor, v.Date, v.StartTime, v.EndTime, v.DurationMinutes, v.Reason)

	smsBody := fmt.Sprintf("Appt confirmed with %s on %s at %s. Reply CANCEL to cancel.",
		v.Doctor, v.Date, v.StartTime)

	return []Message{
		{Channel: ChannelEmail, Recipient: v.PatientEmail, Subject: "Appointment Confirmation", Body: emailBody},
		{Channel: ChannelSMS, Recipient: NormalizePhone(v.PatientPhone), Body: smsBody},
	}
}

// IntakeFormsMessage renders the intake-forms email, optionally with the
// form PDF attached.
func IntakeFormsMessage(v VisitDetails, attachmentPath string) Message {
	body := fmt.Sprintf(`<html>
<body>
	<h2>Medical Intake Forms</h2>
	<p>Dear %s,</p>
	<p>Thank you for booking your appointment with <strong>%s</strong> on <strong>%s</strong> at <strong>%s</strong>.</p>
	<p>Please find attached the intake forms that need to be filled out before your visit.</p>
	<p>Please complete these forms at your earliest convenience and bring them to your appointment.</p>
	<br>
	<p>Best regards,<br>Medical Clinic Team</p>
</body>
</html>`, v.PatientName, v.Doctor, v.Date, v.StartTime)

	return Message{
		Channel:        ChannelEmail,
		Recipient:      v.PatientEmail,
		Subject:        "Your Patient Intake Forms",
		Body:           body,
		AttachmentPath: attachmentPath,
	}
}

// ReminderMessages renders the email + SMS pair for a reminder stage.
// Stage 2 includes the intake-form status ("completed"/"not completed"),
// stage 3 the visit status ("confirmed" or "cancelled: <reason>").
func ReminderMessages(v VisitDetails, stage int, status string) []Message {
	var subject, emailBody, smsBody string

	switch stage {
	case 2:
		subject = "Appointment Reminder - Form Check"
		emailBody = fmt.Sprintf(`<html>
<body>
	<h2>Appointment Reminder - Form Status</h2>
	<p>Dear %s,</p>
	<p>Your appointment is coming up soon:</p>
	%s
	<p><strong>Form Status:</strong> %s</p>
	<p>Please complete your intake forms if you haven't already.</p>
	<p>Best regards,<br>Medical Clinic Team</p>
</body>
</html>`, v.PatientName, visitList(v), status)
		smsBody = fmt.Sprintf("Reminder: Appt in 3 days. Forms: %s. Please complete if needed.", status)

	case 3:
		subject = "Final Appointment Reminder"
		emailBody = fmt.Sprintf(`<html>
<body>
	<h2>Final Appointment Reminder</h2>
	<p>Dear %s,</p>
	<p>Your appointment is tomorrow:</p>
	%s
	<p><strong>Visit Status:</strong> %s</p>
	<p>Please arrive 15 minutes early for your appointment.</p>
	<p>Best regards,<br>Medical Clinic Team</p>
</body>
</html>`, v.PatientName, visitList(v), status)
		smsBody = fmt.Sprintf("Final reminder: Appt tomorrow at %s. Status: %s.", v.StartTime, status)

	default:
		subject = "Appointment Reminder"
		emailBody = fmt.Sprintf(`<html>
<body>
	<h2>Appointment Reminder</h2>
	<p>Dear %s,</p>
	<p>This is a friendly reminder about your upcoming appointment:</p>
	%s
	<p>Please remember to complete your intake forms before the appointment.</p>
	<p>Best regards,<br>Medical Clinic Team</p>
</body>
</html>`, v.PatientName, visitList(v))
		smsBody = fmt.Sprintf("Reminder: Appt with %s on %s at %s.", v.Doctor, v.Date, v.StartTime)
	}

	return []Message{
		{Channel: ChannelEmail, Recipient: v.PatientEmail, Subject: subject, Body: emailBody},
		{Channel: ChannelSMS, Recipient: NormalizePhone(v.PatientPhone), Body: smsBody},
	}
}

func visitList(v VisitDetails) string {
	return fmt.Sprintf(`<ul>
		<li><strong>Doctor:</strong> %s</li>
		<li><strong>Date:</strong> %s</li>
		<li><strong>Time:</strong> %s</li>
	</ul>`, v.Doctor, v.Date, v.StartTime)
}
