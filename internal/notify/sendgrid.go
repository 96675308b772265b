package notify

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/siva23367/clinic-scheduler/pkg/logging"
)

// SendGridSender delivers email via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil when no API key is configured so callers can
// fall back to the stub sender.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

func (s *SendGridSender) SendEmail(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail("", msg.Recipient)

	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)

	if msg.AttachmentPath != "" {
		data, err := os.ReadFile(msg.AttachmentPath)
		if err != nil {
			return fmt.Errorf("read attachment: %w", err)
		}
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString(data))
		att.SetType("application/pdf")
		att.SetFilename(filepath.Base(msg.AttachmentPath))
		att.SetDisposition("attachment")
		message.AddAttachment(att)
	}

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}

	s.logger.Info("email sent", "to", msg.Recipient, "subject", msg.Subject, "status", resp.StatusCode)
	return nil
}

var _ EmailSender = (*SendGridSender)(nil)
