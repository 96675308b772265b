package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/siva23367/clinic-scheduler/pkg/logging"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

var ErrUnknownChannel = errors.New("unknown notification channel")

// Message is a rendered notification ready for delivery.
type Message struct {
	Channel        Channel
	Recipient      string
	Subject        string
	Body           string
	AttachmentPath string // optional, email only
}

// Dispatcher attempts delivery of a rendered message. Delivery is
// best-effort: callers log failures and move on, they never retry.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}

// EmailSender delivers email messages. Implementations can be swapped
// (SendGrid, SMTP, stub) without changing callers.
type EmailSender interface {
	SendEmail(ctx context.Context, msg Message) error
}

// SMSSender delivers SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Router routes messages to the sender for their channel.
type Router struct {
	email  EmailSender
	sms    SMSSender
	logger *logging.Logger
}

func NewRouter(email EmailSender, sms SMSSender, logger *logging.Logger) *Router {
	if logger == nil {
		logger = logging.Default()
	}
	return &Router{email: email, sms: sms, logger: logger}
}

func (r *Router) Send(ctx context.Context, msg Message) error {
	switch msg.Channel {
	case ChannelEmail:
		if r.email == nil {
			r.logger.Warn("no email sender configured, dropping message", "to", msg.Recipient)
			return nil
		}
		return r.email.SendEmail(ctx, msg)
	case ChannelSMS:
		if r.sms == nil {
			r.logger.Warn("no sms sender configured, dropping message", "to", msg.Recipient)
			return nil
		}
		return r.sms.SendSMS(ctx, msg.Recipient, msg.Body)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownChannel, msg.Channel)
	}
}

// StubEmailSender logs instead of sending. Used in dev and tests.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) SendEmail(ctx context.Context, msg Message) error {
	s.logger.Info("stub email sender: would send", "to", msg.Recipient, "subject", msg.Subject)
	return nil
}

// LogSMSSender logs the SMS body instead of calling a provider.
type LogSMSSender struct {
	logger *logging.Logger
}

func NewLogSMSSender(logger *logging.Logger) *LogSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &LogSMSSender{logger: logger}
}

func (s *LogSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("sms", "to", to, "body", body)
	return nil
}

var (
	_ Dispatcher  = (*Router)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
	_ SMSSender   = (*LogSMSSender)(nil)
)
