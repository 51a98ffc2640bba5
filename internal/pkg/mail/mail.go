package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// DriverSMTP sends through an SMTP relay.
	DriverSMTP = "smtp"
	// DriverSendGrid sends through the SendGrid HTTP API.
	DriverSendGrid = "sendgrid"
	// DriverLog only logs messages.
	DriverLog = "log"
)

var (
	// ErrUnknownDriver indicates an unsupported mail driver.
	ErrUnknownDriver = errors.New("mail: unknown driver")
	// ErrNoRecipients is returned when To/Cc/Bcc are all empty.
	ErrNoRecipients = errors.New("mail: no recipients provided")
	// ErrNoSender is returned when both Message.From and the configured default From are empty.
	ErrNoSender = errors.New("mail: no sender provided")
)

// Message represents an email payload.
type Message struct {
	// From is an optional explicit sender; falls back to the driver default.
	From string
	// To lists required recipients.
	To []string
	// Cc lists carbon copy recipients.
	Cc []string
	// Bcc lists blind carbon copy recipients.
	Bcc []string
	// Subject is the email subject line.
	Subject string
	// TextBody is the plain-text body.
	TextBody string
	// HTMLBody is the optional HTML alternative.
	HTMLBody string
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	// Send dispatches msg. Implementations return promptly once ctx is done.
	Send(ctx context.Context, msg Message) error
}

// Config holds the settings of every driver; only the selected one is read.
type Config struct {
	From     string
	SMTP     SMTPConfig
	SendGrid SendGridConfig
}

// NewFromDriver constructs a Mail by driver name.
func NewFromDriver(driver string, cfg Config) (Mail, error) {
	switch strings.TrimSpace(driver) {
	case DriverSMTP:
		if cfg.SMTP.From == "" {
			cfg.SMTP.From = cfg.From
		}
		return NewSMTP(cfg.SMTP)
	case DriverSendGrid:
		if cfg.SendGrid.From == "" {
			cfg.SendGrid.From = cfg.From
		}
		return NewSendGrid(cfg.SendGrid)
	case DriverLog, "":
		return NewLog(cfg.From), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}

func senderOf(msg Message, fallback string) (string, error) {
	from := msg.From
	if from == "" {
		from = fallback
	}
	if from == "" {
		return "", ErrNoSender
	}
	return from, nil
}

func hasRecipients(msg Message) bool {
	return len(msg.To)+len(msg.Cc)+len(msg.Bcc) > 0
}
