package mail

import (
	"context"
	"errors"
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrSendGridAPIKeyRequired is returned when the API key is missing.
var ErrSendGridAPIKeyRequired = errors.New("sendgrid api key is required")

// SendGridConfig configures the SendGrid implementation.
type SendGridConfig struct {
	// APIKey is the SendGrid API key.
	APIKey string
	// From is the default sender when Message.From is empty.
	From string
	// Host overrides the API host, mainly for tests.
	Host string
}

// SendGrid is a Mail implementation backed by the SendGrid v3 API.
type SendGrid struct {
	apiKey      string
	baseURL     string
	defaultFrom string
}

// NewSendGrid constructs a SendGrid mail sender.
func NewSendGrid(cfg SendGridConfig) (*SendGrid, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrSendGridAPIKeyRequired
	}

	s := &SendGrid{apiKey: cfg.APIKey, defaultFrom: cfg.From}
	if cfg.Host != "" {
		s.baseURL = strings.TrimRight(cfg.Host, "/") + "/v3/mail/send"
	}

	return s, nil
}

// client is built per call: sendgrid.Client stores the request body on itself.
func (s *SendGrid) client() *sendgrid.Client {
	c := sendgrid.NewSendClient(s.apiKey)
	if s.baseURL != "" {
		c.BaseURL = s.baseURL
	}
	return c
}

// Send posts the message to SendGrid. A response status of 400 or above is an error.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m, err := s.build(msg)
	if err != nil {
		return err
	}

	resp, err := s.client().SendWithContext(ctx, m)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}

func (s *SendGrid) build(msg Message) (*sgmail.SGMailV3, error) {
	if !hasRecipients(msg) {
		return nil, ErrNoRecipients
	}

	from, err := senderOf(msg, s.defaultFrom)
	if err != nil {
		return nil, err
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(toEmail(from))
	m.Subject = msg.Subject

	p := sgmail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(toEmail(to))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(toEmail(cc))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(toEmail(bcc))
	}
	m.AddPersonalizations(p)

	if msg.TextBody != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextBody))
	}
	if msg.HTMLBody != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))
	}

	return m, nil
}

func toEmail(addr string) *sgmail.Email {
	if parsed, err := netmail.ParseAddress(addr); err == nil {
		return sgmail.NewEmail(parsed.Name, parsed.Address)
	}
	return sgmail.NewEmail("", addr)
}

// Close implements io.Closer for interface compatibility.
func (s *SendGrid) Close() error {
	return nil
}
