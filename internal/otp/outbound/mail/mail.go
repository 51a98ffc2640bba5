package mail

import (
	"bytes"
	"context"
	"embed"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/shandysiswandi/billease/internal/pkg/instrument"
	"github.com/shandysiswandi/billease/internal/pkg/mail"
	"go.opentelemetry.io/otel/codes"
)

// Subject is the subject line of every OTP email.
const Subject = "Your BillEase verification code"

//go:embed templates/*
var templates embed.FS

var (
	htmlTpl = htmltemplate.Must(htmltemplate.New("otp_code.html").
		Option("missingkey=zero").ParseFS(templates, "templates/otp_code.html"))
	textTpl = texttemplate.Must(texttemplate.New("otp_code.txt").
		Option("missingkey=zero").ParseFS(templates, "templates/otp_code.txt"))
)

type templateData struct {
	DisplayName      string
	Code             string
	ExpiresInMinutes int
}

type Mail struct {
	client mail.Mail
	ttl    time.Duration
	ins    instrument.Instrumentation
}

// New returns the OTP mailer. ttl is only used to tell the recipient how long
// the code stays valid.
func New(client mail.Mail, ttl time.Duration, ins instrument.Instrumentation) *Mail {
	return &Mail{client: client, ttl: ttl, ins: ins}
}

// SendOTP renders and sends the code to the recipient.
func (m *Mail) SendOTP(ctx context.Context, to, code, displayName string) error {
	ctx, span := m.ins.Tracer("otp.outbound.mail").Start(ctx, "SendOTP")
	defer span.End()

	data := templateData{
		DisplayName:      displayName,
		Code:             code,
		ExpiresInMinutes: int(m.ttl / time.Minute),
	}

	var html, text bytes.Buffer
	if err := htmlTpl.Execute(&html, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := textTpl.Execute(&text, data); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := m.client.Send(ctx, mail.Message{
		To:       []string{to},
		Subject:  Subject,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
