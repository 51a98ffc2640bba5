package mail

import (
	"context"
	"log/slog"
)

// Log is a Mail implementation that records envelopes to slog instead of
// delivering them. Bodies are never logged.
type Log struct {
	defaultFrom string
}

// NewLog returns a Log mailer.
func NewLog(from string) *Log {
	return &Log{defaultFrom: from}
}

func (l *Log) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !hasRecipients(msg) {
		return ErrNoRecipients
	}

	from, err := senderOf(msg, l.defaultFrom)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "mail captured by log driver",
		"from", from,
		"to", msg.To,
		"subject", msg.Subject,
		"text_bytes", len(msg.TextBody),
		"html_bytes", len(msg.HTMLBody),
	)

	return nil
}

func (l *Log) Close() error {
	return nil
}
