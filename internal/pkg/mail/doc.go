// Package mail defines the contracts for sending email messages.
//
// Use cases work with the Mail interface and Message payload. Drivers:
//   - smtp: gopkg.in/gomail.v2
//   - sendgrid: the SendGrid v3 mail API
//   - log: writes the message to slog, for local development
package mail
