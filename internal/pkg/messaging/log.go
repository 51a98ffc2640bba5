package messaging

import (
	"context"
	"log/slog"
	"time"
)

// Log is a Publisher that writes messages to slog.
type Log struct{}

// NewLog returns a Log publisher.
func NewLog() *Log {
	return &Log{}
}

func (*Log) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if err := precheck(ctx, destination, msg, true); err != nil {
		return PublishResult{}, err
	}

	slog.InfoContext(ctx, "event published to log",
		"topic", destination,
		"headers", attributes(ctx, msg),
		"body", string(msg.Body),
		"delay", msg.Delay.String(),
	)

	return PublishResult{Topic: destination, Timestamp: time.Now()}, nil
}

func (*Log) Close() error {
	return nil
}
