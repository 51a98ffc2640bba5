package messaging

import (
	"context"
	"errors"
	"io"
	"time"

	"go.opentelemetry.io/otel/propagation"
)

// ErrUnsupported is returned when a feature is not supported by the selected broker.
//
// For example, not all brokers support delayed delivery.
var ErrUnsupported = errors.New("messaging: unsupported operation")

// Publisher publishes messages to a destination (topic/subject).
//
// Implementations wrap Google Pub/Sub, NSQ, Kafka, NATS, or slog for local runs.
type Publisher interface {
	io.Closer

	// Publish sends a message to the destination.
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// OutgoingMessage represents a broker-agnostic message to be published.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte

	// Key is commonly used by Kafka for partitioning.
	Key []byte

	// Headers support arbitrary binary values and duplicate keys.
	Headers []Header

	// Attributes is a convenience for brokers that model string attributes (e.g. Pub/Sub).
	Attributes map[string]string

	// Delay is used for deferred delivery (NSQ only).
	Delay time.Duration
}

// Header is a key/value pair used for message headers.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries optional broker-specific publish metadata.
type PublishResult struct {
	// MessageID is the broker-assigned message ID.
	MessageID string
	// Topic is the destination used for publishing.
	Topic string
	// Timestamp is when the message was handed to the broker.
	Timestamp time.Time
}

// ErrDestinationRequired is returned when Publish gets an empty topic or subject.
var ErrDestinationRequired = errors.New("messaging: destination is required")

// precheck rejects a publish that no driver can serve: a finished ctx, a
// missing destination, or a delay on a driver without deferred delivery.
func precheck(ctx context.Context, destination string, msg OutgoingMessage, delay bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if destination == "" {
		return ErrDestinationRequired
	}
	if msg.Delay > 0 && !delay {
		return ErrUnsupported
	}
	return nil
}

// attributes flattens msg into string pairs: Attributes first, then Headers,
// then the W3C trace context of ctx so consumers can join the trace.
func attributes(ctx context.Context, msg OutgoingMessage) map[string]string {
	out := make(map[string]string, len(msg.Attributes)+len(msg.Headers)+2)
	for k, v := range msg.Attributes {
		out[k] = v
	}
	for _, h := range msg.Headers {
		if h.Key != "" {
			out[h.Key] = string(h.Value)
		}
	}
	propagation.TraceContext{}.Inject(ctx, propagation.MapCarrier(out))

	if len(out) == 0 {
		return nil
	}
	return out
}
