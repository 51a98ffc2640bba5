package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/usecase"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
	"github.com/shandysiswandi/billease/internal/pkg/messaging"
	"github.com/shandysiswandi/billease/internal/shared/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	destination string
	msg         messaging.OutgoingMessage
	err         error
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Publish(_ context.Context, destination string, msg messaging.OutgoingMessage) (messaging.PublishResult, error) {
	if p.err != nil {
		return messaging.PublishResult{}, p.err
	}
	p.destination = destination
	p.msg = msg
	return messaging.PublishResult{Topic: destination}, nil
}

func TestMessaging_PublishOTPVerified(t *testing.T) {
	pub := &recordingPublisher{}
	m := NewMessaging(pub, instrument.NewNoop())

	verifiedAt := time.Date(2026, 3, 1, 18, 0, 0, 0, time.FixedZone("PHT", 8*3600))
	ctx := instrument.SetCorrelationID(context.Background(), "cid-123")

	err := m.PublishOTPVerified(ctx, usecase.OTPVerifiedEvent{
		Email:      "alice@example.com",
		Purpose:    "registration",
		VerifiedAt: verifiedAt,
	})
	require.NoError(t, err)

	assert.Equal(t, event.OTPVerifiedDestination, pub.destination)
	assert.Equal(t, []byte("alice@example.com"), pub.msg.Key)
	require.Len(t, pub.msg.Headers, 1)
	assert.Equal(t, "cID", pub.msg.Headers[0].Key)
	assert.Equal(t, []byte("cid-123"), pub.msg.Headers[0].Value)

	var body event.OTPVerifiedMessage
	require.NoError(t, json.Unmarshal(pub.msg.Body, &body))
	assert.Equal(t, "alice@example.com", body.Email)
	assert.Equal(t, "registration", body.Purpose)
	assert.True(t, verifiedAt.Equal(body.VerifiedAt))
	assert.Equal(t, time.UTC, body.VerifiedAt.Location())
	assert.NotContains(t, string(pub.msg.Body), "code")
}

func TestMessaging_PublishOTPVerified_Error(t *testing.T) {
	boom := errors.New("broker down")
	m := NewMessaging(&recordingPublisher{err: boom}, instrument.NewNoop())

	err := m.PublishOTPVerified(context.Background(), usecase.OTPVerifiedEvent{Email: "a@b.co", Purpose: "registration"})
	assert.ErrorIs(t, err, boom)
}
