package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func verifiedToken(t *testing.T, h *harness, email, purpose string) string {
	t.Helper()
	code := h.issue(t, email, purpose)
	out, err := h.uc.Verify(context.Background(), VerifyInput{Email: email, Code: code, Purpose: purpose})
	require.NoError(t, err)
	return out.VerificationToken
}

func TestRedeem(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	token := verifiedToken(t, h, "a@b.com", "")

	out, err := h.uc.Redeem(ctx, RedeemInput{Token: token, Email: " A@B.com"})
	require.NoError(t, err)
	assert.Equal(t, &RedeemOutput{Email: "a@b.com", Purpose: entity.PurposeRegistration}, out)

	_, err = h.uc.Redeem(ctx, RedeemInput{Token: token, Email: "a@b.com"})
	assert.ErrorIs(t, err, entity.ErrTokenUsed)
	assertStatus(t, err, http.StatusConflict)
}

func TestRedeem_Rejects(t *testing.T) {
	h := newHarness(t)
	token := verifiedToken(t, h, "a@b.com", "")

	tests := []struct {
		name string
		in   RedeemInput
	}{
		{name: "other email", in: RedeemInput{Token: token, Email: "c@d.com"}},
		{name: "other purpose", in: RedeemInput{Token: token, Email: "a@b.com", Purpose: "email_change"}},
		{name: "garbage", in: RedeemInput{Token: "not.a.jwt", Email: "a@b.com"}},
		{name: "tampered", in: RedeemInput{Token: token + "x", Email: "a@b.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.uc.Redeem(context.Background(), tt.in)
			assert.ErrorIs(t, err, entity.ErrTokenInvalid)
			assertStatus(t, err, http.StatusUnauthorized)
		})
	}

	// rejected attempts do not burn the token
	_, err := h.uc.Redeem(context.Background(), RedeemInput{Token: token, Email: "a@b.com"})
	assert.NoError(t, err)
}

func TestRedeem_Expired(t *testing.T) {
	h := newHarness(t)
	token := verifiedToken(t, h, "a@b.com", "")

	h.clock.Advance(11 * time.Minute)

	_, err := h.uc.Redeem(context.Background(), RedeemInput{Token: token, Email: "a@b.com"})
	assert.ErrorIs(t, err, entity.ErrTokenInvalid)
}

func TestRedeem_InvalidInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.Redeem(context.Background(), RedeemInput{Email: "a@b.com"})
	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	assertStatus(t, err, http.StatusUnprocessableEntity)
}
