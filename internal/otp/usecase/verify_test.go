package usecase

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/pkg/goerror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_Success(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	code := h.issue(t, "a@b.com", "registration")

	out, err := h.uc.Verify(ctx, VerifyInput{Email: "a@b.com", Code: code})
	require.NoError(t, err)
	require.NotEmpty(t, out.VerificationToken)
	assert.NotContains(t, out.VerificationToken, code)
	assert.Equal(t, t0.Add(10*time.Minute), out.TokenExpiresAt)

	claims, err := h.jwt.Verify(out.VerificationToken)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, entity.PurposeRegistration, claims.Purpose)

	_, err = h.store.Find(ctx, "a@b.com", "registration")
	assert.ErrorIs(t, err, goerror.ErrNotFound)

	require.Len(t, h.mq.events, 1)
	assert.Equal(t, OTPVerifiedEvent{Email: "a@b.com", Purpose: "registration", VerifiedAt: t0}, h.mq.events[0])
}

func TestVerify_SingleUse(t *testing.T) {
	h := newHarness(t)
	code := h.issue(t, "a@b.com", "")

	_, err := h.uc.Verify(context.Background(), VerifyInput{Email: "a@b.com", Code: code})
	require.NoError(t, err)

	_, err = h.uc.Verify(context.Background(), VerifyInput{Email: "a@b.com", Code: code})
	assert.ErrorIs(t, err, entity.ErrOTPNotFound)
	assertStatus(t, err, http.StatusNotFound)
}

func TestVerify_Mismatch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	code := h.issue(t, "a@b.com", "")

	_, err := h.uc.Verify(ctx, VerifyInput{Email: "a@b.com", Code: wrongCode(code)})
	assert.ErrorIs(t, err, entity.ErrOTPMismatch)
	assertStatus(t, err, http.StatusUnauthorized)

	_, err = h.store.Find(ctx, "a@b.com", "registration")
	require.NoError(t, err, "a mismatch must leave the record in place")

	out, err := h.uc.Verify(ctx, VerifyInput{Email: "a@b.com", Code: code})
	require.NoError(t, err)
	assert.NotEmpty(t, out.VerificationToken)
}

func TestVerify_Expiry(t *testing.T) {
	t.Run("one second past ttl", func(t *testing.T) {
		h := newHarness(t)
		ctx := context.Background()
		code := h.issue(t, "a@b.com", "")

		h.clock.Advance(entity.DefaultCodeTTL + time.Second)

		_, err := h.uc.Verify(ctx, VerifyInput{Email: "a@b.com", Code: code})
		assert.ErrorIs(t, err, entity.ErrOTPExpired)
		assertStatus(t, err, http.StatusGone)

		_, err = h.store.Find(ctx, "a@b.com", "registration")
		assert.ErrorIs(t, err, goerror.ErrNotFound)
	})

	t.Run("wrong code past ttl is still expired", func(t *testing.T) {
		h := newHarness(t)
		code := h.issue(t, "a@b.com", "")

		h.clock.Advance(entity.DefaultCodeTTL + time.Second)

		_, err := h.uc.Verify(context.Background(), VerifyInput{Email: "a@b.com", Code: wrongCode(code)})
		assert.ErrorIs(t, err, entity.ErrOTPExpired)
	})

	t.Run("exactly at ttl is live", func(t *testing.T) {
		h := newHarness(t)
		code := h.issue(t, "a@b.com", "")

		h.clock.Advance(entity.DefaultCodeTTL)

		_, err := h.uc.Verify(context.Background(), VerifyInput{Email: "a@b.com", Code: code})
		assert.NoError(t, err)
	})
}

func TestVerify_ReissueReplaces(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := h.issue(t, "a@b.com", "")
	second := h.issue(t, "a@b.com", "")
	assert.Equal(t, 1, h.store.Len())

	if first != second {
		_, err := h.uc.Verify(ctx, VerifyInput{Email: "a@b.com", Code: first})
		assert.ErrorIs(t, err, entity.ErrOTPMismatch)
	}

	_, err := h.uc.Verify(ctx, VerifyInput{Email: "a@b.com", Code: second})
	assert.NoError(t, err)
}

func TestVerify_Normalization(t *testing.T) {
	h := newHarness(t)
	code := h.issue(t, "User@Example.com ", "")

	out, err := h.uc.Verify(context.Background(), VerifyInput{Email: " user@example.com", Code: code})
	require.NoError(t, err)

	claims, err := h.jwt.Verify(out.VerificationToken)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestVerify_PurposeIsolation(t *testing.T) {
	h := newHarness(t)
	code := h.issue(t, "a@b.com", "registration")

	_, err := h.uc.Verify(context.Background(), VerifyInput{Email: "a@b.com", Code: code, Purpose: "email_change"})
	assert.ErrorIs(t, err, entity.ErrOTPNotFound)
}

func TestVerify_ConcurrentCorrectCode(t *testing.T) {
	h := newHarness(t)
	code := h.issue(t, "race@b.com", "")

	const attempts = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		tokens   int
		notFound int
	)
	for range attempts {
		wg.Go(func() {
			out, err := h.uc.Verify(context.Background(), VerifyInput{Email: "race@b.com", Code: code})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && out.VerificationToken != "":
				tokens++
			case errors.Is(err, entity.ErrOTPNotFound):
				notFound++
			default:
				t.Errorf("unexpected verify result: %v", err)
			}
		})
	}
	wg.Wait()

	assert.Equal(t, 1, tokens)
	assert.Equal(t, attempts-1, notFound)
	assert.Len(t, h.mq.events, 1)
}

func TestVerify_InvalidInput(t *testing.T) {
	h := newHarness(t)

	for _, in := range []VerifyInput{
		{Email: "bad-email", Code: "123456"},
		{Email: "a@b.com", Code: "12345"},
		{Email: "a@b.com", Code: "12345a"},
		{Email: "a@b.com", Code: "123456", Purpose: "NOT OK"},
	} {
		_, err := h.uc.Verify(context.Background(), in)
		assert.ErrorIs(t, err, entity.ErrInvalidInput, "%+v", in)
		assertStatus(t, err, http.StatusUnprocessableEntity)
	}
}

func TestVerify_StoreFailureIsNotNotFound(t *testing.T) {
	h := newHarnessWithStore(t, failingStore{err: errors.New("i/o timeout")})

	_, err := h.uc.Verify(context.Background(), VerifyInput{Email: "a@b.com", Code: "123456"})
	assert.ErrorIs(t, err, entity.ErrStore)
	assert.NotErrorIs(t, err, entity.ErrOTPNotFound)
	assertStatus(t, err, http.StatusInternalServerError)
}

func TestVerify_PublishFailureStillSucceeds(t *testing.T) {
	h := newHarness(t)
	h.mq.err = errors.New("broker down")
	code := h.issue(t, "a@b.com", "")

	out, err := h.uc.Verify(context.Background(), VerifyInput{Email: "a@b.com", Code: code})
	require.NoError(t, err)
	assert.NotEmpty(t, out.VerificationToken)
}
