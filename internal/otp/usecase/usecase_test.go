package usecase

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/entity"
	"github.com/shandysiswandi/billease/internal/otp/outbound/store"
	"github.com/shandysiswandi/billease/internal/pkg/clock"
	"github.com/shandysiswandi/billease/internal/pkg/config"
	"github.com/shandysiswandi/billease/internal/pkg/goerror"
	"github.com/shandysiswandi/billease/internal/pkg/hash"
	"github.com/shandysiswandi/billease/internal/pkg/idempotency"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
	"github.com/shandysiswandi/billease/internal/pkg/jwt"
	"github.com/shandysiswandi/billease/internal/pkg/uid"
	"github.com/shandysiswandi/billease/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
modules:
  otp:
    code_ttl_seconds: 300
    mail_timeout_seconds: 1
`

var t0 = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type sentMail struct {
	To, Code, DisplayName string
}

type fakeMail struct {
	mu    sync.Mutex
	sent  []sentMail
	err   error
	block bool
}

func (f *fakeMail) SendOTP(ctx context.Context, to, code, displayName string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{To: to, Code: code, DisplayName: displayName})
	return f.err
}

func (f *fakeMail) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeMail) lastCode(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent, "no mail sent")
	return f.sent[len(f.sent)-1].Code
}

type fakeMessaging struct {
	mu     sync.Mutex
	events []OTPVerifiedEvent
	err    error
}

func (f *fakeMessaging) PublishOTPVerified(_ context.Context, msg OTPVerifiedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, msg)
	return f.err
}

type failingStore struct {
	err error
}

func (f failingStore) Upsert(context.Context, entity.OTPRecord) error { return f.err }

func (f failingStore) Find(context.Context, string, string) (*entity.OTPRecord, error) {
	return nil, f.err
}

func (f failingStore) Consume(context.Context, string, string, int64) (bool, error) {
	return false, f.err
}

type harness struct {
	uc    *Usecase
	store *store.Memory
	mail  *fakeMail
	mq    *fakeMessaging
	clock *clock.Manual
	jwt   jwt.JWT
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithStore(t, nil)
}

func newHarnessWithStore(t *testing.T, repo repoStore) *harness {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	sf, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	clk := clock.NewManual(t0)

	tokens, err := jwt.NewHS512(jwt.Config{
		Secret: bytes.Repeat([]byte("k"), 64),
		Issuer: "billease",
		TTL:    10 * time.Minute,
		Clock:  clk,
		UUID:   uid.NewUUID(),
	})
	require.NoError(t, err)

	h := &harness{
		store: store.NewMemory(),
		mail:  &fakeMail{},
		mq:    &fakeMessaging{},
		clock: clk,
		jwt:   tokens,
	}
	if repo == nil {
		repo = h.store
	}

	h.uc = New(Dependency{
		RepoStore:     repo,
		RepoMail:      h.mail,
		RepoMessaging: h.mq,
		Ledger:        idempotency.NewMemory(clk),
		Validator:     v,
		Config:        cfg,
		Hash:          hash.NewArgon2idWithParams(hash.Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1}),
		UID:           sf,
		Clock:         clk,
		JWT:           tokens,
		Instrument:    instrument.NewNoop(),
	})

	return h
}

// issue issues a code for email and returns the plaintext the mailer received.
func (h *harness) issue(t *testing.T, email, purpose string) string {
	t.Helper()
	_, err := h.uc.Issue(context.Background(), IssueInput{Email: email, DisplayName: "Ana", Purpose: purpose})
	require.NoError(t, err)
	return h.mail.lastCode(t)
}

func wrongCode(code string) string {
	if code == "000000" {
		return "111111"
	}
	return "000000"
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	var gerr *goerror.Error
	require.True(t, errors.As(err, &gerr), "expected *goerror.Error, got %T", err)
	assert.Equal(t, status, gerr.StatusCode())
}
