package otp

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/outbound/store"
	"github.com/shandysiswandi/billease/internal/pkg/clock"
	"github.com/shandysiswandi/billease/internal/pkg/config"
	"github.com/shandysiswandi/billease/internal/pkg/goroutine"
	"github.com/shandysiswandi/billease/internal/pkg/hash"
	"github.com/shandysiswandi/billease/internal/pkg/idempotency"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
	"github.com/shandysiswandi/billease/internal/pkg/jwt"
	"github.com/shandysiswandi/billease/internal/pkg/mail"
	"github.com/shandysiswandi/billease/internal/pkg/messaging"
	"github.com/shandysiswandi/billease/internal/pkg/router"
	"github.com/shandysiswandi/billease/internal/pkg/uid"
	"github.com/shandysiswandi/billease/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const moduleYAML = `
modules:
  otp:
    code_ttl_seconds: 300
    mail_timeout_seconds: 2
store:
  sweep_interval_seconds: 1
  retention_seconds: 600
`

func newDependency(t *testing.T, ctx context.Context) Dependency {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(moduleYAML))
	require.NoError(t, err)
	v, err := validator.NewV10Validator()
	require.NoError(t, err)
	sf, err := uid.NewSnowflake(3)
	require.NoError(t, err)

	clk := clock.New()
	uuid := uid.NewUUID()
	ins := instrument.NewNoop()
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret: bytes.Repeat([]byte("k"), 64),
		Issuer: "billease",
		TTL:    10 * time.Minute,
		Clock:  clk,
		UUID:   uuid,
	})
	require.NoError(t, err)

	return Dependency{
		Ctx:        ctx,
		Store:      store.NewMemory(),
		Goroutine:  goroutine.NewManager(4),
		Router:     router.NewRouter(router.Config{Config: cfg, UUID: uuid, Instrument: ins}),
		Ledger:     idempotency.NewMemory(clk),
		Mail:       mail.NewLog("BillEase <no-reply@billease.ph>"),
		Messaging:  messaging.NewLog(),
		Config:     cfg,
		Instrument: ins,
		UID:        sf,
		Hash:       hash.NewBcrypt(4, ""),
		Clock:      clk,
		Validator:  v,
		JWT:        tokens,
	}
}

func TestNew(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dep := newDependency(t, ctx)

	require.NoError(t, New(dep))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/otp/issue",
		strings.NewReader(`{"email":"alice@example.com","displayName":"Alice"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	dep.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	email, purpose := "alice@example.com", "registration"
	got, err := dep.Store.Find(ctx, email, purpose)
	require.NoError(t, err)
	assert.Equal(t, email, got.Email)

	cancel()
	assert.NoError(t, dep.Goroutine.Wait())
}

func TestNew_MissingDependency(t *testing.T) {
	dep := newDependency(t, context.Background())
	dep.Store = nil

	assert.Error(t, New(dep))
}

func TestNew_RetentionBelowCodeTTL(t *testing.T) {
	dep := newDependency(t, context.Background())
	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  otp:\n    code_ttl_seconds: 300\nstore:\n  retention_seconds: 120\n"))
	require.NoError(t, err)
	dep.Config = cfg

	assert.ErrorIs(t, New(dep), store.ErrRetentionBelowTTL)
}
