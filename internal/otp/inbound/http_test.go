package inbound

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/billease/internal/otp/outbound/store"
	"github.com/shandysiswandi/billease/internal/otp/usecase"
	"github.com/shandysiswandi/billease/internal/pkg/clock"
	"github.com/shandysiswandi/billease/internal/pkg/config"
	"github.com/shandysiswandi/billease/internal/pkg/hash"
	"github.com/shandysiswandi/billease/internal/pkg/idempotency"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
	"github.com/shandysiswandi/billease/internal/pkg/jwt"
	"github.com/shandysiswandi/billease/internal/pkg/router"
	"github.com/shandysiswandi/billease/internal/pkg/uid"
	"github.com/shandysiswandi/billease/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inboxMail struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *inboxMail) SendOTP(_ context.Context, to, code, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[to] = code
	return nil
}

func (m *inboxMail) code(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

type nopMessaging struct{}

func (nopMessaging) PublishOTPVerified(context.Context, usecase.OTPVerifiedEvent) error { return nil }

type envelope struct {
	Message string            `json:"message"`
	Data    map[string]any    `json:"data"`
	Error   map[string]string `json:"error"`
}

func newServer(t *testing.T) (*httptest.Server, *inboxMail) {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("modules:\n  otp:\n    code_ttl_seconds: 300\n"))
	require.NoError(t, err)
	v, err := validator.NewV10Validator()
	require.NoError(t, err)
	sf, err := uid.NewSnowflake(2)
	require.NoError(t, err)

	clk := clock.New()
	tokens, err := jwt.NewHS512(jwt.Config{
		Secret: bytes.Repeat([]byte("s"), 64),
		Issuer: "billease",
		TTL:    10 * time.Minute,
		Clock:  clk,
		UUID:   uid.NewUUID(),
	})
	require.NoError(t, err)

	mail := &inboxMail{codes: make(map[string]string)}
	uc := usecase.New(usecase.Dependency{
		RepoStore:     store.NewMemory(),
		RepoMail:      mail,
		RepoMessaging: nopMessaging{},
		Ledger:        idempotency.NewMemory(clk),
		Validator:     v,
		Config:        cfg,
		Hash:          hash.NewBcrypt(4, ""),
		UID:           sf,
		Clock:         clk,
		JWT:           tokens,
		Instrument:    instrument.NewNoop(),
	})

	r := router.NewRouter(router.Config{Config: cfg, UUID: uid.NewUUID(), Instrument: instrument.NewNoop()})
	RegisterHTTPEndpoint(r, uc)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, mail
}

func post(t *testing.T, srv *httptest.Server, path, body string) (int, envelope) {
	t.Helper()

	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestHTTP_Flow(t *testing.T) {
	srv, mail := newServer(t)

	status, env := post(t, srv, "/api/v1/otp/issue", `{"email":"New.User@Example.com ","displayName":"New User"}`)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, true, env.Data["success"])
	assert.NotEmpty(t, env.Data["requestId"])
	assert.NotEmpty(t, env.Data["expiresAt"])
	assert.NotContains(t, env.Data, "code")

	code := mail.code("new.user@example.com")
	require.Len(t, code, 6)

	status, env = post(t, srv, "/api/v1/otp/verify", `{"email":"new.user@example.com","code":"`+code+`"}`)
	require.Equal(t, http.StatusOK, status, env.Message)
	token, _ := env.Data["verificationToken"].(string)
	require.NotEmpty(t, token)

	status, _ = post(t, srv, "/api/v1/otp/verify", `{"email":"new.user@example.com","code":"`+code+`"}`)
	assert.Equal(t, http.StatusNotFound, status)

	redeem := `{"verificationToken":"` + token + `","email":"new.user@example.com"}`
	status, env = post(t, srv, "/api/v1/otp/token/redeem", redeem)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, "new.user@example.com", env.Data["email"])
	assert.Equal(t, "registration", env.Data["purpose"])

	status, _ = post(t, srv, "/api/v1/otp/token/redeem", redeem)
	assert.Equal(t, http.StatusConflict, status)
}

func TestHTTP_Errors(t *testing.T) {
	srv, mail := newServer(t)

	status, env := post(t, srv, "/api/v1/otp/issue", `{"email":"bad-email"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, env.Error, "email")

	status, _ = post(t, srv, "/api/v1/otp/issue", `{"email":"a@b.com","unknown":1}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = post(t, srv, "/api/v1/otp/verify", `{"email":"nobody@b.com","code":"123456"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = post(t, srv, "/api/v1/otp/issue", `{"email":"a@b.com"}`)
	require.Equal(t, http.StatusOK, status)
	wrong := "000000"
	if mail.code("a@b.com") == wrong {
		wrong = "111111"
	}

	status, env = post(t, srv, "/api/v1/otp/verify", `{"email":"a@b.com","code":"`+wrong+`"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Incorrect code", env.Message)

	status, _ = post(t, srv, "/api/v1/otp/token/redeem", `{"verificationToken":"nope","email":"a@b.com"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestHTTP_WireFieldNames(t *testing.T) {
	srv, mail := newServer(t)

	status, env := post(t, srv, "/api/v1/otp/issue", `{"email":"ann@b.com","displayName":"Ann","purpose":"registration"}`)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, true, env.Data["success"])

	status, env = post(t, srv, "/api/v1/otp/verify", `{"email":"ann@b.com","code":"`+mail.code("ann@b.com")+`","purpose":"registration"}`)
	require.Equal(t, http.StatusOK, status, env.Message)
	assert.Equal(t, true, env.Data["success"])
	assert.NotEmpty(t, env.Data["verificationToken"])
	assert.NotEmpty(t, env.Data["tokenExpiresAt"])
	assert.NotContains(t, env.Data, "verification_token")
}
