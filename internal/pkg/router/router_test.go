package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shandysiswandi/billease/internal/pkg/config"
	"github.com/shandysiswandi/billease/internal/pkg/goerror"
	"github.com/shandysiswandi/billease/internal/pkg/instrument"
	"github.com/shandysiswandi/billease/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

type echoInput struct {
	Email string `json:"email"`
}

type echoOutput struct {
	Email string `json:"email"`
}

func (echoOutput) Message() string { return "echoed" }
func (echoOutput) StatusCode() int { return http.StatusCreated }

func newTestRouter(t *testing.T, yaml string) *Router {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte(yaml))
	require.NoError(t, err)

	r := NewRouter(Config{Config: cfg, UUID: fixedID("generated-cid"), Instrument: instrument.NewNoop()})

	r.POST("/echo", func(req *Request) (any, error) {
		var in echoInput
		if err := req.DecodeBody(&in); err != nil {
			return nil, err
		}
		return echoOutput(in), nil
	})
	failures := map[string]func() error{
		"validation": func() error {
			return goerror.NewInvalidInput(validator.V10ValidationError{"email": "Email is a required field"})
		},
		"business": func() error { return goerror.NewBusiness("OTP has expired", goerror.CodeExpired) },
		"panic":    func() error { panic("boom") },
		"raw":      func() error { return errors.New("raw") },
	}
	for kind, fail := range failures {
		r.GET("/fail/"+kind, func(*Request) (any, error) { return nil, fail() })
	}
	r.GET("/empty", func(*Request) (any, error) { return nil, nil })

	return r
}

func do(r http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

func TestRouter_Success(t *testing.T) {
	r := newTestRouter(t, "app: {}")

	rec := do(r, http.MethodPost, "/echo", `{"email":"ana@example.com"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "generated-cid", rec.Header().Get(HeaderCorrelationID))

	body := decode(t, rec)
	assert.Equal(t, "echoed", body["message"])
	assert.Equal(t, map[string]any{"email": "ana@example.com"}, body["data"])
}

func TestRouter_CorrelationIDFromHeader(t *testing.T) {
	r := newTestRouter(t, "app: {}")

	rec := do(r, http.MethodPost, "/echo", `{"email":"a@b.co"}`, HeaderRequestID, "from-proxy")
	assert.Equal(t, "from-proxy", rec.Header().Get(HeaderCorrelationID))
}

func TestRouter_DecodeBodyRejects(t *testing.T) {
	r := newTestRouter(t, "app:\n  server:\n    http:\n      max_body_bytes: 64\n")

	for name, body := range map[string]string{
		"unknown field": `{"email":"a@b.co","admin":true}`,
		"trailing data": `{"email":"a@b.co"}{}`,
		"malformed":     `{"email":`,
		"too large":     `{"email":"` + strings.Repeat("a", 128) + `"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/echo", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestRouter_Errors(t *testing.T) {
	r := newTestRouter(t, "app: {}")

	rec := do(r, http.MethodGet, "/fail/validation", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, map[string]any{"email": "Email is a required field"}, decode(t, rec)["error"])

	rec = do(r, http.MethodGet, "/fail/business", "")
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "OTP has expired", decode(t, rec)["message"])

	rec = do(r, http.MethodGet, "/fail/raw", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = do(r, http.MethodGet, "/fail/panic", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_NoContentAndFallbacks(t *testing.T) {
	r := newTestRouter(t, "app: {}")

	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/empty", "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(r, http.MethodDelete, "/echo", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/", "").Code)
}

func TestRouter_Maintenance(t *testing.T) {
	r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: \"/echo\"\n")

	rec := do(r, http.MethodPost, "/echo", `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_MaintenanceByMethod(t *testing.T) {
	r := newTestRouter(t, "app:\n  maintenance:\n    endpoints: \"get /empty\"\n")

	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/empty", "").Code)
	assert.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/echo", `{"email":"a@b.co"}`).Code)
}

func TestRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", realIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", realIP(req))

	req.Header.Set("True-Client-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", realIP(req))
}

func TestMaskSet(t *testing.T) {
	cfg, err := config.NewViperFromBytes("yaml", []byte("instrument:\n  log_mask_fields: \"code, Authorization\"\n"))
	require.NoError(t, err)
	m := newMaskSet(cfg)

	got := m.body("application/json", []byte(`{"email":"a@b.co","code":"123456","nested":[{"code":"1"}]}`))
	assert.Equal(t, map[string]any{
		"email":  "a@b.co",
		"code":   maskedValue,
		"nested": []any{map[string]any{"code": maskedValue}},
	}, got)

	form := m.body("application/x-www-form-urlencoded", []byte("code=1&email=a"))
	assert.Equal(t, map[string]any{"code": maskedValue, "email": "a"}, form)

	h := http.Header{"Authorization": {"Bearer x"}, "Accept": {"*/*"}}
	masked := m.headers(h)
	assert.Equal(t, maskedValue, masked.Get("Authorization"))
	assert.Equal(t, "Bearer x", h.Get("Authorization"))
	assert.Nil(t, m.body("", nil))
}

func TestMaskSet_DefaultFields(t *testing.T) {
	m := newMaskSet(nil)

	got := m.body("application/json", []byte(`{"email":"a@b.co","verification_token":"eyJ","verificationToken":"eyJ","code":"123456"}`))
	assert.Equal(t, map[string]any{
		"email":              "a@b.co",
		"verification_token": maskedValue,
		"verificationToken":  maskedValue,
		"code":               maskedValue,
	}, got)
	assert.Equal(t, maskedValue, m.headers(http.Header{"Pepper": {"p"}}).Get("Pepper"))
}

func TestIncomingCID(t *testing.T) {
	assert.Empty(t, incomingCID(http.Header{}))
	assert.Empty(t, incomingCID(http.Header{"X-Correlation-Id": {"a\r\nb"}}))
	assert.Empty(t, incomingCID(http.Header{"X-Correlation-Id": {"   "}}))
	assert.Len(t, incomingCID(http.Header{"X-Correlation-Id": {strings.Repeat("x", 200)}}), 128)
	assert.Equal(t, "req-1", incomingCID(http.Header{"X-Correlation-Id": {"a\nb"}, "X-Request-Id": {"req-1"}}))
}

func TestRealIP_Invalid(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "not-an-address"
	req.Header.Set("X-Real-IP", "garbage")
	assert.Empty(t, realIP(req))
}
