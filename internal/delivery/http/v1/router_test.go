package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"fourwheels-backend/config"
	"fourwheels-backend/internal/delivery/http/middleware"
	"fourwheels-backend/internal/delivery/http/response"
	v1 "fourwheels-backend/internal/delivery/http/v1"
	"fourwheels-backend/internal/usecase"
	"fourwheels-backend/pkg/apperror"
	"fourwheels-backend/pkg/attachment"
	"fourwheels-backend/pkg/email"
	"fourwheels-backend/pkg/ratelimit"
	"fourwheels-backend/pkg/security"
	"fourwheels-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingTransport struct {
	mu   sync.Mutex
	sent []*email.Message
}

func (t *recordingTransport) Send(ctx context.Context, msg *email.Message) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sent = append(t.sent, msg)
	return msg.HeaderID(), nil
}

func (t *recordingTransport) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sent)
}

func testConfig() *config.Config {
	return &config.Config{
		RateLimitMax:        30,
		RateLimitWindow:     10 * time.Minute,
		FormRateLimitMax:    5,
		FormRateLimitWindow: time.Hour,
		MaxBodyBytes:        25 << 20,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config, transport email.Transport) *gin.Engine {
	t.Helper()
	store := ratelimit.NewMemoryStore(0)
	t.Cleanup(func() { store.Close() })

	secLogger := security.NewSecurityLogger(zap.NewNop(), "test", "test")
	mailer := email.NewService(transport,
		email.Address{Name: "4 KÓŁKA", Email: "formularz@4kolka.pl"},
		email.Address{Email: "warsztat@4kolka.pl"},
	)
	uc := usecase.NewContactUsecase(mailer, validation.New(), attachment.DefaultPolicy(), nil, secLogger)

	return v1.NewRouter(v1.RouterDeps{
		ContactUC:      uc,
		RateLimitStore: store,
		SecLogger:      secLogger,
		Config:         cfg,
		StartedAt:      time.Now().Add(-time.Minute),
		HealthUC: usecase.NewHealthUsecase(map[string]usecase.HealthCheck{
			"ratelimit": func(context.Context) error { return nil },
		}, time.Second),
	})
}

const validBody = `{
	"name": "Jan",
	"phone": "+48 796000000",
	"email": "jan@example.com",
	"vin": "WAUZZZ8K79A123456",
	"msg": "Stuk z przodu przy hamowaniu.",
	"honeypot": "",
	"source": "website-4kolka",
	"timestamp": "2026-04-01T09:30:00.000Z"
}`

func postJSON(r http.Handler, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.10:40000"
	for _, m := range mutate {
		m(req)
	}
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res), w.Body.String())
	return res
}

func TestContactEndpoint(t *testing.T) {
	t.Run("Valid submission returns the message id", func(t *testing.T) {
		transport := &recordingTransport{}
		r := newTestRouter(t, testConfig(), transport)

		w := postJSON(r, validBody)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		res := decode(t, w)
		assert.True(t, res.OK)
		assert.True(t, strings.HasSuffix(res.ID, "@4kolka.pl>"))
		assert.NotEmpty(t, res.RequestID)
		require.Equal(t, 1, transport.count())
		assert.Equal(t, "jan@example.com", transport.sent[0].ReplyTo.Email)
	})

	t.Run("Filled honeypot never succeeds", func(t *testing.T) {
		transport := &recordingTransport{}
		r := newTestRouter(t, testConfig(), transport)

		body := strings.Replace(validBody, `"honeypot": ""`, `"honeypot": "x"`, 1)
		w := postJSON(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		res := decode(t, w)
		assert.False(t, res.OK)
		assert.Equal(t, apperror.CodeValidation, res.Error)
		require.NotNil(t, res.Details)
		assert.Contains(t, res.Details.FieldErrors, "msg")
		assert.NotContains(t, w.Body.String(), "SPAM")
		assert.Zero(t, transport.count())
	})

	t.Run("Short VIN is a field error", func(t *testing.T) {
		r := newTestRouter(t, testConfig(), &recordingTransport{})

		body := strings.Replace(validBody, "WAUZZZ8K79A123456", "123", 1)
		w := postJSON(r, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		res := decode(t, w)
		require.NotNil(t, res.Details)
		assert.Len(t, res.Details.FieldErrors, 1)
		assert.Contains(t, res.Details.FieldErrors, "vin")
	})

	t.Run("Malformed JSON is a 400", func(t *testing.T) {
		r := newTestRouter(t, testConfig(), &recordingTransport{})
		w := postJSON(r, `{"name":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, apperror.CodeValidation, decode(t, w).Error)
	})

	t.Run("Unconfigured mail is 503 MAIL_DISABLED", func(t *testing.T) {
		r := newTestRouter(t, testConfig(), email.DisabledTransport{})
		w := postJSON(r, validBody)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, apperror.CodeMailDisabled, decode(t, w).Error)
	})

	t.Run("Request max+1 in a window is 429", func(t *testing.T) {
		cfg := testConfig()
		cfg.RateLimitMax = 2
		transport := &recordingTransport{}
		r := newTestRouter(t, cfg, transport)

		assert.Equal(t, http.StatusOK, postJSON(r, validBody).Code)
		// rejected requests count too
		assert.Equal(t, http.StatusBadRequest, postJSON(r, `{}`).Code)

		w := postJSON(r, validBody)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, apperror.CodeTooManyRequests, decode(t, w).Error)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.Equal(t, 1, transport.count())
	})

	t.Run("CSRF enabled requires the token", func(t *testing.T) {
		cfg := testConfig()
		cfg.CSRFEnabled = true
		r := newTestRouter(t, cfg, &recordingTransport{})

		w := postJSON(r, validBody)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperror.CodeCSRF, decode(t, w).Error)

		w = postJSON(r, validBody, func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: middleware.CSRFTokenCookieName, Value: "tok"})
			req.Header.Set(middleware.CSRFTokenHeaderName, "tok")
		})
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	})
}

func TestContactFormEndpoint(t *testing.T) {
	form := func() url.Values {
		return url.Values{
			"name":  {"Jan Kowalski"},
			"phone": {"+48 796 000 000"},
			"email": {"jan@example.com"},
			"vin":   {"WAUZZZ8K79A123456"},
			"msg":   {"Proszę o kontakt."},
			"csrf":  {"tok"},
		}
	}
	post := func(r http.Handler, values url.Values, cookie string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/contact/form", strings.NewReader(values.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: middleware.FormCSRFCookieName, Value: cookie})
		}
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Valid form is mailed", func(t *testing.T) {
		transport := &recordingTransport{}
		r := newTestRouter(t, testConfig(), transport)

		w := post(r, form(), "tok")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.True(t, decode(t, w).OK)
		assert.Equal(t, 1, transport.count())
	})

	t.Run("Missing cookie is 403", func(t *testing.T) {
		r := newTestRouter(t, testConfig(), &recordingTransport{})
		w := post(r, form(), "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperror.CodeCSRF, decode(t, w).Error)
	})

	t.Run("Bad VIN is 422 VIN_INVALID", func(t *testing.T) {
		r := newTestRouter(t, testConfig(), &recordingTransport{})
		values := form()
		values.Set("vin", "123")
		w := post(r, values, "tok")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, apperror.CodeVINInvalid, decode(t, w).Error)
	})

	t.Run("Sixth request in an hour is 429", func(t *testing.T) {
		r := newTestRouter(t, testConfig(), &recordingTransport{})
		for i := 0; i < 5; i++ {
			require.Equal(t, http.StatusOK, post(r, form(), "tok").Code)
		}
		assert.Equal(t, http.StatusTooManyRequests, post(r, form(), "tok").Code)
	})

	t.Run("GET is 405", func(t *testing.T) {
		r := newTestRouter(t, testConfig(), &recordingTransport{})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/contact/form", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, apperror.CodeMethodNotAllowed, decode(t, w).Error)
	})
}

func TestRouterFallbacks(t *testing.T) {
	r := newTestRouter(t, testConfig(), &recordingTransport{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperror.CodeNotFound, decode(t, w).Error)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var health v1.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.True(t, health.OK)
	assert.GreaterOrEqual(t, health.Uptime, 60.0)
}

func TestReadiness(t *testing.T) {
	r := newTestRouter(t, testConfig(), &recordingTransport{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var ready v1.ReadinessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.True(t, ready.OK)
	assert.Equal(t, "up", ready.Checks["ratelimit"])

	store := ratelimit.NewMemoryStore(0)
	t.Cleanup(func() { store.Close() })
	down := v1.NewRouter(v1.RouterDeps{
		RateLimitStore: store,
		SecLogger:      security.NewSecurityLogger(zap.NewNop(), "test", "test"),
		Config:         testConfig(),
		HealthUC: usecase.NewHealthUsecase(map[string]usecase.HealthCheck{
			"clamav": func(context.Context) error { return errors.New("connection refused") },
		}, time.Second),
	})

	w = httptest.NewRecorder()
	down.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}
