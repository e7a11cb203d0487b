package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fourwheels-backend/internal/delivery/http/middleware"
	"fourwheels-backend/internal/delivery/http/response"
	"fourwheels-backend/pkg/apperror"
	"fourwheels-backend/pkg/ratelimit"
	"fourwheels-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var nopSecLogger = security.NewSecurityLogger(zap.NewNop(), "test", "test")

func decode(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var res response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func okHandler(c *gin.Context) {
	response.Success(c, http.StatusOK, "ok")
}

func TestRateLimitMiddleware(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	store := ratelimit.NewMemoryStore(0)
	defer store.Close()

	cfg := middleware.RateLimitConfig{
		Max:       3,
		Window:    10 * time.Minute,
		KeyPrefix: "rl:test:",
		Store:     store,
		SecLogger: nopSecLogger,
		Now:       func() time.Time { return now },
	}

	r := gin.New()
	r.POST("/api/contact", middleware.RateLimitMiddleware(cfg), okHandler)

	hit := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.RemoteAddr = "203.0.113.7:5000"
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 3; i++ {
		w := hit()
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}

	w := hit()
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "600", w.Header().Get("Retry-After"))
	res := decode(t, w)
	assert.False(t, res.OK)
	assert.Equal(t, apperror.CodeTooManyRequests, res.Error)

	// Exactly at the window edge the old window still holds.
	now = now.Add(10 * time.Minute)
	assert.Equal(t, http.StatusTooManyRequests, hit().Code)

	now = now.Add(time.Millisecond)
	assert.Equal(t, http.StatusOK, hit().Code)
}

func TestRateLimitMiddlewareSeparatesClients(t *testing.T) {
	store := ratelimit.NewMemoryStore(0)
	defer store.Close()

	r := gin.New()
	r.POST("/x", middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Max: 1, Window: time.Minute, KeyPrefix: "rl:", Store: store, SecLogger: nopSecLogger,
	}), okHandler)

	send := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
}

func csrfRouter(enabled bool) *gin.Engine {
	r := gin.New()
	r.POST("/api/contact", middleware.CSRFMiddleware(middleware.CSRFConfig{
		Enabled:   enabled,
		SecLogger: nopSecLogger,
	}), func(c *gin.Context) {
		// the body must still be readable after the probe
		var body struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindBodyWith(&body, binding.JSON); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		response.Success(c, http.StatusOK, body.Name)
	})
	return r
}

func TestCSRFMiddleware(t *testing.T) {
	const token = "abc123"

	post := func(r *gin.Engine, body, header, cookie string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		if header != "" {
			req.Header.Set(middleware.CSRFTokenHeaderName, header)
		}
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: middleware.CSRFTokenCookieName, Value: cookie})
		}
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Disabled check lets everything through", func(t *testing.T) {
		w := post(csrfRouter(false), `{"name":"Jan"}`, "", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Header token matching cookie passes", func(t *testing.T) {
		w := post(csrfRouter(true), `{"name":"Jan"}`, token, token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Jan", decode(t, w).ID)
	})

	t.Run("Body token matching cookie passes and body survives", func(t *testing.T) {
		w := post(csrfRouter(true), `{"name":"Jan","csrf":"abc123"}`, "", token)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Jan", decode(t, w).ID)
	})

	t.Run("Mismatch is 403 CSRF", func(t *testing.T) {
		w := post(csrfRouter(true), `{"name":"Jan"}`, "other", token)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, apperror.CodeCSRF, decode(t, w).Error)
	})

	t.Run("Missing cookie is 403 CSRF", func(t *testing.T) {
		w := post(csrfRouter(true), `{"name":"Jan"}`, token, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestFormCSRFMiddleware(t *testing.T) {
	r := gin.New()
	r.POST("/api/contact/form", middleware.FormCSRFMiddleware(nopSecLogger), okHandler)

	post := func(field, cookie string) int {
		form := url.Values{"csrf": {field}, "name": {"Jan"}}
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/contact/form", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: middleware.FormCSRFCookieName, Value: cookie})
		}
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, post("tok", "tok"))
	assert.Equal(t, http.StatusForbidden, post("tok", "other"))
	assert.Equal(t, http.StatusForbidden, post("", "tok"))
	assert.Equal(t, http.StatusForbidden, post("tok", ""))
}

func TestIssueCSRFToken(t *testing.T) {
	r := gin.New()
	r.GET("/api/csrf", middleware.IssueCSRFToken(false))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		OK    bool   `json:"ok"`
		Token string `json:"csrfToken"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.OK)
	assert.Len(t, body.Token, 64)

	cookies := map[string]string{}
	for _, ck := range w.Result().Cookies() {
		cookies[ck.Name] = ck.Value
		assert.False(t, ck.HttpOnly)
	}
	assert.Equal(t, body.Token, cookies[middleware.CSRFTokenCookieName])
	assert.Equal(t, body.Token, cookies[middleware.FormCSRFCookieName])
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	r.GET("/field", func(c *gin.Context) {
		c.Error(apperror.Validation(map[string][]string{"vin": {"VIN musi mieć 17 znaków."}}))
	})
	r.GET("/disabled", func(c *gin.Context) {
		c.Error(apperror.MailDisabled(errors.New("no credentials")))
	})
	r.GET("/unknown", func(c *gin.Context) {
		c.Error(errors.New("dial tcp: secret host"))
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/field")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	res := decode(t, w)
	assert.Equal(t, apperror.CodeValidation, res.Error)
	require.NotNil(t, res.Details)
	assert.Equal(t, []string{"VIN musi mieć 17 znaków."}, res.Details.FieldErrors["vin"])
	assert.NotNil(t, res.Details.FormErrors)
	assert.NotEmpty(t, res.RequestID)

	w = get("/disabled")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apperror.CodeMailDisabled, decode(t, w).Error)

	w = get("/unknown")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeUnexpected, decode(t, w).Error)
	assert.NotContains(t, w.Body.String(), "secret host")
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(middleware.Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeUnexpected, decode(t, w).Error)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(middleware.RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, decode(t, w).RequestID)

	const given = "0b6f1d3e-5c57-4a53-9d2a-7d3a9a0f1e11"
	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, given)
	r.ServeHTTP(w, req)
	assert.Equal(t, given, w.Header().Get(middleware.RequestIDHeader))

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "<script>")
	r.ServeHTTP(w, req)
	assert.NotEqual(t, "<script>", w.Header().Get(middleware.RequestIDHeader))
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.POST("/", middleware.BodyLimit(16), func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	send := func(body string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send(`{"a":"b"}`))
	assert.Equal(t, http.StatusBadRequest, send(`{"a":"`+strings.Repeat("x", 64)+`"}`))
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(middleware.SecurityHeadersMiddleware())
	r.GET("/", okHandler)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Cache-Control"), "no-store")
}

func TestCORSMiddleware(t *testing.T) {
	preflight := func(origins []string, origin string) *httptest.ResponseRecorder {
		r := gin.New()
		r.Use(middleware.CORSMiddleware(origins))
		r.POST("/api/contact", okHandler)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		r.ServeHTTP(w, req)
		return w
	}

	w := preflight([]string{"https://4kolka.pl"}, "https://4kolka.pl")
	assert.Equal(t, "https://4kolka.pl", w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight([]string{"https://4kolka.pl"}, "https://evil.example")
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	w = preflight(nil, "https://anything.example")
	assert.Equal(t, "https://anything.example", w.Header().Get("Access-Control-Allow-Origin"))
}
