package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"

	"fourwheels-backend/internal/delivery/http/response"
	"fourwheels-backend/pkg/apperror"
	"fourwheels-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

const (
	// CSRFTokenCookieName holds the token for the JSON endpoint.
	CSRFTokenCookieName = "csrf_token"
	// FormCSRFCookieName holds the token for the legacy form endpoint.
	FormCSRFCookieName = "csrftoken"
	// CSRFTokenHeaderName carries the token on JSON requests.
	CSRFTokenHeaderName = "X-CSRF-Token"
	// FormCSRFField is the body field carrying the token in both variants.
	FormCSRFField = "csrf"
	// 32 bytes = 64 hex chars
	CSRFTokenLength = 32
	CSRFTokenExpiry = 24 * time.Hour
)

// CSRFConfig controls the double-submit check on the JSON endpoint.
type CSRFConfig struct {
	Enabled bool
	// Secure marks the cookie HTTPS only. Off for plain-http development.
	Secure    bool
	SecLogger *security.SecurityLogger
}

func generateCSRFToken() (string, error) {
	bytes := make([]byte, CSRFTokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

func setCSRFCookie(c *gin.Context, name, token string, secure bool) {
	// Lax: sent on top-level navigation, not on cross-site subrequests.
	// Not HttpOnly: the page script has to read it back.
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, token, int(CSRFTokenExpiry.Seconds()), "/", "", secure, false)
}

// IssueCSRFToken answers GET /api/csrf. The same token is set under both
// cookie names so either endpoint accepts it.
func IssueCSRFToken(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := generateCSRFToken()
		if err != nil {
			c.Error(apperror.Internal(err))
			return
		}
		setCSRFCookie(c, CSRFTokenCookieName, token, secure)
		setCSRFCookie(c, FormCSRFCookieName, token, secure)

		c.JSON(http.StatusOK, gin.H{
			"ok":        true,
			"csrfToken": token,
			"requestId": c.GetString("RequestID"),
		})
	}
}

// CSRFMiddleware implements the double-submit cookie check for JSON
// requests. The token may come in the X-CSRF-Token header or in the body's
// "csrf" field; either must equal the csrf_token cookie. Safe methods pass.
func CSRFMiddleware(config CSRFConfig) gin.HandlerFunc {
	if config.SecLogger == nil {
		config.SecLogger = security.DefaultLogger()
	}

	return func(c *gin.Context) {
		if !config.Enabled || isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		cookie, _ := c.Cookie(CSRFTokenCookieName)
		sent := c.GetHeader(CSRFTokenHeaderName)
		if sent == "" {
			// ShouldBindBodyWith keeps the body for the handler's own bind.
			var probe struct {
				CSRF string `json:"csrf"`
			}
			if err := c.ShouldBindBodyWith(&probe, binding.JSON); err == nil {
				sent = probe.CSRF
			}
		}

		if reason := compareTokens(cookie, sent); reason != "" {
			rejectCSRF(c, config.SecLogger, reason)
			return
		}
		c.Next()
	}
}

// FormCSRFMiddleware guards the legacy form endpoint: the csrftoken cookie
// must equal the posted "csrf" field. It cannot be switched off.
func FormCSRFMiddleware(secLogger *security.SecurityLogger) gin.HandlerFunc {
	if secLogger == nil {
		secLogger = security.DefaultLogger()
	}

	return func(c *gin.Context) {
		cookie, _ := c.Cookie(FormCSRFCookieName)
		if reason := compareTokens(cookie, c.PostForm(FormCSRFField)); reason != "" {
			rejectCSRF(c, secLogger, reason)
			return
		}
		c.Next()
	}
}

func compareTokens(cookie, sent string) string {
	switch {
	case cookie == "":
		return "missing_cookie"
	case sent == "":
		return "missing_token"
	case subtle.ConstantTimeCompare([]byte(cookie), []byte(sent)) != 1:
		return "token_mismatch"
	}
	return ""
}

func rejectCSRF(c *gin.Context, secLogger *security.SecurityLogger, reason string) {
	secLogger.LogCSRFViolation(c.Request.Context(), requestMeta(c), c.FullPath(), reason)
	response.Error(c, http.StatusForbidden, apperror.CodeCSRF, "")
	c.Abort()
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}
