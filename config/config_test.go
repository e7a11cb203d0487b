package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "RATE_LIMIT_MAX", "RATE_LIMIT_WINDOW_SECONDS", "MAIL_TO", "MAIL_FROM", "SMTP_USER", "CORS_ORIGIN"} {
		t.Setenv(k, "")
	}
	t.Setenv("PORT", "4000")
	t.Setenv("SMTP_USER", "warsztat@example.pl")
	t.Setenv("RATE_LIMIT_MAX", "nope")
	t.Setenv("RATE_LIMIT_WINDOW_SECONDS", "600")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, 30, cfg.RateLimitMax)
	assert.Equal(t, 10*time.Minute, cfg.RateLimitWindow)
	assert.Equal(t, time.Hour, cfg.FormRateLimitWindow)
	assert.Equal(t, "warsztat@example.pl", cfg.MailFrom)
	assert.Equal(t, []string{"warsztat@example.pl"}, cfg.MailTo)
	assert.Empty(t, cfg.Origins())
}

func TestLoadConfigLists(t *testing.T) {
	t.Setenv("MAIL_TO", "a@example.pl, b@example.pl,")
	t.Setenv("CORS_ORIGIN", "https://4kolka.pl,https://www.4kolka.pl")
	t.Setenv("CSRF_ENABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, []string{"a@example.pl", "b@example.pl"}, cfg.MailTo)
	assert.Equal(t, []string{"https://4kolka.pl", "https://www.4kolka.pl"}, cfg.Origins())
	assert.True(t, cfg.CSRFEnabled)
}
