package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	GinMode    string
	LogLevel   string
	TrustProxy bool
	// Comma separated; empty allows every origin
	CORSOrigin   string
	MaxBodyBytes int64
	// Rate limiting
	RateLimitMax        int
	RateLimitWindow     time.Duration
	FormRateLimitMax    int
	FormRateLimitWindow time.Duration
	RateLimitStore      string // memory | redis | sqlite | postgres
	RateLimitDBPath     string
	RedisURL            string
	RedisPassword       string
	DBUrl               string
	// CSRF on the JSON endpoint; the form endpoint always checks it
	CSRFEnabled  bool
	CookieSecure bool
	// SMTP
	MailTransport string // smtp | log | disabled
	SMTPHost      string
	SMTPPort      int
	SMTPSecure    string
	SMTPUsername  string
	SMTPPassword  string
	SMTPTimeout   time.Duration
	MailTo        []string
	MailFrom      string
	MailFromName  string
	// Attachment scanning, empty disables it
	ClamAVAddress string
	ClamAVTimeout time.Duration
	// Shown to the client when mail delivery is down
	BusinessPhone string
	BusinessEmail string
}

func LoadConfig() (*Config, error) {
	// .env is only present locally
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "4000"),
		GinMode:             getEnv("GIN_MODE", "release"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		TrustProxy:          getEnvBool("TRUST_PROXY", false),
		CORSOrigin:          getEnv("CORS_ORIGIN", ""),
		MaxBodyBytes:        int64(getEnvInt("MAX_BODY_BYTES", 25<<20)),
		RateLimitMax:        getEnvInt("RATE_LIMIT_MAX", 30),
		RateLimitWindow:     time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 600)) * time.Second,
		FormRateLimitMax:    getEnvInt("FORM_RATE_LIMIT_MAX", 5),
		FormRateLimitWindow: time.Duration(getEnvInt("FORM_RATE_LIMIT_WINDOW_SECONDS", 3600)) * time.Second,
		RateLimitStore:      strings.ToLower(getEnv("RATE_LIMIT_STORE", "memory")),
		RateLimitDBPath:     getEnv("RATE_LIMIT_DB_PATH", "ratelimit.db"),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisPassword:       getEnv("REDIS_PASSWORD", ""),
		DBUrl:               getEnv("DATABASE_URL", ""),
		CSRFEnabled:         getEnvBool("CSRF_ENABLED", false),
		CookieSecure:        getEnvBool("COOKIE_SECURE", true),
		MailTransport:       strings.ToLower(getEnv("MAIL_TRANSPORT", "smtp")),
		SMTPHost:            strings.TrimSpace(getEnv("SMTP_HOST", "")),
		SMTPPort:            getEnvInt("SMTP_PORT", 0),
		SMTPSecure:          getEnv("SMTP_SECURE", ""),
		SMTPUsername:        strings.TrimSpace(getEnv("SMTP_USER", "")),
		SMTPPassword:        getEnv("SMTP_PASS", ""),
		SMTPTimeout:         time.Duration(getEnvInt("SMTP_TIMEOUT_SECONDS", 20)) * time.Second,
		MailTo:              splitList(getEnv("MAIL_TO", "")),
		MailFrom:            strings.TrimSpace(getEnv("MAIL_FROM", "")),
		MailFromName:        getEnv("MAIL_FROM_NAME", "4 KÓŁKA – formularz"),
		ClamAVAddress:       getEnv("CLAMAV_ADDRESS", ""),
		ClamAVTimeout:       time.Duration(getEnvInt("CLAMAV_TIMEOUT_SECONDS", 30)) * time.Second,
		BusinessPhone:       getEnv("BUSINESS_PHONE", "+48 796 000 000"),
		BusinessEmail:       getEnv("BUSINESS_EMAIL", "kontakt@4kolka.pl"),
	}

	// Sender defaults to the SMTP account, recipient to the sender.
	if cfg.MailFrom == "" {
		cfg.MailFrom = cfg.SMTPUsername
	}
	if len(cfg.MailTo) == 0 && cfg.MailFrom != "" {
		cfg.MailTo = []string{cfg.MailFrom}
	}

	if cfg.MailTransport == "smtp" && (cfg.SMTPUsername == "" || cfg.SMTPPassword == "") {
		log.Println("WARNING: SMTP_USER/SMTP_PASS not configured. Contact form will answer MAIL_DISABLED.")
	}
	if cfg.RateLimitStore == "memory" {
		log.Println("WARNING: RATE_LIMIT_STORE=memory. Counters are per process and reset on restart.")
	}

	return cfg, nil
}

// Origins returns CORS_ORIGIN as a list.
func (c *Config) Origins() []string {
	return splitList(c.CORSOrigin)
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
