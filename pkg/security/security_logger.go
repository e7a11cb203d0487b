package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// SecurityEvent is one abuse or delivery incident on the contact pipeline.
type SecurityEvent struct {
	Timestamp    time.Time
	Event        EventType
	SubjectType  string // "email", "ip"
	SubjectValue string // masked for PII
	IP           string
	UserAgent    string
	RequestID    string
	Details      map[string]interface{}
}

// SecurityLogger writes security events as structured zap entries, separate
// from the application log so they can be shipped to a different sink.
type SecurityLogger struct {
	zapLogger   *zap.Logger
	serviceName string
	environment string
}

var defaultLogger *SecurityLogger

// InitSecurityLogger builds the production zap logger and makes it the default.
func InitSecurityLogger(serviceName, environment string) *SecurityLogger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.MessageKey = "message"
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		logger, _ = zap.NewProduction()
	}

	defaultLogger = NewSecurityLogger(logger, serviceName, environment)
	return defaultLogger
}

// NewSecurityLogger wraps an existing zap logger.
func NewSecurityLogger(logger *zap.Logger, serviceName, environment string) *SecurityLogger {
	return &SecurityLogger{
		zapLogger:   logger,
		serviceName: serviceName,
		environment: environment,
	}
}

// DefaultLogger returns the process-wide security logger, creating one on
// first use.
func DefaultLogger() *SecurityLogger {
	if defaultLogger == nil {
		return InitSecurityLogger("fourwheels-backend", getEnvironment())
	}
	return defaultLogger
}

func (sl *SecurityLogger) Log(ctx context.Context, event SecurityEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	severity := GetSeverity(event.Event)
	fields := []zap.Field{
		zap.String("service", sl.serviceName),
		zap.String("env", sl.environment),
		zap.String("event", string(event.Event)),
		zap.String("severity", string(severity)),
		zap.Time("occurred_at", event.Timestamp),
	}
	if event.SubjectType != "" {
		fields = append(fields, zap.String("subject_type", event.SubjectType))
	}
	if event.SubjectValue != "" {
		fields = append(fields, zap.String("subject_value", event.SubjectValue))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Details) > 0 {
		fields = append(fields, zap.Any("details", event.Details))
	}

	sl.zapLogger.Log(severity.Level(), string(event.Event), fields...)
}

// RequestMeta is the caller information attached to every event.
type RequestMeta struct {
	IP        string
	UserAgent string
	RequestID string
}

func (sl *SecurityLogger) LogRateLimitTriggered(ctx context.Context, meta RequestMeta, endpoint string, retryAfter time.Duration) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventRateLimitTriggered,
		SubjectType:  "ip",
		SubjectValue: meta.IP,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		RequestID:    meta.RequestID,
		Details: map[string]interface{}{
			"endpoint":            endpoint,
			"retry_after_seconds": int(retryAfter.Seconds()),
		},
	})
}

func (sl *SecurityLogger) LogCSRFViolation(ctx context.Context, meta RequestMeta, endpoint, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventCSRFViolation,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		RequestID: meta.RequestID,
		Details:   map[string]interface{}{"endpoint": endpoint, "reason": reason},
	})
}

// LogSpamRejected records a filled honeypot. The submitter's address is masked.
func (sl *SecurityLogger) LogSpamRejected(ctx context.Context, meta RequestMeta, email string) {
	sl.Log(ctx, SecurityEvent{
		Event:        EventSpamRejected,
		SubjectType:  "email",
		SubjectValue: MaskEmail(email),
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		RequestID:    meta.RequestID,
		Details:      map[string]interface{}{"code": "SPAM"},
	})
}

func (sl *SecurityLogger) LogAttachmentRejected(ctx context.Context, meta RequestMeta, filename, reason string) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventAttachmentRejected,
		IP:        meta.IP,
		RequestID: meta.RequestID,
		Details:   map[string]interface{}{"filename": filename, "reason": reason},
	})
}

func (sl *SecurityLogger) LogMalwareDetected(ctx context.Context, meta RequestMeta, filename, threat, scanner string) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventMalwareDetected,
		IP:        meta.IP,
		RequestID: meta.RequestID,
		Details:   map[string]interface{}{"filename": filename, "threat": threat, "scanner": scanner},
	})
}

func (sl *SecurityLogger) LogMailFailed(ctx context.Context, meta RequestMeta, err error) {
	sl.Log(ctx, SecurityEvent{
		Event:     EventMailFailed,
		IP:        meta.IP,
		RequestID: meta.RequestID,
		Details:   map[string]interface{}{"error": err.Error()},
	})
}

func (sl *SecurityLogger) Sync() error {
	return sl.zapLogger.Sync()
}

// MaskEmail masks an email for logging (e.g., "j***@example.com").
func MaskEmail(email string) string {
	if len(email) < 3 {
		return "***"
	}
	at := strings.IndexByte(email, '@')
	if at <= 1 {
		return "***" + email[1:]
	}
	return email[:1] + "***" + email[at:]
}

// HashValue returns a short SHA-256 fingerprint for values that must not be
// logged in clear.
func HashValue(value string) string {
	hash := sha256.Sum256([]byte(value))
	return hex.EncodeToString(hash[:8])
}

func getEnvironment() string {
	if os.Getenv("GIN_MODE") == "release" {
		return "production"
	}
	return "development"
}
