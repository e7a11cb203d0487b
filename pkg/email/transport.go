package email

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// ErrMailDisabled means no usable transport was configured. Callers report it
// as a temporary outage rather than a failure.
var ErrMailDisabled = errors.New("email: mail transport not configured")

// Transport delivers a composed message and returns its Message-ID.
type Transport interface {
	Send(ctx context.Context, msg *Message) (string, error)
}

// Transport kinds accepted by MAIL_TRANSPORT.
const (
	KindSMTP     = "smtp"
	KindLog      = "log"
	KindDisabled = "disabled"
)

// Security modes for the SMTP connection.
const (
	SecurityTLS      = "tls"
	SecurityStartTLS = "starttls"
	SecurityNone     = "none"
)

type Config struct {
	Kind     string
	Host     string
	Port     int
	Security string
	Username string
	Password string
	HeloName string
	Timeout  time.Duration
}

// ParseSecurity maps SMTP_SECURE onto a security mode. Unset means implicit TLS.
func ParseSecurity(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "true", "1", "tls", "ssl", "smtps":
		return SecurityTLS
	case "starttls":
		return SecurityStartTLS
	default:
		return SecurityNone
	}
}

// Resolve fills in host, port and security. An empty host is derived from
// the login's domain: Gmail accounts use smtp.gmail.com, everything else the
// OVH relay, both on 465 with implicit TLS.
func (c Config) Resolve() Config {
	if c.Host == "" {
		c.Host = "ssl0.ovh.net"
		if domain := domainOf(c.Username); domain == "gmail.com" || domain == "googlemail.com" {
			c.Host = "smtp.gmail.com"
		}
		c.Port = 465
		c.Security = SecurityTLS
	}
	if c.Security == "" {
		c.Security = SecurityTLS
	}
	if c.Port == 0 {
		switch c.Security {
		case SecurityTLS:
			c.Port = 465
		case SecurityStartTLS:
			c.Port = 587
		default:
			c.Port = 25
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	return c
}

func domainOf(addr string) string {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return ""
	}
	return strings.ToLower(addr[at+1:])
}

// NewTransport selects the transport once at startup. SMTP without
// credentials is reported as disabled.
func NewTransport(cfg Config, log *slog.Logger) Transport {
	switch strings.ToLower(cfg.Kind) {
	case KindLog:
		return NewLogTransport(log)
	case KindDisabled:
		return DisabledTransport{}
	}
	if cfg.Username == "" || cfg.Password == "" {
		log.Warn("SMTP credentials missing, contact form disabled until configured")
		return DisabledTransport{}
	}
	return NewSMTPTransport(cfg.Resolve())
}

// DisabledTransport refuses every message with ErrMailDisabled.
type DisabledTransport struct{}

func (DisabledTransport) Send(ctx context.Context, msg *Message) (string, error) {
	return "", ErrMailDisabled
}

// LogTransport writes a summary of each message to the log instead of
// delivering it. For local development.
type LogTransport struct {
	log *slog.Logger
}

func NewLogTransport(log *slog.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Send(ctx context.Context, msg *Message) (string, error) {
	names := make([]string, 0, len(msg.Attachments))
	for _, a := range msg.Attachments {
		names = append(names, a.Filename)
	}
	t.log.InfoContext(ctx, "Contact email (log transport)",
		"message_id", msg.HeaderID(),
		"to", msg.Recipients(),
		"subject", msg.Subject,
		"attachments", names,
		"text", msg.Text,
	)
	return msg.HeaderID(), nil
}
