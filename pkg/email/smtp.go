package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SMTPTransport submits messages to a relay with PLAIN authentication.
type SMTPTransport struct {
	cfg Config
	tls *tls.Config
}

var _ Transport = (*SMTPTransport)(nil)

// NewSMTPTransport expects a resolved Config.
func NewSMTPTransport(cfg Config) *SMTPTransport {
	return &SMTPTransport{
		cfg: cfg,
		tls: &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12},
	}
}

func (t *SMTPTransport) Addr() string {
	return net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
}

func (t *SMTPTransport) dial() (*smtp.Client, error) {
	switch t.cfg.Security {
	case SecurityTLS:
		return smtp.DialTLS(t.Addr(), t.tls)
	case SecurityStartTLS:
		return smtp.DialStartTLS(t.Addr(), t.tls)
	default:
		return smtp.Dial(t.Addr())
	}
}

func (t *SMTPTransport) Send(ctx context.Context, msg *Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c, err := t.dial()
	if err != nil {
		return "", fmt.Errorf("smtp dial %s: %w", t.Addr(), err)
	}
	defer c.Close()
	c.CommandTimeout = t.cfg.Timeout
	c.SubmissionTimeout = t.cfg.Timeout

	// Closing the client unblocks any pending command.
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer stop()

	helo := t.cfg.HeloName
	if helo == "" {
		helo = "localhost"
	}
	if err := c.Hello(helo); err != nil {
		return "", fmt.Errorf("smtp hello: %w", err)
	}
	if t.cfg.Username != "" {
		if err := c.Auth(sasl.NewPlainClient("", t.cfg.Username, t.cfg.Password)); err != nil {
			return "", fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := c.Mail(StripCRLF(msg.From.Email), nil); err != nil {
		return "", fmt.Errorf("smtp mail from: %w", err)
	}
	for _, rcpt := range msg.Recipients() {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return "", fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	wc, err := c.Data()
	if err != nil {
		return "", fmt.Errorf("smtp data: %w", err)
	}
	if err := msg.Render(wc); err != nil {
		wc.Close()
		return "", fmt.Errorf("render message: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("smtp submit: %w", err)
	}

	// Accepted at the final dot; a failed QUIT does not undo that.
	_ = c.Quit()
	return msg.HeaderID(), nil
}
