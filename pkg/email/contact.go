package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"
)

const ContactSubject = "Nowa wiadomość z formularza 4 KÓŁKA"

var ErrNoRecipient = errors.New("email: MAIL_TO/SMTP_USER not configured")

// ContactEmailData holds one validated submission.
type ContactEmailData struct {
	Name        string
	Phone       string
	Email       string
	VIN         string
	Message     string
	Source      string
	SubmittedAt time.Time
	Attachments []Attachment
}

// AttachmentNames lists the file names in submission order.
func (d ContactEmailData) AttachmentNames() []string {
	names := make([]string, 0, len(d.Attachments))
	for _, a := range d.Attachments {
		names = append(names, a.Filename)
	}
	return names
}

var contactHTML = template.Must(template.New("contact").Parse(`<!DOCTYPE html>
<html lang="pl">
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #222; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #b91c1c; color: white; padding: 16px 20px; }
        .content { padding: 20px; background: #f7f7f7; }
        .label { font-weight: bold; color: #555; width: 110px; vertical-align: top; }
        .message-box { background: white; padding: 15px; border-left: 4px solid #b91c1c; margin-top: 10px; white-space: pre-wrap; }
        .footer { padding: 16px 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header"><h1>Nowe zgłoszenie z formularza</h1></div>
        <div class="content">
            <table>
                <tr><td class="label">Imię:</td><td>{{.Data.Name}}</td></tr>
                <tr><td class="label">Telefon:</td><td>{{.Data.Phone}}</td></tr>
                <tr><td class="label">E-mail:</td><td>{{.Data.Email}}</td></tr>
                <tr><td class="label">VIN:</td><td>{{.Data.VIN}}</td></tr>
                {{- if .Names}}
                <tr><td class="label">Załączniki:</td><td>{{range $i, $n := .Names}}{{if $i}}, {{end}}{{$n}}{{end}}</td></tr>
                {{- end}}
            </table>
            <div class="message-box">{{.Data.Message}}</div>
        </div>
        <div class="footer">
            <p>Wysłano z formularza kontaktowego 4 KÓŁKA{{if .Data.Source}} ({{.Data.Source}}){{end}}.</p>
            <p>Aby odpowiedzieć, napisz na: {{.Data.Email}}</p>
        </div>
    </div>
</body>
</html>`))

// ContactText renders the plain text body.
func ContactText(d ContactEmailData) string {
	var b strings.Builder
	b.WriteString("Nowe zgłoszenie z formularza:\n\n")
	fmt.Fprintf(&b, "Imię: %s\n", d.Name)
	fmt.Fprintf(&b, "Telefon: %s\n", d.Phone)
	fmt.Fprintf(&b, "E-mail: %s\n", d.Email)
	fmt.Fprintf(&b, "VIN: %s\n\n", d.VIN)
	if names := d.AttachmentNames(); len(names) > 0 {
		fmt.Fprintf(&b, "Załączniki: %s\n\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(&b, "Treść:\n%s\n", d.Message)
	return b.String()
}

// ContactHTML renders the HTML alternative. Every field is escaped.
func ContactHTML(d ContactEmailData) (string, error) {
	var body bytes.Buffer
	err := contactHTML.Execute(&body, struct {
		Subject string
		Data    ContactEmailData
		Names   []string
	}{ContactSubject, d, d.AttachmentNames()})
	if err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}
	return body.String(), nil
}

// Service turns submissions into messages for the configured Transport.
type Service struct {
	transport Transport
	from      Address
	to        []Address
}

func NewService(transport Transport, from Address, to ...Address) *Service {
	recipients := make([]Address, 0, len(to))
	for _, a := range to {
		if a.Email != "" {
			recipients = append(recipients, a)
		}
	}
	return &Service{transport: transport, from: from, to: recipients}
}

// BuildContactMessage sanitizes d and composes the message. Header values
// have line breaks collapsed and the body has its newlines normalized.
func (s *Service) BuildContactMessage(d ContactEmailData) (*Message, error) {
	d.Name = StripCRLF(d.Name)
	d.Phone = StripCRLF(d.Phone)
	d.Email = StripCRLF(d.Email)
	d.VIN = strings.ToUpper(StripCRLF(d.VIN))
	d.Message = NormalizeBody(d.Message)

	html, err := ContactHTML(d)
	if err != nil {
		return nil, err
	}

	date := d.SubmittedAt
	if date.IsZero() {
		date = time.Now()
	}

	return &Message{
		ID:          NewMessageID(domainOf(s.from.Email)),
		Date:        date,
		From:        s.from,
		To:          s.to,
		ReplyTo:     &Address{Name: d.Name, Email: d.Email},
		Subject:     ContactSubject,
		Text:        ContactText(d),
		HTML:        html,
		Attachments: d.Attachments,
	}, nil
}

// SendContactEmail delivers d and returns the Message-ID. Transport errors
// are returned unchanged so ErrMailDisabled stays detectable.
func (s *Service) SendContactEmail(ctx context.Context, d ContactEmailData) (string, error) {
	if _, disabled := s.transport.(DisabledTransport); disabled {
		return "", ErrMailDisabled
	}
	if len(s.to) == 0 {
		return "", ErrNoRecipient
	}

	msg, err := s.BuildContactMessage(d)
	if err != nil {
		return "", err
	}
	return s.transport.Send(ctx, msg)
}
