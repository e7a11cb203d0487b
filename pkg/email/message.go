package email

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// Address is a mailbox with an optional display name.
type Address struct {
	Name  string
	Email string
}

func (a Address) mail() *mail.Address {
	return &mail.Address{Name: StripCRLF(a.Name), Address: StripCRLF(a.Email)}
}

type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is a composed mail ready for a Transport. ID is the Message-ID
// without angle brackets.
type Message struct {
	ID          string
	Date        time.Time
	From        Address
	To          []Address
	ReplyTo     *Address
	Subject     string
	Text        string
	HTML        string
	Attachments []Attachment
}

// NewMessageID returns a globally unique Message-ID local part at host.
func NewMessageID(host string) string {
	if host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s@%s", uuid.NewString(), host)
}

// Recipients lists the envelope recipients.
func (m *Message) Recipients() []string {
	out := make([]string, 0, len(m.To))
	for _, a := range m.To {
		out = append(out, StripCRLF(a.Email))
	}
	return out
}

// HeaderID is ID as it appears in the Message-ID header.
func (m *Message) HeaderID() string {
	return "<" + m.ID + ">"
}

// Render writes m as multipart/mixed: a multipart/alternative text and HTML
// body followed by one part per attachment.
func (m *Message) Render(w io.Writer) error {
	var h mail.Header
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{m.From.mail()})

	to := make([]*mail.Address, 0, len(m.To))
	for _, a := range m.To {
		to = append(to, a.mail())
	}
	h.SetAddressList("To", to)
	if m.ReplyTo != nil {
		h.SetAddressList("Reply-To", []*mail.Address{m.ReplyTo.mail()})
	}
	h.SetSubject(StripCRLF(m.Subject))
	if m.ID != "" {
		h.SetMessageID(m.ID)
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("create mail writer: %w", err)
	}

	iw, err := mw.CreateInline()
	if err != nil {
		return fmt.Errorf("create inline part: %w", err)
	}
	if err := writeInline(iw, "text/plain", m.Text); err != nil {
		return err
	}
	if m.HTML != "" {
		if err := writeInline(iw, "text/html", m.HTML); err != nil {
			return err
		}
	}
	if err := iw.Close(); err != nil {
		return err
	}

	for _, a := range m.Attachments {
		var ah mail.AttachmentHeader
		ct := a.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		ah.SetContentType(ct, nil)
		ah.SetFilename(StripCRLF(a.Filename))
		ah.Set("Content-Transfer-Encoding", "base64")

		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return fmt.Errorf("create attachment %s: %w", a.Filename, err)
		}
		if _, err := aw.Write(a.Content); err != nil {
			return err
		}
		if err := aw.Close(); err != nil {
			return err
		}
	}

	return mw.Close()
}

func writeInline(iw *mail.InlineWriter, contentType, body string) error {
	var ph mail.InlineHeader
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	ph.Set("Content-Transfer-Encoding", "quoted-printable")

	pw, err := iw.CreatePart(ph)
	if err != nil {
		return fmt.Errorf("create %s part: %w", contentType, err)
	}
	if _, err := io.WriteString(pw, body); err != nil {
		return err
	}
	return pw.Close()
}

var crlfRun = regexp.MustCompile(`[\r\n]+`)

// StripCRLF collapses line breaks to a single space so a value cannot start a
// new header line.
func StripCRLF(s string) string {
	return strings.TrimSpace(crlfRun.ReplaceAllString(s, " "))
}

// NormalizeBody converts CRLF and lone CR to LF and trims the result.
func NormalizeBody(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}
