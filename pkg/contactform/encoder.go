package contactform

import (
	"encoding/base64"
	"strings"
	"time"

	"fourwheels-backend/pkg/attachment"
	"fourwheels-backend/pkg/validation"
)

// Source tags submissions made through this client.
const Source = "website-4kolka"

// TimestampLayout is ISO 8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type AttachmentPayload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType,omitempty"`
	Content     string `json:"content"`
}

// Payload is the JSON body sent to the contact endpoint.
type Payload struct {
	Name        string              `json:"name"`
	Phone       string              `json:"phone"`
	Email       string              `json:"email"`
	VIN         string              `json:"vin"`
	Msg         string              `json:"msg"`
	Honeypot    string              `json:"honeypot"`
	Source      string              `json:"source"`
	Timestamp   string              `json:"timestamp"`
	CSRF        string              `json:"csrf,omitempty"`
	Attachments []AttachmentPayload `json:"attachments,omitempty"`
}

// EncodeAttachments base64-encodes each file's content.
func EncodeAttachments(files []attachment.File) []AttachmentPayload {
	if len(files) == 0 {
		return nil
	}
	out := make([]AttachmentPayload, 0, len(files))
	for _, f := range files {
		out = append(out, AttachmentPayload{
			Filename:    f.Name,
			ContentType: f.ContentType,
			Content:     base64.StdEncoding.EncodeToString(f.Content),
		})
	}
	return out
}

// Encode builds the request body from a form snapshot.
func Encode(form Form, files []attachment.File, now time.Time) Payload {
	return Payload{
		Name:        strings.TrimSpace(form.Name),
		Phone:       form.Phone(),
		Email:       validation.SanitizeEmail(form.Email),
		VIN:         validation.NormalizeVIN(form.VIN),
		Msg:         strings.TrimSpace(form.Message),
		Honeypot:    strings.TrimSpace(form.Honeypot),
		Source:      Source,
		Timestamp:   now.UTC().Format(TimestampLayout),
		Attachments: EncodeAttachments(files),
	}
}
