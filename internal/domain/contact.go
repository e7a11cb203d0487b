package domain

import (
	"context"
	"errors"
)

// SourceWebsite tags submissions sent by the site's own form.
const SourceWebsite = "website-4kolka"

// ErrSpam is returned when the honeypot field was filled in.
var ErrSpam = errors.New("honeypot filled")

// AttachmentPayload is one file inside a JSON submission. Content is standard
// base64 without a data: prefix.
type AttachmentPayload struct {
	Filename    string `json:"filename" example:"zdjecie.jpg"`
	ContentType string `json:"contentType,omitempty" example:"image/jpeg"`
	Content     string `json:"content"`
}

// ContactRequest is the JSON body of POST /api/contact. Phone is the composed
// "prefix local" string.
type ContactRequest struct {
	Name        string              `json:"name" validate:"contact_name" example:"Jan"`
	Phone       string              `json:"phone" validate:"contact_phone" example:"+48 796000000"`
	Email       string              `json:"email" validate:"contact_email" example:"jan@example.com"`
	VIN         string              `json:"vin" validate:"vin" example:"WAUZZZ8K79A123456"`
	Msg         string              `json:"msg" validate:"contact_msg" example:"Stuk z przodu przy hamowaniu."`
	Honeypot    string              `json:"honeypot"`
	Attachments []AttachmentPayload `json:"attachments,omitempty"`
	Source      string              `json:"source,omitempty" validate:"max=64" example:"website-4kolka"`
	Timestamp   string              `json:"timestamp,omitempty" example:"2026-04-01T09:30:00.000Z"`
	CSRF        string              `json:"csrf,omitempty"`
}

// ContactFormRequest is the form-encoded body of POST /api/contact/form. It
// carries no attachments and uses "company" as its honeypot.
type ContactFormRequest struct {
	Name    string `form:"name"`
	Phone   string `form:"phone"`
	Email   string `form:"email"`
	VIN     string `form:"vin"`
	Msg     string `form:"msg"`
	Company string `form:"company"`
	CSRF    string `form:"csrf"`
}

type ContactResult struct {
	MessageID string `json:"id"`
}

// ContactUsecase runs the submission pipeline after rate limiting and CSRF
// have been enforced by the transport layer.
type ContactUsecase interface {
	Submit(ctx context.Context, req *ContactRequest) (*ContactResult, error)
	SubmitForm(ctx context.Context, req *ContactFormRequest) (*ContactResult, error)
}
