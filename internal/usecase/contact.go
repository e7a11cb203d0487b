package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fourwheels-backend/internal/domain"
	"fourwheels-backend/pkg/apperror"
	"fourwheels-backend/pkg/attachment"
	"fourwheels-backend/pkg/email"
	"fourwheels-backend/pkg/logger"
	"fourwheels-backend/pkg/security"
	"fourwheels-backend/pkg/security/antivirus"
	"fourwheels-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// SpamMessage is shown for a filled honeypot. It reads like any other
// failure so bots learn nothing.
const SpamMessage = "Nie udało się wysłać formularza. Spróbuj ponownie."

// ContactMailer delivers validated submissions.
type ContactMailer interface {
	SendContactEmail(ctx context.Context, data email.ContactEmailData) (string, error)
}

type contactUsecase struct {
	mailer    ContactMailer
	validate  *validator.Validate
	policy    attachment.Policy
	scanner   antivirus.Scanner
	secLogger *security.SecurityLogger
	now       func() time.Time
}

// NewContactUsecase wires the pipeline. A nil scanner skips malware scanning.
func NewContactUsecase(
	mailer ContactMailer,
	validate *validator.Validate,
	policy attachment.Policy,
	scanner antivirus.Scanner,
	secLogger *security.SecurityLogger,
) domain.ContactUsecase {
	if scanner == nil {
		scanner = antivirus.NoOpScanner{}
	}
	return &contactUsecase{
		mailer:    mailer,
		validate:  validate,
		policy:    policy,
		scanner:   scanner,
		secLogger: secLogger,
		now:       time.Now,
	}
}

func requestMeta(ctx context.Context) security.RequestMeta {
	return security.RequestMeta{
		IP:        domain.StringFromContext(ctx, domain.KeyClientIP),
		UserAgent: domain.StringFromContext(ctx, domain.KeyUserAgent),
		RequestID: domain.StringFromContext(ctx, domain.KeyRequestID),
	}
}

// Submit runs honeypot, field, attachment and delivery stages in that order;
// the first failing stage decides the response.
func (uc *contactUsecase) Submit(ctx context.Context, req *domain.ContactRequest) (*domain.ContactResult, error) {
	meta := requestMeta(ctx)

	if strings.TrimSpace(req.Honeypot) != "" {
		uc.secLogger.LogSpamRejected(ctx, meta, req.Email)
		return nil, spamError()
	}

	req.Name = validation.Normalize(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = validation.SanitizeEmail(req.Email)
	req.VIN = validation.NormalizeVIN(req.VIN)
	req.Msg = validation.Normalize(req.Msg)
	req.Source = strings.TrimSpace(req.Source)

	if err := uc.validate.Struct(req); err != nil {
		fieldErrors := validation.FieldErrors(err)
		if fieldErrors == nil {
			return nil, apperror.Internal(err)
		}
		return nil, apperror.Validation(fieldErrors)
	}

	files, err := uc.checkAttachments(ctx, meta, req.Attachments)
	if err != nil {
		return nil, err
	}

	return uc.deliver(ctx, meta, email.ContactEmailData{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		VIN:         req.VIN,
		Message:     req.Msg,
		Source:      req.Source,
		SubmittedAt: uc.now(),
		Attachments: files,
	})
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func collapse(s string) string {
	return whitespaceRun.ReplaceAllString(strings.TrimSpace(s), " ")
}

// SubmitForm serves the form-encoded variant, which reports coarse 422 codes
// instead of per-field messages.
func (uc *contactUsecase) SubmitForm(ctx context.Context, req *domain.ContactFormRequest) (*domain.ContactResult, error) {
	meta := requestMeta(ctx)

	if strings.TrimSpace(req.Company) != "" {
		uc.secLogger.LogSpamRejected(ctx, meta, req.Email)
		return nil, spamError()
	}

	name := collapse(req.Name)
	phone := collapse(req.Phone)
	mail := strings.ToLower(collapse(req.Email))
	vin := strings.ToUpper(collapse(req.VIN))
	msg := strings.TrimSpace(req.Msg)

	if name == "" || phone == "" || mail == "" || vin == "" || msg == "" {
		return nil, apperror.Unprocessable(apperror.CodeMissingFields)
	}
	// A present but malformed name, phone or message has no code of its own.
	if validation.NameError(name) != "" || validation.ComposedPhoneError(phone) != "" {
		return nil, apperror.Unprocessable(apperror.CodeMissingFields)
	}
	if validation.EmailError(mail) != "" {
		return nil, apperror.Unprocessable(apperror.CodeEmailInvalid)
	}
	if validation.VINError(vin) != "" {
		return nil, apperror.Unprocessable(apperror.CodeVINInvalid)
	}
	if validation.MessageError(msg) != "" {
		return nil, apperror.Unprocessable(apperror.CodeMissingFields)
	}

	return uc.deliver(ctx, meta, email.ContactEmailData{
		Name:        name,
		Phone:       phone,
		Email:       mail,
		VIN:         vin,
		Message:     msg,
		Source:      "form",
		SubmittedAt: uc.now(),
	})
}

func (uc *contactUsecase) deliver(ctx context.Context, meta security.RequestMeta, data email.ContactEmailData) (*domain.ContactResult, error) {
	id, err := uc.mailer.SendContactEmail(ctx, data)
	if err != nil {
		if errors.Is(err, email.ErrMailDisabled) {
			return nil, apperror.MailDisabled(err)
		}
		uc.secLogger.LogMailFailed(ctx, meta, err)
		logger.Log.ErrorContext(ctx, "MAIL_ERROR", "error", err, "request_id", meta.RequestID)
		return nil, apperror.Server(err)
	}

	logger.Log.InfoContext(ctx, "Contact email sent",
		"message_id", id,
		"attachments", len(data.Attachments),
		"request_id", meta.RequestID,
	)
	return &domain.ContactResult{MessageID: id}, nil
}

// checkAttachments decodes the payloads, re-applies the attachment policy,
// verifies the real content type and scans each file.
func (uc *contactUsecase) checkAttachments(ctx context.Context, meta security.RequestMeta, payloads []domain.AttachmentPayload) ([]email.Attachment, error) {
	if len(payloads) == 0 {
		return nil, nil
	}

	files := make([]attachment.File, 0, len(payloads))
	for i, p := range payloads {
		name := security.SanitizeFilename(p.Filename, i)
		content, err := base64.StdEncoding.DecodeString(p.Content)
		if err != nil {
			uc.secLogger.LogAttachmentRejected(ctx, meta, name, "invalid_base64")
			return nil, attachmentError(fmt.Sprintf("Plik \"%s\" jest uszkodzony.", name))
		}
		contentType := strings.ToLower(strings.TrimSpace(p.ContentType))
		if contentType == "application/octet-stream" {
			// Browsers send this when they do not know; the sniffed type decides.
			contentType = ""
		}
		files = append(files, attachment.File{
			Name:        name,
			Size:        int64(len(content)),
			ContentType: contentType,
			Content:     content,
		})
	}

	if err := uc.policy.Check(files); err != nil {
		if aerr, ok := attachment.AsError(err); ok {
			uc.secLogger.LogAttachmentRejected(ctx, meta, aerr.File, string(aerr.Reason))
			return nil, attachmentError(aerr.Message)
		}
		return nil, apperror.Internal(err)
	}

	out := make([]email.Attachment, 0, len(files))
	for _, f := range files {
		sniffed, err := security.SniffAttachment(f.Content, uc.policy.Allowed)
		if err != nil {
			uc.secLogger.LogAttachmentRejected(ctx, meta, f.Name, "content_"+sniffed.DetectedMIME)
			return nil, attachmentError(fmt.Sprintf("Plik \"%s\" ma nieobsługiwany format. Dozwolone: PDF, JPG, PNG, WEBP.", f.Name))
		}

		result := uc.scanner.Scan(ctx, f.Name, f.Content)
		if result.Infected && result.Error == nil {
			uc.secLogger.LogMalwareDetected(ctx, meta, f.Name, result.ThreatName, result.ScannerName)
			return nil, attachmentError(fmt.Sprintf("Plik \"%s\" został odrzucony.", f.Name))
		}
		if !result.Clean() {
			logger.Log.ErrorContext(ctx, "Attachment scan failed", "file", f.Name, "error", result.Error)
			return nil, attachmentError(fmt.Sprintf("Nie udało się sprawdzić pliku \"%s\". Spróbuj ponownie później.", f.Name))
		}

		contentType := f.ContentType
		if contentType == "" {
			contentType = sniffed.DetectedMIME
		}
		out = append(out, email.Attachment{Filename: f.Name, ContentType: contentType, Content: f.Content})
	}
	return out, nil
}

func spamError() *apperror.AppError {
	err := apperror.Validation(map[string][]string{validation.FieldMessage: {SpamMessage}})
	err.Err = domain.ErrSpam
	return err
}

func attachmentError(msg string) *apperror.AppError {
	return apperror.Validation(map[string][]string{validation.FieldAttachments: {msg}})
}
