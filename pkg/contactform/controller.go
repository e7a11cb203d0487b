package contactform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"fourwheels-backend/pkg/attachment"
	"fourwheels-backend/pkg/validation"
)

// ErrSubmissionInFlight is returned by Submit while another submit of the
// same controller is still running.
var ErrSubmissionInFlight = errors.New("contactform: submission already in flight")

// ErrNoEndpoint is returned by Submit when no endpoint was configured.
var ErrNoEndpoint = errors.New("contactform: no endpoint configured")

// CSRFHeader carries the token next to the body's csrf field.
const CSRFHeader = "X-CSRF-Token"

// responses are small JSON envelopes
const maxResponseBytes = 1 << 20

type State int32

const (
	Idle State = iota
	Validating
	Submitting
	Done
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	case Done:
		return "done"
	}
	return "state(" + strconv.Itoa(int(s)) + ")"
}

type Config struct {
	// Contact endpoint URL, e.g. https://4kolka.pl/api/contact
	Endpoint string
	// Default: http.DefaultClient. Its cookie jar carries the CSRF cookie.
	Client *http.Client
	// Default: attachment.DefaultPolicy()
	Policy *attachment.Policy
	// Optional double-submit token
	CSRFToken string
	Now       func() time.Time
}

// Controller owns one contact form. Setters and Submit may be called from
// different goroutines; only one submission runs at a time.
type Controller struct {
	endpoint  string
	client    *http.Client
	policy    attachment.Policy
	csrfToken string
	now       func() time.Time

	inFlight atomic.Bool
	state    atomic.Int32

	mu        sync.Mutex
	form      Form
	errs      map[string]string
	files     []attachment.File
	fileError string
	// fileError blocks submission; a truncation notice does not
	fileFatal bool
}

func NewController(cfg Config) *Controller {
	c := &Controller{
		endpoint:  cfg.Endpoint,
		client:    cfg.Client,
		policy:    attachment.DefaultPolicy(),
		csrfToken: cfg.CSRFToken,
		now:       cfg.Now,
		form:      NewForm(),
		errs:      make(map[string]string),
	}
	if c.client == nil {
		c.client = http.DefaultClient
	}
	if cfg.Policy != nil {
		c.policy = *cfg.Policy
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) Form() Form {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// FieldErrors returns a copy of the current per-field messages.
func (c *Controller) FieldErrors() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return maps.Clone(c.errs)
}

func (c *Controller) Files() []attachment.File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.files)
}

// AttachmentError is the current attachment-level message, if any.
func (c *Controller) AttachmentError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fileError
}

// SetCSRFToken replaces the token sent with the next submission.
func (c *Controller) SetCSRFToken(token string) {
	c.mu.Lock()
	c.csrfToken = token
	c.mu.Unlock()
}

// update applies fn to the form and recomputes the errors of fields.
func (c *Controller) update(fn func(*Form), fields ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.form)
	for _, field := range fields {
		if msg := c.form.FieldError(field); msg != "" {
			c.errs[field] = msg
		} else {
			delete(c.errs, field)
		}
	}
}

func (c *Controller) SetName(v string) {
	c.update(func(f *Form) { f.Name = v }, validation.FieldName)
}

func (c *Controller) SetEmail(v string) {
	c.update(func(f *Form) { f.Email = v }, validation.FieldEmail)
}

// SetVIN upper-cases as the user types.
func (c *Controller) SetVIN(v string) {
	c.update(func(f *Form) { f.VIN = validation.NormalizeVIN(v) }, validation.FieldVIN)
}

func (c *Controller) SetMessage(v string) {
	c.update(func(f *Form) { f.Message = v }, validation.FieldMessage)
}

func (c *Controller) SetPhonePrefix(v string) {
	c.update(func(f *Form) { f.PhonePrefix = v }, validation.FieldPhone)
}

// SetPhoneLocal keeps only digits and spaces.
func (c *Controller) SetPhoneLocal(v string) {
	c.update(func(f *Form) { f.PhoneLocal = validation.SanitizeLocalPhone(v) }, validation.FieldPhone)
}

func (c *Controller) SetHoneypot(v string) {
	c.update(func(f *Form) { f.Honeypot = v })
}

// AddFiles merges files into the attachment set. A truncation keeps the
// first files and returns a non-fatal *attachment.Error; any other violation
// leaves the set unchanged.
func (c *Controller) AddFiles(files ...attachment.File) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := c.policy.Apply(c.files, files)
	c.files = next
	if err == nil {
		c.fileError, c.fileFatal = "", false
		return nil
	}
	c.fileError = err.Error()
	aerr, ok := attachment.AsError(err)
	c.fileFatal = !ok || !aerr.Truncated()
	return err
}

// RemoveFile drops the file at index i and clears the attachment message.
func (c *Controller) RemoveFile(i int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = attachment.RemoveAt(c.files, i)
	c.fileError, c.fileFatal = "", false
}

// Reset empties the form, its errors and the attachment set.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

func (c *Controller) reset() {
	c.form = NewForm()
	c.errs = make(map[string]string)
	c.files = nil
	c.fileError, c.fileFatal = "", false
}

// Submit validates the form and, if it is valid, posts it once. A local
// validation failure returns a ValidationError outcome without a request.
// The returned error is reserved for misuse: ErrSubmissionInFlight when a
// submission is already running and ErrNoEndpoint.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	if !c.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer c.inFlight.Store(false)

	if c.endpoint == "" {
		return nil, ErrNoEndpoint
	}

	c.state.Store(int32(Validating))

	c.mu.Lock()
	c.errs = c.form.Validate()
	if len(c.errs) > 0 || c.fileFatal {
		errs := maps.Clone(c.errs)
		if c.fileFatal {
			errs[validation.FieldAttachments] = c.fileError
		}
		c.mu.Unlock()
		c.state.Store(int32(Idle))
		return ValidationError{FieldErrors: errs}, nil
	}
	payload := Encode(c.form, c.files, c.now())
	payload.CSRF = c.csrfToken
	c.mu.Unlock()

	c.state.Store(int32(Submitting))
	outcome := c.send(ctx, payload)

	c.mu.Lock()
	switch o := outcome.(type) {
	case Success:
		c.reset()
	case ValidationError:
		maps.Copy(c.errs, o.FieldErrors)
	}
	c.mu.Unlock()

	c.state.Store(int32(Done))
	return outcome, nil
}

func (c *Controller) send(ctx context.Context, payload Payload) Outcome {
	body, err := json.Marshal(payload)
	if err != nil {
		return NetworkError{Err: fmt.Errorf("encode payload: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return NetworkError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if payload.CSRF != "" {
		req.Header.Set(CSRFHeader, payload.CSRF)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return NetworkError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return NetworkError{Err: err}
	}
	return Classify(resp.StatusCode, resp.Header, raw)
}
