package contactform_test

import (
	"net/http"
	"testing"
	"time"

	"fourwheels-backend/pkg/contactform"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	retry := http.Header{"Retry-After": {"120"}}

	cases := []struct {
		name   string
		status int
		header http.Header
		body   string
		want   contactform.Outcome
	}{
		{"ok true", 200, nil, `{"ok":true,"id":"<a@b>"}`, contactform.Success{MessageID: "<a@b>"}},
		{"ok absent", 200, nil, `not json`, contactform.Success{}},
		{"ok false on 200 is generic", 200, nil, `{"ok":false}`, contactform.ValidationError{FieldErrors: map[string]string{}}},
		{"field errors beat 503", 503, nil, `{"ok":false,"details":{"fieldErrors":{"vin":["zły"]}}}`,
			contactform.ValidationError{FieldErrors: map[string]string{"vin": "zły"}}},
		{"empty field lists fall through", 503, nil, `{"ok":false,"details":{"fieldErrors":{"vin":[]}}}`, contactform.MailDisabled{}},
		{"mail disabled code", 500, nil, `{"ok":false,"error":"MAIL_DISABLED"}`, contactform.MailDisabled{}},
		{"rate limited", 429, retry, `{"ok":false,"error":"TOO_MANY_REQUESTS"}`, contactform.RateLimited{RetryAfter: 2 * time.Minute}},
		{"server error", 500, nil, `{"ok":false,"error":"SERVER_ERROR"}`, contactform.ServerError{Status: 500, Code: "SERVER_ERROR"}},
		{"bad gateway without body", 502, nil, ``, contactform.ServerError{Status: 502}},
		{"csrf is generic", 403, nil, `{"ok":false,"error":"CSRF"}`, contactform.ValidationError{FieldErrors: map[string]string{}, Code: "CSRF"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, contactform.Classify(tc.status, tc.header, []byte(tc.body)))
		})
	}
}

func TestDescribe(t *testing.T) {
	contact := contactform.Contact{Phone: "+48 796 437 107", Email: "kontakt@4kolka.pl"}

	fb := contactform.Describe(contactform.Success{}, contact)
	assert.Equal(t, contactform.KindSuccess, fb.Kind)
	assert.False(t, fb.ShowContact)

	fb = contactform.Describe(contactform.RateLimited{}, contact)
	assert.Equal(t, "Zbyt wiele prób", fb.Title)
	assert.False(t, fb.ShowContact)

	fb = contactform.Describe(contactform.ServerError{Status: 500}, contact)
	assert.True(t, fb.ShowContact)

	fb = contactform.Describe(contactform.ValidationError{FieldErrors: map[string]string{
		"vin":  "VIN musi mieć 17 znaków (bez I, O, Q).",
		"name": "Podaj imię (min 2 znaki).",
	}}, contact)
	assert.Equal(t, "Popraw formularz", fb.Title)
	assert.Equal(t, "Imię: Podaj imię (min 2 znaki). VIN: VIN musi mieć 17 znaków (bez I, O, Q).", fb.Message)

	fb = contactform.Describe(contactform.ValidationError{FieldErrors: map[string]string{"attachments": "za duży"}}, contact)
	assert.Equal(t, "Załączniki", fb.Title)
	assert.Equal(t, "za duży", fb.Message)

	fb = contactform.Describe(contactform.ValidationError{FieldErrors: map[string]string{}}, contact)
	assert.Equal(t, "Nie udało się wysłać", fb.Title)
}

func TestEncode(t *testing.T) {
	form := contactform.NewForm()
	form.Name = "  Jan  "
	form.PhoneLocal = " 796000000 "
	form.Email = " Jan@Example.COM "
	form.VIN = "wauzzz8k79a123456"
	form.Message = "  Stuk z przodu.  "
	form.Honeypot = " x "

	p := contactform.Encode(form, nil, time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC))
	assert.Equal(t, contactform.Payload{
		Name:      "Jan",
		Phone:     "+48 796000000",
		Email:     "jan@example.com",
		VIN:       "WAUZZZ8K79A123456",
		Msg:       "Stuk z przodu.",
		Honeypot:  "x",
		Source:    "website-4kolka",
		Timestamp: "2026-04-01T09:30:00.000Z",
	}, p)
}
