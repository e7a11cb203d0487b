// Package contactform drives the contact form from the client side: it keeps
// the form state and per-field errors, applies the attachment policy as files
// are added, and submits the form to the contact endpoint.
package contactform

import (
	"fourwheels-backend/pkg/validation"
)

// Form is the editable state of the contact form. The phone number is kept
// as a prefix and a locally typed part; Phone composes them.
type Form struct {
	Name        string
	PhonePrefix string
	PhoneLocal  string
	Email       string
	VIN         string
	Message     string
	// Hidden from real users. Sent as-is; the server rejects it when filled.
	Honeypot string
}

// NewForm returns an empty form with the default phone prefix selected.
func NewForm() Form {
	return Form{PhonePrefix: validation.DefaultPhonePrefix()}
}

// Phone is the composed "prefix local" number.
func (f Form) Phone() string {
	return validation.ComposePhone(f.PhonePrefix, f.PhoneLocal)
}

// FieldError runs the rule for one field.
func (f Form) FieldError(field string) string {
	switch field {
	case validation.FieldName:
		return validation.NameError(f.Name)
	case validation.FieldPhone:
		return validation.PhoneError(f.PhonePrefix, f.PhoneLocal)
	case validation.FieldEmail:
		return validation.EmailError(f.Email)
	case validation.FieldVIN:
		return validation.VINError(f.VIN)
	case validation.FieldMessage:
		return validation.MessageError(f.Message)
	}
	return ""
}

// Validate returns a message for every invalid field. The map is empty when
// the form is valid.
func (f Form) Validate() map[string]string {
	errs := make(map[string]string)
	for _, field := range validation.Fields {
		if msg := f.FieldError(field); msg != "" {
			errs[field] = msg
		}
	}
	return errs
}
