package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps payload field names to the labels shown on the form.
var FieldLabels = map[string]string{
	FieldName:        "Imię",
	FieldPhone:       "Telefon",
	FieldEmail:       "E-mail",
	FieldVIN:         "VIN",
	FieldMessage:     "Wiadomość",
	FieldAttachments: "Załączniki",
}

// Label returns the form label for field, or field itself.
func Label(field string) string {
	if label, ok := FieldLabels[field]; ok {
		return label
	}
	return field
}

// FieldErrors converts validator.ValidationErrors into field-keyed messages.
// Contact tags reuse the rule's own message so client and server say the same thing.
func FieldErrors(err error) map[string][]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	out := make(map[string][]string, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Field()
		out[field] = append(out[field], formatSingleError(e))
	}
	return out
}

func formatSingleError(e validator.FieldError) string {
	value, _ := e.Value().(string)

	switch e.Tag() {
	case "contact_name", "contact_email", "contact_phone", "contact_msg", "vin":
		if msg := Check(e.Field(), value); msg != "" {
			return msg
		}
		return fmt.Sprintf("%s: nieprawidłowa wartość", Label(e.Field()))
	case "required":
		return fmt.Sprintf("%s: pole wymagane", Label(e.Field()))
	case "max":
		return fmt.Sprintf("%s: maksymalnie %s", Label(e.Field()), e.Param())
	case "base64":
		return fmt.Sprintf("%s: uszkodzona zawartość pliku", Label(e.Field()))
	default:
		return fmt.Sprintf("%s: walidacja nie powiodła się (%s)", Label(e.Field()), e.Tag())
	}
}
