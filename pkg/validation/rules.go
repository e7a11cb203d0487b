package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Field names as they appear in the JSON payload and in fieldErrors.
const (
	FieldName        = "name"
	FieldPhone       = "phone"
	FieldEmail       = "email"
	FieldVIN         = "vin"
	FieldMessage     = "msg"
	FieldAttachments = "attachments"
)

// Fields lists the validated form fields in display order.
var Fields = []string{FieldName, FieldPhone, FieldEmail, FieldVIN, FieldMessage}

const (
	NameMinLen    = 2
	NameMaxLen    = 80
	EmailMaxLen   = 120
	MessageMinLen = 10
	MessageMaxLen = 2000
	PhoneMaxLen   = 30
	VINLen        = 17
)

var (
	emailRegex         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	vinRegex           = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	composedPhoneRegex = regexp.MustCompile(`^[0-9+ ()-]+$`)
)

// Normalize trims and NFC-composes free text so that "Ł" typed as L + combining
// stroke counts as one character.
func Normalize(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

// SanitizeEmail drops all whitespace and lower-cases the address.
func SanitizeEmail(s string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// NormalizeVIN upper-cases and trims a VIN.
func NormalizeVIN(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NameError returns a message when the name is invalid, "" otherwise.
func NameError(name string) string {
	n := utf8.RuneCountInString(Normalize(name))
	switch {
	case n < NameMinLen:
		return fmt.Sprintf("Podaj imię (min %d znaki).", NameMinLen)
	case n > NameMaxLen:
		return fmt.Sprintf("Za długie imię (max %d znaków).", NameMaxLen)
	}
	return ""
}

func EmailError(email string) string {
	email = SanitizeEmail(email)
	if utf8.RuneCountInString(email) > EmailMaxLen {
		return fmt.Sprintf("Za długi adres e-mail (max %d znaków).", EmailMaxLen)
	}
	if !emailRegex.MatchString(email) {
		return "Podaj poprawny adres e-mail."
	}
	return ""
}

// PhoneError checks the locally edited part against the digit range of prefix.
func PhoneError(prefix, local string) string {
	digits := DigitsOnly(local)
	if digits == "" {
		return "Podaj numer telefonu."
	}
	rule := FindPhoneRule(prefix)
	if len(digits) >= rule.MinDigits && len(digits) <= rule.MaxDigits {
		return ""
	}
	subject := "Numer"
	if prefix != "" {
		subject = fmt.Sprintf("Numer dla prefiksu %s", prefix)
	}
	if rule.MinDigits == rule.MaxDigits {
		return fmt.Sprintf("%s powinien mieć %d cyfr (wpisz część po prefiksie).", subject, rule.MinDigits)
	}
	return fmt.Sprintf("%s powinien mieć od %d do %d cyfr (wpisz część po prefiksie).", subject, rule.MinDigits, rule.MaxDigits)
}

// ComposedPhoneError validates the single "prefix local" string the server receives.
func ComposedPhoneError(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "Podaj numer telefonu."
	}
	if utf8.RuneCountInString(phone) > PhoneMaxLen {
		return fmt.Sprintf("Za długi numer telefonu (max %d znaków).", PhoneMaxLen)
	}
	if !composedPhoneRegex.MatchString(phone) {
		return "Tylko cyfry/spacje/+/-/()."
	}
	prefix, local := SplitPhone(phone)
	return PhoneError(prefix, local)
}

func VINError(vin string) string {
	if !vinRegex.MatchString(NormalizeVIN(vin)) {
		return fmt.Sprintf("VIN musi mieć %d znaków (bez I, O, Q).", VINLen)
	}
	return ""
}

func MessageError(msg string) string {
	n := utf8.RuneCountInString(Normalize(msg))
	switch {
	case n < MessageMinLen:
		return fmt.Sprintf("Opisz problem w co najmniej %d znakach.", MessageMinLen)
	case n > MessageMaxLen:
		return fmt.Sprintf("Za długa wiadomość (max %d znaków).", MessageMaxLen)
	}
	return ""
}

// Check runs the rule for field against value. Phone is checked in its
// composed form. Unknown fields always pass.
func Check(field, value string) string {
	switch field {
	case FieldName:
		return NameError(value)
	case FieldEmail:
		return EmailError(value)
	case FieldPhone:
		return ComposedPhoneError(value)
	case FieldVIN:
		return VINError(value)
	case FieldMessage:
		return MessageError(value)
	}
	return ""
}
