package contactform

import (
	"fmt"
	"slices"
	"strings"

	"fourwheels-backend/pkg/validation"
)

type FeedbackKind string

const (
	KindSuccess FeedbackKind = "success"
	KindError   FeedbackKind = "error"
)

// Contact is the direct fallback offered when the form cannot deliver.
type Contact struct {
	Phone string
	Email string
}

// Feedback is what the user is told after a submit attempt.
type Feedback struct {
	Kind    FeedbackKind
	Title   string
	Message string
	// Phone and Email are set only when ShowContact is.
	ShowContact bool
	Phone       string
	Email       string
}

// Describe renders an outcome for the user. MailDisabled, ServerError and
// NetworkError point the user at contact.
func Describe(outcome Outcome, contact Contact) Feedback {
	switch o := outcome.(type) {
	case Success:
		return Feedback{
			Kind:    KindSuccess,
			Title:   "Wiadomość wysłana",
			Message: "Dziękujemy za kontakt. Skontaktujemy się możliwie najszybciej telefonicznie lub mailowo.",
		}
	case ValidationError:
		return validationFeedback(o)
	case MailDisabled:
		return withContact(Feedback{
			Kind:  KindError,
			Title: "Serwer pocztowy niedostępny",
			Message: fmt.Sprintf("Nie mogliśmy wysłać wiadomości, bo skrzynka odbiorcza jest chwilowo offline. "+
				"Zadzwoń proszę pod numer %s, załatwimy sprawę telefonicznie.", contact.Phone),
		}, contact)
	case RateLimited:
		return Feedback{
			Kind:    KindError,
			Title:   "Zbyt wiele prób",
			Message: "Wygląda na to, że formularz został wysłany wiele razy w krótkim czasie. Odczekaj kilka minut i spróbuj ponownie.",
		}
	case ServerError:
		return withContact(Feedback{
			Kind:    KindError,
			Title:   "Problem po stronie serwera",
			Message: "Coś poszło nie tak po naszej stronie. Spróbuj ponownie za chwilę albo skontaktuj się z nami telefonicznie.",
		}, contact)
	case NetworkError:
		return withContact(Feedback{
			Kind:    KindError,
			Title:   "Brak połączenia",
			Message: "Nie udało się połączyć z serwerem. Sprawdź dostęp do internetu i spróbuj ponownie albo zadzwoń do nas.",
		}, contact)
	}
	panic(fmt.Sprintf("contactform: unhandled outcome %T", outcome))
}

func withContact(f Feedback, contact Contact) Feedback {
	f.ShowContact = true
	f.Phone = contact.Phone
	f.Email = contact.Email
	return f
}

func validationFeedback(o ValidationError) Feedback {
	if len(o.FieldErrors) == 0 {
		return Feedback{
			Kind:    KindError,
			Title:   "Nie udało się wysłać",
			Message: "Sprawdź, czy wszystkie pola są uzupełnione poprawnie i spróbuj ponownie.",
		}
	}

	if msg, ok := o.FieldErrors[validation.FieldAttachments]; ok && len(o.FieldErrors) == 1 {
		return Feedback{Kind: KindError, Title: "Załączniki", Message: msg}
	}

	parts := make([]string, 0, len(o.FieldErrors))
	for _, field := range orderedFields(o.FieldErrors) {
		parts = append(parts, validation.Label(field)+": "+o.FieldErrors[field])
	}
	return Feedback{
		Kind:    KindError,
		Title:   "Popraw formularz",
		Message: strings.Join(parts, " "),
	}
}

// orderedFields lists form fields in display order, then attachments, then
// anything the server added.
func orderedFields(errs map[string]string) []string {
	known := append(append([]string{}, validation.Fields...), validation.FieldAttachments)
	out := make([]string, 0, len(errs))
	seen := make(map[string]bool, len(known))
	for _, field := range known {
		seen[field] = true
		if _, ok := errs[field]; ok {
			out = append(out, field)
		}
	}
	var extra []string
	for field := range errs {
		if !seen[field] {
			extra = append(extra, field)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}
