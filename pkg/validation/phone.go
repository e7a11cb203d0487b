package validation

import (
	"strings"
	"unicode"
)

// PhonePrefix is one entry of the country selector shown next to the phone input.
type PhonePrefix struct {
	Code      string
	Country   string
	MinDigits int
	MaxDigits int
}

// PhonePrefixes is ordered as presented to the user; the first entry is the default.
var PhonePrefixes = []PhonePrefix{
	{Code: "+48", Country: "Polska", MinDigits: 9, MaxDigits: 9},
	{Code: "+49", Country: "Niemcy", MinDigits: 5, MaxDigits: 13},
	{Code: "+44", Country: "Wielka Brytania", MinDigits: 9, MaxDigits: 10},
	{Code: "+46", Country: "Szwecja", MinDigits: 7, MaxDigits: 10},
	{Code: "+420", Country: "Czechy", MinDigits: 9, MaxDigits: 9},
	{Code: "+421", Country: "Słowacja", MinDigits: 9, MaxDigits: 9},
	{Code: "+43", Country: "Austria", MinDigits: 6, MaxDigits: 12},
	{Code: "+31", Country: "Holandia", MinDigits: 9, MaxDigits: 9},
	{Code: "+32", Country: "Belgia", MinDigits: 8, MaxDigits: 9},
	{Code: "+370", Country: "Litwa", MinDigits: 8, MaxDigits: 8},
	{Code: "+371", Country: "Łotwa", MinDigits: 8, MaxDigits: 8},
	{Code: "+372", Country: "Estonia", MinDigits: 7, MaxDigits: 8},
	{Code: "+33", Country: "Francja", MinDigits: 9, MaxDigits: 9},
	{Code: "+39", Country: "Włochy", MinDigits: 9, MaxDigits: 10},
	{Code: "+34", Country: "Hiszpania", MinDigits: 9, MaxDigits: 9},
	{Code: "+1", Country: "USA / Kanada", MinDigits: 10, MaxDigits: 10},
	{Code: "+353", Country: "Irlandia", MinDigits: 7, MaxDigits: 10},
	{Code: "+47", Country: "Norwegia", MinDigits: 8, MaxDigits: 8},
	{Code: "+41", Country: "Szwajcaria", MinDigits: 9, MaxDigits: 9},
	{Code: "+45", Country: "Dania", MinDigits: 8, MaxDigits: 8},
	{Code: "+40", Country: "Rumunia", MinDigits: 9, MaxDigits: 9},
	{Code: "+380", Country: "Ukraina", MinDigits: 9, MaxDigits: 9},
}

// DefaultPhoneRule applies to prefixes missing from PhonePrefixes.
var DefaultPhoneRule = PhonePrefix{MinDigits: 5, MaxDigits: 12}

// DefaultPhonePrefix returns the code preselected in a fresh form.
func DefaultPhonePrefix() string {
	return PhonePrefixes[0].Code
}

// FindPhoneRule returns the digit range for prefix, or DefaultPhoneRule.
func FindPhoneRule(prefix string) PhonePrefix {
	for _, p := range PhonePrefixes {
		if p.Code == prefix {
			return p
		}
	}
	rule := DefaultPhoneRule
	rule.Code = prefix
	return rule
}

// ComposePhone joins the prefix and the trimmed local part with a single space,
// skipping whichever side is empty.
func ComposePhone(prefix, local string) string {
	parts := make([]string, 0, 2)
	if p := strings.TrimSpace(prefix); p != "" {
		parts = append(parts, p)
	}
	if l := strings.TrimSpace(local); l != "" {
		parts = append(parts, l)
	}
	return strings.Join(parts, " ")
}

// SplitPhone reverses ComposePhone. A leading "+digits" token is the prefix;
// when the number was typed without a space the longest known code wins.
func SplitPhone(phone string) (prefix, local string) {
	phone = strings.TrimSpace(phone)
	if !strings.HasPrefix(phone, "+") {
		return "", phone
	}
	fields := strings.Fields(phone)
	head := fields[0]
	if len(fields) > 1 {
		return head, strings.Join(fields[1:], " ")
	}
	best := ""
	for _, p := range PhonePrefixes {
		if strings.HasPrefix(head, p.Code) && len(p.Code) > len(best) {
			best = p.Code
		}
	}
	if best == "" {
		return head, ""
	}
	return best, strings.TrimPrefix(head, best)
}

// SanitizeLocalPhone keeps digits and spaces, the only characters the local
// input accepts.
func SanitizeLocalPhone(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == ' ' {
			return r
		}
		return -1
	}, s)
}

// DigitsOnly strips everything but ASCII digits.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
