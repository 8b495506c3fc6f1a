package domain

import (
	"errors"
	"regexp"
	"strings"
)

// RecipientKind tags the classified shape of a recipient selector.
type RecipientKind string

const (
	RecipientEmail RecipientKind = "email"
	RecipientPhone RecipientKind = "phone"
)

// Recipient is a classified and normalized recipient selector.
type Recipient struct {
	Kind  RecipientKind
	Value string // Lowercased email, or digits-only phone
}

var (
	// ErrUnrecognizedRecipient is returned for selectors that are neither
	// email- nor phone-shaped.
	ErrUnrecognizedRecipient = errors.New("unrecognized recipient identifier")
	// ErrInvalidPhone is returned for phone-shaped selectors that do not
	// match the accepted national mobile format.
	ErrInvalidPhone = errors.New("invalid phone number")
)

var (
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigitRe = regexp.MustCompile(`\D`)
)

// ClassifyRecipient classifies a raw recipient string as an email address or
// a national mobile number and returns the normalized form. leadingDigits is
// the set of digits a 10-digit mobile number may start with.
//
// Selectors containing '@' must match an email shape; anything else must
// reduce to a valid phone number after stripping non-digit characters.
func ClassifyRecipient(raw, leadingDigits string) (Recipient, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Recipient{}, ErrUnrecognizedRecipient
	}

	if strings.Contains(trimmed, "@") {
		email := strings.ToLower(trimmed)
		if !emailRe.MatchString(email) {
			return Recipient{}, ErrUnrecognizedRecipient
		}
		return Recipient{Kind: RecipientEmail, Value: email}, nil
	}

	digits := nonDigitRe.ReplaceAllString(trimmed, "")
	if digits == "" {
		return Recipient{}, ErrUnrecognizedRecipient
	}
	if len(digits) != 10 || !strings.ContainsRune(leadingDigits, rune(digits[0])) {
		return Recipient{}, ErrInvalidPhone
	}
	return Recipient{Kind: RecipientPhone, Value: digits}, nil
}
