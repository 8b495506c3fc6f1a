package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	bankAccountRe = regexp.MustCompile(`^\d{9,18}$`)
	routingCodeRe = regexp.MustCompile(`^[A-Za-z]{4}0[A-Za-z0-9]{6}$`)
)

// User represents a registered wallet user.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         *string   `json:"name,omitempty"`
	Email        *string   `json:"email,omitempty"` // Unique when set
	Phone        *string   `json:"phone,omitempty"` // Unique when set, digits only
	PasswordHash string    `json:"-"`               // Never expose
	BankAccount  *string   `json:"bank_account,omitempty"`
	RoutingCode  *string   `json:"routing_code,omitempty"` // Stored uppercase
	Currency     string    `json:"currency"`               // Preferred currency
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// WalletReady reports whether the user has completed wallet setup.
// Bank account and routing code are either both set or both unset.
func (u *User) WalletReady() bool {
	return u.BankAccount != nil && *u.BankAccount != "" &&
		u.RoutingCode != nil && *u.RoutingCode != ""
}

// ContactLabel returns a display identifier for the user: email if present,
// else phone, else nil.
func (u *User) ContactLabel() *string {
	if u.Email != nil && *u.Email != "" {
		return u.Email
	}
	if u.Phone != nil && *u.Phone != "" {
		return u.Phone
	}
	return nil
}

// ValidBankAccount reports whether s is a 9-18 digit account number.
func ValidBankAccount(s string) bool {
	return bankAccountRe.MatchString(s)
}

// NormalizeRoutingCode validates the bank routing code shape
// (4 letters, "0", 6 alphanumerics) and returns it uppercased.
func NormalizeRoutingCode(s string) (string, bool) {
	if !routingCodeRe.MatchString(s) {
		return "", false
	}
	return strings.ToUpper(s), true
}
