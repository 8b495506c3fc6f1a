package dto

import (
	"currency-wallet/internal/core/domain"
	"currency-wallet/internal/core/ports"

	"github.com/shopspring/decimal"
)

// SignupRequest is the request body for user registration.
type SignupRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    string  `json:"email" binding:"required"`
	Phone    string  `json:"phone" binding:"required"`
	Password string  `json:"password" binding:"required"`
}

// LoginRequest is the request body for login. Identifier is an email or
// a phone number; the service classifies it.
type LoginRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

// AuthResponse is the response body for successful signup or login.
type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expires_at"` // Unix timestamp
}

// UserResponse is the public view of a user account.
type UserResponse struct {
	ID          string  `json:"id"`
	Name        *string `json:"name,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Currency    string  `json:"currency"`
	WalletReady bool    `json:"wallet_ready"`
}

// SetupWalletRequest is the request body for linking bank details.
type SetupWalletRequest struct {
	BankAccount string `json:"bank_account" binding:"required"`
	RoutingCode string `json:"routing_code" binding:"required"`
	Currency    string `json:"currency" binding:"omitempty,currency_code"`
}

// AmountRequest is the request body for deposits and withdrawals.
// Amount is deliberately unbound so that zero and negative values reach
// the service and come back with the domain error code.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TransferRequest is the request body for a peer-to-peer transfer.
// Field presence is validated by the service.
type TransferRequest struct {
	Recipient      string          `json:"recipient"`
	Amount         decimal.Decimal `json:"amount"`
	SourceCurrency string          `json:"source_currency"`
	TargetCurrency string          `json:"target_currency"`
}

// TransferResponse is the response body for a committed transfer.
type TransferResponse struct {
	Sent           string          `json:"sent"`     // e.g. "10 USD"
	Received       string          `json:"received"` // e.g. "9.10 EUR"
	ReceivedAmount decimal.Decimal `json:"received_amount"`
	Balance        decimal.Decimal `json:"balance"`
}

// ConvertPreviewRequest is the request body for a conversion quote.
type ConvertPreviewRequest struct {
	From   string          `json:"from" binding:"required,currency_code"`
	To     string          `json:"to" binding:"required,currency_code"`
	Amount decimal.Decimal `json:"amount"`
}

// ConvertPreviewResponse is the response body for a conversion quote.
type ConvertPreviewResponse struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Amount    decimal.Decimal `json:"amount"`
	Converted decimal.Decimal `json:"converted"`
}

// BalanceResponse is the response body for balance queries and mutations.
type BalanceResponse struct {
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency,omitempty"`
}

// HistoryResponse wraps the user's ledger entries, newest first.
type HistoryResponse struct {
	Items []ports.HistoryEntry `json:"items"`
	Count int                  `json:"count"`
}

// ToUserResponse maps a domain user onto the public view.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Name:        u.Name,
		Email:       u.Email,
		Phone:       u.Phone,
		Currency:    u.Currency,
		WalletReady: u.WalletReady(),
	}
}
