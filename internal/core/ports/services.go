package ports

import (
	"context"
	"time"

	"currency-wallet/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RateSource converts an amount between two currency codes.
// Implementations must not be called for identical pairs; the caller
// short-circuits from == to without a lookup.
type RateSource interface {
	Convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error)
}

// RateCache caches unit conversion rates with a TTL.
type RateCache interface {
	// GetRate returns the cached rate and whether it was present.
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, bool, error)
	SetRate(ctx context.Context, from, to string, rate decimal.Decimal, ttl time.Duration) error
}

// HashService handles password hashing.
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT token operations.
type TokenService interface {
	Generate(userID uuid.UUID) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
}

// --- Service Ports (Business Logic) ---

// WalletService owns all balance mutation and conversion orchestration.
type WalletService interface {
	GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error)
	Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error)
	Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, string, error)
	SetupWallet(ctx context.Context, req SetupWalletRequest) (*domain.User, error)
	PreviewConversion(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error)
}

// TransferRequest holds validated input for a peer-to-peer transfer.
type TransferRequest struct {
	SenderID       uuid.UUID
	Recipient      string // Raw selector: email or phone
	Amount         decimal.Decimal
	SourceCurrency string
	TargetCurrency string
}

// TransferResult summarizes a committed transfer.
type TransferResult struct {
	Sent           string          // e.g. "10 USD"
	Received       string          // e.g. "9.10 EUR", rounded to 2 decimals
	ReceivedAmount decimal.Decimal // Full precision credited amount
	SenderBalance  decimal.Decimal
}

// SetupWalletRequest holds input for linking a bank account.
type SetupWalletRequest struct {
	UserID      uuid.UUID
	BankAccount string
	RoutingCode string
	Currency    string // Optional; configured default applies when empty
}

// HistoryService projects the raw ledger into display entries.
type HistoryService interface {
	// ListHistory returns the user's ledger newest first, with counterparty
	// identifiers replaced by contact labels. Each call performs a fresh read.
	ListHistory(ctx context.Context, userID uuid.UUID) ([]HistoryEntry, error)
}

// HistoryEntry is a denormalized ledger entry for display.
type HistoryEntry struct {
	ID              uuid.UUID              `json:"id"`
	Kind            domain.TransactionKind `json:"kind"`
	Amount          decimal.Decimal        `json:"amount"`
	Currency        string                 `json:"currency"`
	TargetCurrency  *string                `json:"target_currency,omitempty"`
	ConvertedAmount *decimal.Decimal       `json:"converted_amount,omitempty"`
	FromUser        *string                `json:"from_user"` // Email, else phone, else null
	ToUser          *string                `json:"to_user"`
	CreatedAt       time.Time              `json:"created_at"`
}

// AuthService defines signup/login business logic.
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResult, error)
	// Login accepts an email or phone identifier.
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
}

// SignupRequest holds input for user registration.
type SignupRequest struct {
	Name     *string
	Email    string
	Phone    string
	Password string
}

// AuthResult carries the authenticated user and their session token.
type AuthResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}
