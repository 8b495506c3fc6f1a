package apperror

import (
	"fmt"
	"net/http"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// ---- Wallet Operations (WAL) ----

func ErrInvalidAmount() *AppError {
	return New("WAL_001", "Amount must be a positive number", http.StatusBadRequest)
}

func ErrInsufficientFunds() *AppError {
	return New("WAL_002", "Insufficient balance in wallet", http.StatusPaymentRequired)
}

func ErrWalletNotFound() *AppError {
	return New("WAL_003", "Wallet not found, set it up first", http.StatusNotFound)
}

func ErrInvalidBankDetails(message string) *AppError {
	return New("WAL_004", message, http.StatusBadRequest)
}

// ---- Transfers (TRF) ----

func ErrInvalidTransferRequest(message string) *AppError {
	return New("TRF_001", message, http.StatusBadRequest)
}

func ErrWalletNotSetUp() *AppError {
	return New("TRF_002", "Set up your wallet before transferring", http.StatusBadRequest)
}

func ErrInvalidRecipientPhone() *AppError {
	return New("TRF_003", "Invalid recipient phone number", http.StatusBadRequest)
}

func ErrRecipientNotFound() *AppError {
	return New("TRF_004", "Recipient not found", http.StatusNotFound)
}

func ErrRecipientWalletNotSetUp() *AppError {
	return New("TRF_005", "Recipient wallet not set up", http.StatusBadRequest)
}

func ErrSelfTransfer() *AppError {
	return New("TRF_006", "Cannot transfer to yourself", http.StatusBadRequest)
}

// ---- Currency Conversion (FX) ----

func ErrConversionFailed(err error) *AppError {
	return Wrap("FX_001", "Currency conversion failed", http.StatusBadGateway, err)
}

func ErrUnsupportedPair(from, to string) *AppError {
	return New("FX_002", fmt.Sprintf("Unsupported currency pair %s/%s", from, to), http.StatusBadRequest)
}

// ---- Authentication (AUTH) ----

func ErrInvalidCredentials() *AppError {
	return New("AUTH_001", "Invalid credentials", http.StatusUnauthorized)
}

func ErrContactExists() *AppError {
	return New("AUTH_002", "User with this email or phone already exists", http.StatusConflict)
}

func ErrInvalidToken() *AppError {
	return New("AUTH_003", "Invalid or expired token", http.StatusUnauthorized)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps a persistence or infrastructure failure as SYS_001.
func InternalError(err error) *AppError {
	return Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err)
}

// Validation returns a VAL_001 error for malformed request input.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}
