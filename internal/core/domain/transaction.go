package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind represents the kind of money movement.
type TransactionKind string

const (
	TransactionKindDeposit  TransactionKind = "deposit"
	TransactionKindWithdraw TransactionKind = "withdraw"
	TransactionKindTransfer TransactionKind = "transfer"
	TransactionKindReceive  TransactionKind = "receive"
)

// Transaction is an immutable append-only ledger entry. The entry belongs to
// UserID's ledger; FromUser is the economic sender, which may differ from the
// owner (a "receive" entry is owned by the recipient but sent by someone else).
type Transaction struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	FromUser        uuid.UUID        `json:"from_user"`
	ToUser          *uuid.UUID       `json:"to_user,omitempty"` // Nil for deposit/withdraw
	Kind            TransactionKind  `json:"kind"`
	Amount          decimal.Decimal  `json:"amount"` // In Currency units
	Currency        string           `json:"currency"`
	TargetCurrency  *string          `json:"target_currency,omitempty"`
	ConvertedAmount *decimal.Decimal `json:"converted_amount,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// IsPeerToPeer reports whether the entry is one side of a transfer pair.
func (t *Transaction) IsPeerToPeer() bool {
	return t.Kind == TransactionKindTransfer || t.Kind == TransactionKindReceive
}

// NewLedgerEntry builds a deposit or withdrawal entry owned by userID.
func NewLedgerEntry(userID uuid.UUID, kind TransactionKind, amount decimal.Decimal, currency string) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		UserID:    userID,
		FromUser:  userID,
		Kind:      kind,
		Amount:    amount,
		Currency:  currency,
		CreatedAt: time.Now().UTC(),
	}
}

// NewTransferPair builds the two entries of a committed transfer: a
// "transfer" entry on the sender's ledger denominated in the source currency,
// and a "receive" entry on the recipient's ledger denominated in the target
// currency. Both carry the conversion details and share a timestamp.
func NewTransferPair(senderID, recipientID uuid.UUID, amount decimal.Decimal, from, to string, converted decimal.Decimal) (sent, received *Transaction) {
	now := time.Now().UTC()
	sent = &Transaction{
		ID:              uuid.New(),
		UserID:          senderID,
		FromUser:        senderID,
		ToUser:          &recipientID,
		Kind:            TransactionKindTransfer,
		Amount:          amount,
		Currency:        from,
		TargetCurrency:  &to,
		ConvertedAmount: &converted,
		CreatedAt:       now,
	}
	received = &Transaction{
		ID:              uuid.New(),
		UserID:          recipientID,
		FromUser:        senderID,
		ToUser:          &recipientID,
		Kind:            TransactionKindReceive,
		Amount:          converted,
		Currency:        to,
		TargetCurrency:  &to,
		ConvertedAmount: &converted,
		CreatedAt:       now,
	}
	return sent, received
}
