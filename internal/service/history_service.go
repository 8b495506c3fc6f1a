package service

import (
	"context"
	"fmt"

	"currency-wallet/internal/core/ports"
	"currency-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HistoryServiceImpl implements ports.HistoryService.
type HistoryServiceImpl struct {
	txRepo   ports.TransactionRepository
	userRepo ports.UserRepository
	log      zerolog.Logger
}

// NewHistoryService creates a new HistoryServiceImpl.
func NewHistoryService(txRepo ports.TransactionRepository, userRepo ports.UserRepository, log zerolog.Logger) *HistoryServiceImpl {
	return &HistoryServiceImpl{
		txRepo:   txRepo,
		userRepo: userRepo,
		log:      log,
	}
}

// ListHistory returns the user's ledger newest first. Counterparty user IDs
// are replaced with contact labels (email, else phone); a deleted
// counterparty projects to null rather than failing the whole listing.
func (s *HistoryServiceImpl) ListHistory(ctx context.Context, userID uuid.UUID) ([]ports.HistoryEntry, error) {
	txns, err := s.txRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list transactions: %w", err))
	}

	// Ledgers repeat the same counterparties, so labels are resolved once
	// per user per call.
	labels := make(map[uuid.UUID]*string)
	resolve := func(id uuid.UUID) *string {
		if label, ok := labels[id]; ok {
			return label
		}
		user, err := s.userRepo.GetByID(ctx, id)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", id.String()).Msg("counterparty lookup failed")
			labels[id] = nil
			return nil
		}
		var label *string
		if user != nil {
			label = user.ContactLabel()
		}
		labels[id] = label
		return label
	}

	entries := make([]ports.HistoryEntry, 0, len(txns))
	for _, txn := range txns {
		entry := ports.HistoryEntry{
			ID:              txn.ID,
			Kind:            txn.Kind,
			Amount:          txn.Amount,
			Currency:        txn.Currency,
			TargetCurrency:  txn.TargetCurrency,
			ConvertedAmount: txn.ConvertedAmount,
			CreatedAt:       txn.CreatedAt,
		}
		if txn.IsPeerToPeer() {
			entry.FromUser = resolve(txn.FromUser)
			if txn.ToUser != nil {
				entry.ToUser = resolve(*txn.ToUser)
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
