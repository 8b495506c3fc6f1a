package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"currency-wallet/config"
	"currency-wallet/internal/core/domain"
	"currency-wallet/internal/core/ports"
	"currency-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletServiceImpl implements ports.WalletService.
type WalletServiceImpl struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	txRepo     ports.TransactionRepository
	rates      ports.RateSource
	transactor ports.DBTransactor
	cfg        config.WalletConfig
	log        zerolog.Logger
}

// NewWalletService creates a new WalletServiceImpl.
func NewWalletService(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	txRepo ports.TransactionRepository,
	rates ports.RateSource,
	transactor ports.DBTransactor,
	cfg config.WalletConfig,
	log zerolog.Logger,
) *WalletServiceImpl {
	return &WalletServiceImpl{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		txRepo:     txRepo,
		rates:      rates,
		transactor: transactor,
		cfg:        cfg,
		log:        log,
	}
}

// GetOrCreateWallet returns the user's wallet, creating an empty one in the
// configured default currency on first use.
func (s *WalletServiceImpl) GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get wallet: %w", err))
	}
	if wallet != nil {
		return wallet, nil
	}

	wallet = domain.NewWallet(userID, s.cfg.DefaultCurrency)
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		// Lost a creation race; the existing row wins.
		existing, gerr := s.walletRepo.GetByUserID(ctx, userID)
		if gerr == nil && existing != nil {
			return existing, nil
		}
		return nil, apperror.InternalError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("currency", wallet.Currency).
		Msg("wallet created")

	return wallet, nil
}

// Deposit credits amount to the user's wallet and records a ledger entry.
func (s *WalletServiceImpl) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.ErrInvalidAmount()
	}

	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, wallet.ID)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if locked == nil {
		return decimal.Zero, apperror.ErrWalletNotFound()
	}

	newBalance := locked.Balance.Add(amount)
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, locked.ID, newBalance); err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	entry := domain.NewLedgerEntry(userID, domain.TransactionKindDeposit, amount, locked.Currency)
	if err := s.txRepo.Create(ctx, dbTx, entry); err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("create ledger entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("amount", amount.String()).
		Str("currency", locked.Currency).
		Msg("deposit committed")

	return newBalance, nil
}

// Withdraw debits amount from the user's wallet. The funds check happens
// under the row lock, so concurrent withdrawals cannot overdraw.
func (s *WalletServiceImpl) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.ErrInvalidAmount()
	}

	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	locked, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, wallet.ID)
	if err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
	}
	if locked == nil {
		return decimal.Zero, apperror.ErrWalletNotFound()
	}

	if !locked.CanDebit(amount) {
		return decimal.Zero, apperror.ErrInsufficientFunds()
	}

	newBalance := locked.Balance.Sub(amount)
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, locked.ID, newBalance); err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("update balance: %w", err))
	}

	entry := domain.NewLedgerEntry(userID, domain.TransactionKindWithdraw, amount, locked.Currency)
	if err := s.txRepo.Create(ctx, dbTx, entry); err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("create ledger entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return decimal.Zero, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("amount", amount.String()).
		Str("currency", locked.Currency).
		Msg("withdrawal committed")

	return newBalance, nil
}

// Transfer moves funds between two users, converting currency when the
// source and target codes differ. Both ledger entries and both balance
// updates commit in a single database transaction.
func (s *WalletServiceImpl) Transfer(ctx context.Context, req ports.TransferRequest) (*ports.TransferResult, error) {
	if req.Recipient == "" || req.SourceCurrency == "" || req.TargetCurrency == "" {
		return nil, apperror.ErrInvalidTransferRequest("recipient, amount, source currency and target currency are required")
	}
	if !req.Amount.IsPositive() {
		return nil, apperror.ErrInvalidAmount()
	}

	from := strings.ToUpper(req.SourceCurrency)
	to := strings.ToUpper(req.TargetCurrency)

	sender, err := s.userRepo.GetByID(ctx, req.SenderID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get sender: %w", err))
	}
	if sender == nil || !sender.WalletReady() {
		return nil, apperror.ErrWalletNotSetUp()
	}

	recipient, err := s.resolveRecipient(ctx, req.Recipient)
	if err != nil {
		return nil, err
	}
	if !recipient.WalletReady() {
		return nil, apperror.ErrRecipientWalletNotSetUp()
	}
	if recipient.ID == sender.ID {
		return nil, apperror.ErrSelfTransfer()
	}

	senderWallet, err := s.GetOrCreateWallet(ctx, sender.ID)
	if err != nil {
		return nil, err
	}
	recipientWallet, err := s.GetOrCreateWallet(ctx, recipient.ID)
	if err != nil {
		return nil, err
	}

	// Cheap pre-check so an obviously broke sender never triggers a rate
	// lookup. The authoritative check happens again under the row lock.
	if !senderWallet.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	converted, err := s.convert(ctx, from, to, req.Amount)
	if err != nil {
		return nil, err
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	// Lock both wallets in a stable order to avoid an ABBA deadlock when
	// two users transfer to each other at the same time.
	firstID, secondID := senderWallet.ID, recipientWallet.ID
	if bytes.Compare(secondID[:], firstID[:]) < 0 {
		firstID, secondID = secondID, firstID
	}
	lockedByID := make(map[uuid.UUID]*domain.Wallet, 2)
	for _, id := range []uuid.UUID{firstID, secondID} {
		w, err := s.walletRepo.GetByIDForUpdate(ctx, dbTx, id)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("lock wallet: %w", err))
		}
		if w == nil {
			return nil, apperror.ErrWalletNotFound()
		}
		lockedByID[id] = w
	}
	lockedSender := lockedByID[senderWallet.ID]
	lockedRecipient := lockedByID[recipientWallet.ID]

	if !lockedSender.CanDebit(req.Amount) {
		return nil, apperror.ErrInsufficientFunds()
	}

	newSenderBalance := lockedSender.Balance.Sub(req.Amount)
	newRecipientBalance := lockedRecipient.Balance.Add(converted)

	if err := s.walletRepo.UpdateBalance(ctx, dbTx, lockedSender.ID, newSenderBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("debit sender: %w", err))
	}
	if err := s.walletRepo.UpdateBalance(ctx, dbTx, lockedRecipient.ID, newRecipientBalance); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("credit recipient: %w", err))
	}

	sent, received := domain.NewTransferPair(sender.ID, recipient.ID, req.Amount, from, to, converted)
	if err := s.txRepo.Create(ctx, dbTx, sent); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create transfer entry: %w", err))
	}
	if err := s.txRepo.Create(ctx, dbTx, received); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create receive entry: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("sender_id", sender.ID.String()).
		Str("recipient_id", recipient.ID.String()).
		Str("amount", req.Amount.String()).
		Str("from", from).
		Str("to", to).
		Str("converted", converted.String()).
		Msg("transfer committed")

	return &ports.TransferResult{
		Sent:           fmt.Sprintf("%s %s", req.Amount.String(), from),
		Received:       fmt.Sprintf("%s %s", converted.StringFixed(2), to),
		ReceivedAmount: converted,
		SenderBalance:  newSenderBalance,
	}, nil
}

// GetBalance returns the wallet balance and currency, creating the wallet
// lazily like every other wallet read.
func (s *WalletServiceImpl) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, string, error) {
	wallet, err := s.GetOrCreateWallet(ctx, userID)
	if err != nil {
		return decimal.Zero, "", err
	}
	return wallet.Balance, wallet.Currency, nil
}

// SetupWallet links bank details to the user and sets their preferred
// currency. Completing setup is a precondition for sending and receiving
// transfers.
func (s *WalletServiceImpl) SetupWallet(ctx context.Context, req ports.SetupWalletRequest) (*domain.User, error) {
	if req.BankAccount == "" || req.RoutingCode == "" {
		return nil, apperror.ErrInvalidBankDetails("bank account and routing code are required")
	}
	if !domain.ValidBankAccount(req.BankAccount) {
		return nil, apperror.ErrInvalidBankDetails("bank account must be 9 to 18 digits")
	}
	routing, ok := domain.NormalizeRoutingCode(req.RoutingCode)
	if !ok {
		return nil, apperror.ErrInvalidBankDetails("routing code must be 4 letters, a zero, then 6 alphanumerics")
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get user: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrWalletNotFound()
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.cfg.SetupCurrency
	}

	user.BankAccount = &req.BankAccount
	user.RoutingCode = &routing
	user.Currency = currency
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update user: %w", err))
	}

	// Make sure the wallet row exists so the first transfer does not race
	// two lazy creations.
	if _, err := s.GetOrCreateWallet(ctx, user.ID); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("currency", currency).
		Msg("wallet setup completed")

	return user, nil
}

// PreviewConversion quotes a conversion without touching any balance.
// Unlike Transfer, a rate failure here is always surfaced.
func (s *WalletServiceImpl) PreviewConversion(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, apperror.ErrInvalidAmount()
	}
	from = strings.ToUpper(from)
	to = strings.ToUpper(to)
	if from == to {
		return amount, nil
	}
	converted, err := s.rates.Convert(ctx, from, to, amount)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return decimal.Zero, appErr
		}
		return decimal.Zero, apperror.ErrConversionFailed(err)
	}
	return converted, nil
}

// resolveRecipient classifies the raw selector and loads the matching user.
func (s *WalletServiceImpl) resolveRecipient(ctx context.Context, raw string) (*domain.User, error) {
	rec, err := domain.ClassifyRecipient(raw, s.cfg.PhoneLeadingDigits)
	if err != nil {
		if err == domain.ErrInvalidPhone {
			return nil, apperror.ErrInvalidRecipientPhone()
		}
		return nil, apperror.ErrInvalidTransferRequest("recipient must be an email address or phone number")
	}

	user, err := s.userRepo.GetByContact(ctx, rec.Value)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find recipient: %w", err))
	}
	if user == nil {
		return nil, apperror.ErrRecipientNotFound()
	}
	return user, nil
}

// convert applies the rate source, short-circuiting identical pairs. When the
// configured fallback is on, a failed lookup degrades to a 1:1 conversion
// instead of aborting; nothing has been locked or debited at this point.
func (s *WalletServiceImpl) convert(ctx context.Context, from, to string, amount decimal.Decimal) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	converted, err := s.rates.Convert(ctx, from, to, amount)
	if err != nil {
		if s.cfg.ConversionFallback {
			s.log.Warn().Err(err).
				Str("from", from).
				Str("to", to).
				Msg("rate lookup failed, falling back to 1:1 conversion")
			return amount, nil
		}
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return decimal.Zero, appErr
		}
		return decimal.Zero, apperror.ErrConversionFailed(err)
	}
	return converted, nil
}
