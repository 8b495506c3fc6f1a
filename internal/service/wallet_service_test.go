package service

import (
	"context"
	"errors"
	"testing"

	"currency-wallet/config"
	"currency-wallet/internal/core/domain"
	"currency-wallet/internal/core/ports"
	"currency-wallet/internal/core/ports/mocks"
	"currency-wallet/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type walletTestDeps struct {
	svc        *WalletServiceImpl
	userRepo   *mocks.MockUserRepository
	walletRepo *mocks.MockWalletRepository
	txRepo     *mocks.MockTransactionRepository
	rates      *mocks.MockRateSource
	transactor *mocks.MockDBTransactor
	ctrl       *gomock.Controller
}

func defaultWalletConfig() config.WalletConfig {
	return config.WalletConfig{
		DefaultCurrency:    "USD",
		SetupCurrency:      "INR",
		PhoneLeadingDigits: "6789",
	}
}

func setupWalletServiceWith(t *testing.T, cfg config.WalletConfig) *walletTestDeps {
	ctrl := gomock.NewController(t)
	d := &walletTestDeps{
		userRepo:   mocks.NewMockUserRepository(ctrl),
		walletRepo: mocks.NewMockWalletRepository(ctrl),
		txRepo:     mocks.NewMockTransactionRepository(ctrl),
		rates:      mocks.NewMockRateSource(ctrl),
		transactor: mocks.NewMockDBTransactor(ctrl),
		ctrl:       ctrl,
	}
	d.svc = NewWalletService(
		d.userRepo, d.walletRepo, d.txRepo, d.rates,
		d.transactor, cfg, zerolog.Nop(),
	)
	return d
}

func setupWalletService(t *testing.T) *walletTestDeps {
	return setupWalletServiceWith(t, defaultWalletConfig())
}

// mockTx implements pgx.Tx for testing
type mockTx struct{ pgx.Tx }

func (m *mockTx) Rollback(_ context.Context) error { return nil }
func (m *mockTx) Commit(_ context.Context) error   { return nil }

// decimalMatcher matches decimal arguments by value, not representation.
type decimalMatcher struct{ want decimal.Decimal }

func (m decimalMatcher) Matches(x any) bool {
	d, ok := x.(decimal.Decimal)
	return ok && d.Equal(m.want)
}

func (m decimalMatcher) String() string { return "decimal " + m.want.String() }

func decEq(s string) gomock.Matcher {
	return decimalMatcher{want: decimal.RequireFromString(s)}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func readyUser(id uuid.UUID, email string) *domain.User {
	acct := "123456789"
	routing := "HDFC0001234"
	return &domain.User{
		ID:          id,
		Email:       &email,
		BankAccount: &acct,
		RoutingCode: &routing,
		Currency:    "USD",
	}
}

func walletFor(userID uuid.UUID, balance, currency string) *domain.Wallet {
	return &domain.Wallet{
		ID:       uuid.New(),
		UserID:   userID,
		Balance:  dec(balance),
		Currency: currency,
	}
}

// ==================== GetOrCreateWallet Tests ====================

func TestWalletService_GetOrCreateWallet_Existing(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	existing := walletFor(userID, "25", "USD")

	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(existing, nil)

	wallet, err := d.svc.GetOrCreateWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, existing, wallet)
}

func TestWalletService_GetOrCreateWallet_CreatesLazily(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(nil, nil)
	d.walletRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)

	wallet, err := d.svc.GetOrCreateWallet(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, wallet)
	assert.Equal(t, userID, wallet.UserID)
	assert.Equal(t, "USD", wallet.Currency)
	assert.True(t, wallet.Balance.IsZero())
}

func TestWalletService_GetOrCreateWallet_LosesCreationRace(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	winner := walletFor(userID, "0", "USD")

	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(nil, nil)
	d.walletRepo.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("duplicate key"))
	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(winner, nil)

	wallet, err := d.svc.GetOrCreateWallet(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, winner, wallet)
}

// ==================== Deposit Tests ====================

func TestWalletService_Deposit_Success(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	wallet := walletFor(userID, "100", "USD")
	tx := &mockTx{}

	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, wallet.ID).Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, wallet.ID, decEq("150")).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, entry *domain.Transaction) error {
			assert.Equal(t, domain.TransactionKindDeposit, entry.Kind)
			assert.True(t, entry.Amount.Equal(dec("50")))
			assert.Equal(t, "USD", entry.Currency)
			assert.Equal(t, userID, entry.UserID)
			return nil
		})

	balance, err := d.svc.Deposit(ctx, userID, dec("50"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("150")))
}

func TestWalletService_Deposit_RejectsNonPositiveAmount(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	for _, amount := range []string{"0", "-5"} {
		_, err := d.svc.Deposit(context.Background(), uuid.New(), dec(amount))
		assertAppError(t, err, "WAL_001")
	}
}

// ==================== Withdraw Tests ====================

func TestWalletService_Withdraw_Success(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	wallet := walletFor(userID, "150", "USD")
	tx := &mockTx{}

	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, wallet.ID).Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, wallet.ID, decEq("110")).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, entry *domain.Transaction) error {
			assert.Equal(t, domain.TransactionKindWithdraw, entry.Kind)
			assert.True(t, entry.Amount.Equal(dec("40")))
			return nil
		})

	balance, err := d.svc.Withdraw(ctx, userID, dec("40"))
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("110")))
}

func TestWalletService_Withdraw_InsufficientFunds(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	wallet := walletFor(userID, "10", "USD")
	tx := &mockTx{}

	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, wallet.ID).Return(wallet, nil)

	_, err := d.svc.Withdraw(ctx, userID, dec("10.01"))
	assertAppError(t, err, "WAL_002")
}

func TestWalletService_Withdraw_ExactBalanceAllowed(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	wallet := walletFor(userID, "10", "USD")
	tx := &mockTx{}

	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(wallet, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, wallet.ID).Return(wallet, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, wallet.ID, decEq("0")).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)

	balance, err := d.svc.Withdraw(ctx, userID, dec("10"))
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

// ==================== Transfer Tests ====================

func expectTransferPreamble(d *walletTestDeps, ctx context.Context, sender, recipient *domain.User, senderWallet, recipientWallet *domain.Wallet, contact string) {
	d.userRepo.EXPECT().GetByID(ctx, sender.ID).Return(sender, nil)
	d.userRepo.EXPECT().GetByContact(ctx, contact).Return(recipient, nil)
	d.walletRepo.EXPECT().GetByUserID(ctx, sender.ID).Return(senderWallet, nil)
	d.walletRepo.EXPECT().GetByUserID(ctx, recipient.ID).Return(recipientWallet, nil)
}

func TestWalletService_Transfer_SameCurrency(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sender := readyUser(uuid.New(), "alice@example.com")
	recipient := readyUser(uuid.New(), "bob@example.com")
	senderWallet := walletFor(sender.ID, "100", "USD")
	recipientWallet := walletFor(recipient.ID, "0", "USD")
	tx := &mockTx{}

	expectTransferPreamble(d, ctx, sender, recipient, senderWallet, recipientWallet, "bob@example.com")
	// Identical pair: no rate lookup.
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, senderWallet.ID).Return(senderWallet, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, recipientWallet.ID).Return(recipientWallet, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, senderWallet.ID, decEq("60")).Return(nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, recipientWallet.ID, decEq("40")).Return(nil)

	var entries []*domain.Transaction
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, entry *domain.Transaction) error {
			entries = append(entries, entry)
			return nil
		}).Times(2)

	result, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       sender.ID,
		Recipient:      "bob@example.com",
		Amount:         dec("40"),
		SourceCurrency: "USD",
		TargetCurrency: "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, "40 USD", result.Sent)
	assert.Equal(t, "40.00 USD", result.Received)
	assert.True(t, result.SenderBalance.Equal(dec("60")))

	require.Len(t, entries, 2)
	assert.Equal(t, domain.TransactionKindTransfer, entries[0].Kind)
	assert.Equal(t, sender.ID, entries[0].UserID)
	assert.Equal(t, domain.TransactionKindReceive, entries[1].Kind)
	assert.Equal(t, recipient.ID, entries[1].UserID)
	assert.True(t, entries[1].Amount.Equal(dec("40")))
}

func TestWalletService_Transfer_CrossCurrency(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sender := readyUser(uuid.New(), "alice@example.com")
	recipient := readyUser(uuid.New(), "bob@example.com")
	senderWallet := walletFor(sender.ID, "100", "USD")
	recipientWallet := walletFor(recipient.ID, "5", "EUR")
	tx := &mockTx{}

	expectTransferPreamble(d, ctx, sender, recipient, senderWallet, recipientWallet, "bob@example.com")
	d.rates.EXPECT().Convert(ctx, "USD", "EUR", decEq("10")).Return(dec("9.1"), nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, senderWallet.ID).Return(senderWallet, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, recipientWallet.ID).Return(recipientWallet, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, senderWallet.ID, decEq("90")).Return(nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, recipientWallet.ID, decEq("14.1")).Return(nil)

	var entries []*domain.Transaction
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, entry *domain.Transaction) error {
			entries = append(entries, entry)
			return nil
		}).Times(2)

	result, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       sender.ID,
		Recipient:      "bob@example.com",
		Amount:         dec("10"),
		SourceCurrency: "usd",
		TargetCurrency: "eur",
	})
	require.NoError(t, err)
	assert.Equal(t, "10 USD", result.Sent)
	assert.Equal(t, "9.10 EUR", result.Received)
	assert.True(t, result.ReceivedAmount.Equal(dec("9.1")))
	assert.True(t, result.SenderBalance.Equal(dec("90")))

	require.Len(t, entries, 2)
	sent, received := entries[0], entries[1]
	assert.Equal(t, "USD", sent.Currency)
	assert.True(t, sent.Amount.Equal(dec("10")))
	require.NotNil(t, sent.ConvertedAmount)
	assert.True(t, sent.ConvertedAmount.Equal(dec("9.1")))
	assert.Equal(t, "EUR", received.Currency)
	assert.True(t, received.Amount.Equal(dec("9.1")))
}

func TestWalletService_Transfer_MissingFields(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.Transfer(context.Background(), ports.TransferRequest{
		SenderID: uuid.New(),
		Amount:   dec("10"),
	})
	assertAppError(t, err, "TRF_001")
}

func TestWalletService_Transfer_SenderNotSetUp(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	senderID := uuid.New()
	email := "alice@example.com"
	// Registered but never completed wallet setup.
	d.userRepo.EXPECT().GetByID(ctx, senderID).Return(&domain.User{ID: senderID, Email: &email}, nil)

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       senderID,
		Recipient:      "bob@example.com",
		Amount:         dec("10"),
		SourceCurrency: "USD",
		TargetCurrency: "USD",
	})
	assertAppError(t, err, "TRF_002")
}

func TestWalletService_Transfer_InvalidRecipientPhone(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sender := readyUser(uuid.New(), "alice@example.com")
	d.userRepo.EXPECT().GetByID(ctx, sender.ID).Return(sender, nil)

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       sender.ID,
		Recipient:      "12345",
		Amount:         dec("10"),
		SourceCurrency: "USD",
		TargetCurrency: "USD",
	})
	assertAppError(t, err, "TRF_003")
}

func TestWalletService_Transfer_RecipientNotFound(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sender := readyUser(uuid.New(), "alice@example.com")
	d.userRepo.EXPECT().GetByID(ctx, sender.ID).Return(sender, nil)
	d.userRepo.EXPECT().GetByContact(ctx, "9876543210").Return(nil, nil)

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       sender.ID,
		Recipient:      "98765-43210",
		Amount:         dec("10"),
		SourceCurrency: "USD",
		TargetCurrency: "USD",
	})
	assertAppError(t, err, "TRF_004")
}

func TestWalletService_Transfer_RecipientNotSetUp(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sender := readyUser(uuid.New(), "alice@example.com")
	email := "bob@example.com"
	d.userRepo.EXPECT().GetByID(ctx, sender.ID).Return(sender, nil)
	d.userRepo.EXPECT().GetByContact(ctx, email).Return(&domain.User{ID: uuid.New(), Email: &email}, nil)

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       sender.ID,
		Recipient:      email,
		Amount:         dec("10"),
		SourceCurrency: "USD",
		TargetCurrency: "USD",
	})
	assertAppError(t, err, "TRF_005")
}

func TestWalletService_Transfer_SelfTransfer(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sender := readyUser(uuid.New(), "alice@example.com")
	d.userRepo.EXPECT().GetByID(ctx, sender.ID).Return(sender, nil)
	d.userRepo.EXPECT().GetByContact(ctx, "alice@example.com").Return(sender, nil)

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       sender.ID,
		Recipient:      "Alice@Example.com",
		Amount:         dec("10"),
		SourceCurrency: "USD",
		TargetCurrency: "USD",
	})
	assertAppError(t, err, "TRF_006")
}

func TestWalletService_Transfer_InsufficientFundsBeforeConversion(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sender := readyUser(uuid.New(), "alice@example.com")
	recipient := readyUser(uuid.New(), "bob@example.com")
	senderWallet := walletFor(sender.ID, "5", "USD")
	recipientWallet := walletFor(recipient.ID, "0", "EUR")

	// No Convert and no Begin expectations: a broke sender is rejected
	// before any rate lookup or locking.
	expectTransferPreamble(d, ctx, sender, recipient, senderWallet, recipientWallet, "bob@example.com")

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       sender.ID,
		Recipient:      "bob@example.com",
		Amount:         dec("10"),
		SourceCurrency: "USD",
		TargetCurrency: "EUR",
	})
	assertAppError(t, err, "WAL_002")
}

func TestWalletService_Transfer_ConversionFailureAborts(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sender := readyUser(uuid.New(), "alice@example.com")
	recipient := readyUser(uuid.New(), "bob@example.com")
	senderWallet := walletFor(sender.ID, "100", "USD")
	recipientWallet := walletFor(recipient.ID, "0", "EUR")

	expectTransferPreamble(d, ctx, sender, recipient, senderWallet, recipientWallet, "bob@example.com")
	d.rates.EXPECT().Convert(ctx, "USD", "EUR", decEq("10")).Return(decimal.Zero, errors.New("rate provider down"))
	// No Begin: the transfer aborts before touching any balance.

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       sender.ID,
		Recipient:      "bob@example.com",
		Amount:         dec("10"),
		SourceCurrency: "USD",
		TargetCurrency: "EUR",
	})
	assertAppError(t, err, "FX_001")
}

func TestWalletService_Transfer_ConversionFallback(t *testing.T) {
	cfg := defaultWalletConfig()
	cfg.ConversionFallback = true
	d := setupWalletServiceWith(t, cfg)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sender := readyUser(uuid.New(), "alice@example.com")
	recipient := readyUser(uuid.New(), "bob@example.com")
	senderWallet := walletFor(sender.ID, "100", "USD")
	recipientWallet := walletFor(recipient.ID, "0", "EUR")
	tx := &mockTx{}

	expectTransferPreamble(d, ctx, sender, recipient, senderWallet, recipientWallet, "bob@example.com")
	d.rates.EXPECT().Convert(ctx, "USD", "EUR", decEq("10")).Return(decimal.Zero, errors.New("rate provider down"))
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, senderWallet.ID).Return(senderWallet, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, recipientWallet.ID).Return(recipientWallet, nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, senderWallet.ID, decEq("90")).Return(nil)
	d.walletRepo.EXPECT().UpdateBalance(ctx, tx, recipientWallet.ID, decEq("10")).Return(nil)
	d.txRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil).Times(2)

	result, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       sender.ID,
		Recipient:      "bob@example.com",
		Amount:         dec("10"),
		SourceCurrency: "USD",
		TargetCurrency: "EUR",
	})
	require.NoError(t, err)
	assert.Equal(t, "10.00 EUR", result.Received)
	assert.True(t, result.ReceivedAmount.Equal(dec("10")))
}

func TestWalletService_Transfer_BalanceRecheckedUnderLock(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	sender := readyUser(uuid.New(), "alice@example.com")
	recipient := readyUser(uuid.New(), "bob@example.com")
	senderWallet := walletFor(sender.ID, "100", "USD")
	recipientWallet := walletFor(recipient.ID, "0", "USD")
	tx := &mockTx{}

	expectTransferPreamble(d, ctx, sender, recipient, senderWallet, recipientWallet, "bob@example.com")
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	// A concurrent withdrawal drained the wallet between the pre-check and
	// the lock; the locked row is authoritative.
	drained := walletFor(sender.ID, "3", "USD")
	drained.ID = senderWallet.ID
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, senderWallet.ID).Return(drained, nil)
	d.walletRepo.EXPECT().GetByIDForUpdate(ctx, tx, recipientWallet.ID).Return(recipientWallet, nil).AnyTimes()

	_, err := d.svc.Transfer(ctx, ports.TransferRequest{
		SenderID:       sender.ID,
		Recipient:      "bob@example.com",
		Amount:         dec("10"),
		SourceCurrency: "USD",
		TargetCurrency: "USD",
	})
	assertAppError(t, err, "WAL_002")
}

// ==================== SetupWallet Tests ====================

func TestWalletService_SetupWallet_Success(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	email := "alice@example.com"
	user := &domain.User{ID: userID, Email: &email, Currency: "USD"}

	d.userRepo.EXPECT().GetByID(ctx, userID).Return(user, nil)
	d.userRepo.EXPECT().Update(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, u *domain.User) error {
			require.NotNil(t, u.BankAccount)
			assert.Equal(t, "123456789012", *u.BankAccount)
			require.NotNil(t, u.RoutingCode)
			assert.Equal(t, "HDFC0001234", *u.RoutingCode)
			assert.Equal(t, "INR", u.Currency)
			return nil
		})
	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(walletFor(userID, "0", "USD"), nil)

	updated, err := d.svc.SetupWallet(ctx, ports.SetupWalletRequest{
		UserID:      userID,
		BankAccount: "123456789012",
		RoutingCode: "hdfc0001234",
	})
	require.NoError(t, err)
	assert.True(t, updated.WalletReady())
}

func TestWalletService_SetupWallet_ExplicitCurrency(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	email := "alice@example.com"
	user := &domain.User{ID: userID, Email: &email, Currency: "USD"}

	d.userRepo.EXPECT().GetByID(ctx, userID).Return(user, nil)
	d.userRepo.EXPECT().Update(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, u *domain.User) error {
			assert.Equal(t, "GBP", u.Currency)
			return nil
		})
	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(walletFor(userID, "0", "USD"), nil)

	_, err := d.svc.SetupWallet(ctx, ports.SetupWalletRequest{
		UserID:      userID,
		BankAccount: "123456789012",
		RoutingCode: "HDFC0001234",
		Currency:    "gbp",
	})
	require.NoError(t, err)
}

func TestWalletService_SetupWallet_InvalidBankAccount(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.SetupWallet(context.Background(), ports.SetupWalletRequest{
		UserID:      uuid.New(),
		BankAccount: "1234",
		RoutingCode: "HDFC0001234",
	})
	assertAppError(t, err, "WAL_004")
}

func TestWalletService_SetupWallet_InvalidRoutingCode(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.SetupWallet(context.Background(), ports.SetupWalletRequest{
		UserID:      uuid.New(),
		BankAccount: "123456789012",
		RoutingCode: "XX123",
	})
	assertAppError(t, err, "WAL_004")
}

// ==================== PreviewConversion Tests ====================

func TestWalletService_PreviewConversion_IdenticalPair(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	// No Convert expectation: identical pairs never hit the rate source.
	result, err := d.svc.PreviewConversion(context.Background(), "usd", "USD", dec("12.34"))
	require.NoError(t, err)
	assert.True(t, result.Equal(dec("12.34")))
}

func TestWalletService_PreviewConversion_Failure(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.rates.EXPECT().Convert(ctx, "USD", "JPY", decEq("1")).Return(decimal.Zero, errors.New("unreachable"))

	_, err := d.svc.PreviewConversion(ctx, "USD", "JPY", dec("1"))
	assertAppError(t, err, "FX_001")
}

// ==================== GetBalance Tests ====================

func TestWalletService_GetBalance(t *testing.T) {
	d := setupWalletService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()
	d.walletRepo.EXPECT().GetByUserID(ctx, userID).Return(walletFor(userID, "42.5", "EUR"), nil)

	balance, currency, err := d.svc.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("42.5")))
	assert.Equal(t, "EUR", currency)
}

// ==================== Helper ====================

func assertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, expectedCode, appErr.Code)
}
