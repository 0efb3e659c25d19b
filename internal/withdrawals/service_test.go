package withdrawals

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/internal/notifications"
	"github.com/padimart/padimart-backend/internal/wallet"
	"github.com/padimart/padimart-backend/pkg/db/models"
	"github.com/padimart/padimart-backend/pkg/enums"
	pkgerrors "github.com/padimart/padimart-backend/pkg/errors"
	"github.com/padimart/padimart-backend/pkg/logger"
	"github.com/padimart/padimart-backend/pkg/types"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRepo struct {
	byID map[uuid.UUID]*models.WithdrawalRequest
}

func newStubRepo() *stubRepo {
	return &stubRepo{byID: map[uuid.UUID]*models.WithdrawalRequest{}}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, req *models.WithdrawalRequest) error {
	clone := *req
	s.byID[req.ID] = &clone
	return nil
}

func (s *stubRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	req, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *req
	return &clone, nil
}

func (s *stubRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	req, ok := s.byID[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["status"]; ok {
		req.Status = v.(enums.WithdrawalStatus)
	}
	if v, ok := fields["rejection_reason"]; ok {
		reason := v.(string)
		req.RejectionReason = &reason
	}
	if v, ok := fields["transfer_reference"]; ok {
		ref := v.(string)
		req.TransferReference = &ref
	}
	if v, ok := fields["updated_at"]; ok {
		req.UpdatedAt = v.(time.Time)
	}
	return nil
}

func (s *stubRepo) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.WithdrawalRequest, error) {
	var out []models.WithdrawalRequest
	for _, req := range s.byID {
		if req.VendorID == vendorID {
			out = append(out, *req)
		}
	}
	return out, nil
}

type stubWalletRepo struct {
	byUser  map[uuid.UUID]*models.Wallet
	entries []models.WalletTransaction
}

func newStubWalletRepo() *stubWalletRepo {
	return &stubWalletRepo{byUser: map[uuid.UUID]*models.Wallet{}}
}

func (s *stubWalletRepo) WithTx(tx *gorm.DB) wallet.Repository { return s }

func (s *stubWalletRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	w, ok := s.byUser[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *w
	return &clone, nil
}

func (s *stubWalletRepo) Create(ctx context.Context, w *models.Wallet) error {
	clone := *w
	s.byUser[w.UserID] = &clone
	return nil
}

func (s *stubWalletRepo) AdjustBalances(ctx context.Context, userID uuid.UUID, delta wallet.BalanceDelta) error {
	w, ok := s.byUser[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	w.Balance += delta.Balance
	w.PendingBalance += delta.Pending
	w.EligibleBalance += delta.Eligible
	return nil
}

func (s *stubWalletRepo) CreateTransaction(ctx context.Context, entry *models.WalletTransaction) error {
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *stubWalletRepo) ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.WalletTransaction, error) {
	return nil, nil
}

type stubGateway struct {
	recipientErr error
	transferErr  error
	transfers    []float64
}

func (g *stubGateway) CreateRecipient(ctx context.Context, account types.BankAccount) (string, error) {
	if g.recipientErr != nil {
		return "", g.recipientErr
	}
	return "RCP_test", nil
}

func (g *stubGateway) Transfer(ctx context.Context, recipient string, amount float64, memo string) (string, error) {
	if g.transferErr != nil {
		return "", g.transferErr
	}
	g.transfers = append(g.transfers, amount)
	return "TRF_test", nil
}

type recordingNotifier struct {
	got []notifications.Message
}

func (r *recordingNotifier) Notify(ctx context.Context, msg notifications.Message) error {
	r.got = append(r.got, msg)
	return nil
}

type withdrawalFixture struct {
	svc      Service
	repo     *stubRepo
	wallets  *stubWalletRepo
	gateway  *stubGateway
	notifier *recordingNotifier
	vendorID uuid.UUID
}

func newWithdrawalFixture(t *testing.T) *withdrawalFixture {
	t.Helper()

	f := &withdrawalFixture{
		repo:     newStubRepo(),
		wallets:  newStubWalletRepo(),
		gateway:  &stubGateway{},
		notifier: &recordingNotifier{},
		vendorID: uuid.New(),
	}
	f.wallets.byUser[f.vendorID] = &models.Wallet{
		UserID:          f.vendorID,
		Balance:         10500,
		EligibleBalance: 10500,
	}

	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(fakeTxRunner{}, f.repo, f.wallets, f.gateway, f.notifier, log)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func validBankAccount() types.BankAccount {
	return types.BankAccount{
		AccountName:   "Ade Stores",
		AccountNumber: "0123456789",
		BankCode:      "058",
		BankName:      "GTBank",
	}
}

func TestRequestReservesEligibleBalance(t *testing.T) {
	f := newWithdrawalFixture(t)

	req, err := f.svc.Request(context.Background(), RequestInput{
		VendorID:    f.vendorID,
		Amount:      4000,
		BankAccount: validBankAccount(),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.WithdrawalStatusPending, req.Status)
	w := f.wallets.byUser[f.vendorID]
	assert.InDelta(t, 6500.0, w.EligibleBalance, 0.001)
	// Lifetime balance only moves at approval.
	assert.InDelta(t, 10500.0, w.Balance, 0.001)
}

func TestRequestInsufficientEligible(t *testing.T) {
	f := newWithdrawalFixture(t)

	_, err := f.svc.Request(context.Background(), RequestInput{
		VendorID:    f.vendorID,
		Amount:      20000,
		BankAccount: validBankAccount(),
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	assert.InDelta(t, 10500.0, f.wallets.byUser[f.vendorID].EligibleBalance, 0.001)
}

func TestRequestSecondReservationCannotDoubleSpend(t *testing.T) {
	f := newWithdrawalFixture(t)

	_, err := f.svc.Request(context.Background(), RequestInput{
		VendorID: f.vendorID, Amount: 8000, BankAccount: validBankAccount(),
	})
	require.NoError(t, err)

	_, err = f.svc.Request(context.Background(), RequestInput{
		VendorID: f.vendorID, Amount: 8000, BankAccount: validBankAccount(),
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
}

func TestRequestRejectsIncompleteBankAccount(t *testing.T) {
	f := newWithdrawalFixture(t)

	account := validBankAccount()
	account.AccountNumber = "12345" // must be 10 digits

	_, err := f.svc.Request(context.Background(), RequestInput{
		VendorID: f.vendorID, Amount: 1000, BankAccount: account,
	})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestApprovePaysOutAndDebitsBalance(t *testing.T) {
	f := newWithdrawalFixture(t)
	req, err := f.svc.Request(context.Background(), RequestInput{
		VendorID: f.vendorID, Amount: 4000, BankAccount: validBankAccount(),
	})
	require.NoError(t, err)

	approved, err := f.svc.Approve(context.Background(), req.ID)
	require.NoError(t, err)

	assert.Equal(t, enums.WithdrawalStatusApproved, approved.Status)
	require.NotNil(t, approved.TransferReference)
	assert.Equal(t, "TRF_test", *approved.TransferReference)

	w := f.wallets.byUser[f.vendorID]
	assert.InDelta(t, 6500.0, w.Balance, 0.001)
	assert.InDelta(t, 6500.0, w.EligibleBalance, 0.001)

	require.Len(t, f.wallets.entries, 1)
	entry := f.wallets.entries[0]
	assert.Equal(t, enums.TransactionTypeDebit, entry.Type)
	assert.Equal(t, enums.TransactionSourceWithdrawal, entry.Source)
	assert.InDelta(t, 4000.0, entry.Amount, 0.001)
	require.NotNil(t, entry.WithdrawalID)
	assert.Equal(t, req.ID, *entry.WithdrawalID)

	require.Len(t, f.notifier.got, 1)
	assert.Equal(t, notifications.KindWithdrawalApproved, f.notifier.got[0].Kind)
}

func TestApproveGatewayFailureLeavesReservation(t *testing.T) {
	f := newWithdrawalFixture(t)
	req, err := f.svc.Request(context.Background(), RequestInput{
		VendorID: f.vendorID, Amount: 4000, BankAccount: validBankAccount(),
	})
	require.NoError(t, err)

	f.gateway.transferErr = fmt.Errorf("gateway timeout")
	_, err = f.svc.Approve(context.Background(), req.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))

	// Request stays pending, reservation stays debited: the transfer may
	// have landed on the gateway despite the timeout.
	stored := f.repo.byID[req.ID]
	assert.Equal(t, enums.WithdrawalStatusPending, stored.Status)
	w := f.wallets.byUser[f.vendorID]
	assert.InDelta(t, 6500.0, w.EligibleBalance, 0.001)
	assert.InDelta(t, 10500.0, w.Balance, 0.001)
	assert.Empty(t, f.wallets.entries)
}

func TestApproveAlreadyResolved(t *testing.T) {
	f := newWithdrawalFixture(t)
	req, err := f.svc.Request(context.Background(), RequestInput{
		VendorID: f.vendorID, Amount: 4000, BankAccount: validBankAccount(),
	})
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), req.ID)
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), req.ID)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	assert.Len(t, f.wallets.entries, 1)
}

func TestApproveUnknownRequest(t *testing.T) {
	f := newWithdrawalFixture(t)

	_, err := f.svc.Approve(context.Background(), uuid.New())
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestRejectRestoresEligibleBalance(t *testing.T) {
	f := newWithdrawalFixture(t)
	req, err := f.svc.Request(context.Background(), RequestInput{
		VendorID: f.vendorID, Amount: 4000, BankAccount: validBankAccount(),
	})
	require.NoError(t, err)
	assert.InDelta(t, 6500.0, f.wallets.byUser[f.vendorID].EligibleBalance, 0.001)

	rejected, err := f.svc.Reject(context.Background(), req.ID, "account name mismatch")
	require.NoError(t, err)

	assert.Equal(t, enums.WithdrawalStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.InDelta(t, 10500.0, f.wallets.byUser[f.vendorID].EligibleBalance, 0.001)

	require.Len(t, f.notifier.got, 1)
	assert.Equal(t, notifications.KindWithdrawalRejected, f.notifier.got[0].Kind)
}

func TestRejectTwice(t *testing.T) {
	f := newWithdrawalFixture(t)
	req, err := f.svc.Request(context.Background(), RequestInput{
		VendorID: f.vendorID, Amount: 4000, BankAccount: validBankAccount(),
	})
	require.NoError(t, err)

	_, err = f.svc.Reject(context.Background(), req.ID, "first")
	require.NoError(t, err)

	_, err = f.svc.Reject(context.Background(), req.ID, "second")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeStateConflict))
	// No double restore.
	assert.InDelta(t, 10500.0, f.wallets.byUser[f.vendorID].EligibleBalance, 0.001)
}
