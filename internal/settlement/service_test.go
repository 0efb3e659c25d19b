package settlement

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/internal/notifications"
	"github.com/padimart/padimart-backend/internal/orders"
	"github.com/padimart/padimart-backend/internal/users"
	"github.com/padimart/padimart-backend/internal/wallet"
	"github.com/padimart/padimart-backend/pkg/db/models"
	"github.com/padimart/padimart-backend/pkg/enums"
	pkgerrors "github.com/padimart/padimart-backend/pkg/errors"
	"github.com/padimart/padimart-backend/pkg/logger"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOrdersRepo struct {
	byID map[uuid.UUID]*models.Order
}

func newStubOrdersRepo() *stubOrdersRepo {
	return &stubOrdersRepo{byID: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	clone := *order
	s.byID[order.ID] = &clone
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *stubOrdersRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, ok := s.byID[id]
	return ok, nil
}

func (s *stubOrdersRepo) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return nil
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
	var out []models.WalletTransaction
	for _, entry := range s.entries {
		if entry.WalletUserID == userID {
			out = append(out, entry)
		}
	}
	return out, nil
}

type stubSalesRepo struct {
	totals map[string]float64
}

func newStubSalesRepo() *stubSalesRepo {
	return &stubSalesRepo{totals: map[string]float64{}}
}

func salesKey(vendorID uuid.UUID, month string) string {
	return vendorID.String() + "/" + month
}

func (s *stubSalesRepo) WithTx(tx *gorm.DB) wallet.SalesRepository { return s }

func (s *stubSalesRepo) MonthTotal(ctx context.Context, vendorID uuid.UUID, month string) (float64, error) {
	return s.totals[salesKey(vendorID, month)], nil
}

func (s *stubSalesRepo) Increment(ctx context.Context, vendorID uuid.UUID, month string, amount float64) error {
	s.totals[salesKey(vendorID, month)] += amount
	return nil
}

func (s *stubSalesRepo) Decrement(ctx context.Context, vendorID uuid.UUID, month string, amount float64) error {
	key := salesKey(vendorID, month)
	next := s.totals[key] - amount
	if next < 0 {
		next = 0
	}
	s.totals[key] = next
	return nil
}

type stubUsersRepo struct {
	byID map[uuid.UUID]*models.User
}

func newStubUsersRepo() *stubUsersRepo {
	return &stubUsersRepo{byID: map[uuid.UUID]*models.User{}}
}

func (s *stubUsersRepo) WithTx(tx *gorm.DB) users.Repository { return s }

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *stubUsersRepo) IncrementProfileViews(ctx context.Context, id uuid.UUID, delta int64) error {
	return nil
}

type recordingNotifier struct {
	got []notifications.Message
}

func (r *recordingNotifier) Notify(ctx context.Context, msg notifications.Message) error {
	r.got = append(r.got, msg)
	return nil
}

type settlementFixture struct {
	svc      Service
	orders   *stubOrdersRepo
	wallets  *stubWalletRepo
	sales    *stubSalesRepo
	users    *stubUsersRepo
	notifier *recordingNotifier
	vendorID uuid.UUID
	now      time.Time
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()

	f := &settlementFixture{
		orders:   newStubOrdersRepo(),
		wallets:  newStubWalletRepo(),
		sales:    newStubSalesRepo(),
		users:    newStubUsersRepo(),
		notifier: &recordingNotifier{},
		vendorID: uuid.New(),
		now:      time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC),
	}
	f.users.byID[f.vendorID] = &models.User{ID: f.vendorID, Role: enums.UserRoleVendor}
	f.wallets.byUser[f.vendorID] = &models.Wallet{UserID: f.vendorID}

	log := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(fakeTxRunner{}, f.orders, f.wallets, f.sales, f.users, f.notifier, log)
	require.NoError(t, err)
	svc.(*service).now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

func (f *settlementFixture) input(orderID uuid.UUID) CreateOrderInput {
	// subtotal 10000 => service fee 0.055*10000+100 = 650
	return CreateOrderInput{
		Order: models.Order{
			ID:          orderID,
			VendorID:    f.vendorID,
			Subtotal:    10000,
			DeliveryFee: 500,
			ServiceFee:  650,
		},
		CustomerID:       uuid.New(),
		PaymentReference: "PSK-REF-001",
		PaymentStatus:    "success",
		TotalPaid:        11150,
	}
}

func TestCreateOrderCreditsPendingEarnings(t *testing.T) {
	f := newSettlementFixture(t)
	orderID := uuid.New()

	order, err := f.svc.CreateOrder(context.Background(), f.input(orderID))
	require.NoError(t, err)

	assert.Equal(t, enums.OrderStatusPending, order.Status)
	assert.InDelta(t, 650.0, order.ServiceFee, 0.001)
	assert.InDelta(t, 10500.0, order.VendorEarnings, 0.001)
	assert.InDelta(t, 0.0, order.VendorCommission, 0.001)
	assert.InDelta(t, 0.07, order.CommissionRate, 0.0001)
	assert.False(t, order.DeliveryConfirmed)
	require.Len(t, order.Timeline, 1)
	assert.Equal(t, "pending", order.Timeline[0].Status)
	assert.Equal(t, "system", order.Timeline[0].Actor)

	w := f.wallets.byUser[f.vendorID]
	assert.InDelta(t, 10500.0, w.Balance, 0.001)
	assert.InDelta(t, 10500.0, w.PendingBalance, 0.001)
	assert.InDelta(t, 0.0, w.EligibleBalance, 0.001)

	require.Len(t, f.wallets.entries, 1)
	entry := f.wallets.entries[0]
	assert.Equal(t, enums.TransactionTypeCredit, entry.Type)
	assert.Equal(t, enums.TransactionSourceOrder, entry.Source)
	assert.Equal(t, "PSK-REF-001", entry.Reference)
	require.NotNil(t, entry.OrderID)
	assert.Equal(t, orderID, *entry.OrderID)

	total, err := f.sales.MonthTotal(context.Background(), f.vendorID, wallet.MonthKey(f.now))
	require.NoError(t, err)
	assert.InDelta(t, 10500.0, total, 0.001)

	require.Len(t, f.notifier.got, 1)
	assert.Equal(t, notifications.KindOrderSettled, f.notifier.got[0].Kind)
	assert.Equal(t, f.vendorID, f.notifier.got[0].RecipientID)
}

func TestCreateOrderIsIdempotentByOrderID(t *testing.T) {
	f := newSettlementFixture(t)
	orderID := uuid.New()

	_, err := f.svc.CreateOrder(context.Background(), f.input(orderID))
	require.NoError(t, err)

	_, err = f.svc.CreateOrder(context.Background(), f.input(orderID))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	// Wallet and monthly total untouched by the replay.
	w := f.wallets.byUser[f.vendorID]
	assert.InDelta(t, 10500.0, w.PendingBalance, 0.001)
	total, _ := f.sales.MonthTotal(context.Background(), f.vendorID, wallet.MonthKey(f.now))
	assert.InDelta(t, 10500.0, total, 0.001)
	assert.Len(t, f.wallets.entries, 1)
}

func TestCreateOrderRejectsServiceFeeMismatch(t *testing.T) {
	f := newSettlementFixture(t)

	input := f.input(uuid.New())
	input.Order.ServiceFee = 652 // expected 650, gap > 1

	_, err := f.svc.CreateOrder(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	assert.Empty(t, f.orders.byID)
}

func TestCreateOrderToleratesOneUnitFeeGap(t *testing.T) {
	f := newSettlementFixture(t)

	input := f.input(uuid.New())
	input.Order.ServiceFee = 651
	input.TotalPaid = 11151

	order, err := f.svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	// Server value wins over the submitted one.
	assert.InDelta(t, 650.0, order.ServiceFee, 0.001)
}

func TestCreateOrderRejectsTotalPaidMismatch(t *testing.T) {
	f := newSettlementFixture(t)

	input := f.input(uuid.New())
	input.TotalPaid = 11000

	_, err := f.svc.CreateOrder(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestCreateOrderUnknownVendor(t *testing.T) {
	f := newSettlementFixture(t)

	input := f.input(uuid.New())
	input.Order.VendorID = uuid.New()

	_, err := f.svc.CreateOrder(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestCreateOrderCommissionRateFollowsMonthlyTier(t *testing.T) {
	f := newSettlementFixture(t)
	month := wallet.MonthKey(f.now)
	require.NoError(t, f.sales.Increment(context.Background(), f.vendorID, month, 160000))

	order, err := f.svc.CreateOrder(context.Background(), f.input(uuid.New()))
	require.NoError(t, err)
	assert.InDelta(t, 0.03, order.CommissionRate, 0.0001)
	// Rate is recorded for audit only; earnings stay undeducted.
	assert.InDelta(t, 10500.0, order.VendorEarnings, 0.001)
}

func TestCreateOrderRewardOrderValidatesOriginalTotal(t *testing.T) {
	f := newSettlementFixture(t)

	input := f.input(uuid.New())
	rewardType := enums.RewardTypeDiscount
	original := 11150.0
	discounted := 10150.0
	debt := 1000.0
	input.Order.RewardType = &rewardType
	input.Order.OriginalTotalBeforeReward = &original
	input.Order.RewardDiscount = &debt
	input.Order.PlatformDebt = &debt
	input.TotalPaid = discounted

	// TotalPaid is checked against the pre-reward total, not the discounted one.
	_, err := f.svc.CreateOrder(context.Background(), input)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	input.TotalPaid = original
	order, err := f.svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, order.PlatformDebtSettled)
	assert.False(t, *order.PlatformDebtSettled)

	require.Len(t, f.wallets.entries, 1)
	require.NotNil(t, f.wallets.entries[0].PlatformDebt)
	assert.InDelta(t, 1000.0, *f.wallets.entries[0].PlatformDebt, 0.001)
}

func TestCreateOrderCreatesWalletWhenMissing(t *testing.T) {
	f := newSettlementFixture(t)
	delete(f.wallets.byUser, f.vendorID)

	_, err := f.svc.CreateOrder(context.Background(), f.input(uuid.New()))
	require.NoError(t, err)

	w, ok := f.wallets.byUser[f.vendorID]
	require.True(t, ok)
	assert.InDelta(t, 10500.0, w.PendingBalance, 0.001)
}

func TestCreateOrderValidatesIdentifiers(t *testing.T) {
	f := newSettlementFixture(t)

	input := f.input(uuid.New())
	input.Order.ID = uuid.Nil
	_, err := f.svc.CreateOrder(context.Background(), input)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	input = f.input(uuid.New())
	input.CustomerID = uuid.Nil
	_, err = f.svc.CreateOrder(context.Background(), input)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
