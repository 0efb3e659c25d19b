package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/internal/notifications"
	"github.com/padimart/padimart-backend/internal/orders"
	"github.com/padimart/padimart-backend/internal/pricing"
	"github.com/padimart/padimart-backend/internal/users"
	"github.com/padimart/padimart-backend/internal/wallet"
	"github.com/padimart/padimart-backend/pkg/db/models"
	"github.com/padimart/padimart-backend/pkg/enums"
	pkgerrors "github.com/padimart/padimart-backend/pkg/errors"
	"github.com/padimart/padimart-backend/pkg/logger"
)

// amountTolerance is the largest allowed gap, in major currency units,
// between a client-submitted amount and the server-recomputed one.
const amountTolerance = 1.0

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service settles orders: it persists the order and credits the vendor's
// pending earnings in one atomic transaction.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
}

// CreateOrderInput carries the client-submitted order plus the verified
// payment facts.
type CreateOrderInput struct {
	Order            models.Order
	CustomerID       uuid.UUID
	PaymentReference string
	PaymentStatus    string
	TotalPaid        float64
}

type service struct {
	tx         txRunner
	ordersRepo orders.Repository
	walletRepo wallet.Repository
	salesRepo  wallet.SalesRepository
	usersRepo  users.Repository
	notifier   notifications.Notifier
	log        *logger.Logger
	now        func() time.Time
}

// NewService builds the settlement service.
func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	walletRepo wallet.Repository,
	salesRepo wallet.SalesRepository,
	usersRepo users.Repository,
	notifier notifications.Notifier,
	log *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if walletRepo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if salesRepo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:         tx,
		ordersRepo: ordersRepo,
		walletRepo: walletRepo,
		salesRepo:  salesRepo,
		usersRepo:  usersRepo,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	order := input.Order
	if order.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if order.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if order.Subtotal < 0 || order.DeliveryFee < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amounts must not be negative")
	}

	// The server is authoritative on the fee: the client value is only
	// checked against it, then overwritten.
	serverFee := pricing.ServiceCharge(order.Subtotal)
	if math.Abs(order.ServiceFee-serverFee) > amountTolerance {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "service fee mismatch").
			WithDetails(map[string]any{"submitted": order.ServiceFee, "expected": serverFee})
	}
	order.ServiceFee = serverFee

	expectedTotal := order.Subtotal + order.DeliveryFee + serverFee
	if order.RewardApplied() {
		expectedTotal = *order.OriginalTotalBeforeReward
	}
	if math.Abs(input.TotalPaid-expectedTotal) > amountTolerance {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total paid mismatch").
			WithDetails(map[string]any{"submitted": input.TotalPaid, "expected": expectedTotal})
	}

	now := s.now().UTC()
	month := wallet.MonthKey(now)

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)
		salesRepo := s.salesRepo.WithTx(tx)
		usersRepo := s.usersRepo.WithTx(tx)

		exists, err := ordersRepo.Exists(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check order existence")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeConflict, "order already settled")
		}

		if _, err := usersRepo.FindByID(ctx, order.VendorID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vendor not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor")
		}

		if _, err := walletRepo.FindByUserID(ctx, order.VendorID); err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor wallet")
			}
			if err := walletRepo.Create(ctx, &models.Wallet{UserID: order.VendorID}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create vendor wallet")
			}
		}

		monthTotal, err := salesRepo.MonthTotal(ctx, order.VendorID, month)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load monthly sales")
		}

		// The tiered rate is persisted for audit. Commission is not yet
		// deducted from earnings, so vendorCommission stays 0.
		order.CommissionRate = pricing.CommissionRate(monthTotal)
		order.VendorCommission = 0
		order.VendorEarnings = order.Subtotal + order.DeliveryFee - order.VendorCommission

		order.CustomerID = input.CustomerID
		order.TotalPaid = input.TotalPaid
		order.PaymentReference = input.PaymentReference
		order.PaymentStatus = input.PaymentStatus
		order.Status = enums.OrderStatusPending
		order.DeliveryConfirmed = false
		order.Timeline = order.Timeline.Append(string(enums.OrderStatusPending), "system", now)
		order.CreatedAt = now
		order.UpdatedAt = now
		if order.RewardApplied() {
			settled := false
			order.PlatformDebtSettled = &settled
		}

		if err := ordersRepo.Create(ctx, &order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}

		orderID := order.ID
		entry := &models.WalletTransaction{
			WalletUserID: order.VendorID,
			Type:         enums.TransactionTypeCredit,
			Status:       enums.TransactionStatusCompleted,
			Source:       enums.TransactionSourceOrder,
			Amount:       order.VendorEarnings,
			Reference:    input.PaymentReference,
			OrderID:      &orderID,
		}
		if order.RewardApplied() {
			entry.RewardType = order.RewardType
			entry.PlatformDebt = order.PlatformDebt
		}
		if err := walletRepo.CreateTransaction(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
		}

		if err := walletRepo.AdjustBalances(ctx, order.VendorID, wallet.BalanceDelta{
			Balance: order.VendorEarnings,
			Pending: order.VendorEarnings,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit vendor wallet")
		}

		if err := salesRepo.Increment(ctx, order.VendorID, month, order.Subtotal+order.DeliveryFee); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance monthly sales")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	notifications.Dispatch(ctx, s.log, s.notifier,
		notifications.OrderSettled(order.VendorID, order.ID, order.VendorEarnings))

	return &order, nil
}
