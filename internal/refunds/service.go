package refunds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/internal/notifications"
	"github.com/padimart/padimart-backend/internal/orders"
	"github.com/padimart/padimart-backend/internal/users"
	"github.com/padimart/padimart-backend/internal/wallet"
	"github.com/padimart/padimart-backend/pkg/db/models"
	"github.com/padimart/padimart-backend/pkg/enums"
	pkgerrors "github.com/padimart/padimart-backend/pkg/errors"
	"github.com/padimart/padimart-backend/pkg/logger"
	"github.com/padimart/padimart-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type transferGateway interface {
	CreateRecipient(ctx context.Context, account types.BankAccount) (string, error)
	Transfer(ctx context.Context, recipient string, amount float64, memo string) (string, error)
}

// Service reverses settled orders. A request snapshots the order's financial
// fields; approval pays the customer back through the gateway and claws the
// earnings out of whichever vendor bucket they currently sit in.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.RefundRequest, error)
	Approve(ctx context.Context, orderID uuid.UUID) (*models.RefundRequest, error)
	Reject(ctx context.Context, orderID uuid.UUID, reason string) (*models.RefundRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RefundRequest, error)
}

// RequestInput files a refund for a settled order.
type RequestInput struct {
	OrderID    uuid.UUID
	CustomerID uuid.UUID
	Reason     string
}

type service struct {
	tx         txRunner
	repo       Repository
	ordersRepo orders.Repository
	walletRepo wallet.Repository
	salesRepo  wallet.SalesRepository
	usersRepo  users.Repository
	gateway    transferGateway
	notifier   notifications.Notifier
	log        *logger.Logger
	now        func() time.Time
}

// NewService builds the refunds service.
func NewService(
	tx txRunner,
	repo Repository,
	ordersRepo orders.Repository,
	walletRepo wallet.Repository,
	salesRepo wallet.SalesRepository,
	usersRepo users.Repository,
	gateway transferGateway,
	notifier notifications.Notifier,
	log *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("refunds repository required")
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
	if gateway == nil {
		return nil, fmt.Errorf("transfer gateway required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:         tx,
		repo:       repo,
		ordersRepo: ordersRepo,
		walletRepo: walletRepo,
		salesRepo:  salesRepo,
		usersRepo:  usersRepo,
		gateway:    gateway,
		notifier:   notifier,
		log:        log,
		now:        time.Now,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*models.RefundRequest, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if input.Reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund reason required")
	}

	var req *models.RefundRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		order, err := ordersRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.CustomerID != input.CustomerID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another customer")
		}

		if _, err := repo.FindByOrderID(ctx, input.OrderID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "refund already requested for this order")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing refund")
		}

		// Snapshot the order's financials at request time.
		req = &models.RefundRequest{
			OrderID:        order.ID,
			UserID:         input.CustomerID,
			VendorID:       order.VendorID,
			Amount:         order.TotalPaid,
			Subtotal:       order.Subtotal,
			DeliveryFee:    order.DeliveryFee,
			ServiceFee:     order.ServiceFee,
			VendorEarnings: order.VendorEarnings,
			TotalPaid:      order.TotalPaid,
			Reason:         input.Reason,
			Status:         enums.RefundStatusPending,
		}
		if err := repo.Create(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist refund request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return req, nil
}

func (s *service) Approve(ctx context.Context, orderID uuid.UUID) (*models.RefundRequest, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	req, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "refund request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund request")
	}
	if req.Status != enums.RefundStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "refund request already resolved")
	}

	customer, err := s.usersRepo.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load customer")
	}
	if customer.BankDetails == nil || !customer.BankDetails.Complete() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "customer bank details incomplete")
	}

	// Gateway payout runs outside the transaction; on failure nothing here
	// has changed and the request stays pending for a later retry.
	recipient, err := s.gateway.CreateRecipient(ctx, *customer.BankDetails)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund recipient")
	}
	reference, err := s.gateway.Transfer(ctx, recipient, req.Amount, "refund "+req.OrderID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute refund transfer")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)
		salesRepo := s.salesRepo.WithTx(tx)

		current, err := repo.FindByOrderID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload refund request")
		}
		if current.Status != enums.RefundStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "refund request already resolved")
		}

		order, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		vendorWallet, err := walletRepo.FindByUserID(ctx, req.VendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor wallet")
		}

		// The earnings sit in pending until delivery confirmation moves
		// them to eligible; the reversal debits whichever bucket holds them.
		delta := wallet.BalanceDelta{Balance: -req.VendorEarnings}
		if order.DeliveryConfirmed {
			if vendorWallet.EligibleBalance < req.VendorEarnings {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "eligible balance below reversal amount")
			}
			delta.Eligible = -req.VendorEarnings
		} else {
			if vendorWallet.PendingBalance < req.VendorEarnings {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "pending balance below reversal amount")
			}
			delta.Pending = -req.VendorEarnings
		}

		now := s.now().UTC()
		if err := repo.Update(ctx, orderID, map[string]any{
			"status":             enums.RefundStatusApproved,
			"transfer_reference": reference,
			"updated_at":         now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark refund approved")
		}

		refundedOrderID := orderID
		if err := walletRepo.CreateTransaction(ctx, &models.WalletTransaction{
			WalletUserID: req.UserID,
			Type:         enums.TransactionTypeCredit,
			Status:       enums.TransactionStatusCompleted,
			Source:       enums.TransactionSourceRefund,
			Amount:       req.Amount,
			Reference:    reference,
			OrderID:      &refundedOrderID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append customer ledger entry")
		}
		if err := walletRepo.CreateTransaction(ctx, &models.WalletTransaction{
			WalletUserID: req.VendorID,
			Type:         enums.TransactionTypeDebit,
			Status:       enums.TransactionStatusCompleted,
			Source:       enums.TransactionSourceRefund,
			Amount:       req.VendorEarnings,
			Reference:    reference,
			OrderID:      &refundedOrderID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append vendor ledger entry")
		}

		if err := walletRepo.AdjustBalances(ctx, req.VendorID, delta); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reverse vendor earnings")
		}

		month := wallet.MonthKey(order.CreatedAt)
		if err := salesRepo.Decrement(ctx, req.VendorID, month, req.Subtotal+req.DeliveryFee); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "roll back monthly sales")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	req.Status = enums.RefundStatusApproved
	req.TransferReference = &reference

	notifications.Dispatch(ctx, s.log, s.notifier,
		notifications.RefundApproved(req.UserID, orderID, req.Amount))

	return req, nil
}

func (s *service) Reject(ctx context.Context, orderID uuid.UUID, reason string) (*models.RefundRequest, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	var req *models.RefundRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.FindByOrderID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "refund request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load refund request")
		}
		if current.Status != enums.RefundStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "refund request already resolved")
		}

		if err := repo.Update(ctx, orderID, map[string]any{
			"status":           enums.RefundStatusRejected,
			"rejection_reason": reason,
			"updated_at":       s.now().UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark refund rejected")
		}

		req = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	req.Status = enums.RefundStatusRejected
	req.RejectionReason = &reason

	notifications.Dispatch(ctx, s.log, s.notifier,
		notifications.RefundRejected(req.UserID, orderID, reason))

	return req, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.RefundRequest, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.repo.ListByUser(ctx, userID)
}
