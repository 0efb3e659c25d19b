package delivery

import (
	"context"
	cryptorand "crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/internal/notifications"
	"github.com/padimart/padimart-backend/internal/orders"
	"github.com/padimart/padimart-backend/internal/wallet"
	"github.com/padimart/padimart-backend/pkg/enums"
	pkgerrors "github.com/padimart/padimart-backend/pkg/errors"
	"github.com/padimart/padimart-backend/pkg/logger"
)

// lagosTZ pins timeline timestamps to the marketplace's operating timezone.
var lagosTZ = time.FixedZone("WAT", 3600)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service handles the delivery handshake: issuing the confirmation code to
// the customer and releasing pending earnings once the vendor presents it.
type Service interface {
	GenerateCode(ctx context.Context, orderID uuid.UUID) (*CodeIssue, error)
	ConfirmDelivery(ctx context.Context, input ConfirmInput) (*ConfirmResult, error)
}

// CodeIssue is the freshly issued delivery code and its expiry.
type CodeIssue struct {
	Code      string
	ExpiresAt time.Time
}

// ConfirmInput identifies the order being confirmed and the vendor
// presenting the code.
type ConfirmInput struct {
	OrderID  uuid.UUID
	VendorID uuid.UUID
	Code     string
}

// ConfirmResult reports the amount moved from pending to eligible.
type ConfirmResult struct {
	OrderID  uuid.UUID
	Released float64
}

type service struct {
	tx         txRunner
	ordersRepo orders.Repository
	walletRepo wallet.Repository
	notifier   notifications.Notifier
	log        *logger.Logger
	codeTTL    time.Duration
	now        func() time.Time
	newCode    func() (string, error)
}

// NewService builds the delivery service. codeTTL bounds how long an issued
// code stays redeemable.
func NewService(
	tx txRunner,
	ordersRepo orders.Repository,
	walletRepo wallet.Repository,
	notifier notifications.Notifier,
	log *logger.Logger,
	codeTTL time.Duration,
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
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if codeTTL <= 0 {
		return nil, fmt.Errorf("code ttl must be positive")
	}
	return &service{
		tx:         tx,
		ordersRepo: ordersRepo,
		walletRepo: walletRepo,
		notifier:   notifier,
		log:        log,
		codeTTL:    codeTTL,
		now:        time.Now,
		newCode:    randomCode,
	}, nil
}

// randomCode draws a uniform four digit code in [1000, 9999].
func randomCode() (string, error) {
	n, err := cryptorand.Int(cryptorand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+1000, 10), nil
}

func (s *service) GenerateCode(ctx context.Context, orderID uuid.UUID) (*CodeIssue, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	code, err := s.newCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate delivery code")
	}
	expiresAt := s.now().UTC().Add(s.codeTTL)

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)

		order, err := ordersRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.DeliveryConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery already confirmed")
		}

		// Regenerating simply replaces any prior code.
		return ordersRepo.Update(ctx, orderID, map[string]any{
			"delivery_code":            code,
			"delivery_code_expires_at": expiresAt,
			"updated_at":               s.now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	return &CodeIssue{Code: code, ExpiresAt: expiresAt}, nil
}

func (s *service) ConfirmDelivery(ctx context.Context, input ConfirmInput) (*ConfirmResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if input.Code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery code required")
	}

	var released float64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)

		order, err := ordersRepo.FindByID(ctx, input.OrderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}

		if order.VendorID != input.VendorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order belongs to another vendor")
		}
		// Expiry outranks the other code checks: an expired code reports
		// as expired even when it also mismatches.
		if order.DeliveryCodeExpiresAt != nil && s.now().UTC().After(*order.DeliveryCodeExpiresAt) {
			return pkgerrors.New(pkgerrors.CodeExpired, "delivery code expired")
		}
		if order.DeliveryConfirmed {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "delivery already confirmed")
		}
		if order.DeliveryCode == nil || order.DeliveryCodeExpiresAt == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "no delivery code issued")
		}
		if *order.DeliveryCode != input.Code {
			return pkgerrors.New(pkgerrors.CodeForbidden, "delivery code mismatch")
		}

		vendorWallet, err := walletRepo.FindByUserID(ctx, order.VendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor wallet")
		}
		if vendorWallet.PendingBalance < order.VendorEarnings {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "pending balance below order earnings").
				WithDetails(map[string]any{
					"pending":  vendorWallet.PendingBalance,
					"earnings": order.VendorEarnings,
				})
		}

		if err := walletRepo.AdjustBalances(ctx, order.VendorID, wallet.BalanceDelta{
			Pending:  -order.VendorEarnings,
			Eligible: order.VendorEarnings,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release pending earnings")
		}

		now := s.now().In(lagosTZ)
		timeline := order.Timeline.Append(
			string(enums.OrderStatusCompleted),
			"vendor:"+input.VendorID.String(),
			now,
		)
		if err := ordersRepo.Update(ctx, order.ID, map[string]any{
			"delivery_confirmed": true,
			"status":             enums.OrderStatusCompleted,
			"timeline":           timeline,
			"updated_at":         now.UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order completed")
		}

		released = order.VendorEarnings
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifications.Dispatch(ctx, s.log, s.notifier,
		notifications.DeliveryConfirmed(input.VendorID, input.OrderID, released))

	return &ConfirmResult{OrderID: input.OrderID, Released: released}, nil
}
