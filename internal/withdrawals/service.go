package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/internal/notifications"
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

// transferGateway is the payout side of the Paystack client.
type transferGateway interface {
	CreateRecipient(ctx context.Context, account types.BankAccount) (string, error)
	Transfer(ctx context.Context, recipient string, amount float64, memo string) (string, error)
}

// Service manages vendor withdrawals. Requesting reserves the amount out of
// the eligible balance; approval pays it out and debits the lifetime balance;
// rejection returns the reservation.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error)
	Approve(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, requestID uuid.UUID, reason string) (*models.WithdrawalRequest, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.WithdrawalRequest, error)
}

// RequestInput is a vendor's ask to move eligible funds to their bank.
type RequestInput struct {
	VendorID    uuid.UUID
	Amount      float64
	BankAccount types.BankAccount
}

type service struct {
	tx         txRunner
	repo       Repository
	walletRepo wallet.Repository
	gateway    transferGateway
	notifier   notifications.Notifier
	log        *logger.Logger
	validate   *validator.Validate
	now        func() time.Time
}

// NewService builds the withdrawals service.
func NewService(
	tx txRunner,
	repo Repository,
	walletRepo wallet.Repository,
	gateway transferGateway,
	notifier notifications.Notifier,
	log *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("withdrawals repository required")
	}
	if walletRepo == nil {
		return nil, fmt.Errorf("wallet repository required")
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
		walletRepo: walletRepo,
		gateway:    gateway,
		notifier:   notifier,
		log:        log,
		validate:   validator.New(),
		now:        time.Now,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*models.WithdrawalRequest, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	if input.Amount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if err := s.validate.Struct(input.BankAccount); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid bank account")
	}

	req := &models.WithdrawalRequest{
		ID:          uuid.New(),
		VendorID:    input.VendorID,
		Amount:      input.Amount,
		BankAccount: input.BankAccount,
		Status:      enums.WithdrawalStatusPending,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		walletRepo := s.walletRepo.WithTx(tx)
		repo := s.repo.WithTx(tx)

		vendorWallet, err := walletRepo.FindByUserID(ctx, input.VendorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "vendor wallet not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor wallet")
		}
		if vendorWallet.EligibleBalance < input.Amount {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "insufficient eligible balance").
				WithDetails(map[string]any{
					"eligible":  vendorWallet.EligibleBalance,
					"requested": input.Amount,
				})
		}

		// Reservation: the amount leaves eligible immediately so a second
		// request cannot spend the same funds.
		if err := walletRepo.AdjustBalances(ctx, input.VendorID, wallet.BalanceDelta{
			Eligible: -input.Amount,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve eligible balance")
		}

		if err := repo.Create(ctx, req); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist withdrawal request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return req, nil
}

func (s *service) Approve(ctx context.Context, requestID uuid.UUID) (*models.WithdrawalRequest, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}

	req, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal request")
	}
	if req.Status != enums.WithdrawalStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal request already resolved")
	}

	// Gateway calls run outside the transaction: a payout can take seconds
	// and must never hold row locks. On failure the reservation stays in
	// place for manual reconciliation, since a timed-out transfer may still
	// have gone through on the gateway side.
	recipient, err := s.gateway.CreateRecipient(ctx, req.BankAccount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transfer recipient")
	}
	reference, err := s.gateway.Transfer(ctx, recipient, req.Amount, "withdrawal "+req.ID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute transfer")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)

		current, err := repo.FindByID(ctx, requestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload withdrawal request")
		}
		if current.Status != enums.WithdrawalStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal request already resolved")
		}

		now := s.now().UTC()
		if err := repo.Update(ctx, requestID, map[string]any{
			"status":             enums.WithdrawalStatusApproved,
			"transfer_reference": reference,
			"updated_at":         now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark request approved")
		}

		withdrawalID := req.ID
		if err := walletRepo.CreateTransaction(ctx, &models.WalletTransaction{
			WalletUserID: req.VendorID,
			Type:         enums.TransactionTypeDebit,
			Status:       enums.TransactionStatusCompleted,
			Source:       enums.TransactionSourceWithdrawal,
			Amount:       req.Amount,
			Reference:    reference,
			WithdrawalID: &withdrawalID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append ledger entry")
		}

		// Eligible was already debited at request time; the payout only
		// settles the lifetime balance.
		if err := walletRepo.AdjustBalances(ctx, req.VendorID, wallet.BalanceDelta{
			Balance: -req.Amount,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit vendor balance")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	req.Status = enums.WithdrawalStatusApproved
	req.TransferReference = &reference

	notifications.Dispatch(ctx, s.log, s.notifier,
		notifications.WithdrawalApproved(req.VendorID, req.Amount, reference))

	return req, nil
}

func (s *service) Reject(ctx context.Context, requestID uuid.UUID, reason string) (*models.WithdrawalRequest, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}

	var req *models.WithdrawalRequest
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)

		current, err := repo.FindByID(ctx, requestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load withdrawal request")
		}
		if current.Status != enums.WithdrawalStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "withdrawal request already resolved")
		}

		if err := repo.Update(ctx, requestID, map[string]any{
			"status":           enums.WithdrawalStatusRejected,
			"rejection_reason": reason,
			"updated_at":       s.now().UTC(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark request rejected")
		}

		// Return the reservation.
		if err := walletRepo.AdjustBalances(ctx, current.VendorID, wallet.BalanceDelta{
			Eligible: current.Amount,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore eligible balance")
		}

		req = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	req.Status = enums.WithdrawalStatusRejected
	req.RejectionReason = &reason

	notifications.Dispatch(ctx, s.log, s.notifier,
		notifications.WithdrawalRejected(req.VendorID, req.Amount, reason))

	return req, nil
}

func (s *service) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.WithdrawalRequest, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
	}
	return s.repo.ListByVendor(ctx, vendorID)
}
