package referrals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/internal/notifications"
	"github.com/padimart/padimart-backend/pkg/db"
	"github.com/padimart/padimart-backend/pkg/db/models"
	"github.com/padimart/padimart-backend/pkg/enums"
	pkgerrors "github.com/padimart/padimart-backend/pkg/errors"
	"github.com/padimart/padimart-backend/pkg/logger"
)

const (
	signupPoints   = 10
	purchasePoints = 40

	resetInterval = 7 * 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service awards referral points to vendors and runs the weekly leaderboard
// reset.
type Service interface {
	RecordSignup(ctx context.Context, vendorID, customerID uuid.UUID) (*models.ReferralRecord, error)
	RecordPurchase(ctx context.Context, vendorID, customerID, orderID uuid.UUID) (*models.ReferralRecord, error)
	Leaderboard(ctx context.Context, limit int) ([]models.ReferralRecord, error)
	ResetWeeklyLeaderboard(ctx context.Context) (*ResetResult, error)
}

// ResetResult reports what a reset sweep did. Ran is false when the schedule
// said it was not due yet.
type ResetResult struct {
	Ran         bool
	RowsReset   int64
	NextResetAt time.Time
}

type service struct {
	tx       txRunner
	repo     Repository
	notifier notifications.Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewService builds the referrals service.
func NewService(
	tx txRunner,
	repo Repository,
	notifier notifications.Notifier,
	log *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("referrals repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		tx:       tx,
		repo:     repo,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}, nil
}

func (s *service) RecordSignup(ctx context.Context, vendorID, customerID uuid.UUID) (*models.ReferralRecord, error) {
	if vendorID == uuid.Nil || customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor and customer ids required")
	}

	var record *models.ReferralRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		referred, err := repo.HasSignupEvent(ctx, vendorID, customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check prior signup")
		}
		if referred {
			return pkgerrors.New(pkgerrors.CodeConflict, "customer already referred by this vendor")
		}

		if err := s.ensureRecord(ctx, repo, vendorID); err != nil {
			return err
		}

		// The partial unique index on signup events closes the race two
		// concurrent signups would otherwise win together.
		err = repo.CreateEvent(ctx, &models.ReferralEvent{
			ID:                 uuid.New(),
			VendorID:           vendorID,
			ReferredCustomerID: customerID,
			Type:               enums.ReferralEventSignup,
			Points:             signupPoints,
		})
		if err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, "customer already referred by this vendor")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record signup event")
		}

		if err := repo.AddPoints(ctx, vendorID, signupPoints, enums.ReferralEventSignup); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "award signup points")
		}

		record, err = repo.FindRecord(ctx, vendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload referral record")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifications.Dispatch(ctx, s.log, s.notifier,
		notifications.ReferralPoints(vendorID, signupPoints, "signup"))

	return record, nil
}

func (s *service) RecordPurchase(ctx context.Context, vendorID, customerID, orderID uuid.UUID) (*models.ReferralRecord, error) {
	if vendorID == uuid.Nil || customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor and customer ids required")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var record *models.ReferralRecord
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		referred, err := repo.HasSignupEvent(ctx, vendorID, customerID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check prior signup")
		}
		if !referred {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "customer was not referred by this vendor")
		}

		purchaseOrderID := orderID
		err = repo.CreateEvent(ctx, &models.ReferralEvent{
			ID:                 uuid.New(),
			VendorID:           vendorID,
			ReferredCustomerID: customerID,
			Type:               enums.ReferralEventPurchase,
			Points:             purchasePoints,
			OrderID:            &purchaseOrderID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record purchase event")
		}

		if err := repo.AddPoints(ctx, vendorID, purchasePoints, enums.ReferralEventPurchase); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "award purchase points")
		}

		record, err = repo.FindRecord(ctx, vendorID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload referral record")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	notifications.Dispatch(ctx, s.log, s.notifier,
		notifications.ReferralPoints(vendorID, purchasePoints, "purchase"))

	return record, nil
}

func (s *service) ensureRecord(ctx context.Context, repo Repository, vendorID uuid.UUID) error {
	_, err := repo.FindRecord(ctx, vendorID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load referral record")
	}
	if err := repo.CreateRecord(ctx, &models.ReferralRecord{VendorID: vendorID, IsActive: true}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create referral record")
	}
	return nil
}

func (s *service) Leaderboard(ctx context.Context, limit int) ([]models.ReferralRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.TopWeekly(ctx, limit)
}

func (s *service) ResetWeeklyLeaderboard(ctx context.Context) (*ResetResult, error) {
	now := s.now().UTC()

	var (
		result  ResetResult
		leaders []models.ReferralRecord
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		schedule, err := repo.FindSchedule(ctx)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reset schedule")
			}
			// First run seeds the schedule; nothing is reset yet.
			next := now.Add(resetInterval)
			if err := repo.CreateSchedule(ctx, &models.LeaderboardSchedule{NextResetAt: next}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed reset schedule")
			}
			result = ResetResult{Ran: false, NextResetAt: next}
			return nil
		}

		if now.Before(schedule.NextResetAt) {
			result = ResetResult{Ran: false, NextResetAt: schedule.NextResetAt}
			return nil
		}

		leaders, err = repo.TopWeekly(ctx, 10)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "snapshot leaderboard")
		}

		rows, err := repo.ResetWeeklyPoints(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset weekly points")
		}

		// The schedule advances from its own anchor, not from the run time,
		// so a late sweep does not drift the reset day.
		next := schedule.NextResetAt.Add(resetInterval)
		if err := repo.UpdateSchedule(ctx, map[string]any{
			"next_reset_at": next,
			"updated_at":    now,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance reset schedule")
		}

		result = ResetResult{Ran: true, RowsReset: rows, NextResetAt: next}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Ran {
		for _, leader := range leaders {
			if leader.WeeklyPoints == 0 {
				continue
			}
			notifications.Dispatch(ctx, s.log, s.notifier,
				notifications.LeaderboardReset(leader.VendorID, int64(leader.WeeklyPoints)))
		}
	}

	return &result, nil
}
