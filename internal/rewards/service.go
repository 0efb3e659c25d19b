package rewards

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/internal/notifications"
	"github.com/padimart/padimart-backend/pkg/db/models"
	"github.com/padimart/padimart-backend/pkg/enums"
	pkgerrors "github.com/padimart/padimart-backend/pkg/errors"
	"github.com/padimart/padimart-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Repository persists rewards.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, reward *models.Reward) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Reward, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Reward, error)
	ListDue(ctx context.Context, now time.Time) ([]models.Reward, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, reward *models.Reward) error {
	return r.db.WithContext(ctx).Create(reward).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Reward, error) {
	var reward models.Reward
	if err := r.db.WithContext(ctx).First(&reward, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

func (r *repository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]models.Reward, error) {
	var rewards []models.Reward
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, enums.RewardStatusActive).
		Order("expires_at ASC").
		Find(&rewards).Error
	return rewards, err
}

func (r *repository) ListDue(ctx context.Context, now time.Time) ([]models.Reward, error) {
	var rewards []models.Reward
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", enums.RewardStatusActive, now).
		Find(&rewards).Error
	return rewards, err
}

func (r *repository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("id = ? AND status = ?", id, enums.RewardStatusActive).
		Update("status", enums.RewardStatusUsed).Error
}

func (r *repository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reward{}).
		Where("status = ? AND expires_at < ?", enums.RewardStatusActive, now).
		Update("status", enums.RewardStatusExpired)
	return result.RowsAffected, result.Error
}

// Service grants checkout rewards and runs the expiry sweep.
type Service interface {
	Grant(ctx context.Context, input GrantInput) (*models.Reward, error)
	ListActive(ctx context.Context, userID uuid.UUID) ([]models.Reward, error)
	Redeem(ctx context.Context, rewardID uuid.UUID, userID uuid.UUID) (*models.Reward, error)
	ExpireDue(ctx context.Context) (int64, error)
}

// GrantInput describes a new reward.
type GrantInput struct {
	UserID         uuid.UUID
	Type           enums.RewardType
	DiscountAmount float64
	TTL            time.Duration
}

type service struct {
	tx       txRunner
	repo     Repository
	notifier notifications.Notifier
	log      *logger.Logger
	now      func() time.Time
}

// NewService builds the rewards service.
func NewService(tx txRunner, repo Repository, notifier notifications.Notifier, log *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("rewards repository required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{tx: tx, repo: repo, notifier: notifier, log: log, now: time.Now}, nil
}

func (s *service) Grant(ctx context.Context, input GrantInput) (*models.Reward, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid reward type")
	}
	if input.DiscountAmount <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount amount must be positive")
	}
	if input.TTL <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ttl must be positive")
	}

	reward := &models.Reward{
		ID:             uuid.New(),
		UserID:         input.UserID,
		Type:           input.Type,
		DiscountAmount: input.DiscountAmount,
		Status:         enums.RewardStatusActive,
		ExpiresAt:      s.now().UTC().Add(input.TTL),
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, reward)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist reward")
	}
	return reward, nil
}

func (s *service) ListActive(ctx context.Context, userID uuid.UUID) ([]models.Reward, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.repo.ListActiveByUser(ctx, userID)
}

func (s *service) Redeem(ctx context.Context, rewardID uuid.UUID, userID uuid.UUID) (*models.Reward, error) {
	if rewardID == uuid.Nil || userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reward and user ids required")
	}

	var reward *models.Reward
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		found, err := repo.FindByID(ctx, rewardID)
		if err != nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "reward not found")
		}
		if found.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "reward belongs to another user")
		}
		if found.Status != enums.RewardStatusActive {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "reward not active")
		}
		if s.now().UTC().After(found.ExpiresAt) {
			return pkgerrors.New(pkgerrors.CodeExpired, "reward expired")
		}

		if err := repo.MarkUsed(ctx, rewardID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark reward used")
		}
		found.Status = enums.RewardStatusUsed
		reward = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reward, nil
}

func (s *service) ExpireDue(ctx context.Context) (int64, error) {
	now := s.now().UTC()

	var due []models.Reward
	var rows int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		due, err = repo.ListDue(ctx, now)
		if err != nil {
			return err
		}
		rows, err = repo.ExpireOverdue(ctx, now)
		return err
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire rewards")
	}

	for _, reward := range due {
		notifications.Dispatch(ctx, s.log, s.notifier,
			notifications.RewardExpired(reward.UserID, reward.ID, reward.DiscountAmount))
	}
	return rows, nil
}
