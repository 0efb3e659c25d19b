package users

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/pkg/db/models"
)

// Repository exposes the user reads the ledger engines depend on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	IncrementProfileViews(ctx context.Context, id uuid.UUID, delta int64) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a users repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) IncrementProfileViews(ctx context.Context, id uuid.UUID, delta int64) error {
	if delta == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Exec(`
		UPDATE users
		SET profile_views = profile_views + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, delta, id).Error
}
