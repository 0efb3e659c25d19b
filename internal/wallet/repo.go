package wallet

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/pkg/db/models"
)

// BalanceDelta describes a signed adjustment to a wallet's three balances.
type BalanceDelta struct {
	Balance  float64
	Pending  float64
	Eligible float64
}

// Repository mutates wallets and their append-only transaction log. Every
// method is expected to run against a transaction handle obtained via
// WithTx; the engines own the transaction boundary.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error)
	Create(ctx context.Context, wallet *models.Wallet) error
	AdjustBalances(ctx context.Context, userID uuid.UUID, delta BalanceDelta) error
	CreateTransaction(ctx context.Context, entry *models.WalletTransaction) error
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.WalletTransaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a wallet repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (r *repository) Create(ctx context.Context, wallet *models.Wallet) error {
	return r.db.WithContext(ctx).Create(wallet).Error
}

func (r *repository) AdjustBalances(ctx context.Context, userID uuid.UUID, delta BalanceDelta) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE wallets
		SET balance = balance + ?,
			pending_balance = pending_balance + ?,
			eligible_balance = eligible_balance + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE user_id = ?
	`, delta.Balance, delta.Pending, delta.Eligible, userID).Error
}

func (r *repository) CreateTransaction(ctx context.Context, entry *models.WalletTransaction) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) ListTransactions(ctx context.Context, userID uuid.UUID) ([]models.WalletTransaction, error) {
	var entries []models.WalletTransaction
	err := r.db.WithContext(ctx).
		Where("wallet_user_id = ?", userID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
