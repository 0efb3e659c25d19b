package otp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/padimart/padimart-backend/pkg/config"
	"github.com/padimart/padimart-backend/pkg/db/models"
	pkgerrors "github.com/padimart/padimart-backend/pkg/errors"
	"github.com/padimart/padimart-backend/pkg/security"
)

const codeDigits = 6

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service issues and verifies single-use login codes. Codes are stored
// hashed; the plaintext is returned once to whoever sends the SMS.
type Service interface {
	Issue(ctx context.Context, phone string) (*Issued, error)
	Verify(ctx context.Context, phone, code string) error
	CleanExpired(ctx context.Context) (int64, error)
}

// Issued carries the plaintext code for delivery plus its expiry.
type Issued struct {
	Code      string
	ExpiresAt time.Time
}

type service struct {
	tx   txRunner
	repo Repository
	cfg  config.OtpConfig
	now  func() time.Time
}

// NewService builds the OTP service.
func NewService(tx txRunner, repo Repository, cfg config.OtpConfig) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("otp repository required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("otp ttl must be positive")
	}
	return &service{tx: tx, repo: repo, cfg: cfg, now: time.Now}, nil
}

func (s *service) Issue(ctx context.Context, phone string) (*Issued, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone required")
	}

	code, err := security.GenerateOtpCode(codeDigits)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate otp code")
	}
	hash, err := security.HashOtpCode(code, s.cfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash otp code")
	}

	expiresAt := s.now().UTC().Add(s.cfg.TTL)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, &models.Otp{
			ID:        uuid.New(),
			Phone:     phone,
			CodeHash:  hash,
			ExpiresAt: expiresAt,
		})
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist otp")
	}

	return &Issued{Code: code, ExpiresAt: expiresAt}, nil
}

func (s *service) Verify(ctx context.Context, phone, code string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" || code == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "phone and code required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		stored, err := repo.FindLatestByPhone(ctx, phone)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "no active code for phone")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load otp")
		}
		if s.now().UTC().After(stored.ExpiresAt) {
			return pkgerrors.New(pkgerrors.CodeExpired, "code expired")
		}

		ok, err := security.VerifyOtpCode(code, stored.CodeHash)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify otp hash")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "code mismatch")
		}

		// Single use: consuming inside the same transaction blocks replays.
		if err := repo.MarkConsumed(ctx, stored.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume otp")
		}
		return nil
	})
}

func (s *service) CleanExpired(ctx context.Context) (int64, error) {
	var removed int64
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		removed, err = s.repo.WithTx(tx).DeleteStale(ctx, s.now().UTC())
		return err
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stale otps")
	}
	return removed, nil
}
