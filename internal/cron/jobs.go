package cron

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/padimart/padimart-backend/internal/otp"
	"github.com/padimart/padimart-backend/internal/referrals"
	"github.com/padimart/padimart-backend/internal/rewards"
	"github.com/padimart/padimart-backend/internal/users"
	"github.com/padimart/padimart-backend/pkg/logger"
)

// LeaderboardResetJob runs the weekly referral leaderboard reset. The
// service itself decides whether a reset is due, so overlapping runs and
// restarts are harmless.
type LeaderboardResetJob struct {
	Referrals referrals.Service
	Log       *logger.Logger
}

func (j *LeaderboardResetJob) Name() string { return "leaderboard_reset" }

func (j *LeaderboardResetJob) Run(ctx context.Context) error {
	result, err := j.Referrals.ResetWeeklyLeaderboard(ctx)
	if err != nil {
		return err
	}
	if result.Ran {
		ctx = j.Log.WithField(ctx, "rows_reset", result.RowsReset)
		j.Log.Info(ctx, "weekly leaderboard reset")
	}
	return nil
}

// OtpCleanupJob deletes consumed and expired login codes.
type OtpCleanupJob struct {
	Otp otp.Service
	Log *logger.Logger
}

func (j *OtpCleanupJob) Name() string { return "otp_cleanup" }

func (j *OtpCleanupJob) Run(ctx context.Context) error {
	removed, err := j.Otp.CleanExpired(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		j.Log.Info(j.Log.WithField(ctx, "removed", removed), "stale otps deleted")
	}
	return nil
}

// RewardExpiryJob flips overdue active rewards to expired.
type RewardExpiryJob struct {
	Rewards rewards.Service
	Log     *logger.Logger
}

func (j *RewardExpiryJob) Name() string { return "reward_expiry" }

func (j *RewardExpiryJob) Run(ctx context.Context) error {
	rows, err := j.Rewards.ExpireDue(ctx)
	if err != nil {
		return err
	}
	if rows > 0 {
		j.Log.Info(j.Log.WithField(ctx, "expired", rows), "rewards expired")
	}
	return nil
}

// viewCounterStore is the slice of the redis client the view flush needs.
type viewCounterStore interface {
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
	GetDel(ctx context.Context, key string) (string, error)
	ProfileViewPattern() string
	VendorIDFromProfileViewKey(key string) string
}

// ViewCountFlushJob drains the per-vendor profile view counters from redis
// into the users table. GetDel makes each counter read destructive, so a
// crash between read and write loses at most one flush window per vendor.
type ViewCountFlushJob struct {
	Store viewCounterStore
	Users users.Repository
	Log   *logger.Logger
}

func (j *ViewCountFlushJob) Name() string { return "view_count_flush" }

func (j *ViewCountFlushJob) Run(ctx context.Context) error {
	keys, err := j.Store.ScanKeys(ctx, j.Store.ProfileViewPattern())
	if err != nil {
		return fmt.Errorf("scan view counters: %w", err)
	}

	var errs error
	for _, key := range keys {
		raw, err := j.Store.GetDel(ctx, key)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("drain %s: %w", key, err))
			continue
		}
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || count <= 0 {
			continue
		}
		vendorID, err := uuid.Parse(j.Store.VendorIDFromProfileViewKey(key))
		if err != nil {
			continue
		}
		if err := j.Users.IncrementProfileViews(ctx, vendorID, count); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("flush views for %s: %w", vendorID, err))
		}
	}
	return errs
}
