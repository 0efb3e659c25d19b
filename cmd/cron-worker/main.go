package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/padimart/padimart-backend/internal/cron"
	"github.com/padimart/padimart-backend/internal/notifications"
	"github.com/padimart/padimart-backend/internal/otp"
	"github.com/padimart/padimart-backend/internal/referrals"
	"github.com/padimart/padimart-backend/internal/rewards"
	"github.com/padimart/padimart-backend/internal/users"
	"github.com/padimart/padimart-backend/pkg/config"
	"github.com/padimart/padimart-backend/pkg/db"
	"github.com/padimart/padimart-backend/pkg/logger"
	"github.com/padimart/padimart-backend/pkg/metrics"
	"github.com/padimart/padimart-backend/pkg/migrate"
	"github.com/padimart/padimart-backend/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	notifier, err := notifications.NewLogNotifier(logg)
	if err != nil {
		return fmt.Errorf("build notifier: %w", err)
	}

	usersRepo := users.NewRepository(dbClient.DB())

	referralsSvc, err := referrals.NewService(
		dbClient, referrals.NewRepository(dbClient.DB()), notifier, logg)
	if err != nil {
		return fmt.Errorf("build referrals service: %w", err)
	}
	otpSvc, err := otp.NewService(dbClient, otp.NewRepository(dbClient.DB()), cfg.Otp)
	if err != nil {
		return fmt.Errorf("build otp service: %w", err)
	}
	rewardsSvc, err := rewards.NewService(dbClient, rewards.NewRepository(dbClient.DB()), notifier, logg)
	if err != nil {
		return fmt.Errorf("build rewards service: %w", err)
	}

	met := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	runner, err := cron.NewRunner(redisClient, logg, met, cfg.Cron.Interval, cfg.Cron.LockTTL)
	if err != nil {
		return fmt.Errorf("build cron runner: %w", err)
	}
	runner.Register(
		&cron.LeaderboardResetJob{Referrals: referralsSvc, Log: logg},
		&cron.OtpCleanupJob{Otp: otpSvc, Log: logg},
		&cron.RewardExpiryJob{Rewards: rewardsSvc, Log: logg},
		&cron.ViewCountFlushJob{Store: redisClient, Users: usersRepo, Log: logg},
	)

	logg.Info(ctx, "cron worker started")
	runner.Start(ctx)
	return nil
}
