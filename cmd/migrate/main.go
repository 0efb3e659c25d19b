package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/padimart/padimart-backend/pkg/config"
	"github.com/padimart/padimart-backend/pkg/db"
	"github.com/padimart/padimart-backend/pkg/logger"
	"github.com/padimart/padimart-backend/pkg/migrate"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	dir := flag.String("dir", migrate.DefaultDir, "directory containing goose migrations")
	flag.Parse()

	command := "up"
	args := flag.Args()
	if len(args) > 0 {
		command = args[0]
		args = args[1:]
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	ctx := context.Background()
	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extract sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"command": command, "dir": *dir})
	logg.Info(ctx, "running migrations")
	if err := migrate.Run(ctx, sqlDB, *dir, command, args...); err != nil {
		return err
	}
	logg.Info(ctx, "migrations complete")
	return nil
}
