package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
)

// DefaultDir is where the ledger schema migrations live, relative to the
// repository root.
const DefaultDir = "pkg/migrate/migrations"

const dialect = "postgres"

// Run executes a goose command (up, down, status, version, ...) against the
// migrations in dir. Status output goes to stdout via goose itself.
func Run(ctx context.Context, sqlDB *sql.DB, dir, command string, args ...string) error {
	if sqlDB == nil {
		return fmt.Errorf("migrate: db is required")
	}
	if dir == "" {
		dir = DefaultDir
	}
	if command == "" {
		return fmt.Errorf("migrate: command is required")
	}

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.RunContext(ctx, command, sqlDB, dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
