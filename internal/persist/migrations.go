package persist

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

const migrationDir = "migrations"

// gooseLogger sends goose progress lines to zap instead of stderr.
type gooseLogger struct {
	log *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Infof(strings.TrimRight(format, "\n"), v...)
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Fatalf(strings.TrimRight(format, "\n"), v...)
}

func useMigrations(log *zap.Logger) error {
	goose.SetLogger(gooseLogger{log: log.Named("migrate").Sugar()})
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return nil
}

// Migrations lists the embedded schema versions in apply order.
func Migrations() ([]int64, error) {
	if err := useMigrations(zap.NewNop()); err != nil {
		return nil, err
	}
	ms, err := goose.CollectMigrations(migrationDir, 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("collect migrations: %w", err)
	}
	out := make([]int64, len(ms))
	for i, m := range ms {
		out[i] = m.Version
	}
	return out, nil
}

// Migrate brings the schema up to the newest embedded version.
func (db *DB) Migrate(ctx context.Context) error {
	if err := useMigrations(db.log); err != nil {
		return err
	}
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	if err := goose.UpContext(ctx, sqlDB, migrationDir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	version, err := goose.GetDBVersion(sqlDB)
	if err != nil {
		return fmt.Errorf("schema version: %w", err)
	}
	db.log.Info("schema up to date", zap.Int64("version", version))
	return nil
}
