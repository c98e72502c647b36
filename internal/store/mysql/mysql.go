package mysql

import (
	"context"
	"fmt"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"clinic_notify/internal/db"
	"clinic_notify/internal/store/sqlstore"
)

// Open connects to MySQL. Time columns are always scanned as UTC time.Time
// regardless of the flags in dsn.
func Open(ctx context.Context, dsn string, logger *zap.Logger) (*sqlstore.Store, error) {
	conn, err := connect(ctx, dsn)
	if err != nil {
		logger.Error("mysql open failed", zap.Error(err))
		return nil, err
	}
	return sqlstore.New(conn, logger), nil
}

// Migrate applies the embedded schema to the database behind dsn.
func Migrate(ctx context.Context, dsn string, logger *zap.Logger) error {
	conn, err := connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	if err := db.Migrate(ctx, conn, db.MySQLSchema); err != nil {
		return err
	}
	logger.Info("mysql schema applied")
	return nil
}

func connect(ctx context.Context, dsn string) (*sqlx.DB, error) {
	cfg, err := driver.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql parse dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC

	conn, err := sqlx.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("mysql open: %w", err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}
	return conn, nil
}
