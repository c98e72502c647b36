package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"clinic_notify/internal/db"
	"clinic_notify/internal/store/sqlstore"
)

// Open opens (or creates) the database at path and applies the schema. The
// path ":memory:" gives a private in-memory database.
func Open(ctx context.Context, path string, logger *zap.Logger) (*sqlstore.Store, error) {
	conn, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A second pooled connection to ":memory:" would see an empty database.
	conn.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := conn.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	}
	if err := db.Migrate(ctx, conn, db.SQLiteSchema); err != nil {
		_ = conn.Close()
		return nil, err
	}
	logger.Info("sqlite store opened", zap.String("path", path))
	return sqlstore.New(conn, logger), nil
}
