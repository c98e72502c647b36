package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

var (
	//go:embed schema/mysql.sql
	MySQLSchema string

	//go:embed schema/sqlite.sql
	SQLiteSchema string
)

// Migrate applies schema one statement at a time. Every statement is
// idempotent, so running it against an existing database is a no-op.
func Migrate(ctx context.Context, conn *sqlx.DB, schema string) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
