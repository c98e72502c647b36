package store

import (
	"context"

	"go.uber.org/zap"

	"clinic_notify/internal/config"
	"clinic_notify/internal/repository"
	"clinic_notify/internal/store/memory"
	"clinic_notify/internal/store/mysql"
	"clinic_notify/internal/store/sqlite"
)

type Store interface {
	repository.NotificationRepository
	repository.AppointmentRepository
}

// NewStore picks the backend from configuration: SQLite when SQLITE_PATH is
// set, MySQL when MYSQL_DSN is set, memory otherwise. The returned cleanup
// closes the database.
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, func(), error) {
	ctx := context.Background()
	switch {
	case cfg.SQLitePath != "":
		s, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			logger.Error("sqlite open failed", zap.String("path", cfg.SQLitePath), zap.Error(err))
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	case cfg.MySQLDSN != "":
		s, err := mysql.Open(ctx, cfg.MySQLDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		logger.Info("using in-memory store")
		return memory.New(logger), func() {}, nil
	}
}
