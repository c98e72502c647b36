// Package sqlstore implements the notification and appointment repositories
// on top of the shared SQL queries used by the MySQL and SQLite backends.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"clinic_notify/internal/db"
	"clinic_notify/internal/model"
	"clinic_notify/internal/repository"
)

type Store struct {
	conn    *sqlx.DB
	queries *db.Queries
	log     *zap.Logger
	now     func() time.Time
}

func New(conn *sqlx.DB, logger *zap.Logger) *Store {
	return &Store{conn: conn, queries: db.New(conn), log: logger, now: time.Now}
}

func (s *Store) Close() error {
	return s.conn.Close()
}

// timestamp matches the precision of a DATETIME(6) column so values read back
// compare equal to the ones written.
func (s *Store) timestamp(t time.Time) time.Time {
	if t.IsZero() {
		t = s.now()
	}
	return t.UTC().Truncate(time.Microsecond)
}

func (s *Store) CreateNotification(ctx context.Context, notification model.Notification) (model.Notification, error) {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	notification.CreatedAt = s.timestamp(notification.CreatedAt)
	if err := s.queries.CreateNotification(ctx, notification); err != nil {
		s.log.Error("sql create notification failed",
			zap.String("user_id", notification.UserID),
			zap.String("type", notification.Type),
			zap.String("title", notification.Title),
			zap.Error(err),
		)
		return model.Notification{}, fmt.Errorf("create notification: %w", err)
	}
	return notification, nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	rows, err := s.queries.ListNotificationsByUser(ctx, userID, limit)
	if err != nil {
		s.log.Error("sql list notifications failed", zap.String("user_id", userID), zap.Int("limit", limit), zap.Error(err))
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	for i := range rows {
		rows[i].CreatedAt = rows[i].CreatedAt.UTC()
	}
	return rows, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	if err := s.queries.MarkNotificationRead(ctx, userID, id); err != nil {
		s.log.Error("sql mark notification read failed", zap.String("user_id", userID), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	if err := s.queries.MarkAllNotificationsRead(ctx, userID); err != nil {
		s.log.Error("sql mark all notifications read failed", zap.String("user_id", userID), zap.Error(err))
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

func (s *Store) DeleteNotification(ctx context.Context, userID, id string) error {
	if err := s.queries.DeleteNotification(ctx, userID, id); err != nil {
		s.log.Error("sql delete notification failed", zap.String("user_id", userID), zap.String("id", id), zap.Error(err))
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}

func (s *Store) CreateAppointment(ctx context.Context, appointment model.Appointment) (model.Appointment, error) {
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	appointment.CreatedAt = s.timestamp(appointment.CreatedAt)
	appointment.UpdatedAt = appointment.CreatedAt
	if err := s.queries.CreateAppointment(ctx, appointment); err != nil {
		s.log.Error("sql create appointment failed",
			zap.String("patient_id", appointment.PatientID),
			zap.String("dentist_id", appointment.DentistID),
			zap.Error(err),
		)
		return model.Appointment{}, fmt.Errorf("create appointment: %w", err)
	}
	return appointment, nil
}

func (s *Store) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	a, err := s.queries.GetAppointment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Appointment{}, repository.ErrNotFound
	}
	if err != nil {
		s.log.Error("sql get appointment failed", zap.String("id", id), zap.Error(err))
		return model.Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	return normalizeAppointment(a), nil
}

// UpdateAppointmentStatus reads the previous row and writes the new status in
// one transaction so the pair it returns is consistent.
func (s *Store) UpdateAppointmentStatus(ctx context.Context, id, status string) (model.Appointment, model.Appointment, error) {
	tx, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		return model.Appointment{}, model.Appointment{}, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.queries.WithTx(tx)
	old, err := q.GetAppointment(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Appointment{}, model.Appointment{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Appointment{}, model.Appointment{}, fmt.Errorf("get appointment: %w", err)
	}
	old = normalizeAppointment(old)

	updated := old
	updated.Status = status
	updated.UpdatedAt = s.timestamp(time.Time{})
	if err := q.UpdateAppointmentStatus(ctx, id, status, updated.UpdatedAt); err != nil {
		s.log.Error("sql update appointment status failed", zap.String("id", id), zap.String("status", status), zap.Error(err))
		return model.Appointment{}, model.Appointment{}, fmt.Errorf("update appointment status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Appointment{}, model.Appointment{}, fmt.Errorf("commit: %w", err)
	}
	return old, updated, nil
}

func normalizeAppointment(a model.Appointment) model.Appointment {
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return a
}
