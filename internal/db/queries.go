package db

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"clinic_notify/internal/model"
)

const (
	createNotification = `INSERT INTO notifications (id, user_id, type, title, message, is_read, created_at)
VALUES (:id, :user_id, :type, :title, :message, :is_read, :created_at)`

	listNotificationsByUser = `SELECT id, user_id, type, title, message, is_read, created_at
FROM notifications
WHERE user_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?`

	markNotificationRead     = `UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND id = ?`
	markAllNotificationsRead = `UPDATE notifications SET is_read = TRUE WHERE user_id = ? AND is_read = FALSE`
	deleteNotification       = `DELETE FROM notifications WHERE user_id = ? AND id = ?`

	createAppointment = `INSERT INTO appointments (id, patient_id, dentist_id, procedure_type, appointment_date,
  appointment_time, duration, status, notes, created_by, created_at, updated_at)
VALUES (:id, :patient_id, :dentist_id, :procedure_type, :appointment_date,
  :appointment_time, :duration, :status, :notes, :created_by, :created_at, :updated_at)`

	getAppointment = `SELECT id, patient_id, dentist_id, procedure_type, appointment_date, appointment_time,
  duration, status, notes, created_by, created_at, updated_at
FROM appointments
WHERE id = ?`

	updateAppointmentStatus = `UPDATE appointments SET status = ?, updated_at = ? WHERE id = ?`
)

// Queries holds the statements shared by the MySQL and SQLite backends. Both
// drivers take '?' placeholders, so the text is used as-is.
type Queries struct {
	db sqlx.ExtContext
}

func New(db sqlx.ExtContext) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sqlx.Tx) *Queries {
	return &Queries{db: tx}
}

func (q *Queries) CreateNotification(ctx context.Context, n model.Notification) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, createNotification, n)
	return err
}

func (q *Queries) ListNotificationsByUser(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	var rows []model.Notification
	if err := sqlx.SelectContext(ctx, q.db, &rows, listNotificationsByUser, userID, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

func (q *Queries) MarkNotificationRead(ctx context.Context, userID, id string) error {
	_, err := q.db.ExecContext(ctx, markNotificationRead, userID, id)
	return err
}

func (q *Queries) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, markAllNotificationsRead, userID)
	return err
}

func (q *Queries) DeleteNotification(ctx context.Context, userID, id string) error {
	_, err := q.db.ExecContext(ctx, deleteNotification, userID, id)
	return err
}

func (q *Queries) CreateAppointment(ctx context.Context, a model.Appointment) error {
	_, err := sqlx.NamedExecContext(ctx, q.db, createAppointment, a)
	return err
}

// GetAppointment returns sql.ErrNoRows when id does not exist.
func (q *Queries) GetAppointment(ctx context.Context, id string) (model.Appointment, error) {
	var a model.Appointment
	err := sqlx.GetContext(ctx, q.db, &a, getAppointment, id)
	return a, err
}

func (q *Queries) UpdateAppointmentStatus(ctx context.Context, id, status string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, updateAppointmentStatus, status, updatedAt, id)
	return err
}
