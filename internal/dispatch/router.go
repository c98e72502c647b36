package dispatch

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"clinic_notify/internal/change"
	"clinic_notify/internal/domain"
	"clinic_notify/internal/metrics"
	"clinic_notify/internal/model"
)

const (
	titleNewAppointment     = "New appointment"
	titleAppointmentUpdated = "Appointment updated"
)

type Toaster interface {
	Show(userID string, toast model.Toast)
}

// Router turns watched row changes into feed notifications and toasts. It
// performs no I/O of its own.
type Router struct {
	toaster Toaster
	now     func() time.Time
	log     *zap.Logger
}

func NewRouter(toaster Toaster, logger *zap.Logger) *Router {
	return &Router{toaster: toaster, now: time.Now, log: logger}
}

// WithClock replaces the time source used to stamp synthetic notifications
// whose source row carries no timestamp.
func (r *Router) WithClock(now func() time.Time) *Router {
	r.now = now
	return r
}

// Route returns the notification for ev and shows its toast. The boolean is
// false when ev produces nothing.
func (r *Router) Route(userID string, ev change.Event) (model.Notification, bool) {
	var (
		n  model.Notification
		ok bool
	)
	switch e := ev.(type) {
	case change.NotificationInserted:
		n, ok = e.Row, true
	case change.AppointmentInserted:
		n, ok = r.appointmentInserted(userID, e.Row), true
	case change.AppointmentUpdated:
		n, ok = r.appointmentUpdated(userID, e.Old, e.New)
	default:
		r.log.Warn("unroutable change event", zap.String("event", fmt.Sprintf("%T", ev)))
	}

	outcome := "routed"
	if !ok {
		outcome = "skipped"
	}
	if ev != nil {
		metrics.EventsRouted.WithLabelValues(ev.Table(), ev.Type(), outcome).Inc()
	}
	if !ok {
		return model.Notification{}, false
	}

	r.toaster.Show(userID, model.Toast{
		Style:   domain.ToastStyle(n.Type),
		Title:   n.Title,
		Message: n.Message,
	})
	return n, true
}

func (r *Router) appointmentInserted(userID string, row model.Appointment) model.Notification {
	return model.Notification{
		ID:        domain.SyntheticAppointmentID(row.ID),
		UserID:    userID,
		Type:      domain.NotificationTypeInfo,
		Title:     titleNewAppointment,
		Message:   fmt.Sprintf("A new appointment was scheduled for %s at %s", row.Date, row.Time),
		CreatedAt: r.stamp(row.CreatedAt),
	}
}

func (r *Router) appointmentUpdated(userID string, oldRow, newRow model.Appointment) (model.Notification, bool) {
	if oldRow.Status == newRow.Status {
		return model.Notification{}, false
	}
	if !domain.IsKnownAppointmentStatus(newRow.Status) {
		r.log.Debug("appointment status without label",
			zap.String("appointment_id", newRow.ID),
			zap.String("status", newRow.Status),
		)
	}
	return model.Notification{
		ID:        domain.SyntheticAppointmentUpdateID(newRow.ID),
		UserID:    userID,
		Type:      domain.NotificationTypeInfo,
		Title:     titleAppointmentUpdated,
		Message:   "Appointment status changed to: " + domain.StatusLabel(newRow.Status),
		CreatedAt: r.stamp(newRow.UpdatedAt),
	}, true
}

func (r *Router) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return r.now().UTC()
	}
	return t
}
