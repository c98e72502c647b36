package store

import (
	"context"

	"go.uber.org/zap"

	"clinic_notify/internal/change"
	"clinic_notify/internal/model"
)

// Capture publishes a change event after every successful insert or status
// update on the wrapped store. A failed publish is logged and does not undo
// the write.
type Capture struct {
	Store
	publisher change.Publisher
	log       *zap.Logger
}

func NewCapture(inner Store, publisher change.Publisher, logger *zap.Logger) *Capture {
	return &Capture{Store: inner, publisher: publisher, log: logger}
}

func (c *Capture) CreateNotification(ctx context.Context, notification model.Notification) (model.Notification, error) {
	created, err := c.Store.CreateNotification(ctx, notification)
	if err != nil {
		return created, err
	}
	c.publish(ctx, change.NotificationInserted{Row: created})
	return created, nil
}

func (c *Capture) CreateAppointment(ctx context.Context, appointment model.Appointment) (model.Appointment, error) {
	created, err := c.Store.CreateAppointment(ctx, appointment)
	if err != nil {
		return created, err
	}
	c.publish(ctx, change.AppointmentInserted{Row: created})
	return created, nil
}

func (c *Capture) UpdateAppointmentStatus(ctx context.Context, id, status string) (model.Appointment, model.Appointment, error) {
	old, updated, err := c.Store.UpdateAppointmentStatus(ctx, id, status)
	if err != nil {
		return old, updated, err
	}
	c.publish(ctx, change.AppointmentUpdated{Old: old, New: updated})
	return old, updated, nil
}

func (c *Capture) publish(ctx context.Context, ev change.Event) {
	if err := c.publisher.Publish(ctx, ev); err != nil {
		c.log.Error("change publish failed",
			zap.String("table", ev.Table()),
			zap.String("type", ev.Type()),
			zap.Error(err),
		)
	}
}
