package repository

import (
	"context"
	"errors"

	"clinic_notify/internal/model"
)

var ErrNotFound = errors.New("record not found")

type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment model.Appointment) (model.Appointment, error)
	GetAppointment(ctx context.Context, id string) (model.Appointment, error)
	// UpdateAppointmentStatus returns the row before and after the update.
	UpdateAppointmentStatus(ctx context.Context, id, status string) (model.Appointment, model.Appointment, error)
}
