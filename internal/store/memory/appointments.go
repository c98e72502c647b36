package memory

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_notify/internal/model"
	"clinic_notify/internal/repository"
)

func (s *Store) CreateAppointment(_ context.Context, appointment model.Appointment) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if appointment.ID == "" {
		appointment.ID = uuid.NewString()
	}
	if appointment.CreatedAt.IsZero() {
		appointment.CreatedAt = s.now().UTC()
	}
	appointment.UpdatedAt = appointment.CreatedAt
	s.appointments[appointment.ID] = appointment
	return appointment, nil
}

func (s *Store) GetAppointment(_ context.Context, id string) (model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	appointment, ok := s.appointments[id]
	if !ok {
		return model.Appointment{}, repository.ErrNotFound
	}
	return appointment, nil
}

func (s *Store) UpdateAppointmentStatus(_ context.Context, id, status string) (model.Appointment, model.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.appointments[id]
	if !ok {
		s.log.Debug("memory appointment not found", zap.String("id", id))
		return model.Appointment{}, model.Appointment{}, repository.ErrNotFound
	}
	updated := old
	updated.Status = status
	updated.UpdatedAt = s.now().UTC()
	s.appointments[id] = updated
	return old, updated, nil
}
