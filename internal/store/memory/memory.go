package memory

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"clinic_notify/internal/model"
)

// Store keeps notifications and appointments in process memory. It is the
// default backend when no database is configured.
type Store struct {
	mu           sync.Mutex
	records      []model.Notification
	appointments map[string]model.Appointment
	log          *zap.Logger
	now          func() time.Time
}

func New(logger *zap.Logger) *Store {
	return &Store{
		appointments: make(map[string]model.Appointment),
		log:          logger,
		now:          time.Now,
	}
}
