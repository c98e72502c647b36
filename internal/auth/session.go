package auth

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"clinic_notify/internal/domain"
)

var ErrUnauthenticated = errors.New("not signed in")

type User struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
}

// Session holds the signed-in user of this process. Listeners registered with
// OnChange run after every change of user id, outside the session lock; an
// empty id means signed out.
type Session struct {
	mu        sync.RWMutex
	user      *User
	listeners []func(userID string)
	log       *zap.Logger
}

func NewSession(logger *zap.Logger) *Session {
	return &Session{log: logger}
}

func (s *Session) OnChange(fn func(userID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) SignIn(u User) error {
	if u.ID == "" {
		return ErrUnauthenticated
	}
	if !domain.IsValidRole(u.Role) {
		return domain.ErrInvalidRole
	}
	s.mu.Lock()
	changed := s.user == nil || s.user.ID != u.ID
	s.user = &u
	listeners := append([]func(string){}, s.listeners...)
	s.mu.Unlock()

	s.log.Info("signed in", zap.String("user_id", u.ID), zap.String("role", u.Role))
	if changed {
		for _, fn := range listeners {
			fn(u.ID)
		}
	}
	return nil
}

func (s *Session) SignOut() {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return
	}
	previous := s.user.ID
	s.user = nil
	listeners := append([]func(string){}, s.listeners...)
	s.mu.Unlock()

	s.log.Info("signed out", zap.String("user_id", previous))
	for _, fn := range listeners {
		fn("")
	}
}

func (s *Session) Current() (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, ErrUnauthenticated
	}
	return *s.user, nil
}
