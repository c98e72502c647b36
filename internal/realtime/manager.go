// Package realtime owns the change-stream connection shared by every
// notification consumer of the signed-in user.
//
// The Manager keeps a single authoritative slot: the active user, the
// listeners attached for that user and the state of their one connection.
// Connections are opened lazily by the first listener and closed when the
// last listener leaves, when a different user subscribes, or on Reset. A
// transport reporting closed or error only marks the slot disconnected; the
// next Subscribe opens a fresh connection for the listeners still attached.
//
// Connecting and closing happen outside the lock. Every connection attempt
// gets a number, and callbacks or late connect results carrying a number that
// is no longer current are ignored, so the slot never reports a connection
// that has already been torn down.
package realtime

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"clinic_notify/internal/change"
	"clinic_notify/internal/metrics"
	"clinic_notify/internal/model"
)

var (
	ErrNoUser      = errors.New("realtime: user id required")
	ErrNilListener = errors.New("realtime: listener required")
)

type Listener func(model.Notification)

type Router interface {
	Route(userID string, ev change.Event) (model.Notification, bool)
}

type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
)

type entry struct {
	userID    string
	listeners map[uint64]Listener
	conn      change.Conn
	state     connState
	attempt   uint64
}

// Subscription identifies one attached listener. It becomes inert once the
// listener is removed, either by Unsubscribe or because the slot was handed to
// another user.
type Subscription struct {
	id     uint64
	userID string
	entry  *entry
}

func (s *Subscription) UserID() string {
	return s.userID
}

type Stats struct {
	UserID     string
	Listeners  int
	Connected  bool
	Connecting bool
}

type Manager struct {
	transport change.Transport
	router    Router
	log       *zap.Logger

	mu       sync.Mutex
	active   *entry
	nextID   uint64
	attempts uint64
}

func NewManager(transport change.Transport, router Router, logger *zap.Logger) *Manager {
	return &Manager{transport: transport, router: router, log: logger}
}

// Subscribe attaches listener to the change stream of userID, opening the
// connection if none is live. Connection failures are logged and leave the
// listener attached; a later Subscribe retries.
func (m *Manager) Subscribe(ctx context.Context, userID string, listener Listener) (*Subscription, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	if listener == nil {
		return nil, ErrNilListener
	}

	m.mu.Lock()
	var (
		stale          change.Conn
		staleConnected bool
		staleUser      string
	)
	if m.active != nil && m.active.userID != userID {
		staleUser = m.active.userID
		stale, staleConnected = m.detachLocked()
	}
	e := m.active
	if e == nil {
		e = &entry{userID: userID, listeners: make(map[uint64]Listener)}
		m.active = e
	}
	m.nextID++
	sub := &Subscription{id: m.nextID, userID: userID, entry: e}
	e.listeners[sub.id] = listener
	metrics.Listeners.Set(float64(len(e.listeners)))

	var attempt uint64
	if e.state == stateDisconnected {
		m.attempts++
		attempt = m.attempts
		e.attempt = attempt
		e.state = stateConnecting
	}
	m.mu.Unlock()

	if staleUser != "" {
		m.log.Info("realtime user changed", zap.String("previous_user_id", staleUser), zap.String("user_id", userID))
		m.closeConn(stale, staleConnected, staleUser)
	}
	if attempt != 0 {
		m.connect(context.WithoutCancel(ctx), e, attempt)
	}
	return sub, nil
}

// Unsubscribe detaches the listener behind sub. Removing the last listener
// closes the connection. Calling it more than once is harmless.
func (m *Manager) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	m.mu.Lock()
	e := sub.entry
	if m.active != e {
		m.mu.Unlock()
		return
	}
	if _, ok := e.listeners[sub.id]; !ok {
		m.mu.Unlock()
		return
	}
	delete(e.listeners, sub.id)
	metrics.Listeners.Set(float64(len(e.listeners)))
	if len(e.listeners) > 0 {
		m.mu.Unlock()
		return
	}
	conn, connected := m.detachLocked()
	m.mu.Unlock()

	m.closeConn(conn, connected, e.userID)
}

// Reset drops every listener and closes the active connection.
func (m *Manager) Reset() {
	m.mu.Lock()
	if m.active == nil {
		m.mu.Unlock()
		return
	}
	userID := m.active.userID
	conn, connected := m.detachLocked()
	m.mu.Unlock()

	m.closeConn(conn, connected, userID)
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return Stats{}
	}
	return Stats{
		UserID:     m.active.userID,
		Listeners:  len(m.active.listeners),
		Connected:  m.active.state == stateConnected,
		Connecting: m.active.state == stateConnecting,
	}
}

// detachLocked empties the active slot and returns the connection that the
// caller must close once the lock is released.
func (m *Manager) detachLocked() (change.Conn, bool) {
	e := m.active
	m.active = nil
	conn := e.conn
	connected := e.state == stateConnected
	e.conn = nil
	e.state = stateDisconnected
	e.attempt = 0
	e.listeners = make(map[uint64]Listener)
	metrics.Listeners.Set(0)
	return conn, connected
}

func (m *Manager) connect(ctx context.Context, e *entry, attempt uint64) {
	handler := change.Handler{
		OnEvent: func(ev change.Event) {
			m.deliver(e, attempt, ev)
		},
		OnStatus: func(status change.Status, err error) {
			m.status(e, attempt, status, err)
		},
	}

	conn, err := m.transport.Connect(ctx, e.userID, handler)
	if err != nil {
		metrics.ConnectAttempts.WithLabelValues("error").Inc()
		m.mu.Lock()
		if m.active == e && e.attempt == attempt {
			e.state = stateDisconnected
			e.attempt = 0
		}
		m.mu.Unlock()
		m.log.Error("realtime connect failed", zap.String("user_id", e.userID), zap.Error(err))
		return
	}

	m.mu.Lock()
	if m.active != e || e.attempt != attempt {
		m.mu.Unlock()
		metrics.ConnectAttempts.WithLabelValues("discarded").Inc()
		m.log.Debug("realtime connection no longer wanted", zap.String("user_id", e.userID))
		if err := conn.Close(); err != nil {
			m.log.Warn("realtime close discarded connection failed", zap.String("user_id", e.userID), zap.Error(err))
		}
		return
	}
	e.conn = conn
	e.state = stateConnected
	m.mu.Unlock()

	metrics.ConnectAttempts.WithLabelValues("ok").Inc()
	metrics.ConnectionsOpen.Inc()
	m.log.Info("realtime connection opened", zap.String("user_id", e.userID))
}

func (m *Manager) deliver(e *entry, attempt uint64, ev change.Event) {
	m.mu.Lock()
	if m.active != e || e.attempt != attempt {
		m.mu.Unlock()
		return
	}
	userID := e.userID
	m.mu.Unlock()

	n, ok := m.router.Route(userID, ev)
	if !ok {
		return
	}

	// The slot may have changed hands while routing.
	m.mu.Lock()
	if m.active != e || e.attempt != attempt {
		m.mu.Unlock()
		return
	}
	listeners := make([]Listener, 0, len(e.listeners))
	for _, l := range e.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(n)
	}
}

func (m *Manager) status(e *entry, attempt uint64, status change.Status, err error) {
	if status == change.StatusSubscribed {
		m.log.Debug("realtime subscription confirmed", zap.String("user_id", e.userID))
		return
	}

	m.mu.Lock()
	if m.active != e || e.attempt != attempt {
		m.mu.Unlock()
		return
	}
	conn := e.conn
	connected := e.state == stateConnected
	e.conn = nil
	e.state = stateDisconnected
	e.attempt = 0
	m.mu.Unlock()

	m.log.Warn("realtime connection lost",
		zap.String("user_id", e.userID),
		zap.String("status", string(status)),
		zap.Error(err),
	)
	m.closeConn(conn, connected, e.userID)
}

func (m *Manager) closeConn(conn change.Conn, connected bool, userID string) {
	if connected {
		metrics.ConnectionsOpen.Dec()
	}
	if conn == nil {
		return
	}
	if err := conn.Close(); err != nil {
		m.log.Warn("realtime close failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	m.log.Info("realtime connection closed", zap.String("user_id", userID))
}
