package memory

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"clinic_notify/internal/change"
)

var (
	ErrBrokerClosed = errors.New("change broker closed")
	ErrKicked       = errors.New("connection dropped by broker")
)

// Broker is an in-process change stream: stores publish row changes and every
// open connection whose filter matches receives them.
type Broker struct {
	mu     sync.RWMutex
	conns  map[*conn]struct{}
	closed bool
	log    *zap.Logger
}

func NewBroker(logger *zap.Logger) *Broker {
	return &Broker{conns: make(map[*conn]struct{}), log: logger}
}

func (b *Broker) Connect(ctx context.Context, userID string, handler change.Handler) (change.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrBrokerClosed
	}
	c := &conn{
		broker:  b,
		userID:  userID,
		handler: handler,
		events:  make(chan change.Event, 64),
		stop:    make(chan struct{}),
	}
	b.conns[c] = struct{}{}
	go c.pump()
	return c, nil
}

func (b *Broker) Publish(_ context.Context, ev change.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.conns {
		if change.Watches(c.userID, ev) {
			c.offer(ev)
		}
	}
	return nil
}

// Kick drops every connection of userID and reports StatusError to them.
func (b *Broker) Kick(userID string) {
	b.mu.Lock()
	var kicked []*conn
	for c := range b.conns {
		if c.userID == userID {
			delete(b.conns, c)
			kicked = append(kicked, c)
		}
	}
	b.mu.Unlock()
	for _, c := range kicked {
		c.terminate(change.StatusError, ErrKicked)
	}
}

// Shutdown closes the broker; open connections report StatusClosed.
func (b *Broker) Shutdown() {
	b.mu.Lock()
	b.closed = true
	open := make([]*conn, 0, len(b.conns))
	for c := range b.conns {
		open = append(open, c)
	}
	b.conns = make(map[*conn]struct{})
	b.mu.Unlock()
	for _, c := range open {
		c.terminate(change.StatusClosed, ErrBrokerClosed)
	}
}

func (b *Broker) Connections() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.conns)
}

func (b *Broker) remove(c *conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conns, c)
}

type conn struct {
	broker  *Broker
	userID  string
	handler change.Handler
	events  chan change.Event
	stop    chan struct{}
	once    sync.Once

	status change.Status
	reason error
}

func (c *conn) offer(ev change.Event) {
	select {
	case c.events <- ev:
	case <-c.stop:
	default:
		c.broker.log.Warn("change broker dropped event for slow connection",
			zap.String("user_id", c.userID),
			zap.String("table", ev.Table()),
		)
	}
}

func (c *conn) pump() {
	if c.handler.OnStatus != nil {
		c.handler.OnStatus(change.StatusSubscribed, nil)
	}
	for {
		select {
		case <-c.stop:
			if c.status != "" && c.handler.OnStatus != nil {
				c.handler.OnStatus(c.status, c.reason)
			}
			return
		case ev := <-c.events:
			if c.handler.OnEvent != nil {
				c.handler.OnEvent(ev)
			}
		}
	}
}

func (c *conn) terminate(status change.Status, reason error) {
	c.once.Do(func() {
		c.status = status
		c.reason = reason
		close(c.stop)
	})
}

func (c *conn) Close() error {
	c.once.Do(func() {
		close(c.stop)
	})
	c.broker.remove(c)
	return nil
}
