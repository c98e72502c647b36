package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"clinic_notify/internal/feed"
	"clinic_notify/internal/metrics"
	"clinic_notify/internal/model"
	"clinic_notify/internal/realtime"
)

const changeBuffer = 64

type Consumer struct {
	id      string
	svc     *Service
	feed    *feed.Feed
	sub     *realtime.Subscription
	cancel  context.CancelFunc
	loaded  chan struct{}
	changes chan feed.Change
	log     *zap.Logger

	once sync.Once
}

func (c *Consumer) ID() string {
	return c.id
}

func (c *Consumer) UserID() string {
	return c.feed.UserID()
}

func (c *Consumer) Notifications() []model.Notification {
	return c.feed.Notifications()
}

func (c *Consumer) UnreadCount() int {
	return c.feed.UnreadCount()
}

// Loading is true until the first history load has finished.
func (c *Consumer) Loading() bool {
	switch c.feed.State() {
	case feed.StateUninitialized, feed.StateLoading:
		return true
	default:
		return false
	}
}

func (c *Consumer) State() feed.State {
	return c.feed.State()
}

// Loaded is closed when the initial history load returns.
func (c *Consumer) Loaded() <-chan struct{} {
	return c.loaded
}

func (c *Consumer) MarkAsRead(ctx context.Context, id string) error {
	return c.feed.MarkRead(ctx, id)
}

func (c *Consumer) MarkAllAsRead(ctx context.Context) error {
	return c.feed.MarkAllRead(ctx)
}

func (c *Consumer) RemoveNotification(ctx context.Context, id string) error {
	return c.feed.Remove(ctx, id)
}

func (c *Consumer) AddNotification(ctx context.Context, title, message, notificationType string) (model.Notification, error) {
	return c.feed.Create(ctx, title, message, notificationType)
}

// Changes streams every mutation of the feed. The channel is closed by
// Detach; changes are dropped while the reader is behind.
func (c *Consumer) Changes() <-chan feed.Change {
	return c.changes
}

// Detach unsubscribes from the realtime manager and freezes the feed. Loads
// and operations still in flight finish without touching it.
func (c *Consumer) Detach() {
	c.once.Do(func() {
		c.svc.rt.Unsubscribe(c.sub)
		c.feed.Detach()
		c.cancel()
		close(c.changes)
		c.svc.remove(c.id)
		metrics.ConsumersAttached.Dec()
		c.log.Debug("consumer detached", zap.String("consumer_id", c.id), zap.String("user_id", c.UserID()))
	})
}

// observe runs under the feed lock and must not block.
func (c *Consumer) observe(change feed.Change) {
	select {
	case c.changes <- change:
	default:
		metrics.ChangesDropped.Inc()
		c.log.Debug("consumer change dropped", zap.String("consumer_id", c.id), zap.String("kind", string(change.Kind)))
	}
}
