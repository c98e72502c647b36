// Package notify exposes the notification feed to callers. A Consumer is one
// attached view of the signed-in user's feed: it owns a feed.Feed, is
// registered with the realtime manager for live inserts, and loads history
// in the background.
package notify

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clinic_notify/internal/config"
	"clinic_notify/internal/domain"
	"clinic_notify/internal/feed"
	"clinic_notify/internal/metrics"
	"clinic_notify/internal/model"
	"clinic_notify/internal/realtime"
	"clinic_notify/internal/repository"
)

var (
	ErrNoUser           = errors.New("no signed-in user")
	ErrConsumerNotFound = errors.New("consumer not found")
	// ErrSuperseded is returned by Attach when the signed-in user changed
	// while the consumer was subscribing.
	ErrSuperseded = errors.New("user changed during attach")
)

type Realtime interface {
	Subscribe(ctx context.Context, userID string, listener realtime.Listener) (*realtime.Subscription, error)
	Unsubscribe(sub *realtime.Subscription)
	Reset()
}

type Service struct {
	store repository.NotificationRepository
	rt    Realtime
	limit int
	log   *zap.Logger

	mu         sync.Mutex
	userID     string
	generation uint64
	consumers  map[string]*Consumer
}

func NewService(store repository.NotificationRepository, rt Realtime, cfg *config.Config, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		rt:        rt,
		limit:     cfg.HistoryLimit,
		log:       logger,
		consumers: make(map[string]*Consumer),
	}
}

// Attach creates a consumer for userID. Attaching for a different user than
// the current consumers belong to detaches all of them first. If another user
// takes over before the subscription is in place, the half-built consumer is
// discarded and ErrSuperseded returned.
func (s *Service) Attach(ctx context.Context, userID string) (*Consumer, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	generation := s.rescope(userID)

	c := &Consumer{
		id:      uuid.NewString(),
		svc:     s,
		changes: make(chan feed.Change, changeBuffer),
		log:     s.log,
	}
	c.feed = feed.New(userID, s.store, s.limit, s.log, c.observe)

	sub, err := s.rt.Subscribe(ctx, userID, func(n model.Notification) {
		c.feed.Append(n)
	})
	if err != nil {
		return nil, err
	}
	c.sub = sub

	s.mu.Lock()
	if s.generation != generation {
		current := s.userID
		s.mu.Unlock()
		s.rt.Unsubscribe(sub)
		c.feed.Detach()
		s.log.Info("attach discarded after user change",
			zap.String("user_id", userID),
			zap.String("current_user_id", current),
		)
		return nil, ErrSuperseded
	}
	s.consumers[c.id] = c
	loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel
	c.loaded = make(chan struct{})
	metrics.ConsumersAttached.Inc()
	s.mu.Unlock()

	go func() {
		defer close(c.loaded)
		c.feed.Load(loadCtx)
	}()

	s.log.Debug("consumer attached", zap.String("consumer_id", c.id), zap.String("user_id", userID))
	return c, nil
}

// Consumer returns the attached consumer id if it belongs to userID.
func (s *Service) Consumer(userID, id string) (*Consumer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.consumers[id]
	if !ok || c.UserID() != userID {
		return nil, ErrConsumerNotFound
	}
	return c, nil
}

func (s *Service) Consumers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.consumers)
}

// UserChanged detaches every consumer that does not belong to userID. An
// empty userID is a sign-out: all consumers go and the realtime connection is
// closed.
func (s *Service) UserChanged(userID string) {
	s.rescope(userID)
}

// rescope makes userID the current user and returns the generation it runs
// under. The generation moves on every change of user, so attaches started
// for an earlier user can tell they lost the race.
func (s *Service) rescope(userID string) uint64 {
	s.mu.Lock()
	var stale []*Consumer
	for _, c := range s.consumers {
		if c.UserID() != userID {
			stale = append(stale, c)
		}
	}
	previous := s.userID
	if previous != userID {
		s.generation++
	}
	s.userID = userID
	generation := s.generation
	s.mu.Unlock()

	for _, c := range stale {
		c.Detach()
	}
	if userID == "" {
		s.rt.Reset()
	}
	if previous != userID && len(stale) > 0 {
		s.log.Info("consumers detached on user change",
			zap.String("previous_user_id", previous),
			zap.String("user_id", userID),
			zap.Int("consumers", len(stale)),
		)
	}
	return generation
}

// DetachAll drops every consumer and closes the realtime connection.
func (s *Service) DetachAll() {
	s.UserChanged("")
}

func (s *Service) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.consumers, id)
}

// Create persists a notification without an attached consumer. Live
// consumers of the same user receive it through the change stream.
func (s *Service) Create(ctx context.Context, notification model.Notification) (model.Notification, error) {
	if notification.UserID == "" {
		return model.Notification{}, ErrNoUser
	}
	if !domain.IsValidNotificationType(notification.Type) {
		return model.Notification{}, domain.ErrInvalidNotificationType
	}
	if strings.TrimSpace(notification.Title) == "" || strings.TrimSpace(notification.Message) == "" {
		return model.Notification{}, feed.ErrInvalidNotification
	}
	notification.ID = ""
	notification.Read = false
	created, err := s.store.CreateNotification(ctx, notification)
	if err != nil {
		s.log.Error("store create notification failed",
			zap.String("user_id", notification.UserID),
			zap.String("type", notification.Type),
			zap.String("title", notification.Title),
			zap.Error(err),
		)
		return model.Notification{}, err
	}
	return created, nil
}

func (s *Service) ListHistory(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = s.limit
	}
	history, err := s.store.ListNotifications(ctx, userID, limit)
	if err != nil {
		s.log.Error("store list notifications failed", zap.String("user_id", userID), zap.Int("limit", limit), zap.Error(err))
		return nil, err
	}
	return history, nil
}
