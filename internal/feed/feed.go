package feed

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"clinic_notify/internal/domain"
	"clinic_notify/internal/model"
	"clinic_notify/internal/repository"
)

const DefaultLimit = 50

var (
	ErrDetached            = errors.New("feed detached")
	ErrInvalidNotification = errors.New("title and message are required")
)

type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
	StateReadyEmpty
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateReadyEmpty:
		return "ready-empty"
	default:
		return "uninitialized"
	}
}

type ChangeKind string

const (
	ChangeSnapshot ChangeKind = "snapshot"
	ChangeAppended ChangeKind = "notification"
	ChangeRead     ChangeKind = "read"
	ChangeReadAll  ChangeKind = "read_all"
	ChangeRemoved  ChangeKind = "removed"
)

// Change describes one mutation of a feed. Snapshot changes carry the whole
// list; the others carry the affected notification or id.
type Change struct {
	Kind          ChangeKind           `json:"kind"`
	ID            string               `json:"id,omitempty"`
	Notification  *model.Notification  `json:"notification,omitempty"`
	Notifications []model.Notification `json:"notifications,omitempty"`
	UnreadCount   int                  `json:"unread_count"`
}

// Feed is the newest-first notification list of one consumer. Persisted
// operations touch memory only after the repository call succeeds, and once
// Detach is called nothing mutates the list again.
//
// The observer runs with the feed lock held; it must not block or call back
// into the feed.
type Feed struct {
	userID  string
	repo    repository.NotificationRepository
	limit   int
	log     *zap.Logger
	observe func(Change)

	mu       sync.Mutex
	state    State
	items    []model.Notification
	detached bool
}

func New(userID string, repo repository.NotificationRepository, limit int, logger *zap.Logger, observe func(Change)) *Feed {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Feed{userID: userID, repo: repo, limit: limit, log: logger, observe: observe}
}

func (f *Feed) UserID() string {
	return f.userID
}

// Load reads the most recent persisted notifications. A failed read leaves the
// feed usable in the ready-empty state; a read that finishes after Detach is
// dropped.
func (f *Feed) Load(ctx context.Context) {
	f.mu.Lock()
	if f.detached || f.state == StateLoading {
		f.mu.Unlock()
		return
	}
	f.state = StateLoading
	f.mu.Unlock()

	rows, err := f.repo.ListNotifications(ctx, f.userID, f.limit)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detached {
		return
	}
	if err != nil {
		f.log.Error("feed load failed", zap.String("user_id", f.userID), zap.Int("limit", f.limit), zap.Error(err))
		f.state = StateReadyEmpty
	} else {
		f.items = mergeNewestFirst(f.items, rows)
		f.state = StateReady
	}
	f.emitLocked(Change{Kind: ChangeSnapshot, Notifications: f.copyLocked()})
}

// Append puts n at the top of the list. An entry with the same id and content
// is left alone; the same id with new content is replaced and moved up.
func (f *Feed) Append(n model.Notification) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detached {
		return false
	}
	for i, existing := range f.items {
		if existing.ID != n.ID {
			continue
		}
		if sameContent(existing, n) {
			return false
		}
		f.items = append(f.items[:i], f.items[i+1:]...)
		break
	}
	f.items = append([]model.Notification{n}, f.items...)
	f.emitLocked(Change{Kind: ChangeAppended, ID: n.ID, Notification: &n})
	return true
}

// Create persists a notification for the feed's user and appends the stored
// row. The copy that later arrives through the change stream is deduplicated
// by id.
func (f *Feed) Create(ctx context.Context, title, message, notificationType string) (model.Notification, error) {
	if f.isDetached() {
		return model.Notification{}, ErrDetached
	}
	if !domain.IsValidNotificationType(notificationType) {
		return model.Notification{}, domain.ErrInvalidNotificationType
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(message) == "" {
		return model.Notification{}, ErrInvalidNotification
	}
	created, err := f.repo.CreateNotification(ctx, model.Notification{
		UserID:  f.userID,
		Type:    notificationType,
		Title:   title,
		Message: message,
	})
	if err != nil {
		f.log.Error("feed create failed", zap.String("user_id", f.userID), zap.String("type", notificationType), zap.Error(err))
		return model.Notification{}, err
	}
	f.Append(created)
	return created, nil
}

func (f *Feed) MarkRead(ctx context.Context, id string) error {
	if f.isDetached() {
		return ErrDetached
	}
	if err := f.repo.MarkNotificationRead(ctx, f.userID, id); err != nil {
		f.log.Error("feed mark read failed", zap.String("user_id", f.userID), zap.String("id", id), zap.Error(err))
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detached {
		return nil
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Read = true
			n := f.items[i]
			f.emitLocked(Change{Kind: ChangeRead, ID: id, Notification: &n})
			break
		}
	}
	return nil
}

func (f *Feed) MarkAllRead(ctx context.Context) error {
	if f.isDetached() {
		return ErrDetached
	}
	if err := f.repo.MarkAllNotificationsRead(ctx, f.userID); err != nil {
		f.log.Error("feed mark all read failed", zap.String("user_id", f.userID), zap.Error(err))
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detached {
		return nil
	}
	for i := range f.items {
		f.items[i].Read = true
	}
	f.emitLocked(Change{Kind: ChangeReadAll})
	return nil
}

func (f *Feed) Remove(ctx context.Context, id string) error {
	if f.isDetached() {
		return ErrDetached
	}
	if err := f.repo.DeleteNotification(ctx, f.userID, id); err != nil {
		f.log.Error("feed remove failed", zap.String("user_id", f.userID), zap.String("id", id), zap.Error(err))
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.detached {
		return nil
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			f.emitLocked(Change{Kind: ChangeRemoved, ID: id})
			break
		}
	}
	return nil
}

func (f *Feed) Notifications() []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyLocked()
}

func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unreadLocked()
}

func (f *Feed) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Feed) Loading() bool {
	return f.State() == StateLoading
}

// Detach freezes the feed. Pending loads and persisted operations still run
// to completion but no longer touch the list or the observer.
func (f *Feed) Detach() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detached = true
}

func (f *Feed) isDetached() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detached
}

func (f *Feed) emitLocked(c Change) {
	if f.observe == nil {
		return
	}
	c.UnreadCount = f.unreadLocked()
	f.observe(c)
}

func (f *Feed) unreadLocked() int {
	count := 0
	for _, n := range f.items {
		if !n.Read {
			count++
		}
	}
	return count
}

func (f *Feed) copyLocked() []model.Notification {
	out := make([]model.Notification, len(f.items))
	copy(out, f.items)
	return out
}

func sameContent(a, b model.Notification) bool {
	return a.Title == b.Title && a.Message == b.Message && a.Type == b.Type
}

// mergeNewestFirst keeps entries that arrived live ahead of the loaded rows
// and drops loaded rows whose id is already present.
func mergeNewestFirst(live, loaded []model.Notification) []model.Notification {
	seen := make(map[string]struct{}, len(live))
	merged := make([]model.Notification, 0, len(live)+len(loaded))
	for _, n := range live {
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}
	for _, n := range loaded {
		if _, ok := seen[n.ID]; ok {
			continue
		}
		seen[n.ID] = struct{}{}
		merged = append(merged, n)
	}
	return merged
}
