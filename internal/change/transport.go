package change

import "context"

type Status string

const (
	StatusSubscribed Status = "subscribed"
	StatusClosed     Status = "closed"
	StatusError      Status = "error"
)

// Handler receives the output of one connection. Transports invoke both
// callbacks from their own goroutines, never from inside Connect or Close.
type Handler struct {
	OnEvent  func(Event)
	OnStatus func(Status, error)
}

type Conn interface {
	Close() error
}

// Transport opens change streams. A connection for a user carries inserts on
// that user's notifications and every insert/update on appointments.
type Transport interface {
	Connect(ctx context.Context, userID string, handler Handler) (Conn, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Watches reports whether a connection opened for userID receives ev.
func Watches(userID string, ev Event) bool {
	switch e := ev.(type) {
	case NotificationInserted:
		return e.Row.UserID == userID
	case AppointmentInserted, AppointmentUpdated:
		return true
	default:
		return false
	}
}
