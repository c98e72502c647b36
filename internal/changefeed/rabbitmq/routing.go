package rabbitmq

import (
	"strings"

	"clinic_notify/internal/change"
)

// routingKey places notification rows under their owner so that a consumer
// binding only sees its own user's inserts.
func routingKey(prefix string, ev change.Event) string {
	key := prefix + "." + ev.Table() + "." + strings.ToLower(ev.Type())
	if n, ok := ev.(change.NotificationInserted); ok {
		key += "." + n.Row.UserID
	}
	return key
}

func bindingKeys(prefix, userID string) []string {
	return []string{
		prefix + "." + change.TableNotifications + ".insert." + userID,
		prefix + "." + change.TableAppointments + ".*",
	}
}
