package domain

import "errors"

const (
	NotificationTypeInfo    = "info"
	NotificationTypeSuccess = "success"
	NotificationTypeWarning = "warning"
	NotificationTypeError   = "error"
)

var ErrInvalidNotificationType = errors.New("invalid notification type")

func IsValidNotificationType(value string) bool {
	switch value {
	case NotificationTypeInfo, NotificationTypeSuccess, NotificationTypeWarning, NotificationTypeError:
		return true
	default:
		return false
	}
}

// ToastStyle maps a notification type to the toast treatment used for it.
// Anything unrecognised is shown as info.
func ToastStyle(notificationType string) string {
	if IsValidNotificationType(notificationType) {
		return notificationType
	}
	return NotificationTypeInfo
}
