package domain

import "errors"

const (
	RoleAdmin     = "admin"
	RoleDentist   = "dentist"
	RoleAssistant = "assistant"
)

var ErrInvalidRole = errors.New("invalid role")

func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleDentist, RoleAssistant:
		return true
	default:
		return false
	}
}
