package permissions

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"clinic_notify/internal/config"
	"clinic_notify/internal/domain"
)

type Permission string

const (
	ViewDashboard      Permission = "view_dashboard"
	ManageAppointments Permission = "manage_appointments"
	ManagePatients     Permission = "manage_patients"
	ManageDentists     Permission = "manage_dentists"
	ViewReports        Permission = "view_reports"
	ManageSettings     Permission = "manage_settings"
	ManageUsers        Permission = "manage_users"
)

var rolePermissions = map[string][]Permission{
	domain.RoleAdmin: {
		ViewDashboard, ManageAppointments, ManagePatients, ManageDentists,
		ViewReports, ManageSettings, ManageUsers,
	},
	domain.RoleDentist: {
		ViewDashboard, ManageAppointments, ManagePatients, ViewReports,
	},
	domain.RoleAssistant: {
		ViewDashboard, ManageAppointments, ManagePatients,
	},
}

type Set map[Permission]struct{}

func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

func (s Set) HasAny(ps ...Permission) bool {
	for _, p := range ps {
		if s.Has(p) {
			return true
		}
	}
	return false
}

func (s Set) HasAll(ps ...Permission) bool {
	for _, p := range ps {
		if !s.Has(p) {
			return false
		}
	}
	return true
}

func (s Set) List() []Permission {
	out := make([]Permission, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Resolver computes a user's permissions from the built-in role table and the
// optional policy file. Results are cached per user until Forget.
type Resolver struct {
	policy *Policy
	log    *zap.Logger

	mu    sync.Mutex
	cache map[string]Set
}

func NewResolver(cfg *config.Config, logger *zap.Logger) (*Resolver, error) {
	policy, err := LoadPolicy(cfg.PermissionsFile)
	if err != nil {
		logger.Error("permissions policy load failed", zap.String("path", cfg.PermissionsFile), zap.Error(err))
		return nil, err
	}
	return NewResolverWithPolicy(policy, logger), nil
}

func NewResolverWithPolicy(policy *Policy, logger *zap.Logger) *Resolver {
	if policy == nil {
		policy = &Policy{}
	}
	return &Resolver{policy: policy, log: logger, cache: make(map[string]Set)}
}

// RoleFor applies the policy's per-user role override, if any.
func (r *Resolver) RoleFor(userID, role string) string {
	if override, ok := r.policy.Users[userID]; ok && override != "" {
		return override
	}
	return role
}

func (r *Resolver) Resolve(userID, role string) Set {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.cache[userID]; ok {
		return set
	}
	role = r.RoleFor(userID, role)
	set := make(Set)
	for _, p := range rolePermissions[role] {
		set[p] = struct{}{}
	}
	for _, p := range r.policy.Roles[role] {
		set[Permission(p)] = struct{}{}
	}
	r.cache[userID] = set
	r.log.Debug("permissions resolved", zap.String("user_id", userID), zap.String("role", role), zap.Int("count", len(set)))
	return set
}

func (r *Resolver) Forget(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, userID)
}
