package permission

import (
	"errors"
	"sync"

	"github.com/MrEthical07/dashauth/session"
)

// Role names a dashboard role.
type Role string

const (
	// RoleNone is the absence of a role.
	RoleNone     Role = ""
	RoleViewer   Role = "viewer"
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// UnknownRequiredLevel is the level assigned to a required role missing from
// the hierarchy.
const UnknownRequiredLevel = 999

var (
	ErrHierarchyFrozen = errors.New("role hierarchy frozen")
	ErrRoleEmpty       = errors.New("role name empty")
	ErrRoleExists      = errors.New("role already registered")
	ErrInvalidLevel    = errors.New("role level must be positive")
)

// Hierarchy maps roles to ascending levels.
type Hierarchy struct {
	mu     sync.RWMutex
	levels map[Role]int
	frozen bool
}

// NewHierarchy returns an empty, unfrozen hierarchy.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{levels: make(map[Role]int)}
}

var defaultHierarchy = func() *Hierarchy {
	h := NewHierarchy()
	_ = h.Register(RoleViewer, 1)
	_ = h.Register(RoleEmployee, 2)
	_ = h.Register(RoleManager, 3)
	_ = h.Register(RoleAdmin, 4)
	h.Freeze()
	return h
}()

// DefaultHierarchy returns the frozen viewer < employee < manager < admin hierarchy.
func DefaultHierarchy() *Hierarchy {
	return defaultHierarchy
}

// Register adds role at level. Registration fails once the hierarchy is frozen.
func (h *Hierarchy) Register(role Role, level int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.frozen {
		return ErrHierarchyFrozen
	}
	if role == RoleNone {
		return ErrRoleEmpty
	}
	if level <= 0 {
		return ErrInvalidLevel
	}
	if _, exists := h.levels[role]; exists {
		return ErrRoleExists
	}

	h.levels[role] = level
	return nil
}

// Freeze makes the hierarchy read-only.
func (h *Hierarchy) Freeze() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frozen = true
}

// Level returns the level of role.
func (h *Hierarchy) Level(role Role) (int, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	level, ok := h.levels[role]
	return level, ok
}

// Count returns the number of registered roles.
func (h *Hierarchy) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.levels)
}

// HasRequiredRole reports whether role satisfies any of required.
//
// An empty requirement list is always satisfied. RoleNone never satisfies a
// non-empty list, and neither does a role missing from the hierarchy.
func (h *Hierarchy) HasRequiredRole(role Role, required []Role) bool {
	if len(required) == 0 {
		return true
	}
	if role == RoleNone {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	userLevel, ok := h.levels[role]
	if !ok {
		return false
	}

	minRequired := -1
	for _, r := range required {
		level, ok := h.levels[r]
		if !ok {
			level = UnknownRequiredLevel
		}
		if minRequired < 0 || level < minRequired {
			minRequired = level
		}
	}
	return userLevel >= minRequired
}

// HasRequiredRole evaluates role against required using [DefaultHierarchy].
func HasRequiredRole(role Role, required []Role) bool {
	return defaultHierarchy.HasRequiredRole(role, required)
}

// RoleOf resolves the role for a profile: RoleEmployee for any profile and
// RoleNone for nil.
func RoleOf(p *session.Profile) Role {
	if p == nil {
		return RoleNone
	}
	return RoleEmployee
}
