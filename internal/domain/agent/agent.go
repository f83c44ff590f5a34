package agent

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRole = errors.New("invalid agent role")

// Role is the agent's profile type. Only RoleAgente receives tasks; RoleMesa is the
// dispatcher/supervisor desk.
type Role int

const (
	RoleAgente Role = iota + 1
	RoleMesa
)

func (r Role) String() string {
	switch r {
	case RoleAgente:
		return "Agente"
	case RoleMesa:
		return "Mesa"
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ReceivesWork reports whether agents holding this role take part in assignment.
func (r Role) ReceivesWork() bool {
	switch r {
	case RoleAgente:
		return true
	case RoleMesa:
		return false
	}
	return false
}

func ParseRole(s string) (Role, error) {
	switch s {
	case "Agente":
		return RoleAgente, nil
	case "Mesa":
		return RoleMesa, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// MarshalText encodes an unknown role as the empty string so a zero Agent still
// serialises; UnmarshalText rejects it.
func (r Role) MarshalText() ([]byte, error) {
	switch r {
	case RoleAgente, RoleMesa:
		return []byte(r.String()), nil
	}
	return []byte{}, nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// Schedule holds the four "HH:MM" local wall-clock bounds of an agent's day.
type Schedule struct {
	WorkStart  string `json:"work_start"`
	WorkEnd    string `json:"work_end"`
	LunchStart string `json:"lunch_start"`
	LunchEnd   string `json:"lunch_end"`
}

type Agent struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Schedule Schedule `json:"schedule"`
	Active   bool     `json:"active"`
	Role     Role     `json:"role"`
	// Available is derived from the task set on every load and never persisted.
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
}

func New(name, email string, schedule Schedule, role Role, active bool) Agent {
	return Agent{
		Name:      name,
		Email:     email,
		Schedule:  schedule,
		Active:    active,
		Role:      role,
		Available: true,
		CreatedAt: time.Now().UTC(),
	}
}

type ListFilters struct {
	Role   *Role
	Active *bool
}

func (f ListFilters) Matches(a Agent) bool {
	if f.Role != nil && a.Role != *f.Role {
		return false
	}
	if f.Active != nil && a.Active != *f.Active {
		return false
	}
	return true
}
