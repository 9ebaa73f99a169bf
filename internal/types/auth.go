package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the actor role carried in access tokens.
type Role string

// Roles.
const (
	RoleAdmin     Role = "admin"
	RoleRMG       Role = "rmg"
	RoleHR        Role = "hr"
	RoleCandidate Role = "candidate"
)

// ParseRole validates a role string.
func ParseRole(raw string) (Role, error) {
	switch r := Role(raw); r {
	case RoleAdmin, RoleRMG, RoleHR, RoleCandidate:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", raw)
	}
}

// Principal is the authenticated actor of a request.
type Principal struct {
	UserID uuid.UUID
	Role   Role
}

// User is a staff member (admin, requester or recruiter).
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}
