package proto

import (
	"time"

	"github.com/mundesk/mundesk/pkg/access"
)

// PrivilegedUser is a directory record granting an elevated role.
type PrivilegedUser struct {
	ID            string      `json:"id"`
	Email         string      `json:"email"`
	Role          access.Role `json:"role"`
	FullName      string      `json:"full_name"`
	IsActive      bool        `json:"is_active"`
	CommitteeID   string      `json:"committee_id,omitempty"`
	CommitteeRole access.Role `json:"committee_role,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// UserOptions are the mutable fields of a privileged user. Nil fields are
// left unchanged on edit.
type UserOptions struct {
	Role          *access.Role
	FullName      *string
	IsActive      *bool
	CommitteeID   *string
	CommitteeRole *access.Role
}
